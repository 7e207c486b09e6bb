package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllow(t *testing.T) {
	t.Run("allows up to the limit then starts cooldown", func(t *testing.T) {
		l := NewMessageRateLimiter(3, time.Minute, time.Hour)
		defer l.Close()

		for i := 0; i < 3; i++ {
			assert.True(t, l.Allow("u1"), "message %d should pass", i+1)
		}
		assert.False(t, l.Allow("u1"))

		// Cooldown boyunca her deneme reddedilir
		assert.False(t, l.Allow("u1"))
	})

	t.Run("users are isolated", func(t *testing.T) {
		l := NewMessageRateLimiter(1, time.Minute, time.Hour)
		defer l.Close()

		assert.True(t, l.Allow("u1"))
		assert.False(t, l.Allow("u1"))
		assert.True(t, l.Allow("u2"))
	})

	t.Run("window reset allows again", func(t *testing.T) {
		l := NewMessageRateLimiter(1, 20*time.Millisecond, 10*time.Millisecond)
		defer l.Close()

		assert.True(t, l.Allow("u1"))
		assert.False(t, l.Allow("u1"))

		// Cooldown ve pencere geçtikten sonra tekrar izin verilir
		time.Sleep(40 * time.Millisecond)
		assert.True(t, l.Allow("u1"))
	})
}
