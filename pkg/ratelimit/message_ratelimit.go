// Package ratelimit — Mesaj spam koruması için kullanıcı bazlı rate limiting.
//
// Tasarım:
// - window içinde maxMessages mesaja izin verilir.
// - Limit aşıldığında cooldown başlar → cooldown boyunca tüm mesajlar reddedilir.
// - Cooldown bitince pencere sıfırlanır, kullanıcı tekrar mesaj atabilir.
//
// Key userID'dir (IP değil) — mesaj endpoint'leri authenticated'dır.
package ratelimit

import (
	"sync"
	"time"
)

// messageBucket, bir kullanıcı için mesaj sayacı ve cooldown bilgisi tutar.
//
// İki durumlu:
// 1. Normal mod: count artırılır, windowStart bazlı pencere kontrolü.
// 2. Cooldown mod: cooldownUntil > now → tüm mesajlar reddedilir.
type messageBucket struct {
	count         int
	windowStart   time.Time
	cooldownUntil time.Time // zero value = cooldown yok
}

// MessageRateLimiter, kullanıcı bazlı mesaj spam koruması.
//
// Kullanım:
//
//	limiter := ratelimit.NewMessageRateLimiter(5, 5*time.Second, 15*time.Second)
//	// Message handler'da:
//	if !limiter.Allow(userID) { return 429 }
type MessageRateLimiter struct {
	mu          sync.Mutex
	buckets     map[string]*messageBucket
	maxMessages int
	window      time.Duration
	cooldown    time.Duration
	stopCleanup chan struct{}
}

// NewMessageRateLimiter, yeni mesaj rate limiter oluşturur ve arka plan
// temizleme goroutine'ini başlatır.
func NewMessageRateLimiter(maxMessages int, window, cooldown time.Duration) *MessageRateLimiter {
	l := &MessageRateLimiter{
		buckets:     make(map[string]*messageBucket),
		maxMessages: maxMessages,
		window:      window,
		cooldown:    cooldown,
		stopCleanup: make(chan struct{}),
	}

	go l.cleanupLoop()
	return l
}

// Allow, kullanıcının mesaj gönderip gönderemeyeceğini kontrol eder.
// İzin veriliyorsa sayacı artırır ve true döner.
func (l *MessageRateLimiter) Allow(userID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b, ok := l.buckets[userID]
	if !ok {
		l.buckets[userID] = &messageBucket{count: 1, windowStart: now}
		return true
	}

	// Cooldown aktifse reddet
	if now.Before(b.cooldownUntil) {
		return false
	}

	// Pencere süresi geçtiyse sıfırla
	if now.Sub(b.windowStart) > l.window {
		b.count = 1
		b.windowStart = now
		b.cooldownUntil = time.Time{}
		return true
	}

	b.count++
	if b.count > l.maxMessages {
		// Limit aşıldı — cooldown başlat
		b.cooldownUntil = now.Add(l.cooldown)
		return false
	}

	return true
}

// cleanupLoop, eskimiş bucket'ları periyodik olarak temizler.
// Bucket sayısı kullanıcı sayısıyla sınırlı ama disconnect olan
// kullanıcıların girdileri sonsuza kadar kalmasın.
func (l *MessageRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.mu.Lock()
			now := time.Now()
			for userID, b := range l.buckets {
				if now.Sub(b.windowStart) > l.window && now.After(b.cooldownUntil) {
					delete(l.buckets, userID)
				}
			}
			l.mu.Unlock()
		case <-l.stopCleanup:
			return
		}
	}
}

// Close, temizleme goroutine'ini durdurur.
func (l *MessageRateLimiter) Close() {
	close(l.stopCleanup)
}
