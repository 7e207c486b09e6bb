// Package services — AuthService: access token doğrulama.
//
// Bu servis token ÜRETMEZ. Kayıt/login harici kimlik servisinde yapılır;
// oradan gelen JWT'ler burada aynı HMAC secret ile doğrulanır.
// Hem REST middleware'i hem WebSocket handshake'i bu servisi kullanır.
package services

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gulfreturn/pulse/models"
	"github.com/gulfreturn/pulse/pkg"
)

// AuthService, token doğrulama için public interface.
type AuthService interface {
	// ValidateAccessToken, JWT imzasını ve süresini doğrular, claims döner.
	// Geçersiz/süresi dolmuş token'da pkg.ErrUnauthorized döner.
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
}

// authService, AuthService'in private implementasyonu.
type authService struct {
	jwtSecret []byte
}

// NewAuthService, constructor.
func NewAuthService(jwtSecret string) AuthService {
	return &authService{jwtSecret: []byte(jwtSecret)}
}

// ValidateAccessToken, JWT imzasını ve süresini doğrular.
func (s *authService) ValidateAccessToken(tokenString string) (*models.TokenClaims, error) {
	claims := &models.TokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		// alg kontrolü: sadece HMAC kabul edilir.
		// "alg: none" veya RS256 ile imzalanmış sahte token'lar reddedilir.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: invalid token", pkg.ErrUnauthorized)
	}
	if !token.Valid {
		return nil, fmt.Errorf("%w: invalid token", pkg.ErrUnauthorized)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: token missing user_id", pkg.ErrUnauthorized)
	}

	return claims, nil
}
