package models

import "github.com/golang-jwt/jwt/v5"

// TokenClaims, access token'ın payload'u.
// Token'lar kimlik servisi tarafından imzalanır; burada sadece doğrulanır.
// jwt.RegisteredClaims: exp, iat, sub gibi standart alanları sağlar.
type TokenClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}
