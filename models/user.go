// Package models, domain nesnelerini ve request/response tiplerini tanımlar.
// Bu katman hiçbir başka katmana bağımlı değildir (pkg hariç) —
// repository, service ve handler katmanlarının ortak dilidir.
package models

import "time"

// User, kullanıcı profili.
// Kayıt/login bu serviste yapılmaz — kimlik servisi kullanıcıyı oluşturur,
// burada profil ve presence bilgisi tutulur.
type User struct {
	ID         string     `json:"id"`
	Username   string     `json:"username"`
	FullName   string     `json:"full_name"`
	AvatarURL  string     `json:"avatar_url,omitempty"`
	Bio        string     `json:"bio,omitempty"`
	IsVerified bool       `json:"is_verified"`
	IsOnline   bool       `json:"is_online"`
	LastSeen   *time.Time `json:"last_seen,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// UserSummary, başka nesnelerin içine gömülen kısaltılmış kullanıcı bilgisi.
// Bağlantı listelerinde ve mesajlarda tam profil yerine bu döner.
type UserSummary struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	FullName   string `json:"full_name"`
	AvatarURL  string `json:"avatar_url,omitempty"`
	IsVerified bool   `json:"is_verified"`
	IsOnline   bool   `json:"is_online"`
}

// Summary, User'dan UserSummary üretir.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:         u.ID,
		Username:   u.Username,
		FullName:   u.FullName,
		AvatarURL:  u.AvatarURL,
		IsVerified: u.IsVerified,
		IsOnline:   u.IsOnline,
	}
}
