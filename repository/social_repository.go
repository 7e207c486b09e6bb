// Package repository — SocialRepository interface.
//
// Kullanıcı listeleri (yakın arkadaşlar, sessize alınanlar, kısıtlılar).
// Engelleme akışında çift bu listelerden karşılıklı temizlenir.
package repository

import (
	"context"

	"github.com/gulfreturn/pulse/models"
)

// Liste tipleri — user_lists.list_type değerleri.
const (
	ListCloseFriends = "close_friends"
	ListMuted        = "muted"
	ListRestricted   = "restricted"
)

// SocialRepository, kullanıcı listeleri için interface.
type SocialRepository interface {
	// AddToList, hedef kullanıcıyı listeye ekler. Zaten ekliyse no-op.
	AddToList(ctx context.Context, ownerID, targetID, listType string) error

	// RemoveFromList, hedef kullanıcıyı listeden çıkarır.
	RemoveFromList(ctx context.Context, ownerID, targetID, listType string) error

	// ListMembers, listedeki kullanıcıları döner.
	ListMembers(ctx context.Context, ownerID, listType string) ([]models.UserSummary, error)

	// RemoveFromAllLists, iki kullanıcıyı birbirinin TÜM listelerinden
	// karşılıklı çıkarır. Engelleme akışında çağrılır.
	RemoveFromAllLists(ctx context.Context, userA, userB string) error
}
