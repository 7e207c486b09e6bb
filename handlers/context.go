// Package handlers, HTTP endpoint'lerini barındırır.
//
// Thin handler prensibi: Parse → Service → Response.
// İş mantığı service katmanındadır; handler sadece HTTP çevirisi yapar.
package handlers

import (
	"net/http"

	"github.com/gulfreturn/pulse/models"
	"github.com/gulfreturn/pulse/pkg"
)

// contextKey, context.WithValue için özel tip.
// string yerine özel tip kullanılır — başka paketlerin key'leriyle
// çakışma olmaz.
type contextKey string

// UserContextKey, auth middleware'ın context'e koyduğu kullanıcının key'i.
const UserContextKey contextKey = "user"

// currentUser, context'teki authenticated kullanıcıyı döner.
// Middleware'dan geçmemiş bir route'ta çağrılırsa 401 yazar ve false döner.
func currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return nil, false
	}
	return user, true
}
