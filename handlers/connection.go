// Package handlers — ConnectionHandler: bağlantı grafı HTTP endpoint'leri.
//
// Route'lar (init_routes.go'da bağlanır):
//
//	GET    /api/connections                    → ListConnections
//	GET    /api/connections/requests           → ListRequests (incoming + outgoing)
//	POST   /api/connections/requests           → SendRequest
//	POST   /api/connections/requests/{id}      → Respond (accept/reject)
//	DELETE /api/connections/{id}               → Remove
//	GET    /api/connections/blocked            → ListBlocked
//	POST   /api/connections/block/{userId}     → Block
//	DELETE /api/connections/block/{userId}     → Unblock
//	GET    /api/connections/suggestions        → Suggestions
//	GET    /api/connections/status/{userId}    → PairStatus
//	GET    /api/connections/mutual/{userId}    → Mutual
//	GET    /api/connections/stats              → Stats
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gulfreturn/pulse/models"
	"github.com/gulfreturn/pulse/pkg"
	"github.com/gulfreturn/pulse/services"
)

// ConnectionHandler, bağlantı endpoint'lerini yöneten struct.
type ConnectionHandler struct {
	connService services.ConnectionService
}

// NewConnectionHandler, constructor.
func NewConnectionHandler(connService services.ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{connService: connService}
}

// ListConnections godoc
// GET /api/connections
func (h *ConnectionHandler) ListConnections(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	connections, err := h.connService.ListConnections(r.Context(), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, connections)
}

// ListRequests godoc
// GET /api/connections/requests
// Response: { incoming: [...], outgoing: [...] }
func (h *ConnectionHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	requests, err := h.connService.ListRequests(r.Context(), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, requests)
}

// SendRequest godoc
// POST /api/connections/requests
// Body: { "receiver_id": "...", "connection_type": "standard", "message": "..." }
func (h *ConnectionHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.SendConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	conn, err := h.connService.SendRequest(r.Context(), user.ID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, conn)
}

// Respond godoc
// POST /api/connections/requests/{id}
// Body: { "action": "accept" } veya { "action": "reject" }
func (h *ConnectionHandler) Respond(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.RespondConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	conn, err := h.connService.Respond(r.Context(), user.ID, r.PathValue("id"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, conn)
}

// Remove godoc
// DELETE /api/connections/{id}
func (h *ConnectionHandler) Remove(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.connService.Remove(r.Context(), user.ID, r.PathValue("id")); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "connection removed"})
}

// ListBlocked godoc
// GET /api/connections/blocked
func (h *ConnectionHandler) ListBlocked(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	blocked, err := h.connService.ListBlocked(r.Context(), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, blocked)
}

// Block godoc
// POST /api/connections/block/{userId}
func (h *ConnectionHandler) Block(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	blocked, err := h.connService.Block(r.Context(), user.ID, r.PathValue("userId"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, blocked)
}

// Unblock godoc
// DELETE /api/connections/block/{userId}
func (h *ConnectionHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.connService.Unblock(r.Context(), user.ID, r.PathValue("userId")); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "user unblocked"})
}

// Suggestions godoc
// GET /api/connections/suggestions?limit=10
func (h *ConnectionHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	suggestions, err := h.connService.Suggestions(r.Context(), user.ID, limit)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, suggestions)
}

// PairStatus godoc
// GET /api/connections/status/{userId}
func (h *ConnectionHandler) PairStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	status, err := h.connService.PairStatus(r.Context(), user.ID, r.PathValue("userId"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, status)
}

// Mutual godoc
// GET /api/connections/mutual/{userId}?limit=20
func (h *ConnectionHandler) Mutual(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	otherID := r.PathValue("userId")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	count, err := h.connService.MutualCount(r.Context(), user.ID, otherID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	mutual, err := h.connService.MutualConnections(r.Context(), user.ID, otherID, limit)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]any{
		"mutual_count":       count,
		"mutual_connections": mutual,
	})
}

// Stats godoc
// GET /api/connections/stats
func (h *ConnectionHandler) Stats(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	stats, err := h.connService.Stats(r.Context(), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, stats)
}
