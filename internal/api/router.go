package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"grouporder/internal/auth"
	"grouporder/internal/middleware"
)

// NewRouter builds the full route table. Everything below /api/v1 except the
// auth endpoints requires a valid session token.
func NewRouter(h *Handler, jwtManager *auth.JWTManager) *http.ServeMux {
	mux := http.NewServeMux()
	protect := middleware.RequireAuth(jwtManager)
	authed := func(handler http.HandlerFunc) http.Handler {
		return protect(handler)
	}

	mux.HandleFunc("GET /healthz", healthz)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/v1/auth/register", h.register)
	mux.HandleFunc("POST /api/v1/auth/login", h.login)

	mux.Handle("POST /api/v1/group-orders", authed(h.createGroupOrder))
	mux.Handle("GET /api/v1/group-orders", authed(h.listGroupOrders))
	mux.Handle("GET /api/v1/group-orders/{id}", authed(h.getGroupOrder))
	mux.Handle("POST /api/v1/group-orders/{id}/close", authed(h.closeGroupOrder))
	mux.Handle("POST /api/v1/group-orders/{id}/reopen", authed(h.reopenGroupOrder))
	mux.Handle("POST /api/v1/group-orders/{id}/finalize", authed(h.finalizeGroupOrder))
	mux.Handle("POST /api/v1/group-orders/{id}/submit", authed(h.submitGroupOrder))

	mux.Handle("GET /api/v1/group-orders/{id}/participants", authed(h.listParticipantOrders))
	mux.Handle("PUT /api/v1/group-orders/{id}/participants/{participant_id}", authed(h.upsertParticipantOrder))
	mux.Handle("GET /api/v1/group-orders/{id}/participants/{participant_id}", authed(h.getParticipantOrder))
	mux.Handle("DELETE /api/v1/group-orders/{id}/participants/{participant_id}", authed(h.deleteParticipantOrder))
	mux.Handle("POST /api/v1/group-orders/{id}/participants/{participant_id}/status", authed(h.setParticipantStatus))
	mux.Handle("POST /api/v1/group-orders/{id}/participants/{participant_id}/payment", authed(h.setPaymentFlag))
	mux.Handle("POST /api/v1/group-orders/{id}/participants/{participant_id}/reimbursement", authed(h.setReimbursementFlag))

	return mux
}
