// Package api exposes the ordering system over a JSON HTTP API. Handlers
// decode requests, delegate to the service layer and translate its error
// taxonomy into statuses; they hold no business rules of their own.
package api

import (
	"net/http"

	"grouporder/internal/backend"
	"grouporder/internal/middleware"
	"grouporder/internal/models"
	"grouporder/internal/service"
)

// Handler bundles the services behind the HTTP surface.
type Handler struct {
	auth         *service.AuthService
	groups       *service.GroupOrderService
	participants *service.ParticipantOrderService
}

// NewHandler wires the HTTP surface to the service layer.
func NewHandler(auth *service.AuthService, groups *service.GroupOrderService, participants *service.ParticipantOrderService) *Handler {
	return &Handler{auth: auth, groups: groups, participants: participants}
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		DisplayName string `json:"display_name"`
		Password    string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	user, token, err := h.auth.Register(r.Context(), req.Email, req.DisplayName, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAuthResponse(user, token))
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	user, token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAuthResponse(user, token))
}

func (h *Handler) createGroupOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string  `json:"name"`
		StartTime   int64   `json:"start_time"`
		EndTime     int64   `json:"end_time"`
		DeliveryFee float64 `json:"delivery_fee"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	order, err := h.groups.Create(r.Context(), middleware.GetUserID(r.Context()), req.Name, req.StartTime, req.EndTime, req.DeliveryFee)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGroupOrderResponse(order, order.StoredStatus))
}

func (h *Handler) listGroupOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.groups.ListByLeader(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	resp := make([]groupOrderResponse, 0, len(orders))
	for _, order := range orders {
		resp = append(resp, toGroupOrderResponse(order, h.groups.EffectiveStatus(order)))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) getGroupOrder(w http.ResponseWriter, r *http.Request) {
	order, effective, err := h.groups.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroupOrderResponse(order, effective))
}

func (h *Handler) closeGroupOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.groups.Close(r.Context(), r.PathValue("id"), middleware.GetUserID(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	h.getGroupOrder(w, r)
}

func (h *Handler) reopenGroupOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.groups.Reopen(r.Context(), r.PathValue("id"), middleware.GetUserID(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	h.getGroupOrder(w, r)
}

func (h *Handler) finalizeGroupOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.groups.Finalize(r.Context(), r.PathValue("id"), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroupOrderResponse(order, order.StoredStatus))
}

func (h *Handler) submitGroupOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Delivery backend.DeliveryDetails `json:"delivery"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	order, err := h.groups.SubmitToBackend(r.Context(), r.PathValue("id"), middleware.GetUserID(r.Context()), req.Delivery)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroupOrderResponse(order, order.StoredStatus))
}

func (h *Handler) upsertParticipantOrder(w http.ResponseWriter, r *http.Request) {
	// Participants only ever write their own basket.
	callerID := middleware.GetUserID(r.Context())
	if r.PathValue("participant_id") != callerID {
		writeError(w, service.ErrUnauthorized)
		return
	}
	var req struct {
		Items  models.ItemBag                `json:"items"`
		Status models.ParticipantOrderStatus `json:"status"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	// An omitted status defaults to draft in the service.
	if req.Status != "" && req.Status != models.ParticipantOrderDraft && req.Status != models.ParticipantOrderSubmitted {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "status must be draft or submitted"})
		return
	}
	order, err := h.participants.Upsert(r.Context(), r.PathValue("id"), callerID, req.Items, req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toParticipantOrderResponse(order))
}

func (h *Handler) getParticipantOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.participants.Get(r.Context(), r.PathValue("id"), r.PathValue("participant_id"), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toParticipantOrderResponse(order))
}

func (h *Handler) listParticipantOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.participants.List(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	resp := make([]participantOrderResponse, 0, len(orders))
	for _, order := range orders {
		resp = append(resp, toParticipantOrderResponse(order))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) deleteParticipantOrder(w http.ResponseWriter, r *http.Request) {
	err := h.participants.Delete(r.Context(), r.PathValue("id"), r.PathValue("participant_id"), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setParticipantStatus(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.GetUserID(r.Context())
	if r.PathValue("participant_id") != callerID {
		writeError(w, service.ErrUnauthorized)
		return
	}
	var req struct {
		Status models.ParticipantOrderStatus `json:"status"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Status != models.ParticipantOrderDraft && req.Status != models.ParticipantOrderSubmitted {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "status must be draft or submitted"})
		return
	}
	if err := h.participants.SetStatus(r.Context(), r.PathValue("id"), callerID, req.Status); err != nil {
		writeError(w, err)
		return
	}
	h.getParticipantOrder(w, r)
}

func (h *Handler) setPaymentFlag(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Paid bool `json:"paid"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	err := h.participants.SetPaymentFlag(r.Context(), r.PathValue("id"), r.PathValue("participant_id"), middleware.GetUserID(r.Context()), req.Paid)
	if err != nil {
		writeError(w, err)
		return
	}
	h.getParticipantOrder(w, r)
}

func (h *Handler) setReimbursementFlag(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reimbursed bool `json:"reimbursed"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	err := h.participants.SetReimbursementFlag(r.Context(), r.PathValue("id"), r.PathValue("participant_id"), middleware.GetUserID(r.Context()), req.Reimbursed)
	if err != nil {
		writeError(w, err)
		return
	}
	h.getParticipantOrder(w, r)
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
