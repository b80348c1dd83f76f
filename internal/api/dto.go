package api

import "grouporder/internal/models"

// groupOrderResponse is the wire shape of a group order. Status is the
// effective status for "now", never the raw stored one, so clients see
// "expired" for an open order whose window ran out.
type groupOrderResponse struct {
	ID                    string  `json:"id"`
	LeaderID              string  `json:"leader_id"`
	Name                  string  `json:"name"`
	StartTime             int64   `json:"start_time"`
	EndTime               int64   `json:"end_time"`
	Status                string  `json:"status"`
	DeliveryFee           float64 `json:"delivery_fee"`
	ExternalOrderID       string  `json:"external_order_id,omitempty"`
	ExternalTransactionID string  `json:"external_transaction_id,omitempty"`
	CreatedAt             int64   `json:"created_at"`
	UpdatedAt             int64   `json:"updated_at"`
}

func toGroupOrderResponse(order *models.GroupOrder, effective models.GroupOrderStatus) groupOrderResponse {
	return groupOrderResponse{
		ID:                    order.ID,
		LeaderID:              order.LeaderID,
		Name:                  order.Name,
		StartTime:             order.StartTime,
		EndTime:               order.EndTime,
		Status:                string(effective),
		DeliveryFee:           order.DeliveryFee,
		ExternalOrderID:       order.ExternalOrderID,
		ExternalTransactionID: order.ExternalTransactionID,
		CreatedAt:             order.CreatedAt,
		UpdatedAt:             order.UpdatedAt,
	}
}

type participantOrderResponse struct {
	GroupOrderID  string         `json:"group_order_id"`
	ParticipantID string         `json:"participant_id"`
	Items         models.ItemBag `json:"items"`
	Status        string         `json:"status"`
	Paid          bool           `json:"paid"`
	PaidBy        string         `json:"paid_by,omitempty"`
	PaidAt        int64          `json:"paid_at,omitempty"`
	Reimbursed    bool           `json:"reimbursed"`
	ReimbursedBy  string         `json:"reimbursed_by,omitempty"`
	ReimbursedAt  int64          `json:"reimbursed_at,omitempty"`
	CreatedAt     int64          `json:"created_at"`
	UpdatedAt     int64          `json:"updated_at"`
}

func toParticipantOrderResponse(order *models.ParticipantOrder) participantOrderResponse {
	return participantOrderResponse{
		GroupOrderID:  order.GroupOrderID,
		ParticipantID: order.ParticipantID,
		Items:         order.Items,
		Status:        string(order.Status),
		Paid:          order.Paid,
		PaidBy:        order.PaidBy,
		PaidAt:        order.PaidAt,
		Reimbursed:    order.Reimbursed,
		ReimbursedBy:  order.ReimbursedBy,
		ReimbursedAt:  order.ReimbursedAt,
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
	}
}

type userResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

type authResponse struct {
	User  userResponse `json:"user"`
	Token string       `json:"token"`
}

func toAuthResponse(user *models.User, token string) authResponse {
	return authResponse{
		User: userResponse{
			ID:          user.ID,
			Email:       user.Email,
			DisplayName: user.DisplayName,
		},
		Token: token,
	}
}
