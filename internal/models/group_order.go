package models

// GroupOrderStatus is the lifecycle state of a group order.
type GroupOrderStatus string

const (
	// GroupOrderOpen accepts participant mutations while the window is running.
	GroupOrderOpen GroupOrderStatus = "open"
	// GroupOrderClosed was manually closed by the leader; sticky, never auto-reopens.
	GroupOrderClosed GroupOrderStatus = "closed"
	// GroupOrderSubmitted is frozen for backend delivery; participant edits are blocked.
	GroupOrderSubmitted GroupOrderStatus = "submitted"
	// GroupOrderCompleted means the external backend accepted the aggregate order.
	GroupOrderCompleted GroupOrderStatus = "completed"
	// GroupOrderExpired is derived only (stored status stays "open"); the window
	// ran out before the leader acted. It is never persisted.
	GroupOrderExpired GroupOrderStatus = "expired"
)

// GroupOrder represents a shared, time-boxed ordering session owned by a leader.
type GroupOrder struct {
	// ID is the unique identifier for the group order (UUID format).
	ID string

	// LeaderID is the user who owns the session and drives submission.
	LeaderID string

	// Name is an optional display name (e.g. "Friday lunch").
	Name string

	// StartTime and EndTime bound the ordering window (Unix seconds).
	// Invariant: StartTime < EndTime.
	StartTime int64
	EndTime   int64

	// StoredStatus is the persisted lifecycle state. It is one of open, closed,
	// submitted, completed; never expired. Callers must go through the status
	// package to obtain the effective status for "now".
	StoredStatus GroupOrderStatus

	// DeliveryFee is an optional flat fee added to the external basket.
	DeliveryFee float64

	// IdempotencyToken is minted once when the leader finalizes and reused on
	// every backend submission retry, so the external system can de-duplicate.
	IdempotencyToken string

	// ExternalOrderID and ExternalTransactionID are recorded when the external
	// backend accepts the aggregate order. Set together with the completed
	// status in a single write.
	ExternalOrderID       string
	ExternalTransactionID string

	// CreatedAt and UpdatedAt are Unix timestamps maintained by the store.
	CreatedAt int64
	UpdatedAt int64
}
