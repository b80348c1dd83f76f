package models

// ParticipantOrderStatus is the state of one participant's basket.
type ParticipantOrderStatus string

const (
	// ParticipantOrderDraft is a work-in-progress basket; drafts are excluded
	// from the shipped external basket.
	ParticipantOrderDraft ParticipantOrderStatus = "draft"
	// ParticipantOrderSubmitted marks the basket as final from the
	// participant's point of view.
	ParticipantOrderSubmitted ParticipantOrderStatus = "submitted"
)

// ParticipantOrder is one participant's personal basket inside a group order.
// Identity is the composite key (GroupOrderID, ParticipantID); there is at most
// one per participant per group.
type ParticipantOrder struct {
	// GroupOrderID is the owning group order.
	GroupOrderID string

	// ParticipantID is the user who owns this basket.
	ParticipantID string

	// Items is the versioned bag of line items.
	Items ItemBag

	// Status is draft or submitted.
	Status ParticipantOrderStatus

	// Paid records that the participant settled their share with the leader.
	// PaidBy/PaidAt identify who flipped the flag and when (Unix seconds).
	Paid   bool
	PaidBy string
	PaidAt int64

	// Reimbursed records that the leader settled money back to the participant
	// (e.g. the group collected too much). Leader-only flag; independent of the
	// group order's own status.
	Reimbursed   bool
	ReimbursedBy string
	ReimbursedAt int64

	// CreatedAt and UpdatedAt are Unix timestamps maintained by the store.
	CreatedAt int64
	UpdatedAt int64
}
