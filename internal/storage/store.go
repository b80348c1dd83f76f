// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"grouporder/internal/models"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a guarded status update lost the race: the
	// stored status no longer matches the expected value. Callers retry the
	// whole operation from a fresh read, never the same write.
	ErrConflict = errors.New("concurrent modification")
)

// Store defines the persistence seam for group orders, participant orders and
// user accounts. Authorization is the caller's responsibility; the store only
// enforces data-shape invariants (one participant order per (group,
// participant), lossless item-bag round-trips, guarded status transitions).
type Store interface {
	// CreateGroupOrder persists a new group order. ID and timestamps are
	// populated by the store when unset.
	CreateGroupOrder(ctx context.Context, order *models.GroupOrder) error

	// GetGroupOrder retrieves a group order by ID.
	GetGroupOrder(ctx context.Context, id string) (*models.GroupOrder, error)

	// ListGroupOrdersByLeader retrieves all group orders owned by a leader,
	// newest first.
	ListGroupOrdersByLeader(ctx context.Context, leaderID string) ([]*models.GroupOrder, error)

	// UpdateGroupOrderStatus transitions the stored status from "from" to "to"
	// as a single compare-and-set. Returns ErrConflict if the stored status
	// was not "from".
	UpdateGroupOrderStatus(ctx context.Context, id string, from, to models.GroupOrderStatus) error

	// MarkGroupOrderSubmitted is the open→submitted compare-and-set that also
	// records the idempotency token for the submission cycle, in one write.
	MarkGroupOrderSubmitted(ctx context.Context, id, idempotencyToken string) error

	// CompleteGroupOrder is the submitted→completed compare-and-set that also
	// records the external order and transaction identifiers. Status and
	// external ids land in a single statement so a completed order without its
	// external id cannot exist.
	CompleteGroupOrder(ctx context.Context, id, externalOrderID, externalTransactionID string) error

	// UpsertParticipantOrder creates or replaces the one participant order for
	// (order.GroupOrderID, order.ParticipantID).
	UpsertParticipantOrder(ctx context.Context, order *models.ParticipantOrder) error

	// GetParticipantOrder retrieves one participant's order within a group.
	GetParticipantOrder(ctx context.Context, groupOrderID, participantID string) (*models.ParticipantOrder, error)

	// ListParticipantOrders retrieves every participant order of a group.
	ListParticipantOrders(ctx context.Context, groupOrderID string) ([]*models.ParticipantOrder, error)

	// DeleteParticipantOrder removes one participant's order.
	DeleteParticipantOrder(ctx context.Context, groupOrderID, participantID string) error

	// UpdateParticipantStatus sets the draft/submitted flag on a participant order.
	UpdateParticipantStatus(ctx context.Context, groupOrderID, participantID string, st models.ParticipantOrderStatus) error

	// SetPaymentFlag records whether the participant paid their share.
	SetPaymentFlag(ctx context.Context, groupOrderID, participantID string, paid bool, by string, at int64) error

	// SetReimbursementFlag records whether the leader reimbursed the participant.
	SetReimbursementFlag(ctx context.Context, groupOrderID, participantID string, reimbursed bool, by string, at int64) error

	// CreateUser inserts a new user account.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail retrieves a user by email; returns (nil, nil) when absent.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves a user by ID; returns (nil, nil) when absent.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// Close releases any resources held by the store.
	Close() error
}
