package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"grouporder/internal/models"
	"grouporder/internal/storage"
)

const groupOrderColumns = `id, leader_id, name, start_time, end_time, stored_status,
	delivery_fee, idempotency_token, external_order_id, external_transaction_id,
	created_at, updated_at`

// CreateGroupOrder persists a new group order, filling in ID and timestamps
// when unset.
func (s *SQLiteStore) CreateGroupOrder(ctx context.Context, order *models.GroupOrder) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if order.CreatedAt == 0 {
		order.CreatedAt = now
	}
	order.UpdatedAt = now
	if order.StoredStatus == "" {
		order.StoredStatus = models.GroupOrderOpen
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO group_orders (`+groupOrderColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID, order.LeaderID, order.Name, order.StartTime, order.EndTime,
		string(order.StoredStatus), order.DeliveryFee, order.IdempotencyToken,
		order.ExternalOrderID, order.ExternalTransactionID,
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert group order: %w", err)
	}
	return nil
}

// GetGroupOrder retrieves a group order by ID.
func (s *SQLiteStore) GetGroupOrder(ctx context.Context, id string) (*models.GroupOrder, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+groupOrderColumns+` FROM group_orders WHERE id = ?`, id)
	return scanGroupOrder(row)
}

// ListGroupOrdersByLeader retrieves all group orders owned by a leader, newest first.
func (s *SQLiteStore) ListGroupOrdersByLeader(ctx context.Context, leaderID string) ([]*models.GroupOrder, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+groupOrderColumns+` FROM group_orders
		 WHERE leader_id = ? ORDER BY created_at DESC`, leaderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list group orders: %w", err)
	}
	defer rows.Close()

	var orders []*models.GroupOrder
	for rows.Next() {
		order, err := scanGroupOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate group orders: %w", err)
	}
	return orders, nil
}

// UpdateGroupOrderStatus transitions stored_status from "from" to "to" as a
// single compare-and-set. A zero-row update means the guard failed: either the
// order is gone (ErrNotFound) or another writer got there first (ErrConflict).
func (s *SQLiteStore) UpdateGroupOrderStatus(ctx context.Context, id string, from, to models.GroupOrderStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE group_orders SET stored_status = ?, updated_at = ?
		 WHERE id = ? AND stored_status = ?`,
		string(to), time.Now().Unix(), id, string(from),
	)
	if err != nil {
		return fmt.Errorf("failed to update group order status: %w", err)
	}
	return s.casResult(ctx, res, id)
}

// MarkGroupOrderSubmitted freezes the order for backend delivery and records
// the idempotency token for the submission cycle in the same write.
func (s *SQLiteStore) MarkGroupOrderSubmitted(ctx context.Context, id, idempotencyToken string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE group_orders SET stored_status = ?, idempotency_token = ?, updated_at = ?
		 WHERE id = ? AND stored_status = ?`,
		string(models.GroupOrderSubmitted), idempotencyToken, time.Now().Unix(),
		id, string(models.GroupOrderOpen),
	)
	if err != nil {
		return fmt.Errorf("failed to mark group order submitted: %w", err)
	}
	return s.casResult(ctx, res, id)
}

// CompleteGroupOrder records backend acceptance: status and external ids land
// in one statement so a completed order without its external id cannot exist.
func (s *SQLiteStore) CompleteGroupOrder(ctx context.Context, id, externalOrderID, externalTransactionID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE group_orders
		 SET stored_status = ?, external_order_id = ?, external_transaction_id = ?, updated_at = ?
		 WHERE id = ? AND stored_status = ?`,
		string(models.GroupOrderCompleted), externalOrderID, externalTransactionID,
		time.Now().Unix(), id, string(models.GroupOrderSubmitted),
	)
	if err != nil {
		return fmt.Errorf("failed to complete group order: %w", err)
	}
	return s.casResult(ctx, res, id)
}

// casResult distinguishes a failed guard from a missing row after a
// compare-and-set update touched zero rows.
func (s *SQLiteStore) casResult(ctx context.Context, res sql.Result, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}
	var exists int
	err = s.db.QueryRowContext(ctx, "SELECT 1 FROM group_orders WHERE id = ?", id).Scan(&exists)
	if err == sql.ErrNoRows {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check group order existence: %w", err)
	}
	return storage.ErrConflict
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGroupOrder(row rowScanner) (*models.GroupOrder, error) {
	order := &models.GroupOrder{}
	var status string
	err := row.Scan(
		&order.ID, &order.LeaderID, &order.Name, &order.StartTime, &order.EndTime,
		&status, &order.DeliveryFee, &order.IdempotencyToken,
		&order.ExternalOrderID, &order.ExternalTransactionID,
		&order.CreatedAt, &order.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan group order: %w", err)
	}
	order.StoredStatus = models.GroupOrderStatus(status)
	return order, nil
}
