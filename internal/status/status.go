// Package status computes the effective lifecycle state of a group order.
//
// The stored status never contains "expired": expiry is derived from the time
// window on every read. Both functions are pure; callers must invoke them
// immediately before each authorization decision and never cache the result
// across a request boundary, because "now" changes the answer.
package status

import (
	"time"

	"grouporder/internal/models"
)

// Effective resolves the stored status against the current time.
//
// Priority order, first match wins:
//  1. submitted/completed are terminal and returned unchanged
//  2. a manual close is sticky
//  3. an open order past its end time is expired
//  4. otherwise the order is open
func Effective(order *models.GroupOrder, now time.Time) models.GroupOrderStatus {
	switch order.StoredStatus {
	case models.GroupOrderSubmitted, models.GroupOrderCompleted:
		return order.StoredStatus
	case models.GroupOrderClosed:
		return models.GroupOrderClosed
	}
	if now.Unix() > order.EndTime {
		return models.GroupOrderExpired
	}
	return models.GroupOrderOpen
}

// CanAcceptMutations reports whether participant baskets may change right now.
// This is the single source of truth for the time check; callers must not
// reimplement the window comparison themselves.
func CanAcceptMutations(order *models.GroupOrder, now time.Time) bool {
	if Effective(order, now) != models.GroupOrderOpen {
		return false
	}
	ts := now.Unix()
	return ts >= order.StartTime && ts <= order.EndTime
}
