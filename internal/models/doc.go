// Package models defines the core domain model for the group ordering service.
//
// # Models
//
//   - GroupOrder: a time-boxed shared ordering session owned by a leader
//   - ParticipantOrder: one participant's personal basket inside a group order
//   - ItemBag: the versioned collection of line items on a participant order
//   - CompositeItem: a configurable meal (size plus unordered sub-selections)
//   - SimpleItem: a plain code+quantity line (drinks, sides, desserts)
//   - StockSnapshot: point-in-time availability of menu item codes
//   - User: a registered account (leader or participant)
//
// # Design principles
//
//  1. The stored group-order status never contains "expired"; expiry is derived
//     from the time window on every read (see the status package), so the audit
//     trail keeps "leader closed" and "time ran out" distinguishable.
//  2. Item bags are stored as a versioned document; SchemaVersion gates decoding
//     so the item shape can evolve without silently corrupting old rows.
//  3. Relationships use ID strings, never pointers, to avoid circular references.
package models
