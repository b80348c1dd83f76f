// Package identity derives stable identifiers for line items from their
// normalized content. Two items with equal normalized content always hash to
// the same id regardless of input ordering, which makes the id usable both as
// a display identifier and as an idempotency key: re-submitting the same
// logical edit twice never creates a duplicate line.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"

	"grouporder/internal/models"
)

// canonicalComposite is the normalized record a composite item hashes over.
// Field order is fixed by the struct definition, so encoding/json produces a
// deterministic byte sequence. Note and quantity deliberately do not
// participate: two items differing only by free text or count are the same
// line and merge on upsert.
type canonicalComposite struct {
	Size       string   `json:"size"`
	Components []string `json:"components"`
	Modifiers  []string `json:"modifiers"`
	Toppings   []string `json:"toppings"`
}

type canonicalSimple struct {
	Category string `json:"category"`
	Code     string `json:"code"`
}

// Composite returns the stable id of a configured composite item.
func Composite(item models.CompositeItem) string {
	record := canonicalComposite{
		Size:       NormalizeCode(item.Size),
		Components: NormalizeSet(item.Components),
		Modifiers:  NormalizeSet(item.Modifiers),
		Toppings:   NormalizeSet(item.Toppings),
	}
	return digest(record)
}

// Simple returns the stable id of a plain quantity item within a category.
func Simple(category string, item models.SimpleItem) string {
	record := canonicalSimple{
		Category: NormalizeCode(category),
		Code:     NormalizeCode(item.Code),
	}
	return digest(record)
}

func digest(record any) string {
	// Marshal of a struct with fixed field order is deterministic.
	raw, err := json.Marshal(record)
	if err != nil {
		// Only reachable for unmarshalable types, which the canonical records
		// are not.
		panic(err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// NormalizeSet lowercases, trims and lexicographically sorts a selection set
// so permutations of the same codes normalize identically. The input slice is
// not modified. A nil set and an empty set are the same selection.
func NormalizeSet(codes []string) []string {
	normalized := make([]string, 0, len(codes))
	for _, code := range codes {
		normalized = append(normalized, NormalizeCode(code))
	}
	sort.Strings(normalized)
	return normalized
}

// NormalizeCode is the canonical form of a single stock code or category key.
// Everything that stores, compares or ships a code works on this form.
func NormalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
