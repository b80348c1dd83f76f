// Package validate gates participant-order mutations and checks line items
// against a fresh stock snapshot.
package validate

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"grouporder/internal/identity"
	"grouporder/internal/models"
	"grouporder/internal/status"
)

// NotModifiableError rejects a mutation attempted outside the open window.
// Effective carries the status computed for "now" so the caller can explain
// why the edit was refused.
type NotModifiableError struct {
	Effective models.GroupOrderStatus
}

func (e *NotModifiableError) Error() string {
	return fmt.Sprintf("group order is not modifiable (status %s)", e.Effective)
}

// OutOfStockError carries the complete list of unavailable codes, never just
// the first miss. Codes are category-qualified ("sauces/garlic"), sorted and
// deduplicated.
type OutOfStockError struct {
	Codes []string
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("items out of stock: %s", strings.Join(e.Codes, ", "))
}

// Mutation decides whether participant baskets of the group order may change
// right now. Returns *NotModifiableError otherwise.
func Mutation(order *models.GroupOrder, now time.Time) error {
	if !status.CanAcceptMutations(order, now) {
		return &NotModifiableError{Effective: status.Effective(order, now)}
	}
	return nil
}

// Availability walks every line item of every bag, composite sizes and all
// three sub-selection sets as well as simple category items, and collects
// every code that is missing or out of stock in the snapshot. It never fails
// fast: the caller gets the full list in one pass.
func Availability(bags []models.ItemBag, snapshot *models.StockSnapshot) error {
	missing := make(map[string]struct{})

	mark := func(category, code string) {
		if !snapshot.Available(category, code) {
			missing[category+"/"+code] = struct{}{}
		}
	}

	for _, bag := range bags {
		for _, item := range bag.Composites {
			mark(models.CategorySizes, item.Size)
			for _, code := range item.Components {
				mark(models.CategoryComponents, code)
			}
			for _, code := range item.Modifiers {
				mark(models.CategorySauces, code)
			}
			for _, code := range item.Toppings {
				mark(models.CategoryToppings, code)
			}
		}
		for category, items := range bag.Simple {
			for _, item := range items {
				mark(category, item.Code)
			}
		}
	}

	if len(missing) == 0 {
		return nil
	}
	codes := make([]string, 0, len(missing))
	for code := range missing {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return &OutOfStockError{Codes: codes}
}

// NormalizeBag merges duplicate lines by their deterministic identity so safe
// client retries and re-submitted edits never produce duplicate lines.
// Every code and category key is rewritten to its canonical form (lowercase,
// trimmed), so storage, the availability check and the shipped basket all see
// the same spelling the identity hashes over. Quantities of merged lines are
// summed; for composites with equal identity the last note wins. Line order
// within the bag is the order of first appearance, which keeps the
// normalization deterministic.
func NormalizeBag(bag models.ItemBag) models.ItemBag {
	normalized := models.ItemBag{SchemaVersion: models.ItemBagSchemaVersion}

	byID := make(map[string]int)
	for _, item := range bag.Composites {
		item.Size = identity.NormalizeCode(item.Size)
		item.Components = identity.NormalizeSet(item.Components)
		item.Modifiers = identity.NormalizeSet(item.Modifiers)
		item.Toppings = identity.NormalizeSet(item.Toppings)
		if item.Quantity <= 0 {
			item.Quantity = 1
		}
		id := identity.Composite(item)
		if i, ok := byID[id]; ok {
			normalized.Composites[i].Quantity += item.Quantity
			if item.Note != "" {
				normalized.Composites[i].Note = item.Note
			}
			continue
		}
		byID[id] = len(normalized.Composites)
		normalized.Composites = append(normalized.Composites, item)
	}

	// Raw category keys may collapse onto the same canonical key, so walk them
	// in sorted order to keep the merge deterministic.
	rawCategories := make([]string, 0, len(bag.Simple))
	for category := range bag.Simple {
		rawCategories = append(rawCategories, category)
	}
	sort.Strings(rawCategories)

	seen := make(map[string]map[string]int)
	for _, raw := range rawCategories {
		category := identity.NormalizeCode(raw)
		if seen[category] == nil {
			seen[category] = make(map[string]int)
		}
		for _, item := range bag.Simple[raw] {
			item.Code = identity.NormalizeCode(item.Code)
			if item.Quantity <= 0 {
				item.Quantity = 1
			}
			id := identity.Simple(category, item)
			if i, ok := seen[category][id]; ok {
				normalized.Simple[category][i].Quantity += item.Quantity
				continue
			}
			if normalized.Simple == nil {
				normalized.Simple = make(map[string][]models.SimpleItem)
			}
			seen[category][id] = len(normalized.Simple[category])
			normalized.Simple[category] = append(normalized.Simple[category], item)
		}
	}

	return normalized
}
