package models

// ItemBagSchemaVersion is the current encoding version for stored item bags.
// Decoders reject unknown versions instead of guessing at the shape.
const ItemBagSchemaVersion = 1

// Stock categories used by composite sub-selections. Simple items carry their
// own category key in the bag.
const (
	CategorySizes      = "sizes"
	CategoryComponents = "components"
	CategorySauces     = "sauces"
	CategoryToppings   = "toppings"
	CategoryDrinks     = "drinks"
	CategorySides      = "sides"
	CategoryDesserts   = "desserts"
)

// CompositeItem is a configurable meal: a size selector plus three unordered
// selection sets. Its identity is derived from the normalized content (see the
// identity package), never assigned.
type CompositeItem struct {
	// Size is the size/category selector code (e.g. "large").
	Size string `json:"size"`

	// Components, Modifiers and Toppings are unordered selection sets of item
	// codes. Order carries no meaning; two items with the same sets (in any
	// order) are the same item.
	Components []string `json:"components"`
	Modifiers  []string `json:"modifiers"`
	Toppings   []string `json:"toppings"`

	// Note is free text for the kitchen. It does not participate in identity.
	Note string `json:"note,omitempty"`

	// Quantity is how many of this exact configuration the participant wants.
	Quantity int `json:"quantity"`
}

// SimpleItem is a plain quantity line within one category (drinks, sides, ...).
type SimpleItem struct {
	Code     string `json:"code"`
	Quantity int    `json:"quantity"`
}

// ItemBag holds every line item of a participant order. It round-trips through
// storage as a versioned JSON document.
type ItemBag struct {
	SchemaVersion int                     `json:"schema_version"`
	Composites    []CompositeItem         `json:"composites,omitempty"`
	Simple        map[string][]SimpleItem `json:"simple,omitempty"`
}

// Empty reports whether the bag contains no line items across all categories.
func (b ItemBag) Empty() bool {
	if len(b.Composites) > 0 {
		return false
	}
	for _, items := range b.Simple {
		if len(items) > 0 {
			return false
		}
	}
	return true
}
