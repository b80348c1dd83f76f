package identity

import (
	"testing"

	"grouporder/internal/models"
)

func TestCompositeIsPermutationInvariant(t *testing.T) {
	a := models.CompositeItem{
		Size:       "large",
		Components: []string{"chicken", "falafel"},
		Modifiers:  []string{"garlic", "hot"},
		Toppings:   []string{"onion", "cabbage"},
		Quantity:   1,
	}
	b := models.CompositeItem{
		Size:       "large",
		Components: []string{"falafel", "chicken"},
		Modifiers:  []string{"hot", "garlic"},
		Toppings:   []string{"cabbage", "onion"},
		Quantity:   1,
	}

	if Composite(a) != Composite(b) {
		t.Error("expected identical ids for permuted selection sets")
	}
}

func TestCompositeSensitivity(t *testing.T) {
	base := models.CompositeItem{
		Size:       "large",
		Components: []string{"chicken"},
		Modifiers:  []string{"garlic"},
		Toppings:   []string{"onion"},
	}

	tests := []struct {
		name   string
		mutate func(models.CompositeItem) models.CompositeItem
		same   bool
	}{
		{
			name: "changing a component code changes the id",
			mutate: func(it models.CompositeItem) models.CompositeItem {
				it.Components = []string{"falafel"}
				return it
			},
		},
		{
			name: "changing the size changes the id",
			mutate: func(it models.CompositeItem) models.CompositeItem {
				it.Size = "small"
				return it
			},
		},
		{
			name: "adding a topping changes the id",
			mutate: func(it models.CompositeItem) models.CompositeItem {
				it.Toppings = []string{"onion", "cabbage"}
				return it
			},
		},
		{
			name: "note does not participate in identity",
			mutate: func(it models.CompositeItem) models.CompositeItem {
				it.Note = "extra crispy please"
				return it
			},
			same: true,
		},
		{
			name: "quantity does not participate in identity",
			mutate: func(it models.CompositeItem) models.CompositeItem {
				it.Quantity = 3
				return it
			},
			same: true,
		},
		{
			name: "codes are compared case- and space-insensitively",
			mutate: func(it models.CompositeItem) models.CompositeItem {
				it.Components = []string{"  Chicken "}
				return it
			},
			same: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Composite(tt.mutate(base)) == Composite(base)
			if got != tt.same {
				t.Errorf("identity equality = %v, want %v", got, tt.same)
			}
		})
	}
}

func TestSimple(t *testing.T) {
	cola := models.SimpleItem{Code: "cola", Quantity: 2}

	if Simple(models.CategoryDrinks, cola) != Simple(models.CategoryDrinks, models.SimpleItem{Code: "Cola", Quantity: 5}) {
		t.Error("expected quantity and case to be excluded from identity")
	}
	if Simple(models.CategoryDrinks, cola) == Simple(models.CategorySides, cola) {
		t.Error("expected the same code in different categories to differ")
	}
	if Simple(models.CategoryDrinks, cola) == Simple(models.CategoryDrinks, models.SimpleItem{Code: "fanta"}) {
		t.Error("expected different codes to differ")
	}
}

func TestCompositeAndSimpleNeverCollide(t *testing.T) {
	// A composite with no selections and a simple item share no canonical shape.
	composite := models.CompositeItem{Size: "cola"}
	simple := models.SimpleItem{Code: "cola"}
	if Composite(composite) == Simple("cola", simple) {
		t.Error("composite and simple canonical records must not collide")
	}
}
