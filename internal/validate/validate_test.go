package validate

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"grouporder/internal/models"
)

func snapshot(entries map[string][]string) *models.StockSnapshot {
	snap := &models.StockSnapshot{
		FetchedAt:  time.Now().Unix(),
		Categories: make(map[string]map[string]models.StockEntry),
	}
	for category, codes := range entries {
		snap.Categories[category] = make(map[string]models.StockEntry)
		for _, code := range codes {
			snap.Categories[category][code] = models.StockEntry{InStock: true, Price: 1.0}
		}
	}
	return snap
}

func TestMutation(t *testing.T) {
	base := time.Date(2025, 6, 2, 11, 0, 0, 0, time.UTC)
	order := &models.GroupOrder{
		StoredStatus: models.GroupOrderOpen,
		StartTime:    base.Unix(),
		EndTime:      base.Add(2 * time.Hour).Unix(),
	}

	if err := Mutation(order, base.Add(time.Hour)); err != nil {
		t.Fatalf("Mutation inside window failed: %v", err)
	}

	err := Mutation(order, base.Add(3*time.Hour))
	var notMod *NotModifiableError
	if !errors.As(err, &notMod) {
		t.Fatalf("expected NotModifiableError, got %v", err)
	}
	if notMod.Effective != models.GroupOrderExpired {
		t.Errorf("Effective = %v, want expired", notMod.Effective)
	}
}

func TestAvailabilityCollectsAllMisses(t *testing.T) {
	snap := snapshot(map[string][]string{
		models.CategorySizes:      {"large"},
		models.CategoryComponents: {"chicken"},
		models.CategorySauces:     {"mild"},
		models.CategoryDrinks:     {"water"},
	})

	bag := models.ItemBag{
		SchemaVersion: models.ItemBagSchemaVersion,
		Composites: []models.CompositeItem{
			{
				Size:       "large",
				Components: []string{"chicken"},
				// Both sauces are out of stock; both must be reported.
				Modifiers: []string{"garlic", "hot"},
				Quantity:  1,
			},
		},
		Simple: map[string][]models.SimpleItem{
			models.CategoryDrinks: {{Code: "cola", Quantity: 2}},
		},
	}

	err := Availability([]models.ItemBag{bag}, snap)
	var oos *OutOfStockError
	if !errors.As(err, &oos) {
		t.Fatalf("expected OutOfStockError, got %v", err)
	}
	want := []string{"drinks/cola", "sauces/garlic", "sauces/hot"}
	if !reflect.DeepEqual(oos.Codes, want) {
		t.Errorf("Codes = %v, want %v", oos.Codes, want)
	}
}

func TestAvailabilityOK(t *testing.T) {
	snap := snapshot(map[string][]string{
		models.CategorySizes:      {"small"},
		models.CategoryComponents: {"falafel"},
		models.CategoryDrinks:     {"water"},
	})
	bags := []models.ItemBag{
		{
			Composites: []models.CompositeItem{{Size: "small", Components: []string{"falafel"}, Quantity: 1}},
		},
		{
			Simple: map[string][]models.SimpleItem{models.CategoryDrinks: {{Code: "water", Quantity: 1}}},
		},
	}
	if err := Availability(bags, snap); err != nil {
		t.Fatalf("Availability failed: %v", err)
	}
}

func TestNormalizeBagMergesDuplicates(t *testing.T) {
	bag := models.ItemBag{
		Composites: []models.CompositeItem{
			{Size: "large", Components: []string{"chicken", "falafel"}, Quantity: 1, Note: "first"},
			// Same identity, permuted set and different note.
			{Size: "Large", Components: []string{"falafel", "chicken"}, Quantity: 2, Note: "second"},
			{Size: "small", Components: []string{"chicken"}, Quantity: 1},
		},
		Simple: map[string][]models.SimpleItem{
			models.CategoryDrinks: {
				{Code: "cola", Quantity: 1},
				{Code: "Cola", Quantity: 2},
			},
		},
	}

	got := NormalizeBag(bag)

	if got.SchemaVersion != models.ItemBagSchemaVersion {
		t.Errorf("SchemaVersion = %d, want %d", got.SchemaVersion, models.ItemBagSchemaVersion)
	}
	if len(got.Composites) != 2 {
		t.Fatalf("composites = %d, want 2", len(got.Composites))
	}
	if got.Composites[0].Quantity != 3 {
		t.Errorf("merged quantity = %d, want 3", got.Composites[0].Quantity)
	}
	if got.Composites[0].Note != "second" {
		t.Errorf("merged note = %q, want later note to win", got.Composites[0].Note)
	}
	drinks := got.Simple[models.CategoryDrinks]
	if len(drinks) != 1 || drinks[0].Quantity != 3 {
		t.Errorf("drinks = %+v, want single cola line with quantity 3", drinks)
	}
}

func TestNormalizeBagCanonicalizesCodes(t *testing.T) {
	snap := snapshot(map[string][]string{
		models.CategorySizes:      {"large"},
		models.CategoryComponents: {"chicken"},
		models.CategoryDrinks:     {"cola"},
	})

	bag := models.ItemBag{
		Composites: []models.CompositeItem{
			{Size: "Large", Components: []string{" Chicken"}, Quantity: 1},
		},
		Simple: map[string][]models.SimpleItem{
			models.CategoryDrinks: {
				{Code: "COLA", Quantity: 1},
				{Code: " cola ", Quantity: 2},
			},
		},
	}

	got := NormalizeBag(bag)

	if got.Composites[0].Size != "large" || got.Composites[0].Components[0] != "chicken" {
		t.Errorf("composite = %+v, want canonical lowercase codes", got.Composites[0])
	}
	drinks := got.Simple[models.CategoryDrinks]
	if len(drinks) != 1 || drinks[0].Code != "cola" || drinks[0].Quantity != 3 {
		t.Errorf("drinks = %+v, want one cola line with quantity 3", drinks)
	}

	// The merged bag must pass the availability check against a snapshot that
	// only knows the canonical spellings.
	if err := Availability([]models.ItemBag{got}, snap); err != nil {
		t.Errorf("Availability of normalized bag failed: %v", err)
	}
}

func TestNormalizeBagMergesCategoryCasings(t *testing.T) {
	bag := models.ItemBag{
		Simple: map[string][]models.SimpleItem{
			"Drinks": {{Code: "cola", Quantity: 1}},
			"drinks": {{Code: "cola", Quantity: 2}},
		},
	}
	got := NormalizeBag(bag)
	if len(got.Simple) != 1 {
		t.Fatalf("categories = %d, want 1", len(got.Simple))
	}
	drinks := got.Simple[models.CategoryDrinks]
	if len(drinks) != 1 || drinks[0].Quantity != 3 {
		t.Errorf("drinks = %+v, want one merged line with quantity 3", drinks)
	}
}

func TestNormalizeBagDefaultsQuantity(t *testing.T) {
	bag := models.ItemBag{
		Composites: []models.CompositeItem{{Size: "small", Components: []string{"chicken"}}},
	}
	got := NormalizeBag(bag)
	if got.Composites[0].Quantity != 1 {
		t.Errorf("quantity = %d, want default 1", got.Composites[0].Quantity)
	}
}
