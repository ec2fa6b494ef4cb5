package matcher

import (
	"testing"

	"tcgsearch_api/internal/tcg/business/lang"
	"tcgsearch_api/internal/tcg/models"
)

func strPtr(s string) *string { return &s }

func TestMatchPicksExactVariant(t *testing.T) {
	row := models.InventoryRow{ID: 1, ProductID: strPtr("100"), Language: "JP", IsFoil: true}
	candidates := []models.Listing{
		{ProductID: "100", Language: lang.English, IsFoil: true, PriceMinor: 1},
		{ProductID: "100", Language: lang.Japanese, IsFoil: false, PriceMinor: 2},
		{ProductID: "100", Language: lang.Japanese, IsFoil: true, PriceMinor: 3},
		{ProductID: "100", Language: lang.Japanese, IsFoil: true, PriceMinor: 4},
	}
	got, ok := Match(row, candidates)
	if !ok || got.PriceMinor != 3 {
		t.Fatalf("expected first exact variant, got %+v ok=%v", got, ok)
	}
}

func TestMatchFoilMismatchIsNoMatch(t *testing.T) {
	row := models.InventoryRow{ProductID: strPtr("100"), Language: "EN", IsFoil: true}
	candidates := []models.Listing{{ProductID: "100", Language: lang.English, IsFoil: false}}
	if _, ok := Match(row, candidates); ok {
		t.Fatal("foil flags differ, expected no match")
	}
}

func TestMatchIdentityIsLexical(t *testing.T) {
	row := models.InventoryRow{ProductID: strPtr("0100"), Language: "EN"}
	candidates := []models.Listing{{ProductID: "100", Language: lang.English}}
	if _, ok := Match(row, candidates); ok {
		t.Fatal("0100 and 100 are different identities")
	}
}

func TestMatchWithoutIdentity(t *testing.T) {
	row := models.InventoryRow{Language: "EN"}
	candidates := []models.Listing{{ProductID: "", Language: lang.English}}
	if _, ok := Match(row, candidates); ok {
		t.Fatal("rows without upstream identity never match")
	}
}

func TestMatchLanguageSpellings(t *testing.T) {
	row := models.InventoryRow{ProductID: strPtr(" 7 "), Language: "Português"}
	candidates := []models.Listing{{ProductID: "7", Language: lang.Portuguese}}
	if _, ok := Match(row, candidates); !ok {
		t.Fatal("expected match across language spellings")
	}
}
