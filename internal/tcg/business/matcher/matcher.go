// Package matcher pairs local inventory rows with upstream listings of the same
// product variant (identity, language and foil).
package matcher

import (
	"strings"

	"tcgsearch_api/internal/tcg/business/lang"
	"tcgsearch_api/internal/tcg/models"
)

// VariantKey identifies one (product, language, foil) combination.
type VariantKey struct {
	ProductID string
	Language  lang.Tag
	IsFoil    bool
}

func Key(l models.Listing) VariantKey {
	return VariantKey{
		ProductID: strings.TrimSpace(l.ProductID),
		Language:  lang.Normalize(string(l.Language)),
		IsFoil:    l.IsFoil,
	}
}

// RowKey returns the variant key of an inventory row, false when it has no upstream identity.
func RowKey(row models.InventoryRow) (VariantKey, bool) {
	id, ok := row.UpstreamID()
	if !ok {
		return VariantKey{}, false
	}
	return VariantKey{ProductID: id, Language: lang.Normalize(row.Language), IsFoil: row.IsFoil}, true
}

// Match returns the first candidate of the row's exact variant. Upstream may return
// several documents for one product id, so id equality alone is not enough.
func Match(row models.InventoryRow, candidates []models.Listing) (models.Listing, bool) {
	want, ok := RowKey(row)
	if !ok {
		return models.Listing{}, false
	}
	for _, c := range candidates {
		if Key(c) == want {
			return c, true
		}
	}
	return models.Listing{}, false
}
