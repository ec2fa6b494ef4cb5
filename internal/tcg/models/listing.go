package models

import (
	"encoding/json"
	"strconv"
	"strings"

	"tcgsearch_api/internal/tcg/business/currency"
	"tcgsearch_api/internal/tcg/business/lang"
)

type SourceTag string

const (
	SourceUpstream SourceTag = "upstream"
	SourceLocal    SourceTag = "local"
)

// RawDocument is one upstream search document as decoded, numbers kept as json.Number.
type RawDocument map[string]any

// String returns the trimmed textual form of a field, "" when absent or null.
func (d RawDocument) String(key string) string {
	v, ok := d[key]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// Listing is the canonical, source-agnostic product record.
type Listing struct {
	ProductID      string    `json:"productId"`
	CardName       string    `json:"cardName"`
	TitleLine      string    `json:"titleLine"`
	ExpansionCode  string    `json:"expansionCode"`
	CardNumber     string    `json:"cardNumber"`
	SetName        *string   `json:"setName"`
	Language       lang.Tag  `json:"language"`
	IsFoil         bool      `json:"isFoil"`
	PriceMinor     int64     `json:"priceMinor"`
	PriceDisplay   string    `json:"price"`
	StockCount     int       `json:"stockCount"`
	ImageURL       string    `json:"imageUrl"`
	DetailURL      string    `json:"detailUrl"`
	MetadataBadges []string  `json:"metadataBadges"`
	Source         SourceTag `json:"sourceTag"`
}

// InventoryRow is a locally held inventory entity. Its lifecycle belongs to the
// inventory collaborator; search only reads it and may rewrite its price.
type InventoryRow struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	ProductID  *string `json:"productId"`
	Language   string  `json:"language"`
	IsFoil     bool    `json:"isFoil"`
	PriceMinor int64   `json:"priceMinor"`
	StockCount int     `json:"stockCount"`
	ImageURL   string  `json:"imageUrl"`
	SetName    string  `json:"setName"`
}

// UpstreamID returns the trimmed upstream identity and whether there is one.
func (r InventoryRow) UpstreamID() (string, bool) {
	if r.ProductID == nil {
		return "", false
	}
	id := strings.TrimSpace(*r.ProductID)
	return id, id != ""
}

func (r InventoryRow) Listing(currencyCode string) Listing {
	id, _ := r.UpstreamID()
	price := r.PriceMinor
	if price < 0 {
		price = 0
	}

	l := Listing{
		ProductID:      id,
		CardName:       r.Name,
		TitleLine:      r.Name,
		Language:       lang.Normalize(r.Language),
		IsFoil:         r.IsFoil,
		PriceMinor:     price,
		PriceDisplay:   currency.Format(price, currencyCode),
		StockCount:     r.StockCount,
		ImageURL:       r.ImageURL,
		MetadataBadges: []string{},
		Source:         SourceLocal,
	}
	if set := strings.TrimSpace(r.SetName); set != "" {
		l.SetName = &set
		l.TitleLine = r.Name + " (" + set + ")"
	}
	if r.IsFoil {
		l.MetadataBadges = append(l.MetadataBadges, "Foil")
	}
	return l
}

type PriceUpdate struct {
	ID         int64 `json:"id"`
	PriceMinor int64 `json:"priceMinor"`
}

type PageRequest struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

type PageResult struct {
	Items      []Listing `json:"items"`
	TotalItems int       `json:"totalItems"`
	TotalPages int       `json:"totalPages"`
}
