// Package normalize turns raw upstream search documents into canonical listings.
package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"tcgsearch_api/internal/tcg/business/currency"
	"tcgsearch_api/internal/tcg/business/lang"
	"tcgsearch_api/internal/tcg/models"
	"tcgsearch_api/pkg/business/service"
)

// Upstream document keys.
const (
	FieldProduct   = "product"
	FieldCardName  = "card_name"
	FieldNameEN    = "product_name_en"
	FieldName      = "product_name"
	FieldFoil      = "foil_flg"
	FieldLanguage  = "language"
	FieldPrice     = "price"
	FieldStock     = "stock"
	FieldImageURL  = "image_url"
	FieldDetailURL = "detail_url"
)

const (
	BadgeFoil        = "Foil"
	BadgeRetro       = "Retro"
	BadgeSerialized  = "Serializada"
	BadgeConsignment = "Consignment Item"
	retroFoilToken   = "RetroF"
	serialToken      = "(serial number)"
)

var (
	codeNumberRe = regexp.MustCompile(`\(\s*([A-Za-z0-9]+)\s*-\s*(\d+)\s*\)`)
	numberOnlyRe = regexp.MustCompile(`\(\s*(\d+)\s*\)`)
	setRe        = regexp.MustCompile(`\[([^\]]+)\]`)
	squareRe     = regexp.MustCompile(`■[^■]*■`)
	lenticularRe = regexp.MustCompile(`【[^】]*】`)
)

// whole-word badges checked against the English name, in output order
var nameBadges = []struct {
	needle string
	badge  string
}{
	{"Borderless", "Borderless"},
	{"Extended Art", "Extended Art"},
	{"Prerelease", "Prerelease"},
	{"Premier Play", "Premier Play"},
	{"Consignment", BadgeConsignment},
	{"Retro", BadgeRetro},
	{serialToken, BadgeSerialized},
}

type Normalizer struct {
	converter    *currency.Converter
	currencyCode string
	text         service.ITextService
}

func NewNormalizer(converter *currency.Converter, currencyCode string) *Normalizer {
	if converter == nil {
		converter = currency.NewConverter(currency.DefaultRate)
	}
	return &Normalizer{
		converter:    converter,
		currencyCode: currencyCode,
		text:         service.NewTextService(),
	}
}

// Normalize is total: missing or malformed fields degrade to zero values.
func (n *Normalizer) Normalize(doc models.RawDocument) models.Listing {
	nameEN := n.text.RemoveTags(doc.String(FieldNameEN))
	rawName := n.text.RemoveTags(doc.String(FieldCardName))
	if rawName == "" {
		rawName = nameEN
	}
	if rawName == "" {
		rawName = n.text.RemoveTags(doc.String(FieldName))
	}

	cardName := n.CleanName(rawName)
	code, number := n.ExtractCodeNumber(nameEN)
	setName := n.ExtractSet(nameEN)
	isFoil := parseBool(doc.String(FieldFoil))

	badgeSource := nameEN
	if badgeSource == "" {
		badgeSource = rawName
	}

	upstreamPrice := parseCount(doc.String(FieldPrice))
	priceMinor := currency.ToMinor(n.converter.ToLocal(upstreamPrice))

	listing := models.Listing{
		ProductID:      doc.String(FieldProduct),
		CardName:       cardName,
		TitleLine:      BuildTitle(cardName, code, number, setName),
		ExpansionCode:  code,
		CardNumber:     number,
		Language:       lang.Normalize(doc.String(FieldLanguage)),
		IsFoil:         isFoil,
		PriceMinor:     priceMinor,
		PriceDisplay:   currency.Format(priceMinor, n.currencyCode),
		StockCount:     int(parseCount(doc.String(FieldStock))),
		ImageURL:       doc.String(FieldImageURL),
		DetailURL:      doc.String(FieldDetailURL),
		MetadataBadges: n.Badges(badgeSource, isFoil, rawName, doc.String(FieldName)),
		Source:         models.SourceUpstream,
	}
	if setName != "" {
		listing.SetName = &setName
	}
	return listing
}

// CleanName strips marketing tokens and bracketed metadata and collapses whitespace.
func (n *Normalizer) CleanName(raw string) string {
	s := n.text.RemoveTokens(raw, "BRO-Retro", "Retro", serialToken)
	s = n.text.RemovePatterns(s, codeNumberRe, numberOnlyRe, setRe, squareRe, lenticularRe)
	return n.text.CollapseSpaces(s)
}

// ExtractCodeNumber prefers "(CODE-NUMBER)" and falls back to a lone "(NUMBER)".
func (n *Normalizer) ExtractCodeNumber(nameEN string) (code, number string) {
	if m := codeNumberRe.FindStringSubmatch(nameEN); m != nil {
		return m[1], m[2]
	}
	if m := numberOnlyRe.FindStringSubmatch(nameEN); m != nil {
		return "", m[1]
	}
	return "", ""
}

func (n *Normalizer) ExtractSet(nameEN string) string {
	m := setRe.FindStringSubmatch(nameEN)
	if m == nil {
		return ""
	}
	s := n.text.RemoveTokens(m[1], "BRO-Retro", "Retro", serialToken)
	return n.text.TrimTrailingDash(n.text.CollapseSpaces(s))
}

// BuildTitle picks the most specific of the supported title shapes.
func BuildTitle(name, code, number, set string) string {
	switch {
	case code != "" && number != "":
		return name + " (" + code + " - " + number + ")"
	case set != "" && number != "":
		return name + " (" + set + " - " + number + ")"
	case set != "":
		return name + " (" + set + ")"
	case code != "":
		return name + " (" + code + ")"
	default:
		return name
	}
}

// Badges returns the ordered, deduplicated badge list. Delimited tokens are read from
// every extra text field in order.
func (n *Normalizer) Badges(nameEN string, isFoil bool, extra ...string) []string {
	badges := newBadgeSet()
	if isFoil {
		badges.add(BadgeFoil)
	}

	for _, nb := range nameBadges {
		if n.text.ContainsToken(nameEN, nb.needle) {
			badges.add(nb.badge)
		}
	}

	for _, text := range append([]string{nameEN}, extra...) {
		for _, token := range n.text.Delimited(text, "■", "■") {
			badges.add(token)
		}
		for _, token := range n.text.Delimited(text, "【", "】") {
			badges.add(token)
		}
	}
	return badges.list()
}

type badgeSet struct {
	seen  map[string]struct{}
	order []string
}

func newBadgeSet() *badgeSet {
	return &badgeSet{seen: make(map[string]struct{}), order: []string{}}
}

func (b *badgeSet) add(badge string) {
	if badge == "" {
		return
	}
	if badge == retroFoilToken {
		if _, ok := b.seen[BadgeRetro]; ok {
			return
		}
	}
	if _, ok := b.seen[badge]; ok {
		return
	}
	b.seen[badge] = struct{}{}
	b.order = append(b.order, badge)
}

func (b *badgeSet) list() []string {
	return b.order
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "y", "on", "foil":
		return true
	}
	return false
}

// parseCount reads a non-negative integer, tolerating thousands separators and decimals.
func parseCount(raw string) int64 {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if s == "" {
		return 0
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		if v < 0 {
			return 0
		}
		return v
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || f != f {
		return 0
	}
	if f > 1<<62 {
		return 0
	}
	return int64(f)
}
