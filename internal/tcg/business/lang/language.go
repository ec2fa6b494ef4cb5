// Package lang maps every language spelling seen in the inventory and upstream
// documents onto one canonical tag.
package lang

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type Tag string

const (
	English    Tag = "ENGLISH"
	Japanese   Tag = "JAPANESE"
	Spanish    Tag = "SPANISH"
	French     Tag = "FRENCH"
	German     Tag = "GERMAN"
	Italian    Tag = "ITALIAN"
	Portuguese Tag = "PORTUGUESE"
	Russian    Tag = "RUSSIAN"
	Korean     Tag = "KOREAN"
	Chinese    Tag = "CHINESE"
)

func (t Tag) String() string {
	return string(t)
}

// aliases holds raw spellings; keys are folded once in init.
var aliases = map[Tag][]string{
	English:    {"en", "eng", "en-us", "en-gb", "english", "inglês", "ingles", "英語", "영어", "2"},
	Japanese:   {"ja", "jp", "jpn", "japanese", "japonês", "japones", "日本語", "日本", "일본어", "1"},
	Spanish:    {"es", "sp", "esp", "spa", "spanish", "español", "espanhol", "スペイン語", "9"},
	French:     {"fr", "fra", "fre", "french", "français", "francês", "フランス語", "7"},
	German:     {"de", "ger", "deu", "german", "deutsch", "alemão", "ドイツ語", "6"},
	Italian:    {"it", "ita", "italian", "italiano", "イタリア語", "8"},
	Portuguese: {"pt", "pt-br", "br", "por", "portuguese", "português", "ポルトガル語", "10"},
	Russian:    {"ru", "rus", "russian", "russo", "русский", "ロシア語", "11"},
	Korean:     {"ko", "kr", "kor", "korean", "coreano", "한국어", "韓国語", "5"},
	Chinese: {
		"zh", "cn", "chi", "zho", "chs", "cht", "tw", "zh-cn", "zh-tw", "zh-hans", "zh-hant",
		"chinese", "chinês", "simplified chinese", "traditional chinese", "chinese simplified",
		"chinese traditional", "chinês simplificado", "chinês tradicional",
		"中文", "简体中文", "繁體中文", "中国語", "簡体中国語", "繁体中国語", "3", "4",
	},
}

var (
	table  map[string]Tag
	folder = cases.Fold()
)

func init() {
	table = make(map[string]Tag)
	for tag, spellings := range aliases {
		table[fold(string(tag))] = tag
		for _, s := range spellings {
			table[fold(s)] = tag
		}
	}
}

// fold lower-cases, strips diacritics and unifies separators.
func fold(raw string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, raw)
	if err != nil {
		stripped = raw
	}
	s := folder.String(strings.TrimSpace(stripped))
	s = strings.ReplaceAll(s, "_", "-")
	return strings.Join(strings.Fields(s), " ")
}

// Normalize never fails: empty or unknown input is English.
func Normalize(raw string) Tag {
	key := fold(raw)
	if key == "" {
		return English
	}
	if tag, ok := table[key]; ok {
		return tag
	}
	if parsed, err := language.Parse(key); err == nil {
		base, _ := parsed.Base()
		if tag, ok := table[base.String()]; ok {
			return tag
		}
	}
	return English
}

// Same reports whether two raw values denote the same language.
func Same(a, b string) bool {
	return Normalize(a) == Normalize(b)
}
