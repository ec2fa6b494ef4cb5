package lang

import "testing"

func TestNormalizeKnownSpellings(t *testing.T) {
	cases := map[string]Tag{
		"EN":                  English,
		" english ":           English,
		"Inglês":              English,
		"2":                   English,
		"JP":                  Japanese,
		"ja":                  Japanese,
		"日本語":                 Japanese,
		"Japonês":             Japanese,
		"1":                   Japanese,
		"Español":             Spanish,
		"ESPANOL":             Spanish,
		"fr":                  French,
		"Français":            French,
		"de":                  German,
		"Alemão":              German,
		"it":                  Italian,
		"pt_BR":               Portuguese,
		"PT-BR":               Portuguese,
		"Português":           Portuguese,
		"10":                  Portuguese,
		"Русский":             Russian,
		"11":                  Russian,
		"한국어":                 Korean,
		"KR":                  Korean,
		"中文":                  Chinese,
		"Traditional Chinese": Chinese,
		"4":                   Chinese,
		"zh-Hant-TW":          Chinese,
		"en-AU":               English,
	}
	for raw, want := range cases {
		if got := Normalize(raw); got != want {
			t.Errorf("Normalize(%q) = %s, want %s", raw, got, want)
		}
	}
}

func TestNormalizeUnknownDefaultsToEnglish(t *testing.T) {
	for _, raw := range []string{"", "   ", "klingon", "99", "???"} {
		if got := Normalize(raw); got != English {
			t.Errorf("Normalize(%q) = %s, want ENGLISH", raw, got)
		}
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{"", "EN", "日本語", "pt_BR", "Russo", "x", "5", "Chinês Simplificado"}
	for _, tag := range []Tag{English, Japanese, Spanish, French, German, Italian, Portuguese, Russian, Korean, Chinese} {
		inputs = append(inputs, string(tag))
	}
	for _, raw := range inputs {
		once := Normalize(raw)
		if twice := Normalize(string(once)); twice != once {
			t.Errorf("Normalize not idempotent for %q: %s then %s", raw, once, twice)
		}
	}
}

func TestSame(t *testing.T) {
	if !Same("JP", "日本語") {
		t.Fatal("JP and 日本語 should be the same language")
	}
	if Same("EN", "JP") {
		t.Fatal("EN and JP differ")
	}
}
