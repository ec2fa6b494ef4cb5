package service

import (
	"reflect"
	"regexp"
	"testing"
)

func TestRemoveTokensOrderMatters(t *testing.T) {
	ts := NewTextService()
	got := ts.CollapseSpaces(ts.RemoveTokens("Lightning Bolt BRO-Retro", "BRO-Retro", "Retro"))
	if got != "Lightning Bolt" {
		t.Fatalf("got %q", got)
	}
}

func TestRemoveTokensKeepsWordsThatContainToken(t *testing.T) {
	ts := NewTextService()
	cases := map[string]string{
		"Retrofitter Foundry":       "Retrofitter Foundry",
		"Retrofitter Foundry Retro": "Retrofitter Foundry",
		"Metroid Retro-Frame":       "Metroid -Frame",
		"Bolt RETRO":                "Bolt",
		"Bolt (serial number)x":     "Bolt x",
	}
	for in, want := range cases {
		got := ts.CollapseSpaces(ts.RemoveTokens(in, "BRO-Retro", "Retro", "(serial number)"))
		if got != want {
			t.Errorf("RemoveTokens(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestContainsToken(t *testing.T) {
	ts := NewTextService()
	if ts.ContainsToken("Retrofitter Foundry", "Retro") {
		t.Fatal("Retrofitter must not contain the Retro token")
	}
	if !ts.ContainsToken("Shivan Dragon BRO-Retro", "retro") {
		t.Fatal("BRO-Retro should contain the Retro token")
	}
	if !ts.ContainsToken("Opt (serial number)", "(serial number)") {
		t.Fatal("punctuated token should match")
	}
	if ts.ContainsToken("Opt", "") {
		t.Fatal("empty token never matches")
	}
}

func TestRemoveTagsUnescapes(t *testing.T) {
	ts := NewTextService()
	if got := ts.RemoveTags("Fire &amp; Ice<br/>"); got != "Fire & Ice" {
		t.Fatalf("got %q", got)
	}
}

func TestDelimited(t *testing.T) {
	ts := NewTextService()
	got := ts.Delimited("■Foil■ Opt ■ Showcase ■ ■", "■", "■")
	want := []string{"Foil", "Showcase"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	got = ts.Delimited("【JP】Opt【Promo】", "【", "】")
	want = []string{"JP", "Promo"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if got := ts.Delimited("no markers", "【", "】"); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestRemovePatternsAndTrimDash(t *testing.T) {
	ts := NewTextService()
	re := regexp.MustCompile(`\[[^\]]*\]`)
	if got := ts.CollapseSpaces(ts.RemovePatterns("Opt [XLN]  extra", re)); got != "Opt extra" {
		t.Fatalf("got %q", got)
	}
	if got := ts.TrimTrailingDash("Ixalan -"); got != "Ixalan" {
		t.Fatalf("got %q", got)
	}
}
