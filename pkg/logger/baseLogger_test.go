package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestWithPrefixSharesWriter(t *testing.T) {
	var buf bytes.Buffer
	base := &BaseLogger{mu: NewDiscardLogger().mu, writer: &buf, prefix: "[App]"}

	child := base.WithPrefix("[SearchClient]")
	child.Log("fetched %d docs", 3)

	got := strings.TrimSpace(buf.String())
	if got != "[App] [SearchClient] fetched 3 docs" {
		t.Fatalf("unexpected line: %q", got)
	}
}

func TestDiscardLoggerIsSilent(t *testing.T) {
	l := NewDiscardLogger()
	l.Log("nothing %s", "here")
	l.WithPrefix("[x]").Log("still nothing")
}
