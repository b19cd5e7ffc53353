package postgres

import "testing"

func TestRewritePlaceholdersNumbersInOrder(t *testing.T) {
	got := rewritePlaceholders(`SELECT * FROM t WHERE a = ? AND b = ? OR c = ?`)
	want := `SELECT * FROM t WHERE a = $1 AND b = $2 OR c = $3`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRewritePlaceholdersNoMarkers(t *testing.T) {
	got := rewritePlaceholders(`SELECT 1`)
	if got != `SELECT 1` {
		t.Errorf("got %q", got)
	}
}

func TestClientQuoteEscapesEmbeddedQuote(t *testing.T) {
	c := &Client{}
	if got := c.Quote("team:9/owner's"); got != `'team:9/owner''s'` {
		t.Errorf("got %q", got)
	}
}
