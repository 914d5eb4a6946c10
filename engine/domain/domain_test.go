package domain

import (
	"errors"
	"strings"
	"testing"
)

func widowLaw() LawDocument {
	return LawDocument{
		ID:        DocID("3.1.1"),
		LawNumber: "3.1.1",
		Category:  "Widows",
		Title:     "Maintenance of Widow",
		Text:      "A widow shall be maintained by the eldest son of the deceased.",
	}
}

func TestDocIDDeterministic(t *testing.T) {
	a := DocID("3.1.1")
	b := DocID("3.1.1")
	if a != b {
		t.Fatalf("same law number produced different ids: %s vs %s", a, b)
	}
	if DocID("3.1.2") == a {
		t.Fatal("different law numbers produced the same id")
	}
}

func TestCitationSource(t *testing.T) {
	got := widowLaw().CitationSource()
	want := "Law 3.1.1 (Widows) - Maintenance of Widow"
	if got != want {
		t.Fatalf("CitationSource = %q, want %q", got, want)
	}
}

func TestExcerptShortTextUnchanged(t *testing.T) {
	d := widowLaw()
	if got := d.Excerpt(); got != d.Text {
		t.Fatalf("short text should pass through, got %q", got)
	}
}

func TestExcerptTruncates(t *testing.T) {
	d := widowLaw()
	d.Text = strings.Repeat("x", 500)
	got := d.Excerpt()
	if len([]rune(got)) != 203 {
		t.Fatalf("excerpt length = %d runes, want 203", len([]rune(got)))
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatal("truncated excerpt should end with ellipsis")
	}
}

func TestExcerptMultibyte(t *testing.T) {
	d := widowLaw()
	d.Text = strings.Repeat("ä", 250)
	got := d.Excerpt()
	if !strings.HasSuffix(got, "...") {
		t.Fatal("expected ellipsis")
	}
	if strings.ContainsRune(got, '�') {
		t.Fatal("truncation split a rune")
	}
}

func TestValidateLawDocument(t *testing.T) {
	if err := ValidateLawDocument(widowLaw()); err != nil {
		t.Fatalf("valid document rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*LawDocument)
		want   error
	}{
		{"bad number", func(d *LawDocument) { d.LawNumber = "3.a.1" }, ErrBadLawNumber},
		{"empty number", func(d *LawDocument) { d.LawNumber = "" }, ErrBadLawNumber},
		{"trailing dot", func(d *LawDocument) { d.LawNumber = "3.1." }, ErrBadLawNumber},
		{"empty category", func(d *LawDocument) { d.Category = "  " }, ErrEmptyCategory},
		{"empty title", func(d *LawDocument) { d.Title = "" }, ErrEmptyTitle},
		{"empty text", func(d *LawDocument) { d.Text = "\n" }, ErrEmptyText},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := widowLaw()
			tc.mutate(&d)
			err := ValidateLawDocument(d)
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatal("expected a ValidationError")
			}
		})
	}
}

func TestValidateQuery(t *testing.T) {
	if err := ValidateQuery("what happens to a widow?"); err != nil {
		t.Fatalf("valid query rejected: %v", err)
	}
	if err := ValidateQuery("   "); !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("blank query: got %v, want ErrInvalidQuery", err)
	}
	if err := ValidateQuery(strings.Repeat("q", 2001)); !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("oversized query: got %v, want ErrInvalidQuery", err)
	}
}

func TestRetrievedSetContains(t *testing.T) {
	set := RetrievedSet{{Doc: widowLaw(), Score: 0.9}}
	if !set.Contains("3.1.1") {
		t.Fatal("expected 3.1.1 in set")
	}
	if set.Contains("9.9") {
		t.Fatal("unexpected law in set")
	}
}

func TestUpstreamErrorMatches(t *testing.T) {
	cause := errors.New("rpc deadline exceeded")
	err := &UpstreamError{Op: "embed query", Err: cause}
	if !errors.Is(err, ErrUpstream) {
		t.Fatal("UpstreamError should match ErrUpstream")
	}
	if !errors.Is(err, cause) {
		t.Fatal("UpstreamError should unwrap to its cause")
	}
}
