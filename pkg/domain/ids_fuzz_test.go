package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func seedIDs(f *testing.F) {
	f.Add("")
	f.Add("3f0c1b52-8d3e-4a5f-9b7e-2c1d0e9f8a7b")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("urn:uuid:3f0c1b52-8d3e-4a5f-9b7e-2c1d0e9f8a7b")
	f.Add("{3f0c1b52-8d3e-4a5f-9b7e-2c1d0e9f8a7b}")
	f.Add("3f0c1b528d3e4a5f9b7e2c1d0e9f8a7b")
	f.Add("did:example:alice")
	f.Add("3f0c1b52-8d3e-4a5f-9b7e-2c1d0e9f8a7b\x00; Path=/")
}

// Session ids arrive in cookies, so whatever the browser sends must parse to
// a non-nil id in canonical form or be rejected.
func FuzzParseSessionID(f *testing.F) {
	seedIDs(f)
	f.Fuzz(func(t *testing.T, input string) {
		sid, err := ParseSessionID(input)
		if err != nil {
			if !sid.IsNil() {
				t.Fatalf("rejected input %q produced id %s", input, sid)
			}
			return
		}
		if sid.IsNil() {
			t.Fatalf("accepted nil id from %q", input)
		}
		canonical := sid.String()
		if canonical != strings.ToLower(canonical) || len(canonical) != 36 {
			t.Fatalf("non-canonical form %q", canonical)
		}
		again, err := ParseSessionID(canonical)
		if err != nil || again != sid {
			t.Fatalf("canonical form %q did not round-trip: %v", canonical, err)
		}
		if uuid.UUID(sid) != uuid.MustParse(input) {
			t.Fatalf("parsed value differs from uuid.Parse for %q", input)
		}
	})
}

func accepts[T any](parse func(string) (T, error)) func(string) bool {
	return func(s string) bool {
		_, err := parse(s)
		return err == nil
	}
}

func FuzzParsersAgree(f *testing.F) {
	seedIDs(f)
	parsers := map[string]func(string) bool{
		"session":    accepts(ParseSessionID),
		"user":       accepts(ParseUserID),
		"service":    accepts(ParseServiceID),
		"identifier": accepts(ParseIdentifierID),
		"webhook":    accepts(ParseWebhookID),
		"key":        accepts(ParseKeyID),
		"definition": accepts(ParseDefinitionID),
	}
	f.Fuzz(func(t *testing.T, input string) {
		u, err := uuid.Parse(input)
		want := err == nil && u != uuid.Nil
		for name, parse := range parsers {
			if got := parse(input); got != want {
				t.Fatalf("%s parser accepted=%v for %q, want %v", name, got, input, want)
			}
		}
	})
}
