package testutil

import (
	"testing"

	"github.com/52North/SOS-sub005/internal/decode"
	_ "github.com/52North/SOS-sub005/internal/format/all"
	"github.com/52North/SOS-sub005/internal/xmltree"
)

// MustParse parses doc or fails the test.
func MustParse(t testing.TB, doc string) *xmltree.Node {
	t.Helper()
	n, err := xmltree.ParseString(doc)
	if err != nil {
		t.Fatalf("parse test document: %v", err)
	}
	return n
}

// Dispatcher returns the default dispatcher with every built-in format
// registered.
func Dispatcher() *decode.Facade {
	return decode.Default()
}

// MustDecode parses and decodes doc through the default dispatcher, failing
// the test on any error.
func MustDecode(t testing.TB, doc string) any {
	t.Helper()
	v, err := Dispatcher().Decode(MustParse(t, doc))
	if err != nil {
		t.Fatalf("decode test document: %v", err)
	}
	return v
}
