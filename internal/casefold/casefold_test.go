package casefold

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLowerUpper_Unicode(t *testing.T) {
	assert.Equal(t, "#кириллица", Lower("#КИРИЛЛИЦА"))
	assert.Equal(t, "ÄÖÜ", Upper("äöü"))
	assert.Equal(t, "plain ascii", Lower("PLAIN ASCII"))
	assert.Equal(t, "", Lower(""))
}

func TestCompare_CaseInsensitive(t *testing.T) {
	assert.Equal(t, 0, Compare("#Go-Nuts", "#go-nuts"))
	assert.Equal(t, 0, Compare("ΣΊΣΥΦΟΣ", "σίσυφος"))
	assert.Equal(t, -1, Compare("alpha", "BETA"))
	assert.Equal(t, 1, Compare("Gamma", "beta"))
}

func TestCompare_Antisymmetric(t *testing.T) {
	words := []string{
		"", "a", "A", "b", "Straße", "STRASSE", "ß", "Ä", "ä", "z",
		"#chan", "#Chan", "ünïcödé", "ÜNÏCÖDÉ", "日本語", "nick_", "NICK|away",
	}

	for _, a := range words {
		for _, b := range words {
			ab := Compare(a, b)
			ba := Compare(b, a)
			assert.Equal(t, ab, -ba, "Compare(%q, %q) = %d, Compare(%q, %q) = %d", a, b, ab, b, a, ba)
			assert.Contains(t, []int{-1, 0, 1}, ab)
		}
	}
}

func TestCompare_EqualMeansEqualUpToCase(t *testing.T) {
	pairs := []struct {
		a, b string
		want bool
	}{
		{"Nick", "nICK", true},
		{"Ärger", "ärger", true},
		{"nick", "nick2", false},
		{"#a", "#b", false},
	}

	for _, p := range pairs {
		assert.Equal(t, p.want, Equal(p.a, p.b), "Equal(%q, %q)", p.a, p.b)
		if p.want {
			assert.Equal(t, Lower(p.a), Lower(p.b))
		}
	}
}

func TestFold_NormalisesComposition(t *testing.T) {
	// precomposed vs "e" + combining acute
	assert.Equal(t, Fold("\u00e9"), Fold("e\u0301"))
	assert.Equal(t, 0, Compare("CAFÉ", "café"))
}
