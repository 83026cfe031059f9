package secret

import "testing"

// Digest of "luz", precomputed with sha256sum.
const luzDigest = "c6ce5f796115921afe158021f045e7c6d6820383191907ff6add8b3f502082a1"

func TestDigestKnownValue(t *testing.T) {
	if got := Digest("luz"); got != luzDigest {
		t.Errorf("Expected digest %s, got %s", luzDigest, got)
	}
}

func TestNormalizationBeforeHashing(t *testing.T) {
	variants := []string{"luz", "  luz", "luz  ", "LUZ", " Luz \t"}
	for _, v := range variants {
		if !Matches(v, luzDigest) {
			t.Errorf("Expected %q to match after normalization", v)
		}
	}
}

func TestInternalWhitespaceIsPreserved(t *testing.T) {
	if Digest("la luz") == Digest("laluz") {
		t.Error("Internal whitespace must not be stripped")
	}
}

func TestNoFalsePositives(t *testing.T) {
	wrong := []string{"", "lux", "luzz", "l uz"}
	for _, w := range wrong {
		if Matches(w, luzDigest) {
			t.Errorf("Expected %q to be rejected", w)
		}
	}
}

func TestMatchesUppercaseStoredDigest(t *testing.T) {
	// Config validation enforces lowercase, but matching is defensive about
	// the stored side too.
	upper := "C6CE5F796115921AFE158021F045E7C6D6820383191907FF6ADD8B3F502082A1"
	if !Matches("luz", upper) {
		t.Error("Expected match against an uppercase stored digest")
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	in := "  La Velada  "
	once := Normalize(in)
	if Normalize(once) != once {
		t.Errorf("Normalize is not idempotent for %q", in)
	}
}
