package assets

import "testing"

func TestResolveJoinsBaseURL(t *testing.T) {
	r := NewResolver("https://cdn.example.com/velada/", map[string]string{
		"card_1": "/cards/1.webp",
	})

	got, err := r.Resolve("card_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "https://cdn.example.com/velada/cards/1.webp"
	if got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestResolveAbsoluteLocatorPassesThrough(t *testing.T) {
	r := NewResolver("https://cdn.example.com", map[string]string{
		"intro": "https://other.example.com/intro.mp4",
	})

	got, err := r.Resolve("intro")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "https://other.example.com/intro.mp4" {
		t.Errorf("Absolute locators must not be rebased, got %s", got)
	}
}

func TestResolveWithoutBaseURL(t *testing.T) {
	r := NewResolver("", map[string]string{"card_1": "cards/1.webp"})

	got, err := r.Resolve("card_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "cards/1.webp" {
		t.Errorf("Expected relative locator untouched, got %s", got)
	}
}

func TestResolveUnknownNameFails(t *testing.T) {
	r := NewResolver("", map[string]string{})

	if _, err := r.Resolve("ghost"); err == nil {
		t.Error("Expected an error for a name missing from the manifest")
	}
}

func TestNames(t *testing.T) {
	r := NewResolver("", map[string]string{"a": "1", "b": "2"})
	if len(r.Names()) != 2 {
		t.Errorf("Expected 2 names, got %d", len(r.Names()))
	}
}
