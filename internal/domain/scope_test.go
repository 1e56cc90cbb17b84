package domain

import "testing"

func TestScopeAllows(t *testing.T) {
	t.Parallel()

	s := NewScope("example.com")

	accept := []string{"a.example.com", "deep.sub.example.com"}
	for _, c := range accept {
		c := c
		t.Run("accept_"+c, func(t *testing.T) {
			t.Parallel()
			if !s.Allows(c) {
				t.Fatalf("Allows(%q) = false, want true", c)
			}
		})
	}

	reject := []string{"example.com", "evil.org", "notexample.com", ""}
	for _, c := range reject {
		c := c
		t.Run("reject_"+c, func(t *testing.T) {
			t.Parallel()
			if s.Allows(c) {
				t.Fatalf("Allows(%q) = true, want false", c)
			}
		})
	}
}
