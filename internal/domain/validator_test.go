package domain

import "testing"

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"  Example.COM  ":   "example.com",
		"*.example.com":     "example.com",
		"WWW.Example.com":   "www.example.com",
		"*.Sub.Example.com": "sub.example.com",
	}

	for input, want := range tests {
		input, want := input, want
		t.Run(input, func(t *testing.T) {
			t.Parallel()
			if got := Normalize(input); got != want {
				t.Fatalf("Normalize(%q) = %q, want %q", input, got, want)
			}
		})
	}
}

func TestIsValid(t *testing.T) {
	t.Parallel()

	reject := []string{
		"",
		"1.2.3.4",
		"2001:db8::1",
		"a..b.com",
		"-bad.com",
		"bad-.com",
		"foo.1",
	}
	for _, s := range reject {
		s := s
		t.Run("reject_"+s, func(t *testing.T) {
			t.Parallel()
			if IsValid(s) {
				t.Fatalf("IsValid(%q) = true, want false", s)
			}
		})
	}

	accept := []string{
		"xn--bcher-kva.example",
		"a.b.co",
		"www.example.com",
	}
	for _, s := range accept {
		s := s
		t.Run("accept_"+s, func(t *testing.T) {
			t.Parallel()
			if !IsValid(s) {
				t.Fatalf("IsValid(%q) = false, want true", s)
			}
		})
	}
}

func TestIsValidRejectsOverlongDomain(t *testing.T) {
	t.Parallel()

	label := ""
	for i := 0; i < 63; i++ {
		label += "a"
	}
	long := label + "." + label + "." + label + "." + label + ".com"
	if len(long) <= 253 {
		t.Fatalf("test fixture too short: %d", len(long))
	}
	if IsValid(long) {
		t.Fatalf("IsValid(long) = true, want false")
	}
}
