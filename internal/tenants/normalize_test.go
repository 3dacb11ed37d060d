package tenants

import "testing"

func TestNormalizeIdentifier(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
		{"lowercases", "ACME.Example.COM", "acme.example.com"},
		{"strips https scheme", "https://acme.example.com", "acme.example.com"},
		{"strips http scheme", "http://acme.example.com", "acme.example.com"},
		{"strips path", "acme.example.com/admin/login", "acme.example.com"},
		{"strips port", "acme.example.com:8080", "acme.example.com"},
		{"strips www", "www.acme.example.com", "acme.example.com"},
		{"strips trailing dot", "acme.example.com.", "acme.example.com"},
		{"kitchen sink", " HTTPS://WWW.Acme.Example.COM:443/shop ", "acme.example.com"},
		{"idempotent", "acme.example.com", "acme.example.com"},
		{"bare name untouched", "acme", "acme"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeIdentifier(tc.in); got != tc.want {
				t.Fatalf("NormalizeIdentifier(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestSlugifyID(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"acme.example.com", "acme_example_com"},
		{"Acme Store!", "acme_store"},
		{"--acme--", "acme"},
		{"a b  c", "a_b_c"},
		{"***", ""},
		{"", ""},
	}

	for _, tc := range cases {
		if got := SlugifyID(tc.in); got != tc.want {
			t.Fatalf("SlugifyID(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
