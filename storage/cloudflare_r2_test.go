package storage

import "testing"

func TestPublicURL(t *testing.T) {
	tests := []struct {
		base, key, want string
	}{
		{"https://cdn.example.com", "avatars/ana.png", "https://cdn.example.com/avatars/ana.png"},
		{"https://cdn.example.com/", "/avatars/ana.png", "https://cdn.example.com/avatars/ana.png"},
		{"https://cdn.example.com/kotc", "avatars/ana.png", "https://cdn.example.com/kotc/avatars/ana.png"},
		{"https://cdn.example.com", "", ""},
	}
	for _, tt := range tests {
		base, err := parseBaseURL(tt.base)
		if err != nil {
			t.Fatalf("parseBaseURL(%q): %v", tt.base, err)
		}
		if got := publicURL(base, tt.key); got != tt.want {
			t.Errorf("publicURL(%q, %q) = %q, want %q", tt.base, tt.key, got, tt.want)
		}
	}
}

func TestParseBaseURL_Rejects(t *testing.T) {
	for _, raw := range []string{"cdn.example.com", "://bad", ""} {
		if _, err := parseBaseURL(raw); err == nil {
			t.Errorf("parseBaseURL(%q) accepted", raw)
		}
	}
}
