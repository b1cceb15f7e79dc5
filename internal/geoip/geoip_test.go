package geoip

import (
	"net/http/httptest"
	"testing"
)

func TestNew_EmptyPath(t *testing.T) {
	r, err := New("")
	if err != nil {
		t.Fatalf("expected no error for empty path, got %v", err)
	}
	if country := r.Country("8.8.8.8"); country != "" {
		t.Errorf("expected empty result for nil resolver, got %q", country)
	}
}

func TestNew_InvalidPath(t *testing.T) {
	r, err := New("/nonexistent/path.mmdb")
	if err != nil {
		t.Fatalf("expected no error for missing file (graceful fallback), got %v", err)
	}
	if country := r.Country("8.8.8.8"); country != "" {
		t.Errorf("expected empty result, got %q", country)
	}
}

func TestCountry_NilResolver(t *testing.T) {
	var r *Resolver
	if country := r.Country("8.8.8.8"); country != "" {
		t.Errorf("expected empty result, got %q", country)
	}
	if err := r.Close(); err != nil {
		t.Errorf("expected no error closing nil resolver, got %v", err)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name      string
		forwarded string
		remote    string
		want      string
	}{
		{"remote addr", "", "203.0.113.7:5123", "203.0.113.7"},
		{"remote without port", "", "203.0.113.9", "203.0.113.9"},
		{"behind proxy", "198.51.100.1", "10.0.0.2:80", "198.51.100.1"},
		{"skips proxy hops", "198.51.100.1, 10.0.0.1", "10.0.0.2:80", "198.51.100.1"},
		{"ignores spoofed left hops", "1.2.3.4, 198.51.100.1", "127.0.0.1:80", "198.51.100.1"},
		{"ignores header from public peer", "1.2.3.4", "203.0.113.7:5123", "203.0.113.7"},
		{"only proxy hops", "10.0.0.1", "10.0.0.2:80", "10.0.0.2"},
		{"garbage header", " , unknown", "10.0.0.2:80", "10.0.0.2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if got := ClientIP(req); got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}
