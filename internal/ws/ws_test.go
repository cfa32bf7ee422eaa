package ws

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckOriginMatchesHostExactly(t *testing.T) {
	cases := []struct {
		origin  string
		allowed bool
	}{
		{"", true}, // non-browser clients send no Origin
		{"http://localhost:3000", true},
		{"https://localhost:8080", true},
		{"http://127.0.0.1:5173", true},
		{"http://localhost.evil.com", false},
		{"http://127.0.0.1.evil.com", false},
		{"https://evil.com", false},
	}

	for _, tc := range cases {
		req := httptest.NewRequest("GET", "/ws", nil)
		if tc.origin != "" {
			req.Header.Set("Origin", tc.origin)
		}
		assert.Equal(t, tc.allowed, Upgrader.CheckOrigin(req), "origin %q", tc.origin)
	}
}
