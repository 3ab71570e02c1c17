package clientip

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromRequest(t *testing.T) {
	cases := []struct {
		name       string
		remoteAddr string
		want       string
	}{
		{"host and port", "1.2.3.4:5678", "1.2.3.4"},
		{"ipv6 with port", "[::1]:5678", "::1"},
		{"no port", "1.2.3.4", "1.2.3.4"},
		{"empty", "", "unknown"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remoteAddr

			assert.Equal(t, tc.want, FromRequest(req))
		})
	}
}
