package http_test

import (
	"net/http/httptest"
	"testing"

	pkghttp "github.com/fortifund/fortifund-api/pkg/http"
	"github.com/stretchr/testify/assert"
)

func TestExtractClientIP(t *testing.T) {
	config := &pkghttp.IPConfig{TrustedProxies: []string{"10.0.0.0/8", "127.0.0.1/32"}}

	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		xri        string
		config     *pkghttp.IPConfig
		want       string
	}{
		{
			name:       "direct client ignores spoofed headers",
			remoteAddr: "203.0.113.10:54321",
			xff:        "1.2.3.4",
			xri:        "192.168.1.1",
			config:     config,
			want:       "203.0.113.10",
		},
		{
			name:       "trusted proxy uses first forwarded ip",
			remoteAddr: "10.0.0.5:54321",
			xff:        "203.0.113.42, 10.0.0.5",
			config:     config,
			want:       "203.0.113.42",
		},
		{
			name:       "trusted proxy falls back to X-Real-IP",
			remoteAddr: "127.0.0.1:8000",
			xri:        "198.51.100.7",
			config:     config,
			want:       "198.51.100.7",
		},
		{
			name:       "trusted proxy with garbage headers",
			remoteAddr: "10.1.2.3:1",
			xff:        "not-an-ip",
			config:     config,
			want:       "10.1.2.3",
		},
		{
			name:       "nil config",
			remoteAddr: "10.0.0.5:54321",
			xff:        "203.0.113.42",
			want:       "10.0.0.5",
		},
		{
			name:       "remote addr without port",
			remoteAddr: "198.51.100.1",
			config:     config,
			want:       "198.51.100.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}

			assert.Equal(t, tt.want, pkghttp.ExtractClientIP(req, tt.config))
		})
	}
}
