package clientip_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabledash/billing/pkg/clientip"
	"github.com/tabledash/billing/pkg/logger"
)

func TestGetIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "remote addr", remote: "203.0.113.9:4312", want: "203.0.113.9"},
		{name: "remote addr without port", remote: "203.0.113.9", want: "203.0.113.9"},
		{name: "cloudflare wins", headers: map[string]string{"CF-Connecting-IP": "198.51.100.1", "X-Forwarded-For": "198.51.100.2"}, remote: "10.0.0.1:1", want: "198.51.100.1"},
		{name: "digitalocean before forwarded", headers: map[string]string{"DO-Connecting-IP": "198.51.100.3", "X-Real-IP": "198.51.100.4"}, remote: "10.0.0.1:1", want: "198.51.100.3"},
		{name: "first valid forwarded entry", headers: map[string]string{"X-Forwarded-For": "garbage, 52.31.139.75, 10.0.0.2"}, remote: "10.0.0.1:1", want: "52.31.139.75"},
		{name: "invalid header falls through", headers: map[string]string{"CF-Connecting-IP": "nope", "X-Real-IP": "198.51.100.5"}, remote: "10.0.0.1:1", want: "198.51.100.5"},
		{name: "ipv6 normalized", remote: "[2001:DB8::1]:443", want: "2001:db8::1"},
		{name: "ipv4 mapped ipv6 unmapped", headers: map[string]string{"X-Real-IP": "::ffff:52.49.173.169"}, remote: "10.0.0.1:1", want: "52.49.173.169"},
		{name: "nothing valid", remote: "pipe", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest(http.MethodPost, "/webhook", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientip.GetIP(r))
		})
	}
}

func TestMiddlewareAndExtractor(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf), logger.WithContextExtractors(clientip.LoggerExtractor()))

	var seen string
	h := clientip.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = clientip.FromContext(r.Context())
		log.InfoContext(r.Context(), "request")
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.7:5555"
	h.ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, "192.0.2.7", seen)
	assert.Contains(t, buf.String(), `"client_ip":"192.0.2.7"`)
	assert.Empty(t, clientip.FromContext(context.Background()))
}

func TestAllowlist(t *testing.T) {
	t.Parallel()

	a, err := clientip.NewAllowlist(append(clientip.PaystackWebhookIPs, "10.1.0.0/16", " ")...)
	require.NoError(t, err)
	assert.Equal(t, 4, a.Len())

	assert.True(t, a.Contains("52.31.139.75"))
	assert.True(t, a.Contains("::ffff:52.214.14.220"))
	assert.True(t, a.Contains("10.1.200.3"))
	assert.False(t, a.Contains("10.2.0.1"))
	assert.False(t, a.Contains("52.31.139.76"))
	assert.False(t, a.Contains(""))

	var none *clientip.Allowlist
	assert.False(t, none.Contains("52.31.139.75"))

	_, err = clientip.NewAllowlist("10.0.0.0/33")
	require.ErrorIs(t, err, clientip.ErrInvalidAllowlistEntry)
	_, err = clientip.NewAllowlist("not-an-ip")
	require.ErrorIs(t, err, clientip.ErrInvalidAllowlistEntry)
}
