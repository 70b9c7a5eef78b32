package service_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vetcare-hq/vetcare-saas/domains/billing/be/service"
)

func gatewayStub(t *testing.T, wantSecret string, respond func(w http.ResponseWriter, reference string)) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer "+wantSecret, r.Header.Get("Authorization"))

		const prefix = "/transaction/verify/"
		require.Truef(t, len(r.URL.Path) > len(prefix), "unexpected path %s", r.URL.Path)
		respond(w, r.URL.Path[len(prefix):])
	}))
	t.Cleanup(server.Close)
	return server
}

func TestVerifyPaymentMockBypassOutsideProduction(t *testing.T) {
	t.Parallel()

	// No server: a network call would fail, proving the bypass short-circuits.
	verifier := service.NewVerifier(service.GatewayConfig{
		BaseURL:     "http://127.0.0.1:1",
		Secret:      "sk_test",
		Environment: "development",
	}, zap.NewNop())

	require.True(t, verifier.VerifyPayment(context.Background(), "mock-abc123"))
	require.True(t, verifier.VerifyPayment(context.Background(), "TRIAL"))
	require.False(t, verifier.VerifyPayment(context.Background(), "real-ref"))
}

func TestVerifyPaymentMockReferencesHitGatewayInProduction(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	server := gatewayStub(t, "sk_live", func(w http.ResponseWriter, reference string) {
		seen[reference] = true
		w.WriteHeader(http.StatusNotFound)
	})

	verifier := service.NewVerifier(service.GatewayConfig{
		BaseURL:     server.URL,
		Secret:      "sk_live",
		Environment: "production",
	}, zap.NewNop())

	require.False(t, verifier.VerifyPayment(context.Background(), "mock-abc123"))
	require.False(t, verifier.VerifyPayment(context.Background(), "TRIAL"))
	require.True(t, seen["mock-abc123"])
	require.True(t, seen["TRIAL"])
}

func TestVerifyPaymentMissingSecretFailsClosed(t *testing.T) {
	t.Parallel()

	verifier := service.NewVerifier(service.GatewayConfig{
		BaseURL:     "http://127.0.0.1:1",
		Environment: "production",
	}, zap.NewNop())

	require.False(t, verifier.VerifyPayment(context.Background(), "any-ref"))
}

func TestVerifyPaymentEnvelopeInterpretation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		body string
		code int
		want bool
	}{
		{"successful transaction", `{"status": true, "data": {"status": "success"}}`, http.StatusOK, true},
		{"declined transaction", `{"status": true, "data": {"status": "failed"}}`, http.StatusOK, false},
		{"envelope status false", `{"status": false, "data": {"status": "success"}}`, http.StatusOK, false},
		{"non-200 response", `{"status": true, "data": {"status": "success"}}`, http.StatusBadGateway, false},
		{"malformed body", `{not json`, http.StatusOK, false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server := gatewayStub(t, "sk_live", func(w http.ResponseWriter, reference string) {
				w.WriteHeader(tc.code)
				_, _ = w.Write([]byte(tc.body))
			})

			verifier := service.NewVerifier(service.GatewayConfig{
				BaseURL:     server.URL,
				Secret:      "sk_live",
				Environment: "production",
			}, zap.NewNop())

			require.Equal(t, tc.want, verifier.VerifyPayment(context.Background(), "ref-1"))
		})
	}
}
