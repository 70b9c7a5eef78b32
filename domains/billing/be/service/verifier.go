package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// GatewayConfig holds the payment gateway connection settings.
type GatewayConfig struct {
	BaseURL     string
	Secret      string
	Environment string
	Timeout     time.Duration
}

// Verifier checks payment references against the gateway. VerifyPayment
// answers yes or no and nothing else: every failure mode (missing secret,
// transport error, bad payload, declined transaction) collapses to false
// with the cause in the logs.
type Verifier struct {
	cfg    GatewayConfig
	client *http.Client
	logger *zap.Logger
}

const defaultGatewayTimeout = 10 * time.Second

// NewVerifier constructs a Verifier.
func NewVerifier(cfg GatewayConfig, logger *zap.Logger) *Verifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultGatewayTimeout
	}
	return &Verifier{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// verifyEnvelope is the gateway's response shape.
type verifyEnvelope struct {
	Status bool `json:"status"`
	Data   struct {
		Status string `json:"status"`
	} `json:"data"`
}

// VerifyPayment reports whether the reference corresponds to a successful
// transaction. Outside production, references prefixed "mock-" and the
// literal "TRIAL" bypass the gateway entirely.
func (v *Verifier) VerifyPayment(ctx context.Context, reference string) bool {
	if v.cfg.Environment != "production" {
		if strings.HasPrefix(reference, "mock-") || reference == "TRIAL" {
			return true
		}
	}

	if v.cfg.Secret == "" {
		v.logger.Error("payment gateway secret not configured")
		return false
	}

	url := fmt.Sprintf("%s/transaction/verify/%s", strings.TrimRight(v.cfg.BaseURL, "/"), reference)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		v.logger.Error("payment verification request build failed", zap.Error(err))
		return false
	}
	req.Header.Set("Authorization", "Bearer "+v.cfg.Secret)

	resp, err := v.client.Do(req)
	if err != nil {
		v.logger.Error("payment verification request failed", zap.Error(err))
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		v.logger.Warn("payment verification rejected by gateway",
			zap.Int("status", resp.StatusCode),
		)
		return false
	}

	var envelope verifyEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		v.logger.Error("payment verification response decode failed", zap.Error(err))
		return false
	}

	return envelope.Status && envelope.Data.Status == "success"
}
