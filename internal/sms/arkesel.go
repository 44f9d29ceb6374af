package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultMessage = "Your %s verification code is %%otp_code%%. It expires in %%expiry%% minutes."

// ArkeselConfig configures the Arkesel OTP client.
type ArkeselConfig struct {
	BaseURL  string
	APIKey   string
	SenderID string
	Length   int
	Expiry   time.Duration
	// HTTPClient defaults to http.DefaultClient. No timeout is imposed here;
	// callers bound requests through the context.
	HTTPClient *http.Client
}

// ArkeselGateway implements Gateway against the Arkesel OTP API.
type ArkeselGateway struct {
	cfg     ArkeselConfig
	client  *http.Client
	message string
}

// NewArkeselGateway builds an Arkesel client.
func NewArkeselGateway(cfg ArkeselConfig) *ArkeselGateway {
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	if cfg.Length == 0 {
		cfg.Length = 6
	}
	if cfg.Expiry == 0 {
		cfg.Expiry = 5 * time.Minute
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &ArkeselGateway{cfg: cfg, client: client, message: fmt.Sprintf(defaultMessage, cfg.SenderID)}
}

type generateRequest struct {
	Expiry   int    `json:"expiry"`
	Length   int    `json:"length"`
	Medium   string `json:"medium"`
	Message  string `json:"message"`
	Number   string `json:"number"`
	SenderID string `json:"sender_id"`
	Type     string `json:"type"`
}

type verifyRequest struct {
	Code   string `json:"code"`
	Number string `json:"number"`
}

type providerResponse struct {
	Code    providerCode `json:"code"`
	Message string       `json:"message"`
}

// Generate asks Arkesel to create and text a numeric code to number.
func (g *ArkeselGateway) Generate(ctx context.Context, number string) error {
	resp, err := g.post(ctx, "/api/otp/generate", generateRequest{
		Expiry:   int(g.cfg.Expiry / time.Minute),
		Length:   g.cfg.Length,
		Medium:   "sms",
		Message:  g.message,
		Number:   number,
		SenderID: g.cfg.SenderID,
		Type:     "numeric",
	})
	if err != nil {
		return err
	}
	if string(resp.Code) != CodeGenerated {
		return ErrorForCode(string(resp.Code))
	}
	return nil
}

// Verify checks code against the last one generated for number.
func (g *ArkeselGateway) Verify(ctx context.Context, number, code string) error {
	resp, err := g.post(ctx, "/api/otp/verify", verifyRequest{Code: code, Number: number})
	if err != nil {
		return err
	}
	if string(resp.Code) != CodeVerified {
		return ErrorForCode(string(resp.Code))
	}
	return nil
}

func (g *ArkeselGateway) post(ctx context.Context, path string, body any) (providerResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return providerResponse{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return providerResponse{}, err
	}
	req.Header.Set("api-key", g.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := g.client.Do(req)
	if err != nil {
		return providerResponse{}, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 64<<10))
	if err != nil {
		return providerResponse{}, fmt.Errorf("%w: read body: %v", ErrUnreachable, err)
	}
	var out providerResponse
	if err := json.Unmarshal(raw, &out); err != nil || out.Code == "" {
		return providerResponse{}, fmt.Errorf("%w: unexpected reply (status %d)", ErrUnreachable, res.StatusCode)
	}
	return out, nil
}
