package sms

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newArkeselServer(t *testing.T, handler func(path string, body map[string]any) (int, string)) *ArkeselGateway {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("api-key") != "secret" {
			t.Errorf("missing api-key header")
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		status, reply := handler(r.URL.Path, body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return NewArkeselGateway(ArkeselConfig{BaseURL: srv.URL + "/", APIKey: "secret", SenderID: "DigiShe", Length: 6, Expiry: 5 * time.Minute})
}

func TestArkeselGenerateSendsProviderContract(t *testing.T) {
	gw := newArkeselServer(t, func(path string, body map[string]any) (int, string) {
		if path != "/api/otp/generate" {
			t.Errorf("unexpected path %s", path)
		}
		if body["number"] != "233503088600" || body["type"] != "numeric" || body["medium"] != "sms" {
			t.Errorf("unexpected body %v", body)
		}
		if body["length"].(float64) != 6 || body["expiry"].(float64) != 5 {
			t.Errorf("unexpected length/expiry %v", body)
		}
		return http.StatusOK, `{"code":"1000","message":"Successful"}`
	})

	if err := gw.Generate(context.Background(), "233503088600"); err != nil {
		t.Fatalf("generate: %v", err)
	}
}

func TestArkeselGenerateMapsProviderErrors(t *testing.T) {
	cases := map[string]Category{
		`{"code":"1005"}`: CategoryInvalidNumber,
		`{"code":1007}`:   CategoryInsufficientBalance,
		`{"code":"1999"}`: CategoryProviderError,
	}
	for reply, want := range cases {
		reply := reply
		gw := newArkeselServer(t, func(string, map[string]any) (int, string) { return http.StatusOK, reply })
		err := gw.Generate(context.Background(), "233503088600")
		var gwErr *GatewayError
		if !errors.As(err, &gwErr) {
			t.Fatalf("reply %s: expected GatewayError, got %v", reply, err)
		}
		if gwErr.Category != want {
			t.Fatalf("reply %s: expected %s, got %s", reply, want, gwErr.Category)
		}
	}
}

func TestArkeselVerify(t *testing.T) {
	gw := newArkeselServer(t, func(path string, body map[string]any) (int, string) {
		if path != "/api/otp/verify" {
			t.Errorf("unexpected path %s", path)
		}
		switch body["code"] {
		case "123456":
			return http.StatusOK, `{"code":1100,"message":"Successful"}`
		case "000000":
			return http.StatusOK, `{"code":"1105","message":"Code has expired"}`
		default:
			return http.StatusBadRequest, `{"code":"1104","message":"Invalid code"}`
		}
	})

	ctx := context.Background()
	if err := gw.Verify(ctx, "233503088600", "123456"); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := gw.Verify(ctx, "233503088600", "000000"); !errors.Is(err, ErrCodeExpired) {
		t.Fatalf("expected ErrCodeExpired, got %v", err)
	}
	if err := gw.Verify(ctx, "233503088600", "999999"); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode, got %v", err)
	}
}

func TestArkeselUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	gw := NewArkeselGateway(ArkeselConfig{BaseURL: url, APIKey: "secret"})
	if err := gw.Generate(context.Background(), "233503088600"); !errors.Is(err, ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got %v", err)
	}
}

func TestArkeselNonJSONReplyIsUnreachable(t *testing.T) {
	gw := newArkeselServer(t, func(string, map[string]any) (int, string) {
		return http.StatusBadGateway, "<html>bad gateway</html>"
	})
	if err := gw.Verify(context.Background(), "233503088600", "123456"); !errors.Is(err, ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got %v", err)
	}
}
