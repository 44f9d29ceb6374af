package server

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/digishe/digishe/internal/config"
	"github.com/digishe/digishe/internal/infra"
	"github.com/digishe/digishe/internal/logging"
)

func TestNewInMemoryServer(t *testing.T) {
	cfg := config.Config{
		AppName:                 "DigiShe",
		AppEnv:                  "development",
		Port:                    "0",
		CountryPrefix:           "233",
		SMSProvider:             "memory",
		OTPLength:               6,
		OTPExpiry:               5 * time.Minute,
		CategoryPromptThreshold: 3,
		Currency:                "GHS",
	}
	srv, err := New(cfg, &infra.Backends{}, logging.Discard())
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	resp, err := srv.app.Test(httptest.NewRequest("GET", "/healthz", nil), 5000)
	if err != nil || resp.StatusCode != 200 {
		t.Fatalf("healthz: %v %v", resp, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestNewRequiresBackendsOutsideDevelopment(t *testing.T) {
	cfg := config.Config{AppEnv: "production", SMSProvider: "memory"}
	if _, err := New(cfg, &infra.Backends{}, logging.Discard()); err == nil {
		t.Fatal("expected error without database")
	}
}
