package session

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/digishe/digishe/internal/insight"
)

func setupHandlerApp(t *testing.T, f *fixture) *fiber.App {
	t.Helper()
	h := NewHandler(f.manager, insight.Static("keep going"), "GHS")
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("phone", testPhone)
		return c.Next()
	})
	app.Get("/me", h.Me)
	app.Post("/onboarding", h.Onboarding)
	app.Post("/ledger/entries", h.RecordEntry)
	app.Post("/ledger/savings", h.RecordSaving)
	app.Get("/categories", h.Categories)
	app.Get("/insight", h.Insight)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	raw, _ := io.ReadAll(resp.Body)
	var out map[string]any
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out
}

func TestHandlerRecordEntryFlow(t *testing.T) {
	f := newFixture(t, nil)
	app := setupHandlerApp(t, f)

	status, body := doJSON(t, app, fiber.MethodPost, "/onboarding", `{"name":"Ama's Kitchen","category":"Food","start_date":"2024-01-02"}`)
	if status != fiber.StatusCreated {
		t.Fatalf("onboarding: expected 201, got %d %v", status, body)
	}
	if body["is_active"] != false {
		t.Fatalf("new business should be inactive: %v", body)
	}

	status, _ = doJSON(t, app, fiber.MethodPost, "/ledger/entries", `{"kind":"sale","amount":"10","category":"Retail"}`)
	if status != fiber.StatusForbidden {
		t.Fatalf("inactive business: expected 403, got %d", status)
	}

	if _, err := f.businesses.SetActive(context.Background(), body["id"].(string), true); err != nil {
		t.Fatalf("activate: %v", err)
	}

	status, body = doJSON(t, app, fiber.MethodPost, "/ledger/entries", `{"kind":"sale","amount":12.75,"category":"Retail"}`)
	if status != fiber.StatusAccepted {
		t.Fatalf("record: expected 202, got %d %v", status, body)
	}
	entry := body["entry"].(map[string]any)
	if entry["amount"] != "12.75" {
		t.Fatalf("amount not preserved: %v", entry["amount"])
	}

	status, _ = doJSON(t, app, fiber.MethodPost, "/ledger/savings", `{"amount":"-2","destination":"bank"}`)
	if status != fiber.StatusBadRequest {
		t.Fatalf("negative saving: expected 400, got %d", status)
	}

	status, body = doJSON(t, app, fiber.MethodGet, "/me", "")
	if status != fiber.StatusOK {
		t.Fatalf("me: expected 200, got %d", status)
	}
	if entries := body["entries"].([]any); len(entries) != 1 {
		t.Fatalf("expected one entry, got %v", entries)
	}
	if weekly := body["weekly"].([]any); len(weekly) != 7 {
		t.Fatalf("expected 7 weekly points, got %d", len(weekly))
	}

	status, body = doJSON(t, app, fiber.MethodGet, "/insight", "")
	if status != fiber.StatusOK || body["tip"] != "keep going" {
		t.Fatalf("insight: %d %v", status, body)
	}
}

func TestHandlerCategories(t *testing.T) {
	f := newFixture(t, nil)
	app := setupHandlerApp(t, f)

	status, body := doJSON(t, app, fiber.MethodGet, "/categories?kind=expense", "")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if cats := body["categories"].([]any); len(cats) != 10 {
		t.Fatalf("expected 10 expense categories, got %d", len(cats))
	}
	if status, _ := doJSON(t, app, fiber.MethodGet, "/categories?kind=refund", ""); status != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for unknown kind, got %d", status)
	}
}
