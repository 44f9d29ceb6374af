package auth

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/digishe/digishe/internal/identity"
	"github.com/digishe/digishe/internal/logging"
	"github.com/digishe/digishe/internal/sms"
	"github.com/digishe/digishe/internal/verification"
)

type inbox struct {
	mu    sync.Mutex
	codes map[string]string
}

func (i *inbox) deliver(_ context.Context, number, code string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.codes[number] = code
	return nil
}

func (i *inbox) code(number string) string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.codes[number]
}

func setupAuthApp(t *testing.T) (*fiber.App, *inbox) {
	t.Helper()
	box := &inbox{codes: make(map[string]string)}
	repo := identity.NewMemoryRepository()
	ids := identity.NewService(repo)
	gateway := sms.NewMemoryGateway(6, 5*time.Minute, box.deliver)
	verifier := verification.NewService(ids, gateway, verification.NewMemoryStateStore(), verification.Options{}, logging.Discard())
	h := NewHandler(verifier, NewService(testConfig(), repo))

	app := fiber.New()
	app.Post("/otp/request", h.RequestCode)
	app.Post("/otp/verify", h.VerifyCode)
	app.Get("/otp/state", h.State)
	app.Post("/refresh", h.Refresh)
	return app, box
}

func send(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	raw, _ := io.ReadAll(resp.Body)
	var out map[string]any
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out
}

func TestRegisterAndLoginFlow(t *testing.T) {
	app, box := setupAuthApp(t)

	if status, _ := send(t, app, fiber.MethodPost, "/otp/request", `{"phone":"0503088600","intent":"login"}`); status != fiber.StatusNotFound {
		t.Fatalf("login for unknown phone: expected 404, got %d", status)
	}
	if status, _ := send(t, app, fiber.MethodPost, "/otp/request", `{"phone":"0503088600","intent":"register"}`); status != fiber.StatusBadRequest {
		t.Fatalf("register without name: expected 400, got %d", status)
	}

	status, body := send(t, app, fiber.MethodPost, "/otp/request", `{"phone":"050 308 8600","intent":"register","name":"Ama"}`)
	if status != fiber.StatusAccepted || body["phone"] != "233503088600" {
		t.Fatalf("request: %d %v", status, body)
	}
	if status, body := send(t, app, fiber.MethodGet, "/otp/state?phone=0503088600", ""); status != fiber.StatusOK || body["state"] != "code_requested" {
		t.Fatalf("state: %d %v", status, body)
	}

	if status, _ := send(t, app, fiber.MethodPost, "/otp/verify", `{"phone":"0503088600","code":"not-it"}`); status != fiber.StatusUnauthorized {
		t.Fatalf("wrong code: expected 401, got %d", status)
	}

	status, body = send(t, app, fiber.MethodPost, "/otp/request", `{"phone":"0503088600","intent":"register","name":"Ama"}`)
	if status != fiber.StatusAccepted {
		t.Fatalf("resend: %d %v", status, body)
	}
	code := box.code("233503088600")
	status, body = send(t, app, fiber.MethodPost, "/otp/verify", `{"phone":"0503088600","code":"`+code+`","name":"Ama"}`)
	if status != fiber.StatusCreated {
		t.Fatalf("verify: expected 201, got %d %v", status, body)
	}
	user := body["user"].(map[string]any)
	if user["name"] != "Ama" || body["access_token"] == "" {
		t.Fatalf("unexpected verify body %v", body)
	}

	if status, _ := send(t, app, fiber.MethodPost, "/otp/request", `{"phone":"233503088600","intent":"register","name":"Ama"}`); status != fiber.StatusConflict {
		t.Fatalf("register existing: expected 409, got %d", status)
	}

	status, body = send(t, app, fiber.MethodPost, "/refresh", `{"refresh_token":"`+body["refresh_token"].(string)+`"}`)
	if status != fiber.StatusOK || body["access_token"] == "" {
		t.Fatalf("refresh: %d %v", status, body)
	}
}

func TestLogoutRunsHooks(t *testing.T) {
	repo := identity.NewMemoryRepository()
	user, _, err := identity.NewService(repo).Ensure(context.Background(), "233503088600", "Ama")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	h := NewHandler(nil, NewService(testConfig(), repo))
	var forgotten []string
	h.OnLogout(func(phone string) { forgotten = append(forgotten, phone) })

	app := fiber.New()
	app.Post("/logout", func(c *fiber.Ctx) error {
		c.Locals("user_id", user.ID)
		c.Locals("phone", user.Phone)
		return c.Next()
	}, h.Logout)

	if status, body := send(t, app, fiber.MethodPost, "/logout", ""); status != fiber.StatusOK {
		t.Fatalf("logout: %d %v", status, body)
	}
	if len(forgotten) != 1 || forgotten[0] != user.Phone {
		t.Fatalf("expected hook with %s, got %v", user.Phone, forgotten)
	}
}
