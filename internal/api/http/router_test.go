package http

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap/zaptest"

	"github.com/ticktraq/field-service/internal/api/http/handlers"
	"github.com/ticktraq/field-service/internal/auth"
	"github.com/ticktraq/field-service/internal/clock"
	"github.com/ticktraq/field-service/internal/events"
	"github.com/ticktraq/field-service/internal/observability"
	"github.com/ticktraq/field-service/internal/persistence"
	"github.com/ticktraq/field-service/internal/repository"
	"github.com/ticktraq/field-service/internal/seed"
	"github.com/ticktraq/field-service/internal/service"
	"github.com/ticktraq/field-service/internal/worker"
)

type testServer struct {
	app     *fiber.App
	metrics *observability.Metrics
	tickets *service.TicketStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zaptest.NewLogger(t)
	fake := clock.NewFake(time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC))
	data := seed.Default()
	src := seed.NewSource(data, seed.WithClock(fake), seed.WithLatency(0, 0))
	disp := events.NewInMemoryDispatcher(logger)
	kv := persistence.NewMemory()
	metrics := observability.NewMetrics()

	logs, err := data.Logs()
	if err != nil {
		t.Fatalf("seed logs: %v", err)
	}
	user, err := data.User()
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	tokens := auth.NewTokenManager("test-secret", time.Hour, fake.Now)

	tickets := service.NewTicketStore(service.TicketDependencies{
		Repo: repository.NewTicketRepository(kv, "tickets-storage"), Source: src,
		Dispatcher: disp, Clock: fake, Logger: logger,
	})
	inventory := service.NewInventoryStore(service.InventoryDependencies{
		Repo: repository.NewInventoryRepository(kv, "inventory-storage"), Source: src,
		Dispatcher: disp, Clock: fake, Logger: logger,
	})
	logStore := service.NewLogsStore(service.LogsDependencies{
		Repo: repository.NewLogsRepository(kv, "logs-storage"), Logs: logs,
		Dispatcher: disp, Clock: fake, Logger: logger,
	})
	session := service.NewSessionStore(service.SessionDependencies{
		User: user, Tokens: tokens, Dispatcher: disp, Clock: fake, Logger: logger,
	})
	stop := worker.StartConsumptionWorker(disp, tickets, logger)
	t.Cleanup(func() {
		stop()
		tickets.Close()
		inventory.Close()
		logStore.Close()
	})

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:    handlers.NewHealthHandler("field-service", "test", "memory", kv, metrics),
		Session:   handlers.NewSessionHandler(session),
		Tickets:   handlers.NewTicketsHandler(tickets),
		Inventory: handlers.NewInventoryHandler(inventory),
		Logs:      handlers.NewLogsHandler(logStore),
		Identify:  auth.Identify(tokens, logger),
	})
	return &testServer{app: app, metrics: metrics, tickets: tickets}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func (s *testServer) do(t *testing.T, method, target, body string, headers ...string) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, target, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, target, raw, err)
		}
	}
	return resp.StatusCode, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode data %s: %v", raw, err)
	}
	return out
}

type listBody struct {
	Tickets []struct {
		ID       int64  `json:"id"`
		TicketID string `json:"ticketId"`
		Priority string `json:"priority"`
	} `json:"tickets"`
	Stats struct {
		Total int `json:"total"`
		Open  int `json:"open"`
	} `json:"stats"`
	Total int `json:"total"`
}

func TestTicketEndpoints(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, "GET", "/api/tickets", "")
	if status != fiber.StatusOK {
		t.Fatalf("list status = %d", status)
	}
	if got := decode[listBody](t, env.Data); got.Total != 0 || len(got.Tickets) != 0 {
		t.Fatalf("list before fetch = %+v, want empty", got)
	}

	status, env = s.do(t, "POST", "/api/tickets/fetch", "")
	if status != fiber.StatusOK {
		t.Fatalf("fetch status = %d (%+v)", status, env.Error)
	}
	list := decode[listBody](t, env.Data)
	if list.Stats.Total != 6 || len(list.Tickets) != 6 {
		t.Fatalf("after fetch stats = %+v, rows = %d", list.Stats, len(list.Tickets))
	}
	if list.Tickets[0].Priority != "critical" {
		t.Errorf("first row priority = %q, want critical", list.Tickets[0].Priority)
	}

	status, env = s.do(t, "GET", "/api/tickets?q=amb-3011", "")
	if status != fiber.StatusOK {
		t.Fatalf("search status = %d", status)
	}
	list = decode[listBody](t, env.Data)
	if len(list.Tickets) != 1 || list.Tickets[0].TicketID != "AMB-3011" {
		t.Errorf("search rows = %+v", list.Tickets)
	}
	if list.Stats.Total != 6 {
		t.Errorf("stats total under search = %d, want 6", list.Stats.Total)
	}

	status, env = s.do(t, "PATCH", "/api/tickets/1/status", `{"status":"closed"}`)
	if status != fiber.StatusOK {
		t.Fatalf("update status = %d (%+v)", status, env.Error)
	}
	if got, _ := s.tickets.GetTicketByID(1); got.Status != "closed" {
		t.Errorf("ticket 1 status = %q, want closed", got.Status)
	}

	status, env = s.do(t, "PATCH", "/api/tickets", `{"ids":[2,3,404],"patch":{"priority":"low"}}`)
	if status != fiber.StatusOK {
		t.Fatalf("bulk status = %d (%+v)", status, env.Error)
	}
	if got := decode[struct {
		Updated int `json:"updated"`
	}](t, env.Data); got.Updated != 2 {
		t.Errorf("bulk updated = %d, want 2", got.Updated)
	}
}

func TestErrorEnvelope(t *testing.T) {
	s := newTestServer(t)
	s.do(t, "POST", "/api/tickets/fetch", "")

	cases := []struct {
		name   string
		method string
		target string
		body   string
		status int
		code   string
	}{
		{"invalid status", "PATCH", "/api/tickets/1/status", `{"status":"archived"}`, 400, "INVALID_STATUS"},
		{"unknown ticket", "GET", "/api/tickets/999", "", 404, "NOT_FOUND"},
		{"bad id", "GET", "/api/tickets/abc", "", 400, "VALIDATION_FAILED"},
		{"empty patch", "PATCH", "/api/tickets", `{"ids":[1],"patch":{}}`, 400, "VALIDATION_FAILED"},
		{"unknown route", "GET", "/api/nothing", "", 404, "NOT_FOUND"},
		{"me without token", "GET", "/api/auth/me", "", 401, "UNAUTHORIZED"},
		{"bad activity code", "PATCH", "/api/logs/1", `{"activityCode":"ZZ"}`, 400, "INVALID_STATUS"},
		{"unknown log", "DELETE", "/api/logs/nope", "", 404, "NOT_FOUND"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, env := s.do(t, tc.method, tc.target, tc.body)
			if status != tc.status {
				t.Errorf("status = %d, want %d", status, tc.status)
			}
			if env.Error == nil || env.Error.Code != tc.code {
				t.Errorf("error = %+v, want code %s", env.Error, tc.code)
			}
		})
	}

	if got := s.metrics.Snapshot().Errors["/api/tickets/999|GET|NOT_FOUND"]; got != 1 {
		t.Errorf("error counter = %d, want 1", got)
	}
}

func TestInventoryApplyReachesTicket(t *testing.T) {
	s := newTestServer(t)
	s.do(t, "POST", "/api/tickets/fetch", "")

	if status, env := s.do(t, "POST", "/api/inventory/received/fetch", ""); status != fiber.StatusOK {
		t.Fatalf("fetch received = %d (%+v)", status, env.Error)
	}
	if status, env := s.do(t, "POST", "/api/inventory/received/rel-1/accept", ""); status != fiber.StatusOK {
		t.Fatalf("accept = %d (%+v)", status, env.Error)
	}
	status, env := s.do(t, "POST", "/api/inventory/received/rel-3/apply", `{"ticketId":"2576"}`)
	if status != fiber.StatusConflict || env.Error.Code != "INVALID_TRANSITION" {
		t.Errorf("apply released item = %d %+v, want 409 INVALID_TRANSITION", status, env.Error)
	}
	if status, env := s.do(t, "POST", "/api/inventory/received/rel-1/apply", `{"ticketId":"2576"}`); status != fiber.StatusNoContent {
		t.Fatalf("apply = %d (%+v)", status, env.Error)
	}

	ticket, _ := s.tickets.GetTicketByID(1)
	last := ticket.InventoryConsumed[len(ticket.InventoryConsumed)-1]
	if last.Barcode != "HK-9982-0001" {
		t.Errorf("consumed barcode = %q, want HK-9982-0001", last.Barcode)
	}
	status, _ = s.do(t, "POST", "/api/inventory/received/rel-1/accept", "")
	if status != fiber.StatusNotFound {
		t.Errorf("accept applied item = %d, want 404", status)
	}
}

func TestAddRequestEndpoint(t *testing.T) {
	s := newTestServer(t)
	body := `{"requestedTo":"Store Keeper Riyadh","requestedBy":"Ahmed Al-Sayed","items":[{"itemCode":"HK-9982","itemName":"Hikvision 4K Dome Camera","quantity":2}]}`
	status, env := s.do(t, "POST", "/api/inventory/requests", body)
	if status != fiber.StatusCreated {
		t.Fatalf("add request = %d (%+v)", status, env.Error)
	}
	created := decode[struct {
		ID            string `json:"id"`
		RequestNumber string `json:"requestNumber"`
	}](t, env.Data)
	if !strings.HasPrefix(created.RequestNumber, "REQ-") {
		t.Errorf("request number = %q", created.RequestNumber)
	}
	if status, _ := s.do(t, "DELETE", "/api/inventory/requests/"+created.ID, ""); status != fiber.StatusNoContent {
		t.Errorf("delete = %d, want 204", status)
	}
	status, env = s.do(t, "POST", "/api/inventory/requests", `{"requestedTo":"x","requestedBy":"y","items":[]}`)
	if status != fiber.StatusBadRequest || env.Error.Code != "VALIDATION_FAILED" {
		t.Errorf("empty request = %d %+v", status, env.Error)
	}
}

func TestSessionEndpoints(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, "POST", "/api/auth/login", `{"email":"anyone@example.com","password":"x"}`)
	if status != fiber.StatusOK {
		t.Fatalf("login = %d (%+v)", status, env.Error)
	}
	login := decode[struct {
		User struct {
			Email string `json:"email"`
		} `json:"user"`
		Auth struct {
			Token string `json:"token"`
		} `json:"auth"`
	}](t, env.Data)
	if login.User.Email != "admin@ticktraq.com" || login.Auth.Token == "" {
		t.Fatalf("login body = %+v", login)
	}

	status, env = s.do(t, "GET", "/api/auth/me", "", fiber.HeaderAuthorization, "Bearer "+login.Auth.Token)
	if status != fiber.StatusOK {
		t.Fatalf("me = %d (%+v)", status, env.Error)
	}
	if me := decode[struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}](t, env.Data); me.Email != "admin@ticktraq.com" || me.Role != "admin" {
		t.Errorf("me = %+v", me)
	}

	status, _ = s.do(t, "GET", "/api/tickets", "", fiber.HeaderAuthorization, "Bearer garbage")
	if status != fiber.StatusOK {
		t.Errorf("invalid token blocked a public route: %d", status)
	}
}

func TestLogEndpoints(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, "POST", "/api/logs", "")
	if status != fiber.StatusCreated {
		t.Fatalf("add row = %d", status)
	}
	row := decode[struct {
		ID    string `json:"id"`
		IsNew bool   `json:"isNew"`
	}](t, env.Data)
	if row.ID == "" {
		t.Fatal("add row returned no id")
	}

	if status, env := s.do(t, "POST", "/api/logs/"+row.ID+"/cancel", ""); status != fiber.StatusOK {
		t.Fatalf("cancel = %d (%+v)", status, env.Error)
	}
	status, env = s.do(t, "GET", "/api/logs?q=amb-", "")
	if status != fiber.StatusOK {
		t.Fatalf("search = %d", status)
	}
	view := decode[struct {
		Logs     []json.RawMessage `json:"logs"`
		Filtered []json.RawMessage `json:"filtered"`
	}](t, env.Data)
	if len(view.Logs) != 5 || len(view.Filtered) != 2 {
		t.Errorf("logs = %d filtered = %d, want 5 and 2", len(view.Logs), len(view.Filtered))
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)
	if status, _ := s.do(t, "GET", "/health/ready", ""); status != fiber.StatusOK {
		t.Errorf("ready = %d", status)
	}
	s.do(t, "GET", "/health/live", "")

	status, env := s.do(t, "GET", "/metrics", "")
	if status != fiber.StatusOK {
		t.Fatalf("metrics = %d", status)
	}
	snap := decode[observability.MetricsSnapshot](t, env.Data)
	if snap.Requests["/health/ready|GET|200"] != 1 {
		t.Errorf("requests = %v", snap.Requests)
	}
}
