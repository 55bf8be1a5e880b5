package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/listing-service/internal/api/http/handlers"
	"github.com/spec-kit/listing-service/internal/auth"
	"github.com/spec-kit/listing-service/internal/config"
	"github.com/spec-kit/listing-service/internal/domain"
	"github.com/spec-kit/listing-service/internal/events"
	"github.com/spec-kit/listing-service/internal/observability"
	"github.com/spec-kit/listing-service/internal/repository/repotest"
	"github.com/spec-kit/listing-service/internal/service"
)

type memoryCounter struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func (m *memoryCounter) Incr(_ context.Context, key string, _ time.Duration) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = map[string]int64{}
	}
	m.counts[key]++
	return m.counts[key], nil
}

type testServer struct {
	app     *fiber.App
	store   *repotest.Store
	tokens  *auth.TokenManager
	metrics *observability.Metrics
}

// newTestServer admits role-less listing reads so the public browsing flows can be exercised.
func newTestServer(t *testing.T, limiter AttemptCounter, attempts int) *testServer {
	t.Helper()
	return newTestServerWithPolicy(t, config.UndeclaredRolesAllow, limiter, attempts)
}

func newTestServerWithPolicy(t *testing.T, policy config.UndeclaredRolesPolicy, limiter AttemptCounter, attempts int) *testServer {
	t.Helper()
	store := repotest.NewStore()
	store.PutUser(domain.User{ID: 1, Name: "Ada", Email: "ada@example.com", UserType: domain.UserTypeAdmin})
	store.PutUser(domain.User{ID: 9, Name: "Nina", Email: "nina@example.com", UserType: domain.UserTypeRealtor})
	store.PutUser(domain.User{ID: 10, Name: "Ted", Email: "ted@example.com", UserType: domain.UserTypeRealtor})
	store.PutUser(domain.User{ID: 20, Name: "Bea", Phone: "555-123-4567", Email: "bea@example.com", UserType: domain.UserTypeBuyer})
	store.PutHome(domain.Home{
		ID:           3,
		Address:      "3 Harbour St",
		City:         "Toronto",
		Price:        500000,
		PropertyType: domain.PropertyTypeCondo,
		RealtorID:    9,
		Images:       []domain.Image{{URL: "front.jpg"}, {URL: "kitchen.jpg"}},
	})

	cfg := config.Config{Auth: config.AuthConfig{
		JWTSecret:             "router-secret",
		AccessTokenTTLMinutes: 15,
		BcryptCost:            bcrypt.MinCost,
		ProductKeySecret:      "pk-secret",
	}}
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authSvc := service.NewAuthService(cfg, service.AuthDependencies{UserRepo: store.Users(), TokenManager: tokens})
	homeSvc := service.NewHomeService(service.HomeDependencies{
		HomeRepo:    store.Homes(),
		ImageRepo:   store.Images(),
		MessageRepo: store.Messages(),
		Tx:          store.Tx(),
		Dispatcher:  events.NewInMemoryDispatcher(nil),
	})

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	RegisterMiddlewares(app, zap.NewNop(), metrics, time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:       handlers.NewHealthHandler("listing-service", "test", metrics),
		Auth:         handlers.NewAuthHandler(authSvc),
		Homes:        handlers.NewHomesHandler(homeSvc),
		Guard:        auth.NewGuard(tokens, store.Users(), policy, nil),
		Limiter:      limiter,
		AuthAttempts: attempts,
		AuthWindow:   time.Minute,
	})
	return &testServer{app: app, store: store, tokens: tokens, metrics: metrics}
}

func (s *testServer) token(t *testing.T, userID int64) string {
	t.Helper()
	token, _, err := s.tokens.GenerateToken(userID, "test")
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return token
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("decode %s: %v", raw, err)
		}
	}
	return resp.StatusCode, decoded
}

func errorCode(body map[string]any) string {
	errBody, _ := body["error"].(map[string]any)
	code, _ := errBody["code"].(string)
	return code
}

func TestHomeRoutesEnforceRolesAndOwnership(t *testing.T) {
	s := newTestServer(t, nil, 0)
	newHome := map[string]any{
		"address":           "12 Elm St",
		"city":              "Toronto",
		"price":             750000,
		"landSize":          3200,
		"propertyType":      "RESIDENTIAL",
		"numberOfBedrooms":  3,
		"numberOfBathrooms": 2.5,
		"images":            []map[string]string{{"url": "elm.jpg"}},
	}

	status, body := s.do(t, http.MethodPost, "/home", newHome, "")
	if status != http.StatusUnauthorized || errorCode(body) != "UNAUTHORIZED" {
		t.Fatalf("missing token: got %d %v", status, body)
	}

	status, body = s.do(t, http.MethodPost, "/home", newHome, s.token(t, 20))
	if status != http.StatusForbidden || errorCode(body) != "FORBIDDEN" {
		t.Fatalf("buyer create: got %d %v", status, body)
	}

	status, body = s.do(t, http.MethodPost, "/home", newHome, s.token(t, 9))
	if status != http.StatusCreated {
		t.Fatalf("realtor create: got %d %v", status, body)
	}
	data := body["data"].(map[string]any)
	if data["realtorId"].(float64) != 9 || len(data["images"].([]any)) != 1 {
		t.Fatalf("unexpected home %v", data)
	}

	status, _ = s.do(t, http.MethodDelete, "/home/3", nil, s.token(t, 10))
	if status != http.StatusForbidden {
		t.Fatalf("foreign realtor delete: got %d", status)
	}
	if !s.store.HasHome(3) {
		t.Fatal("home 3 must survive")
	}

	status, _ = s.do(t, http.MethodDelete, "/home/3", nil, s.token(t, 1))
	if status != http.StatusForbidden {
		t.Fatalf("admin delete of foreign home: got %d", status)
	}

	status, _ = s.do(t, http.MethodDelete, "/home/3", nil, s.token(t, 9))
	if status != http.StatusOK {
		t.Fatalf("owner delete: got %d", status)
	}

	status, body = s.do(t, http.MethodGet, "/home/3", nil, "")
	if status != http.StatusNotFound || errorCode(body) != "NOT_FOUND" {
		t.Fatalf("deleted home: got %d %v", status, body)
	}
}

func TestPublicHomeRoutes(t *testing.T) {
	s := newTestServer(t, nil, 0)

	status, body := s.do(t, http.MethodGet, "/home/3", nil, "")
	if status != http.StatusOK {
		t.Fatalf("get: got %d", status)
	}
	if images := body["data"].(map[string]any)["images"].([]any); len(images) != 2 {
		t.Fatalf("expected both images, got %v", images)
	}

	status, body = s.do(t, http.MethodGet, "/home?city=Toronto&maxPrice=600000", nil, "")
	if status != http.StatusOK {
		t.Fatalf("list: got %d %v", status, body)
	}
	items := body["data"].([]any)
	if len(items) != 1 || items[0].(map[string]any)["image"] != "front.jpg" {
		t.Fatalf("unexpected listing %v", items)
	}

	status, _ = s.do(t, http.MethodGet, "/home?city=Atlantis", nil, "")
	if status != http.StatusNotFound {
		t.Fatalf("empty listing: got %d", status)
	}

	status, body = s.do(t, http.MethodGet, "/home?minPrice=cheap", nil, "")
	if status != http.StatusBadRequest || errorCode(body) != "VALIDATION_FAILED" {
		t.Fatalf("bad price: got %d %v", status, body)
	}

	status, body = s.do(t, http.MethodGet, "/home/abc", nil, "")
	if status != http.StatusBadRequest || errorCode(body) != "VALIDATION_FAILED" {
		t.Fatalf("non-numeric id: got %d %v", status, body)
	}

	status, body = s.do(t, http.MethodGet, "/nowhere", nil, "")
	if status != http.StatusNotFound || errorCode(body) != "NOT_FOUND" {
		t.Fatalf("unknown route: got %d %v", status, body)
	}
}

func TestInquiryFlow(t *testing.T) {
	s := newTestServer(t, nil, 0)

	status, _ := s.do(t, http.MethodPost, "/home/3/inquire", map[string]string{"message": "Still available?"}, s.token(t, 9))
	if status != http.StatusForbidden {
		t.Fatalf("realtor inquiry: got %d", status)
	}

	status, body := s.do(t, http.MethodPost, "/home/3/inquire", map[string]string{"message": ""}, s.token(t, 20))
	if status != http.StatusBadRequest {
		t.Fatalf("empty message: got %d %v", status, body)
	}

	status, body = s.do(t, http.MethodPost, "/home/3/inquire", map[string]string{"message": "Still available?"}, s.token(t, 20))
	if status != http.StatusCreated {
		t.Fatalf("buyer inquiry: got %d %v", status, body)
	}

	status, _ = s.do(t, http.MethodGet, "/home/3/messages", nil, s.token(t, 10))
	if status != http.StatusForbidden {
		t.Fatalf("foreign realtor messages: got %d", status)
	}
	status, _ = s.do(t, http.MethodGet, "/home/3/messages", nil, s.token(t, 1))
	if status != http.StatusForbidden {
		t.Fatalf("admin messages: got %d", status)
	}

	status, body = s.do(t, http.MethodGet, "/home/3/messages", nil, s.token(t, 9))
	if status != http.StatusOK {
		t.Fatalf("owner messages: got %d %v", status, body)
	}
	items := body["data"].([]any)
	buyer := items[0].(map[string]any)["buyer"].(map[string]any)
	if len(items) != 1 || buyer["email"] != "bea@example.com" || buyer["phone"] != "555-123-4567" {
		t.Fatalf("unexpected messages %v", items)
	}
}

func TestAuthRoutes(t *testing.T) {
	s := newTestServer(t, nil, 0)

	status, body := s.do(t, http.MethodPost, "/auth/signup/buyer", map[string]string{
		"name": "Bob", "email": "bob@example.com", "password": "abc",
	}, "")
	if status != http.StatusBadRequest {
		t.Fatalf("short password: got %d %v", status, body)
	}
	details := body["error"].(map[string]any)["details"].(map[string]any)
	if _, ok := details["password"]; !ok {
		t.Fatalf("expected password detail, got %v", details)
	}

	status, _ = s.do(t, http.MethodPost, "/auth/signup/landlord", map[string]string{
		"name": "Bob", "email": "bob@example.com", "password": "secret1",
	}, "")
	if status != http.StatusBadRequest {
		t.Fatalf("unknown user type: got %d", status)
	}

	status, _ = s.do(t, http.MethodPost, "/auth/signup/realtor", map[string]string{
		"name": "Rex", "email": "rex@example.com", "password": "secret1",
	}, "")
	if status != http.StatusUnauthorized {
		t.Fatalf("realtor without key: got %d", status)
	}

	status, _ = s.do(t, http.MethodPost, "/auth/key", map[string]string{"email": "rex@example.com", "userType": "REALTOR"}, s.token(t, 9))
	if status != http.StatusForbidden {
		t.Fatalf("realtor issuing key: got %d", status)
	}
	status, body = s.do(t, http.MethodPost, "/auth/key", map[string]string{"email": "rex@example.com", "userType": "REALTOR"}, s.token(t, 1))
	if status != http.StatusOK {
		t.Fatalf("admin issuing key: got %d %v", status, body)
	}
	key := body["data"].(map[string]any)["productKey"].(string)

	status, body = s.do(t, http.MethodPost, "/auth/signup/realtor", map[string]string{
		"name": "Rex", "email": "rex@example.com", "password": "secret1", "productKey": key,
	}, "")
	if status != http.StatusCreated {
		t.Fatalf("realtor with key: got %d %v", status, body)
	}

	status, _ = s.do(t, http.MethodPost, "/auth/signup/buyer", map[string]string{
		"name": "Rex", "email": "rex@example.com", "password": "secret1",
	}, "")
	if status != http.StatusConflict {
		t.Fatalf("duplicate email: got %d", status)
	}

	status, body = s.do(t, http.MethodPost, "/auth/signin", map[string]string{"email": "rex@example.com", "password": "secret1"}, "")
	if status != http.StatusOK {
		t.Fatalf("signin: got %d %v", status, body)
	}
	token := body["data"].(map[string]any)["auth"].(map[string]any)["token"].(string)

	status, body = s.do(t, http.MethodGet, "/auth/me", nil, token)
	if status != http.StatusOK {
		t.Fatalf("me: got %d %v", status, body)
	}
	me := body["data"].(map[string]any)
	if me["email"] != "rex@example.com" || me["userType"] != "REALTOR" {
		t.Fatalf("unexpected profile %v", me)
	}
	if _, leaked := me["passwordHash"]; leaked {
		t.Fatal("password hash must not be exposed")
	}

	status, _ = s.do(t, http.MethodPost, "/auth/signin", map[string]string{"email": "rex@example.com", "password": "wrong-pass"}, "")
	if status != http.StatusUnauthorized {
		t.Fatalf("bad password: got %d", status)
	}
}

func TestAuthRateLimit(t *testing.T) {
	s := newTestServer(t, &memoryCounter{}, 2)
	creds := map[string]string{"email": "nobody@example.com", "password": "secret1"}

	for i := 0; i < 2; i++ {
		status, _ := s.do(t, http.MethodPost, "/auth/signin", creds, "")
		if status != http.StatusUnauthorized {
			t.Fatalf("attempt %d: got %d", i+1, status)
		}
	}
	status, body := s.do(t, http.MethodPost, "/auth/signin", creds, "")
	if status != http.StatusTooManyRequests || errorCode(body) != "RATE_LIMITED" {
		t.Fatalf("third attempt: got %d %v", status, body)
	}

	status, _ = s.do(t, http.MethodGet, "/home/3", nil, "")
	if status != http.StatusOK {
		t.Fatalf("public routes are not limited: got %d", status)
	}
}

func TestAuthRateLimitFailsOpen(t *testing.T) {
	s := newTestServer(t, &memoryCounter{err: errors.New("redis down")}, 1)
	creds := map[string]string{"email": "nobody@example.com", "password": "secret1"}

	for i := 0; i < 3; i++ {
		status, _ := s.do(t, http.MethodPost, "/auth/signin", creds, "")
		if status != http.StatusUnauthorized {
			t.Fatalf("attempt %d: got %d", i+1, status)
		}
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, nil, 0)

	status, body := s.do(t, http.MethodGet, "/health/ready", nil, "")
	if status != http.StatusOK || body["status"] != "ready" {
		t.Fatalf("ready: got %d %v", status, body)
	}

	s.do(t, http.MethodGet, "/home/3", nil, "")
	status, body = s.do(t, http.MethodGet, "/metrics", nil, "")
	if status != http.StatusOK {
		t.Fatalf("metrics: got %d", status)
	}
	requests := body["data"].(map[string]any)["requests"].(map[string]any)
	if requests["/home/:id|GET|200"] == nil {
		t.Fatalf("expected /home/:id to be counted, got %v", requests)
	}
}

func TestListingReadsFollowUndeclaredRolesPolicy(t *testing.T) {
	deny := newTestServerWithPolicy(t, config.UndeclaredRolesDeny, nil, 0)

	for _, path := range []string{"/home/3", "/home?city=Toronto"} {
		status, body := deny.do(t, http.MethodGet, path, nil, "")
		if status != http.StatusForbidden || errorCode(body) != "FORBIDDEN" {
			t.Fatalf("deny policy, anonymous %s: got %d %v", path, status, body)
		}
		status, _ = deny.do(t, http.MethodGet, path, nil, deny.token(t, 20))
		if status != http.StatusForbidden {
			t.Fatalf("deny policy, buyer %s: got %d", path, status)
		}
	}

	status, _ := deny.do(t, http.MethodPost, "/home/3/inquire", map[string]string{"message": "Still available?"}, deny.token(t, 20))
	if status != http.StatusCreated {
		t.Fatalf("routes with declared roles are unaffected: got %d", status)
	}

	allow := newTestServerWithPolicy(t, config.UndeclaredRolesAllow, nil, 0)
	for _, path := range []string{"/home/3", "/home?city=Toronto"} {
		status, _ := allow.do(t, http.MethodGet, path, nil, "")
		if status != http.StatusOK {
			t.Fatalf("allow policy, anonymous %s: got %d", path, status)
		}
	}
}

func TestErrorCountersKeyedByRoute(t *testing.T) {
	s := newTestServer(t, nil, 0)

	for i := 0; i < 200; i++ {
		s.do(t, http.MethodGet, "/junk/"+strconv.Itoa(i), nil, "")
		s.do(t, http.MethodGet, "/home/"+strconv.Itoa(1000+i), nil, "")
	}

	errs := s.metrics.Snapshot().Errors
	if len(errs) != 2 {
		t.Fatalf("expected two error keys, got %d: %v", len(errs), errs)
	}
	if errs["unmatched|GET|NOT_FOUND"] != 200 || errs["/home/:id|GET|NOT_FOUND"] != 200 {
		t.Fatalf("unexpected error counters %v", errs)
	}
}
