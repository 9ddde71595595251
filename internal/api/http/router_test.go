package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	nethttp "net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/support-desk/internal/api/http/handlers"
	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/observability"
	"github.com/spec-kit/support-desk/internal/repository/memory"
	"github.com/spec-kit/support-desk/internal/service"
	"github.com/spec-kit/support-desk/internal/storage"
)

type testServer struct {
	app *fiber.App
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := config.Config{
		App:  config.AppConfig{Name: "support-desk", Version: "test"},
		Auth: config.AuthConfig{JWTSecret: "test", AccessTokenTTLMinutes: 5, BcryptCost: bcrypt.MinCost},
		Storage: config.StorageConfig{
			MaxUploadBytes: 1 << 20,
			AttachmentExts: []string{"png", "pdf"},
			DocumentExts:   []string{"pdf"},
		},
	}
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	repos := memory.New()
	blobs, err := storage.NewLocalStore(t.TempDir(), cfg.Storage.MaxUploadBytes)
	require.NoError(t, err)
	dispatcher := events.NewInMemoryDispatcher()
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())

	authService := service.NewAuthService(cfg, service.AuthDependencies{UserRepo: repos.Users, StaffRepo: repos.Staff, Tokens: tokens, Logger: logger})
	chatService := service.NewChatService(cfg.Storage, service.ChatDependencies{
		ChatRepo: repos.Chats, MessageRepo: repos.Messages, Blobs: blobs, Dispatcher: dispatcher, Logger: logger,
	})
	paymentService := service.NewPaymentService(service.PaymentDependencies{
		ChatRepo: repos.Chats, PaymentRepo: repos.Payments, CardRepo: repos.Cards, Dispatcher: dispatcher, Logger: logger,
	})
	staffService := service.NewStaffService(cfg, service.StaffDependencies{
		StaffRepo: repos.Staff, DocumentRepo: repos.Documents, Blobs: blobs, Tokens: tokens, Dispatcher: dispatcher, Logger: logger,
	})
	compService := service.NewCompensationService(service.CompensationDependencies{
		StaffRepo: repos.Staff, CompensationRepo: repos.Compensation, Dispatcher: dispatcher, Logger: logger,
	})
	require.NoError(t, authService.EnsureAdmin(context.Background(), "root", "rootpass"))

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler(handlers.HealthDependencies{ServiceName: "support-desk", Version: "test", Metrics: metrics}),
		Auth:           handlers.NewAuthHandler(authService, staffService),
		Chats:          handlers.NewChatsHandler(chatService, paymentService),
		Admin:          handlers.NewAdminHandler(paymentService, staffService, compService, service.NewAdminService(repos.Stats)),
		Staff:          handlers.NewStaffHandler(staffService, compService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, repos.Users, repos.Staff),
	})
	return &testServer{app: app}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.send(t, req, token)
}

func (s *testServer) multipart(t *testing.T, path, token string, fields map[string]string, fileField, fileName, content string) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileField != "" {
		part, err := w.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	req := httptest.NewRequest(nethttp.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return s.send(t, req, token)
}

func (s *testServer) send(t *testing.T, req *nethttp.Request, token string) (int, envelope) {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &env)
	}
	return resp.StatusCode, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

type authData struct {
	Auth struct {
		Token string `json:"token"`
		Role  string `json:"role"`
	} `json:"auth"`
}

type chatData struct {
	ID            int64    `json:"id"`
	Status        string   `json:"status"`
	PaymentStatus string   `json:"payment_status"`
	OrderPrice    *float64 `json:"order_price"`
}

func (s *testServer) login(t *testing.T, path, username, password string) string {
	t.Helper()
	status, env := s.do(t, nethttp.MethodPost, path, "", map[string]string{"username": username, "password": password})
	require.Equal(t, nethttp.StatusOK, status)
	return decode[authData](t, env.Data).Auth.Token
}

func (s *testServer) registerClient(t *testing.T, username string) string {
	t.Helper()
	status, env := s.do(t, nethttp.MethodPost, "/auth/clients/register", "", map[string]string{
		"username": username, "password": "secret1",
	})
	require.Equal(t, nethttp.StatusCreated, status)
	return decode[authData](t, env.Data).Auth.Token
}

func TestChatAndPaymentFlow(t *testing.T) {
	s := newTestServer(t)
	client := s.registerClient(t, "alice")
	admin := s.login(t, "/auth/login", "root", "rootpass")

	status, env := s.do(t, nethttp.MethodPost, "/chats", client, map[string]string{
		"service_name": "Website", "description": "need landing page",
	})
	require.Equal(t, nethttp.StatusCreated, status)
	chat := decode[chatData](t, env.Data)
	assert.Equal(t, "waiting", chat.Status)
	assert.Nil(t, chat.OrderPrice)
	chatPath := "/chats/" + itoa(chat.ID)

	status, env = s.do(t, nethttp.MethodPost, chatPath+"/price", admin, map[string]float64{"price": 150})
	require.Equal(t, nethttp.StatusOK, status)
	chat = decode[chatData](t, env.Data)
	assert.Equal(t, "in_progress", chat.Status)
	require.NotNil(t, chat.OrderPrice)
	assert.InDelta(t, 150.0, *chat.OrderPrice, 0.001)

	status, env = s.do(t, nethttp.MethodPost, chatPath+"/payments", client, nil)
	require.Equal(t, nethttp.StatusConflict, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_STATE", env.Error.Code)

	status, _ = s.do(t, nethttp.MethodPut, "/admin/payment-card", admin, map[string]string{
		"card_number": "4111111111111111", "card_holder": "Desk Ltd",
	})
	require.Equal(t, nethttp.StatusOK, status)

	status, env = s.do(t, nethttp.MethodPost, chatPath+"/payments", client, nil)
	require.Equal(t, nethttp.StatusCreated, status)
	submitted := decode[struct {
		Payment struct {
			ID     int64   `json:"id"`
			Amount float64 `json:"amount"`
		} `json:"payment"`
		Chat chatData `json:"chat"`
	}](t, env.Data)
	assert.InDelta(t, 150.0, submitted.Payment.Amount, 0.001)
	assert.Equal(t, "awaiting_confirmation", submitted.Chat.PaymentStatus)

	approvePath := "/admin/payments/" + itoa(submitted.Payment.ID) + "/approve"
	status, _ = s.do(t, nethttp.MethodPost, approvePath, admin, nil)
	require.Equal(t, nethttp.StatusOK, status)
	status, env = s.do(t, nethttp.MethodPost, approvePath, admin, nil)
	assert.Equal(t, nethttp.StatusConflict, status)
	assert.Equal(t, "INVALID_STATE", env.Error.Code)

	status, env = s.do(t, nethttp.MethodGet, chatPath, client, nil)
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, "paid", decode[chatData](t, env.Data).PaymentStatus)

	status, _ = s.do(t, nethttp.MethodPost, approvePath, client, nil)
	assert.Equal(t, nethttp.StatusForbidden, status)
}

func TestMessagesJSONAndMultipart(t *testing.T) {
	s := newTestServer(t)
	client := s.registerClient(t, "alice")
	status, env := s.do(t, nethttp.MethodPost, "/chats", client, map[string]string{"service_name": "Logo"})
	require.Equal(t, nethttp.StatusCreated, status)
	chatPath := "/chats/" + itoa(decode[chatData](t, env.Data).ID)

	status, _ = s.do(t, nethttp.MethodPost, chatPath+"/messages", client, map[string]string{"text": "hello"})
	require.Equal(t, nethttp.StatusCreated, status)

	status, env = s.multipart(t, chatPath+"/messages", client, map[string]string{"text": "see file"}, "file", "brief.pdf", "%PDF")
	require.Equal(t, nethttp.StatusCreated, status)
	msg := decode[struct {
		ID             int64  `json:"id"`
		AttachmentType string `json:"attachment_type"`
		AttachmentSize int64  `json:"attachment_size"`
	}](t, env.Data)
	assert.Equal(t, "file", msg.AttachmentType)
	assert.EqualValues(t, 4, msg.AttachmentSize)

	status, env = s.do(t, nethttp.MethodPost, chatPath+"/messages", client, map[string]string{"text": " "})
	assert.Equal(t, nethttp.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)

	status, env = s.do(t, nethttp.MethodGet, chatPath+"/messages?after_id=0&limit=10", client, nil)
	require.Equal(t, nethttp.StatusOK, status)
	msgs := decode[[]struct {
		ID int64 `json:"id"`
	}](t, env.Data)
	require.Len(t, msgs, 2)
	assert.Less(t, msgs[0].ID, msgs[1].ID)

	req := httptest.NewRequest(nethttp.MethodGet, chatPath+"/messages/"+itoa(msg.ID)+"/attachment", nil)
	req.Header.Set("Authorization", "Bearer "+client)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Equal(t, "%PDF", string(body))

	other := s.registerClient(t, "mallory")
	status, env = s.do(t, nethttp.MethodGet, chatPath, other, nil)
	assert.Equal(t, nethttp.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestStaffOnboardingOverHTTP(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "/auth/login", "root", "rootpass")

	status, env := s.multipart(t, "/auth/staff/register", "", map[string]string{
		"first_name": "Sam", "position": "designer", "username": "sam", "password": "secret1",
	}, "", "", "")
	require.Equal(t, nethttp.StatusBadRequest, status)
	assert.Contains(t, env.Error.Details, "contract")

	status, env = s.multipart(t, "/auth/staff/register", "", map[string]string{
		"first_name": "Sam", "position": "designer", "username": "sam", "password": "secret1",
	}, "contract", "contract.pdf", "signed")
	require.Equal(t, nethttp.StatusCreated, status)
	registered := decode[struct {
		Staff struct {
			ID int64 `json:"id"`
		} `json:"staff"`
		authData
	}](t, env.Data)
	assert.Equal(t, "staff_pending", registered.Auth.Role)
	pending := registered.Auth.Token

	status, _ = s.do(t, nethttp.MethodGet, "/chats", pending, nil)
	assert.Equal(t, nethttp.StatusForbidden, status)

	status, _ = s.do(t, nethttp.MethodGet, "/staff/me", pending, nil)
	assert.Equal(t, nethttp.StatusOK, status)

	memberPath := "/admin/staff/" + itoa(registered.Staff.ID)
	status, _ = s.do(t, nethttp.MethodPost, memberPath+"/approve", admin, nil)
	require.Equal(t, nethttp.StatusOK, status)

	status, _ = s.do(t, nethttp.MethodGet, "/staff/me", pending, nil)
	assert.Equal(t, nethttp.StatusUnauthorized, status)

	staff := s.login(t, "/auth/staff/login", "sam", "secret1")
	status, _ = s.do(t, nethttp.MethodGet, "/chats", staff, nil)
	assert.Equal(t, nethttp.StatusOK, status)

	status, env = s.do(t, nethttp.MethodPost, memberPath+"/payouts", admin, map[string]any{"amount": 50, "description": "week"})
	require.Equal(t, nethttp.StatusCreated, status)
	status, env = s.do(t, nethttp.MethodPost, memberPath+"/payouts", admin, map[string]any{"amount": 50})
	require.Equal(t, nethttp.StatusCreated, status)
	credited := decode[struct {
		Payment struct {
			ID int64 `json:"id"`
		} `json:"payment"`
		Member struct {
			TotalEarned float64 `json:"total_earned"`
		} `json:"member"`
	}](t, env.Data)
	assert.InDelta(t, 100.0, credited.Member.TotalEarned, 0.001)

	status, env = s.do(t, nethttp.MethodDelete, "/admin/payouts/"+itoa(credited.Payment.ID), admin, nil)
	require.Equal(t, nethttp.StatusOK, status)

	status, env = s.do(t, nethttp.MethodGet, "/staff/"+itoa(registered.Staff.ID)+"/payouts", staff, nil)
	require.Equal(t, nethttp.StatusOK, status)
	ledger := decode[struct {
		Member struct {
			TotalEarned float64 `json:"total_earned"`
		} `json:"member"`
		Entries []json.RawMessage `json:"entries"`
	}](t, env.Data)
	assert.InDelta(t, 50.0, ledger.Member.TotalEarned, 0.001)
	assert.Len(t, ledger.Entries, 1)
}

func TestHealthAndUnknownRoute(t *testing.T) {
	s := newTestServer(t)

	status, _ := s.do(t, nethttp.MethodGet, "/health/live", "", nil)
	assert.Equal(t, nethttp.StatusOK, status)

	status, env := s.do(t, nethttp.MethodGet, "/nowhere", "", nil)
	assert.Equal(t, nethttp.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	status, env = s.do(t, nethttp.MethodGet, "/admin/overview", "", nil)
	assert.Equal(t, nethttp.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	req := httptest.NewRequest(nethttp.MethodGet, "/health/metrics", nil)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var body struct {
		Metrics observability.Snapshot `json:"metrics"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body.Metrics.Requests)
	assert.NotEmpty(t, body.Metrics.Errors)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
