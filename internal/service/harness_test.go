package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/repository"
	"github.com/spec-kit/support-desk/internal/repository/memory"
	"github.com/spec-kit/support-desk/internal/storage"
)

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) handle(_ context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recorder) ofType(t events.EventType) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type harness struct {
	cfg       config.Config
	store     *memory.Store
	repos     repository.Repositories
	blobRoot  string
	events    *recorder
	auth      *AuthService
	chats     *ChatService
	payments  *PaymentService
	staff     *StaffService
	comp      *CompensationService
	admin     *AdminService
	adminUser domain.Actor
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := config.Config{
		Auth: config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 5, BcryptCost: bcrypt.MinCost},
		Storage: config.StorageConfig{
			MaxUploadBytes: 1024,
			AttachmentExts: []string{"png", "pdf", "mp4"},
			DocumentExts:   []string{"pdf", "docx"},
		},
	}
	root := t.TempDir()
	blobs, err := storage.NewLocalStore(root, cfg.Storage.MaxUploadBytes)
	require.NoError(t, err)

	store := memory.NewStore()
	repos := store.Repositories()
	dispatcher := events.NewInMemoryDispatcher()
	rec := &recorder{}
	for _, et := range []events.EventType{
		events.EventNewMessage, events.EventPriceUpdated, events.EventPaymentCompleted,
		events.EventStatusUpdated, events.EventChatCompleted, events.EventPaymentSubmitted,
		events.EventPaymentRejected, events.EventStaffRegistered, events.EventStaffReviewed,
		events.EventStaffCredited,
	} {
		dispatcher.Subscribe(et, rec.handle)
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())
	h := &harness{
		cfg:      cfg,
		store:    store,
		repos:    repos,
		blobRoot: root,
		events:   rec,
		auth:     NewAuthService(cfg, AuthDependencies{UserRepo: repos.Users, StaffRepo: repos.Staff, Tokens: tokens}),
		chats: NewChatService(cfg.Storage, ChatDependencies{
			ChatRepo: repos.Chats, MessageRepo: repos.Messages, Blobs: blobs, Dispatcher: dispatcher,
		}),
		payments: NewPaymentService(PaymentDependencies{
			ChatRepo: repos.Chats, PaymentRepo: repos.Payments, CardRepo: repos.Cards, Dispatcher: dispatcher,
		}),
		staff: NewStaffService(cfg, StaffDependencies{
			StaffRepo: repos.Staff, DocumentRepo: repos.Documents, Blobs: blobs, Tokens: tokens, Dispatcher: dispatcher,
		}),
		comp: NewCompensationService(CompensationDependencies{
			StaffRepo: repos.Staff, CompensationRepo: repos.Compensation, Dispatcher: dispatcher,
		}),
		admin: NewAdminService(repos.Stats),
	}

	admin := &domain.User{Username: "root", Role: domain.RoleAdmin}
	require.NoError(t, repos.Users.Create(context.Background(), admin))
	h.adminUser = admin.Actor()
	return h
}

func (h *harness) client(t *testing.T, username string) domain.Actor {
	t.Helper()
	user, _, err := h.auth.RegisterClient(context.Background(), RegisterClientInput{Username: username, Password: "secret1"})
	require.NoError(t, err)
	return user.Actor()
}

func (h *harness) pendingMember(t *testing.T, username string) *domain.StaffMember {
	t.Helper()
	member, _, err := h.staff.Register(context.Background(), RegisterStaffInput{
		FirstName: "Sam",
		Position:  "designer",
		Username:  username,
		Password:  "secret1",
		Contract:  &Upload{Name: "contract.pdf", Size: 3, Body: strings.NewReader("pdf")},
	})
	require.NoError(t, err)
	return member
}

func (h *harness) approvedStaff(t *testing.T, username string) (domain.Actor, *domain.StaffMember) {
	t.Helper()
	member := h.pendingMember(t, username)
	approved, err := h.staff.Approve(context.Background(), h.adminUser, member.ID)
	require.NoError(t, err)
	require.NotNil(t, approved.UserID)
	return domain.StaffActor(*approved.UserID, approved.ID), approved
}

func (h *harness) pricedChat(t *testing.T, client domain.Actor, cents int64) *domain.Chat {
	t.Helper()
	ctx := context.Background()
	chat, err := h.chats.Create(ctx, client, CreateChatInput{ServiceName: "Website"})
	require.NoError(t, err)
	chat, err = h.chats.SetPrice(ctx, h.adminUser, chat.ID, cents)
	require.NoError(t, err)
	return chat
}

func (h *harness) configureCard(t *testing.T) {
	t.Helper()
	_, err := h.payments.SetCard(context.Background(), h.adminUser, SetCardInput{CardNumber: "4111 1111 1111 1111", CardHolder: "Desk Ltd"})
	require.NoError(t, err)
}
