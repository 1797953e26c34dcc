package usecase

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/srCredoftn/dao-dash/internal/core/domain"
	"github.com/srCredoftn/dao-dash/internal/core/port"
	"github.com/srCredoftn/dao-dash/internal/infra/security"
	"github.com/srCredoftn/dao-dash/internal/repository/memory"
)

func TestMain(m *testing.M) {
	// Lightweight hashing parameters keep the suite fast; production values
	// come from configuration.
	_ = security.ConfigureArgon2(security.Argon2Config{
		Memory:      8 * 1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})

	m.Run()
}

type mailMessage struct {
	To      string
	Subject string
	Body    string
}

// mailRecorder captures outgoing mail on a channel so tests can wait for the
// asynchronous delivery.
type mailRecorder struct {
	ch chan mailMessage
}

func newMailRecorder() *mailRecorder {
	return &mailRecorder{ch: make(chan mailMessage, 8)}
}

func (m *mailRecorder) Send(_ context.Context, to, subject, htmlBody string) error {
	m.ch <- mailMessage{To: to, Subject: subject, Body: htmlBody}
	return nil
}

func (m *mailRecorder) wait(t *testing.T) mailMessage {
	t.Helper()

	select {
	case msg := <-m.ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for mail")
		return mailMessage{}
	}
}

var strongTagPattern = regexp.MustCompile(`<strong>([^<]+)</strong>`)

func extractSecret(t *testing.T, body string) string {
	t.Helper()

	match := strongTagPattern.FindStringSubmatch(body)
	if len(match) != 2 {
		t.Fatalf("no secret found in mail body: %s", body)
	}
	return match[1]
}

// eventRecorder collects published events for assertions.
type eventRecorder struct {
	mu          sync.Mutex
	created     []domain.UserCreatedEvent
	deactivated []domain.UserDeactivatedEvent
	pwChanged   []domain.PasswordChangedEvent
}

func (r *eventRecorder) PublishUserCreated(_ context.Context, event domain.UserCreatedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, event)
	return nil
}

func (r *eventRecorder) PublishUserDeactivated(_ context.Context, event domain.UserDeactivatedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deactivated = append(r.deactivated, event)
	return nil
}

func (r *eventRecorder) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pwChanged = append(r.pwChanged, event)
	return nil
}

func seedUser(t *testing.T, repo *memory.UserRepository, id, email, password string, role domain.Role) domain.User {
	t.Helper()

	hash, err := security.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	user := domain.User{
		ID:           id,
		Name:         "Seeded User",
		Email:        email,
		Role:         role,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}

	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	return user
}

func passwordUpdateFor(t *testing.T, password string, temporary bool, expiresAt *time.Time, changedAt time.Time) port.PasswordUpdate {
	t.Helper()

	hash, err := security.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	return port.PasswordUpdate{
		PasswordHash:          hash,
		IsTemporaryPassword:   temporary,
		TempPasswordExpiresAt: expiresAt,
		ChangedAt:             changedAt,
	}
}

func newIssuer(t *testing.T) *security.TokenIssuer {
	t.Helper()

	issuer, err := security.NewTokenIssuer("test-secret-0123456789", "dao-dash-test", time.Hour)
	if err != nil {
		t.Fatalf("new token issuer: %v", err)
	}
	return issuer
}
