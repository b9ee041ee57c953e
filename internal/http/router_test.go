package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ybilyk/contactbook/internal/avatar"
	"github.com/ybilyk/contactbook/internal/config"
	"github.com/ybilyk/contactbook/internal/domain"
	"github.com/ybilyk/contactbook/internal/logger"
	"github.com/ybilyk/contactbook/internal/mail"
	"github.com/ybilyk/contactbook/internal/repository"
	"github.com/ybilyk/contactbook/internal/service/auth"
	"github.com/ybilyk/contactbook/internal/service/contact"
)

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*domain.User)}
}

func (m *memUserRepo) CreateUser(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrConflict
		}
	}
	clone := *user
	m.users[user.ID] = &clone
	return nil
}

func (m *memUserRepo) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUserRepo) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (m *memUserRepo) ConsumeVerificationCode(_ context.Context, code string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if !u.Verified && u.VerificationCode == code {
			u.Verified = true
			u.VerificationCode = ""
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUserRepo) UpdateSessionToken(_ context.Context, id, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.SessionToken = token
	return nil
}

func (m *memUserRepo) UpdateAvatarURL(_ context.Context, id, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.AvatarURL = url
	return nil
}

func (m *memUserRepo) delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
}

type memContactRepo struct {
	mu       sync.Mutex
	contacts map[string]*domain.Contact
}

func newMemContactRepo() *memContactRepo {
	return &memContactRepo{contacts: make(map[string]*domain.Contact)}
}

func (m *memContactRepo) CreateContact(_ context.Context, contact *domain.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *contact
	m.contacts[contact.ID] = &clone
	return nil
}

func (m *memContactRepo) GetContact(_ context.Context, ownerID, id string) (*domain.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[id]
	if !ok || c.OwnerID != ownerID {
		return nil, repository.ErrNotFound
	}
	clone := *c
	return &clone, nil
}

func (m *memContactRepo) ListContacts(_ context.Context, ownerID string) ([]domain.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Contact
	for _, c := range m.contacts {
		if c.OwnerID == ownerID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memContactRepo) UpdateContact(_ context.Context, contact *domain.Contact) (*domain.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[contact.ID]
	if !ok || c.OwnerID != contact.OwnerID {
		return nil, repository.ErrNotFound
	}
	c.Name, c.Email, c.Phone, c.Favorite = contact.Name, contact.Email, contact.Phone, contact.Favorite
	clone := *c
	return &clone, nil
}

func (m *memContactRepo) UpdateContactFavorite(_ context.Context, ownerID, id string, favorite bool) (*domain.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[id]
	if !ok || c.OwnerID != ownerID {
		return nil, repository.ErrNotFound
	}
	c.Favorite = favorite
	clone := *c
	return &clone, nil
}

func (m *memContactRepo) DeleteContact(_ context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[id]
	if !ok || c.OwnerID != ownerID {
		return repository.ErrNotFound
	}
	delete(m.contacts, id)
	return nil
}

type captureMailer struct {
	mu       sync.Mutex
	messages []mail.Message
}

func (m *captureMailer) Enqueue(msg mail.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

func testLogger() *slog.Logger {
	return logger.New(io.Discard, "test", slog.LevelInfo)
}

type testEnv struct {
	router   *Router
	users    *memUserRepo
	contacts *memContactRepo
	mailer   *captureMailer
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	cfg := config.Config{
		JWTSecret:       "test-secret",
		SessionTokenTTL: 23 * time.Hour,
		PublicBaseURL:   "http://localhost:3000",
	}
	users := newMemUserRepo()
	contacts := newMemContactRepo()
	mailer := &captureMailer{}
	storage, err := avatar.NewStorage(t.TempDir(), "/avatars")
	if err != nil {
		t.Fatalf("avatar storage: %v", err)
	}
	logger := testLogger()
	authSvc := auth.New(users, mailer, storage, logger, cfg)
	contactSvc := contact.New(contacts, logger)
	router := NewRouter(logger, authSvc, contactSvc, storage, 5*1024*1024, nil)
	return testEnv{router: router, users: users, contacts: contacts, mailer: mailer}
}

func (e testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return payload
}

func (e testEnv) verificationCode(t *testing.T, email string) string {
	t.Helper()
	user, err := e.users.GetUserByEmail(context.Background(), email)
	if err != nil {
		t.Fatalf("lookup %s: %v", email, err)
	}
	if user.VerificationCode == "" {
		t.Fatalf("no verification code stored for %s", email)
	}
	return user.VerificationCode
}

func (e testEnv) signupAndSignin(t *testing.T, email, password string) string {
	t.Helper()
	if rec := e.do(t, http.MethodPost, "/auth/signup", "", map[string]string{"email": email, "password": password}); rec.Code != http.StatusCreated {
		t.Fatalf("signup %s: status %d body %s", email, rec.Code, rec.Body.String())
	}
	if rec := e.do(t, http.MethodGet, "/auth/verify/"+e.verificationCode(t, email), "", nil); rec.Code != http.StatusOK {
		t.Fatalf("verify %s: status %d", email, rec.Code)
	}
	rec := e.do(t, http.MethodPost, "/auth/signin", "", map[string]string{"email": email, "password": password})
	if rec.Code != http.StatusOK {
		t.Fatalf("signin %s: status %d body %s", email, rec.Code, rec.Body.String())
	}
	return decodeBody(t, rec)["token"].(string)
}

func TestAuthLifecycleScenario(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/auth/signup", "", map[string]string{"email": "a@x.com", "password": "password1"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup: status %d body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["email"] != "a@x.com" || body["subscription"] != "starter" {
		t.Fatalf("unexpected signup response: %v", body)
	}
	if len(env.mailer.messages) != 1 {
		t.Fatalf("expected one verification email, got %d", len(env.mailer.messages))
	}

	// Login is gated until the email is verified.
	rec = env.do(t, http.MethodPost, "/auth/signin", "", map[string]string{"email": "a@x.com", "password": "password1"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unverified signin: status %d", rec.Code)
	}
	if msg := decodeBody(t, rec)["message"]; msg != "email not verified" {
		t.Fatalf("unexpected message: %v", msg)
	}

	code := env.verificationCode(t, "a@x.com")
	if rec = env.do(t, http.MethodGet, "/auth/verify/"+code, "", nil); rec.Code != http.StatusOK {
		t.Fatalf("verify: status %d body %s", rec.Code, rec.Body.String())
	}
	// The code is single-use.
	if rec = env.do(t, http.MethodGet, "/auth/verify/"+code, "", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("verify reuse: status %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/auth/signin", "", map[string]string{"email": "a@x.com", "password": "password1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("signin: status %d body %s", rec.Code, rec.Body.String())
	}
	token := decodeBody(t, rec)["token"].(string)
	if token == "" {
		t.Fatal("empty token")
	}

	rec = env.do(t, http.MethodGet, "/auth/current", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("current: status %d", rec.Code)
	}
	if email := decodeBody(t, rec)["email"]; email != "a@x.com" {
		t.Fatalf("unexpected current email: %v", email)
	}

	if rec = env.do(t, http.MethodPost, "/auth/signout", token, nil); rec.Code != http.StatusOK {
		t.Fatalf("signout: status %d", rec.Code)
	}
	// The revoked token no longer authorizes anything.
	if rec = env.do(t, http.MethodGet, "/auth/current", token, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("current after signout: status %d", rec.Code)
	}
}

func TestSignupDuplicateEmailConflict(t *testing.T) {
	env := newTestEnv(t)

	payload := map[string]string{"email": "a@x.com", "password": "password1"}
	if rec := env.do(t, http.MethodPost, "/auth/signup", "", payload); rec.Code != http.StatusCreated {
		t.Fatalf("first signup: status %d", rec.Code)
	}
	rec := env.do(t, http.MethodPost, "/auth/signup", "", payload)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate signup: status %d", rec.Code)
	}
	if msg := decodeBody(t, rec)["message"]; msg != "email in use" {
		t.Fatalf("unexpected message: %v", msg)
	}
}

func TestSignupValidation(t *testing.T) {
	env := newTestEnv(t)

	cases := []map[string]string{
		{"email": "not-an-email", "password": "password1"},
		{"email": "a@x.com", "password": "short"},
	}
	for _, payload := range cases {
		if rec := env.do(t, http.MethodPost, "/auth/signup", "", payload); rec.Code != http.StatusBadRequest {
			t.Fatalf("payload %v: status %d", payload, rec.Code)
		}
	}
}

func TestSigninSupersedesPriorSession(t *testing.T) {
	env := newTestEnv(t)
	first := env.signupAndSignin(t, "a@x.com", "password1")

	rec := env.do(t, http.MethodPost, "/auth/signin", "", map[string]string{"email": "a@x.com", "password": "password1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("second signin: status %d", rec.Code)
	}
	second := decodeBody(t, rec)["token"].(string)

	if rec = env.do(t, http.MethodGet, "/auth/current", first, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("superseded token still accepted: status %d", rec.Code)
	}
	if rec = env.do(t, http.MethodGet, "/auth/current", second, nil); rec.Code != http.StatusOK {
		t.Fatalf("current token rejected: status %d", rec.Code)
	}
}

func TestResendVerification(t *testing.T) {
	env := newTestEnv(t)

	if rec := env.do(t, http.MethodPost, "/auth/signup", "", map[string]string{"email": "a@x.com", "password": "password1"}); rec.Code != http.StatusCreated {
		t.Fatalf("signup: status %d", rec.Code)
	}
	code := env.verificationCode(t, "a@x.com")

	rec := env.do(t, http.MethodPost, "/auth/verify", "", map[string]string{"email": "a@x.com"})
	if rec.Code != http.StatusOK {
		t.Fatalf("resend: status %d body %s", rec.Code, rec.Body.String())
	}
	if len(env.mailer.messages) != 2 {
		t.Fatalf("expected two emails, got %d", len(env.mailer.messages))
	}
	if !strings.Contains(env.mailer.messages[1].HTML, code) {
		t.Fatal("resend must reuse the stored code")
	}

	if rec = env.do(t, http.MethodPost, "/auth/verify", "", map[string]string{"email": "nobody@x.com"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("resend unknown email: status %d", rec.Code)
	}

	if rec = env.do(t, http.MethodGet, "/auth/verify/"+code, "", nil); rec.Code != http.StatusOK {
		t.Fatalf("verify: status %d", rec.Code)
	}
	if rec = env.do(t, http.MethodPost, "/auth/verify", "", map[string]string{"email": "a@x.com"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("resend after verify: status %d", rec.Code)
	}
	if msg := decodeBody(t, rec)["message"]; msg != "already verified" {
		t.Fatalf("unexpected message: %v", msg)
	}
}

func TestContactOwnerIsolation(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signupAndSignin(t, "alice@x.com", "password1")
	bob := env.signupAndSignin(t, "bob@x.com", "password1")

	rec := env.do(t, http.MethodPost, "/api/contacts", alice, map[string]any{
		"name": "Carol", "email": "carol@x.com", "phone": "0501234567",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create contact: status %d body %s", rec.Code, rec.Body.String())
	}
	contactID := decodeBody(t, rec)["id"].(string)

	rec = env.do(t, http.MethodGet, "/api/contacts", bob, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list contacts: status %d", rec.Code)
	}
	var listed []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("bob must not see alice's contacts: %v", listed)
	}
	if rec = env.do(t, http.MethodGet, "/api/contacts/"+contactID, bob, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("cross-tenant get: status %d", rec.Code)
	}
	if rec = env.do(t, http.MethodDelete, "/api/contacts/"+contactID, bob, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("cross-tenant delete: status %d", rec.Code)
	}

	fav := map[string]bool{"favorite": true}
	rec = env.do(t, http.MethodPatch, "/api/contacts/"+contactID+"/favorite", alice, fav)
	if rec.Code != http.StatusOK {
		t.Fatalf("favorite toggle: status %d body %s", rec.Code, rec.Body.String())
	}
	if favorite := decodeBody(t, rec)["favorite"]; favorite != true {
		t.Fatalf("favorite not applied: %v", favorite)
	}
}

func TestAvatarUpload(t *testing.T) {
	env := newTestEnv(t)
	token := env.signupAndSignin(t, "a@x.com", "password1")

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("avatar", "me.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fmt.Fprint(part, "png-bytes")
	writer.Close()

	req := httptest.NewRequest(http.MethodPatch, "/auth/avatars", &buf)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("avatar upload: status %d body %s", rec.Code, rec.Body.String())
	}
	url, _ := decodeBody(t, rec)["avatarURL"].(string)
	if !strings.HasPrefix(url, "/avatars/") {
		t.Fatalf("unexpected avatar url: %q", url)
	}
	user, err := env.users.GetUserByEmail(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("lookup user: %v", err)
	}
	if user.AvatarURL != url {
		t.Fatalf("avatar url not persisted: stored=%q returned=%q", user.AvatarURL, url)
	}

	// The uploaded file is served back.
	rec = env.do(t, http.MethodGet, url, "", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "png-bytes" {
		t.Fatalf("serving avatar: status %d body %q", rec.Code, rec.Body.String())
	}
}

func TestAvatarUploadRejectsOversizedFile(t *testing.T) {
	env := newTestEnv(t)
	token := env.signupAndSignin(t, "a@x.com", "password1")

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("avatar", "huge.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(bytes.Repeat([]byte("x"), 6*1024*1024)); err != nil {
		t.Fatalf("write oversized part: %v", err)
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPatch, "/auth/avatars", &buf)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("oversized upload: status %d, want 413", rec.Code)
	}
	user, err := env.users.GetUserByEmail(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("lookup user: %v", err)
	}
	if strings.HasPrefix(user.AvatarURL, "/avatars/") {
		t.Fatalf("rejected upload must not change the avatar: %q", user.AvatarURL)
	}
}
