package client

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"everlasting-kin/internal/auth"
	"everlasting-kin/internal/dashboard"
	"everlasting-kin/internal/models"

	"github.com/google/uuid"
)

// Identity is who the token belongs to, independent of the stored profile.
type Identity struct {
	ID    uuid.UUID
	Email string
}

type authResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Session is the signed-in state of one client.
type Session struct {
	client *Client

	mu      sync.RWMutex
	user    *Identity
	profile *models.User
	loading bool
}

// NewSession starts in the loading state until Restore, SignIn, SignUp or
// SignOut settles it.
func NewSession(c *Client) *Session {
	return &Session{client: c, loading: true}
}

func (s *Session) User() *Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) Profile() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return nil
	}
	p := *s.profile
	return &p
}

func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// View is the dashboard this session sees; none without both identity and
// profile.
func (s *Session) View() dashboard.View {
	if s.User() == nil {
		return dashboard.ViewNone
	}
	return dashboard.ViewFor(s.Profile())
}

func (s *Session) set(profile *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if profile == nil {
		s.user, s.profile = nil, nil
		return
	}
	s.user = &Identity{ID: profile.ID, Email: profile.Email}
	s.profile = profile
}

func (s *Session) setLoading() {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()
}

// Restore loads the profile for a token set on the client beforehand. No
// token, or a token the server refuses, leaves the session signed out.
func (s *Session) Restore(ctx context.Context) error {
	if s.client.Token() == "" {
		s.set(nil)
		return nil
	}
	s.setLoading()

	var profile models.User
	if err := s.client.do(ctx, http.MethodGet, "/api/auth/me", nil, &profile); err != nil {
		s.client.SetToken("")
		s.set(nil)
		return err
	}
	s.set(&profile)
	return nil
}

func (s *Session) SignIn(ctx context.Context, email, password string) error {
	s.setLoading()

	var out authResponse
	err := s.client.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		s.set(s.Profile())
		return withFallback(err, "Failed to sign in")
	}
	s.client.SetToken(out.Token)
	s.set(&out.User)
	return nil
}

// SignUp creates the account and signs in as it. Privileged roles come back
// with a pending approval status.
func (s *Session) SignUp(ctx context.Context, email, password, firstName, lastName string, role models.UserRole) error {
	s.setLoading()

	var out authResponse
	err := s.client.do(ctx, http.MethodPost, "/api/auth/signup", map[string]any{
		"email":      email,
		"password":   password,
		"first_name": firstName,
		"last_name":  lastName,
		"role":       role,
	}, &out)
	if err != nil {
		s.set(s.Profile())
		return withFallback(err, "Failed to sign up")
	}
	s.client.SetToken(out.Token)
	s.set(&out.User)
	return nil
}

// SignOut revokes the token server side. Local state is cleared even when
// that fails.
func (s *Session) SignOut(ctx context.Context) error {
	var err error
	if s.client.Token() != "" {
		err = s.client.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	}
	s.client.SetToken("")
	s.set(nil)
	return withFallback(err, "Failed to sign out")
}

// SignupForm holds what a sign-up form collects.
type SignupForm struct {
	Email           string
	Password        string
	ConfirmPassword string
	FirstName       string
	LastName        string
	Role            models.UserRole
}

// Validate runs the checks that must pass before anything is sent.
func (f SignupForm) Validate() error {
	return auth.CheckPasswords(f.Password, f.ConfirmPassword)
}

// Submit validates the form and then signs up through s. A validation
// failure makes no request.
func (f SignupForm) Submit(ctx context.Context, s *Session) error {
	if err := f.Validate(); err != nil {
		return err
	}
	role := f.Role
	if role == "" {
		role = models.RolePublicUser
	}
	return s.SignUp(ctx, strings.TrimSpace(f.Email), f.Password, strings.TrimSpace(f.FirstName), strings.TrimSpace(f.LastName), role)
}
