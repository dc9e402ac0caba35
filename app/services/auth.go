package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shashiranjanraj/mazraa/app/models"
	"github.com/shashiranjanraj/mazraa/app/repositories"
	"github.com/shashiranjanraj/mazraa/pkg/auth"
	"github.com/shashiranjanraj/mazraa/pkg/ident"
	"github.com/shashiranjanraj/mazraa/pkg/logger"
	"github.com/shashiranjanraj/mazraa/pkg/validate"
)

// RegisterInput is the sign-up form.
type RegisterInput struct {
	LastName  string `json:"nom"       validate:"required,max=100"`
	FirstName string `json:"prenom"    validate:"required,max=100"`
	Phone     string `json:"telephone" validate:"required,phone"`
	Email     string `json:"email"     validate:"required,email"`
	Password  string `json:"password"  validate:"required,min=6"`
}

// LoginInput is the sign-in form.
type LoginInput struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AdminLoginInput carries the shared back-office code.
type AdminLoginInput struct {
	Code string `json:"code" validate:"required"`
}

// AuthService handles client accounts and the admin back-office session.
type AuthService struct {
	deps Deps

	// register serialises the duplicate-email check with the insert.
	register sync.Mutex
}

// Register creates an account and logs it in on sid.
func (s *AuthService) Register(ctx context.Context, sid string, in RegisterInput) (models.Client, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.LastName = strings.TrimSpace(in.LastName)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.Phone = strings.TrimSpace(in.Phone)
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return models.Client{}, ValidationError(errs)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return models.Client{}, fmt.Errorf("register: hash: %w", err)
	}

	s.register.Lock()
	defer s.register.Unlock()

	repo := s.deps.Repos.Clients
	if _, taken, err := repo.FindByEmail(ctx, in.Email); err != nil {
		return models.Client{}, err
	} else if taken {
		return models.Client{}, ErrEmailTaken
	}

	c := models.Client{
		ID:           ident.New("client"),
		LastName:     in.LastName,
		FirstName:    in.FirstName,
		Phone:        in.Phone,
		Email:        in.Email,
		PasswordHash: hash,
		RegisteredAt: s.deps.Now(),
	}
	if err := repo.Put(ctx, c); err != nil {
		return models.Client{}, fmt.Errorf("register: store: %w", err)
	}
	flush(ctx, repo)

	if err := s.deps.Repos.Sessions.SetCurrentClient(ctx, sid, c.ID); err != nil {
		return models.Client{}, fmt.Errorf("register: session: %w", err)
	}
	logger.WithCtx(ctx).Info("client registered", "client_id", c.ID)
	return c.Public(), nil
}

// Login checks the credentials and binds the client to sid. An unknown email
// and a wrong password give the same error.
func (s *AuthService) Login(ctx context.Context, sid string, in LoginInput) (models.Client, error) {
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return models.Client{}, ValidationError(errs)
	}

	c, found, err := s.deps.Repos.Clients.FindByEmail(ctx, strings.TrimSpace(in.Email))
	if err != nil {
		return models.Client{}, err
	}
	// An unknown email still pays for a hash comparison.
	var hash string
	if found {
		hash = c.PasswordHash
	}
	if !auth.CheckPassword(hash, in.Password) {
		return models.Client{}, ErrInvalidCredentials
	}

	if err := s.deps.Repos.Sessions.SetCurrentClient(ctx, sid, c.ID); err != nil {
		return models.Client{}, fmt.Errorf("login: session: %w", err)
	}
	return c.Public(), nil
}

// Logout forgets the client, the cart and any admin login bound to sid.
func (s *AuthService) Logout(ctx context.Context, sid string) error {
	sessions := s.deps.Repos.Sessions
	return errors.Join(
		sessions.ClearCurrentClient(ctx, sid),
		sessions.ClearCart(ctx, sid),
		sessions.ClearAdminSession(ctx, sid),
	)
}

// CurrentClientID is "" when nobody is logged in on sid.
func (s *AuthService) CurrentClientID(ctx context.Context, sid string) (string, error) {
	return s.deps.Repos.Sessions.CurrentClientID(ctx, sid)
}

// CurrentClient returns the logged-in client; found is false for guests and
// for sessions pointing at a deleted account.
func (s *AuthService) CurrentClient(ctx context.Context, sid string) (models.Client, bool, error) {
	id, err := s.CurrentClientID(ctx, sid)
	if err != nil || id == "" {
		return models.Client{}, false, err
	}
	c, err := s.deps.Repos.Clients.Get(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return models.Client{}, false, nil
	}
	if err != nil {
		return models.Client{}, false, err
	}
	return c.Public(), true, nil
}

// AdminLogin opens a back-office session when code matches exactly.
func (s *AuthService) AdminLogin(ctx context.Context, sid, code string) (models.AdminSession, error) {
	if subtle.ConstantTimeCompare([]byte(code), []byte(s.deps.AdminCode)) != 1 {
		logger.WithCtx(ctx).Warn("admin login rejected")
		return models.AdminSession{}, ErrInvalidAdminCode
	}
	sess := models.AdminSession{IsAdmin: true, Timestamp: s.deps.Now()}
	if err := s.deps.Repos.Sessions.SetAdminSession(ctx, sid, sess); err != nil {
		return models.AdminSession{}, fmt.Errorf("admin login: %w", err)
	}
	return sess, nil
}

// AdminSession returns the stored session while it is inside its window.
// An expired record is deleted.
func (s *AuthService) AdminSession(ctx context.Context, sid string) (models.AdminSession, bool, error) {
	sessions := s.deps.Repos.Sessions
	sess, found, err := sessions.AdminSession(ctx, sid)
	if err != nil || !found {
		return models.AdminSession{}, false, err
	}
	if !sess.ValidAt(s.deps.Now(), s.deps.AdminTTL) {
		if err := sessions.ClearAdminSession(ctx, sid); err != nil {
			return models.AdminSession{}, false, err
		}
		return models.AdminSession{}, false, nil
	}
	return sess, true, nil
}

// AdminSessionValid satisfies middleware.AdminChecker.
func (s *AuthService) AdminSessionValid(ctx context.Context, sid string) (bool, error) {
	_, ok, err := s.AdminSession(ctx, sid)
	return ok, err
}

func (s *AuthService) AdminLogout(ctx context.Context, sid string) error {
	return s.deps.Repos.Sessions.ClearAdminSession(ctx, sid)
}

// AdminSessionRemaining is how long the admin login on sid has left.
func (s *AuthService) AdminSessionRemaining(ctx context.Context, sid string) (time.Duration, bool, error) {
	sess, ok, err := s.AdminSession(ctx, sid)
	if err != nil || !ok {
		return 0, false, err
	}
	return sess.Timestamp.Add(s.deps.AdminTTL).Sub(s.deps.Now()), true, nil
}

// RotateSession carries the state of session from over to session to, after
// a login has renewed the session id.
func (s *AuthService) RotateSession(ctx context.Context, from, to string) error {
	if err := s.deps.Repos.Sessions.Move(ctx, from, to); err != nil {
		return fmt.Errorf("rotate session: %w", err)
	}
	return nil
}
