// Package account manages the single local user: credentials, session,
// bio-data profile and the onboarding flag.
package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/doeshing/medetech-go/internal/domain"
	"github.com/doeshing/medetech-go/internal/ports"
)

const (
	minUsernameLength = 3
	minPasswordLength = 6
	maxAge            = 150
)

// Service stores non-sensitive data in the plain store and the password hash
// and session in the secure store.
type Service struct {
	plain  ports.KeyValueStore
	secure ports.SecureStore
	log    ports.Logger
	now    func() time.Time
	cost   int
}

// Option customises a Service.
type Option func(*Service)

// WithClock overrides the time source used for session timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithHashCost overrides the bcrypt cost.
func WithHashCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

// NewService builds an account Service.
func NewService(plain ports.KeyValueStore, secure ports.SecureStore, log ports.Logger, opts ...Option) *Service {
	s := &Service{
		plain:  plain,
		secure: secure,
		log:    log,
		now:    time.Now,
		cost:   bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register stores the user, replacing any previous registration.
func (s *Service) Register(ctx context.Context, username, password string) (domain.User, error) {
	username = strings.TrimSpace(username)
	if len(username) < minUsernameLength {
		return domain.User{}, fmt.Errorf("%w: username must be at least %d characters", domain.ErrValidation, minUsernameLength)
	}
	if len(password) < minPasswordLength {
		return domain.User{}, fmt.Errorf("%w: password must be at least %d characters", domain.ErrValidation, minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	if err := s.secure.Set(ctx, domain.KeyUserPassword, string(hash)); err != nil {
		s.log.Error("error saving user", err, nil)
		return domain.User{}, fmt.Errorf("%w: save password: %v", domain.ErrStorageFailure, err)
	}
	if err := s.plain.Set(ctx, domain.KeyUserName, username); err != nil {
		s.log.Error("error saving user", err, nil)
		return domain.User{}, fmt.Errorf("%w: save username: %v", domain.ErrStorageFailure, err)
	}
	return domain.User{Username: username}, nil
}

// CurrentUser returns the registered user, if a complete registration exists.
func (s *Service) CurrentUser(ctx context.Context) (domain.User, bool) {
	username, hash, ok := s.stored(ctx)
	if !ok || username == "" || hash == "" {
		return domain.User{}, false
	}
	return domain.User{Username: username}, true
}

// ValidateCredentials reports whether username and password match the
// registered user.
func (s *Service) ValidateCredentials(ctx context.Context, username, password string) bool {
	stored, hash, ok := s.stored(ctx)
	if !ok || stored == "" || hash == "" {
		return false
	}
	if stored != strings.TrimSpace(username) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Login validates the credentials and opens a session.
func (s *Service) Login(ctx context.Context, username, password string) (domain.Session, error) {
	if !s.ValidateCredentials(ctx, username, password) {
		return domain.Session{}, domain.ErrInvalidCredentials
	}
	session := domain.Session{
		LoggedIn:  true,
		Username:  strings.TrimSpace(username),
		Token:     uuid.NewString(),
		CreatedAt: s.now().UTC(),
	}
	data, err := json.Marshal(session)
	if err != nil {
		return domain.Session{}, err
	}
	if err := s.secure.Set(ctx, domain.KeySession, string(data)); err != nil {
		s.log.Error("error saving session", err, nil)
		return domain.Session{}, fmt.Errorf("%w: save session: %v", domain.ErrStorageFailure, err)
	}
	return session, nil
}

// Session returns the open session, if any.
func (s *Service) Session(ctx context.Context) (domain.Session, bool) {
	raw, found, err := s.secure.Get(ctx, domain.KeySession)
	if err != nil {
		s.log.Error("error getting session", err, nil)
		return domain.Session{}, false
	}
	if !found || raw == "" {
		return domain.Session{}, false
	}
	var session domain.Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		s.log.Error("error decoding session", err, nil)
		return domain.Session{}, false
	}
	return session, session.LoggedIn
}

// Logout closes the session. Failures are logged only.
func (s *Service) Logout(ctx context.Context) {
	if err := s.secure.Delete(ctx, domain.KeySession); err != nil {
		s.log.Error("error clearing session", err, nil)
	}
}

// SaveProfile validates and stores the bio-data profile.
func (s *Service) SaveProfile(ctx context.Context, profile domain.Profile) error {
	if profile.Age != nil && (*profile.Age < 0 || *profile.Age > maxAge) {
		return fmt.Errorf("%w: age must be between 0 and %d", domain.ErrValidation, maxAge)
	}
	if profile.DateOfBirth != "" {
		if _, err := time.Parse("2006-01-02", profile.DateOfBirth); err != nil {
			return fmt.Errorf("%w: date of birth must be YYYY-MM-DD", domain.ErrValidation)
		}
	}
	data, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	if err := s.plain.Set(ctx, domain.KeyProfile, string(data)); err != nil {
		s.log.Error("error saving profile", err, nil)
		return fmt.Errorf("%w: save profile: %v", domain.ErrStorageFailure, err)
	}
	return nil
}

// Profile returns the stored profile, if any.
func (s *Service) Profile(ctx context.Context) (domain.Profile, bool) {
	raw, found, err := s.plain.Get(ctx, domain.KeyProfile)
	if err != nil {
		s.log.Error("error getting profile", err, nil)
		return domain.Profile{}, false
	}
	if !found || raw == "" {
		return domain.Profile{}, false
	}
	var profile domain.Profile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		s.log.Error("error decoding profile", err, nil)
		return domain.Profile{}, false
	}
	return profile, true
}

// IsFirstLaunch reports whether onboarding has not completed yet. A read
// failure reports false so onboarding is not shown again.
func (s *Service) IsFirstLaunch(ctx context.Context) bool {
	_, found, err := s.plain.Get(ctx, domain.KeyHasLaunched)
	if err != nil {
		s.log.Error("error checking first launch", err, nil)
		return false
	}
	return !found
}

// MarkLaunched records that onboarding completed. Failures are logged only.
func (s *Service) MarkLaunched(ctx context.Context) {
	if err := s.plain.Set(ctx, domain.KeyHasLaunched, "true"); err != nil {
		s.log.Error("error setting launched flag", err, nil)
	}
}

// ClearAll wipes the plain store, including history, and the secure entries.
func (s *Service) ClearAll(ctx context.Context) error {
	var errs []error
	if err := s.plain.Clear(ctx); err != nil {
		errs = append(errs, err)
	}
	for _, key := range []string{domain.KeyUserPassword, domain.KeySession} {
		if err := s.secure.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		s.log.Error("error clearing all data", err, nil)
		return fmt.Errorf("%w: clear data: %v", domain.ErrStorageFailure, err)
	}
	return nil
}

func (s *Service) stored(ctx context.Context) (username, hash string, ok bool) {
	username, _, err := s.plain.Get(ctx, domain.KeyUserName)
	if err != nil {
		s.log.Error("error getting user", err, nil)
		return "", "", false
	}
	hash, _, err = s.secure.Get(ctx, domain.KeyUserPassword)
	if err != nil {
		s.log.Error("error getting user", err, nil)
		return "", "", false
	}
	return username, hash, true
}
