package account

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/crypto/bcrypt"

	"github.com/doeshing/medetech-go/internal/domain"
)

func newTestService() (*Service, *memoryKV, *memoryKV) {
	plain, secure := newMemoryKV(), newMemoryKV()
	svc := NewService(plain, secure, noopLogger{},
		WithHashCost(bcrypt.MinCost),
		WithClock(func() time.Time { return time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC) }),
	)
	return svc, plain, secure
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newTestService()
	tests := []struct {
		username, password string
	}{
		{username: "ab", password: "secret1"},
		{username: "   ", password: "secret1"},
		{username: "maria", password: "12345"},
	}
	for _, tt := range tests {
		if _, err := svc.Register(context.Background(), tt.username, tt.password); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("Register(%q, %q) error = %v, want ErrValidation", tt.username, tt.password, err)
		}
	}
}

func TestRegisterStoresHashNotPassword(t *testing.T) {
	ctx := context.Background()
	svc, plain, secure := newTestService()

	user, err := svc.Register(ctx, " maria ", "secret1")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if user.Username != "maria" {
		t.Fatalf("username = %q", user.Username)
	}
	if plain.values[domain.KeyUserName] != "maria" {
		t.Fatalf("plain store username = %q", plain.values[domain.KeyUserName])
	}
	if _, ok := plain.values[domain.KeyUserPassword]; ok {
		t.Fatal("password must not be kept in the plain store")
	}
	hash := secure.values[domain.KeyUserPassword]
	if hash == "" || strings.Contains(hash, "secret1") {
		t.Fatalf("secure store should hold a hash, got %q", hash)
	}

	got, ok := svc.CurrentUser(ctx)
	if !ok || got.Username != "maria" {
		t.Fatalf("CurrentUser = %+v, %v", got, ok)
	}
}

func TestValidateCredentialsAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	if svc.ValidateCredentials(ctx, "maria", "secret1") {
		t.Fatal("no user registered yet")
	}
	if _, err := svc.Register(ctx, "maria", "secret1"); err != nil {
		t.Fatal(err)
	}
	if !svc.ValidateCredentials(ctx, "maria", "secret1") {
		t.Fatal("expected valid credentials")
	}
	if svc.ValidateCredentials(ctx, "maria", "wrong-pass") || svc.ValidateCredentials(ctx, "juan", "secret1") {
		t.Fatal("expected invalid credentials")
	}

	if _, err := svc.Login(ctx, "maria", "nope"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("Login with bad password error = %v", err)
	}
	if _, ok := svc.Session(ctx); ok {
		t.Fatal("failed login must not open a session")
	}

	session, err := svc.Login(ctx, "maria", "secret1")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if !session.LoggedIn || session.Token == "" || session.Username != "maria" {
		t.Fatalf("unexpected session: %+v", session)
	}
	stored, ok := svc.Session(ctx)
	if !ok {
		t.Fatal("expected a stored session")
	}
	if diff := cmp.Diff(session, stored); diff != "" {
		t.Fatalf("session mismatch (-login +stored):\n%s", diff)
	}

	svc.Logout(ctx)
	if _, ok := svc.Session(ctx); ok {
		t.Fatal("expected session cleared after logout")
	}
	if _, ok := svc.CurrentUser(ctx); !ok {
		t.Fatal("logout must keep the registration")
	}
}

func TestProfile(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	if _, ok := svc.Profile(ctx); ok {
		t.Fatal("expected no profile")
	}
	tooOld := 151
	if err := svc.SaveProfile(ctx, domain.Profile{Age: &tooOld}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for age, got %v", err)
	}
	if err := svc.SaveProfile(ctx, domain.Profile{DateOfBirth: "01/02/1990"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for date, got %v", err)
	}

	age := 34
	want := domain.Profile{
		Name:        "Maria Santos",
		DateOfBirth: "1990-05-12",
		Age:         &age,
		BloodType:   "O+",
		Allergies:   []string{"Penicillin"},
		Conditions:  []string{"Asthma"},
	}
	if err := svc.SaveProfile(ctx, want); err != nil {
		t.Fatalf("SaveProfile error: %v", err)
	}
	got, ok := svc.Profile(ctx)
	if !ok {
		t.Fatal("expected stored profile")
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("profile mismatch (-want +got):\n%s", diff)
	}
}

func TestFirstLaunch(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	if !svc.IsFirstLaunch(ctx) {
		t.Fatal("fresh store should be a first launch")
	}
	svc.MarkLaunched(ctx)
	if svc.IsFirstLaunch(ctx) {
		t.Fatal("expected launched flag to persist")
	}
}

func TestClearAll(t *testing.T) {
	ctx := context.Background()
	svc, plain, secure := newTestService()
	if _, err := svc.Register(ctx, "maria", "secret1"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Login(ctx, "maria", "secret1"); err != nil {
		t.Fatal(err)
	}
	plain.values[domain.KeyScanHistory] = "[]"
	secure.values["unrelated"] = "kept"

	if err := svc.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll error: %v", err)
	}
	if len(plain.values) != 0 {
		t.Fatalf("plain store should be empty, got %v", plain.values)
	}
	if _, ok := secure.values[domain.KeyUserPassword]; ok {
		t.Fatal("password hash should be removed")
	}
	if _, ok := secure.values[domain.KeySession]; ok {
		t.Fatal("session should be removed")
	}
	if !svc.IsFirstLaunch(ctx) {
		t.Fatal("clearing all data resets onboarding")
	}
}

func TestStorageFailures(t *testing.T) {
	ctx := context.Background()
	svc := NewService(failingKV{}, failingKV{}, noopLogger{}, WithHashCost(bcrypt.MinCost))

	if _, err := svc.Register(ctx, "maria", "secret1"); !errors.Is(err, domain.ErrStorageFailure) {
		t.Fatalf("Register error = %v, want ErrStorageFailure", err)
	}
	if _, ok := svc.CurrentUser(ctx); ok {
		t.Fatal("read failure should report no user")
	}
	if svc.IsFirstLaunch(ctx) {
		t.Fatal("read failure should not report a first launch")
	}
	if err := svc.ClearAll(ctx); !errors.Is(err, domain.ErrStorageFailure) {
		t.Fatalf("ClearAll error = %v", err)
	}
	svc.Logout(ctx)
	svc.MarkLaunched(ctx)
}

type memoryKV struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemoryKV() *memoryKV {
	return &memoryKV{values: map[string]string{}}
}

func (m *memoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *memoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *memoryKV) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = map[string]string{}
	return nil
}

type failingKV struct{}

var errLocked = errors.New("keychain locked")

func (failingKV) Get(context.Context, string) (string, bool, error) { return "", false, errLocked }
func (failingKV) Set(context.Context, string, string) error         { return errLocked }
func (failingKV) Delete(context.Context, string) error              { return errLocked }
func (failingKV) Clear(context.Context) error                       { return errLocked }

type noopLogger struct{}

func (noopLogger) Debug(string, map[string]interface{})        {}
func (noopLogger) Info(string, map[string]interface{})         {}
func (noopLogger) Warn(string, map[string]interface{})         {}
func (noopLogger) Error(string, error, map[string]interface{}) {}
