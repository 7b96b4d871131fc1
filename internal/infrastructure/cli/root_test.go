package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/doeshing/medetech-go/internal/app"
	"github.com/doeshing/medetech-go/internal/domain"
)

func newTestContainer(t *testing.T) *app.Container {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("EXPO_PUBLIC_GEMINI_API_KEY", "")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := fmt.Sprintf(`
identification:
  mock_image_delay_ms: 1
  mock_text_delay_ms: 1
network:
  assume_online: true
storage:
  backend: file
  path: %s
  secure_key_file: %s
`, filepath.Join(dir, "medetech.db"), filepath.Join(dir, "master.key"))
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatal(err)
	}

	c, err := app.BuildContainer(context.Background(), app.Options{ConfigPath: path, LogOutput: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("BuildContainer error: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func run(t *testing.T, c *app.Container, stdin string, args ...string) (string, string, error) {
	t.Helper()
	root := newRootCommand(c)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestAskPrintsRecordAndRecordsHistory(t *testing.T) {
	c := newTestContainer(t)

	out, _, err := run(t, c, "", "ask", "--json", "neozep")
	if err != nil {
		t.Fatalf("ask error: %v", err)
	}
	var record domain.MedicineRecord
	if err := json.Unmarshal([]byte(out), &record); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if record.Name != "Neozep (Mock)" {
		t.Fatalf("unexpected record %+v", record)
	}

	out, _, err = run(t, c, "", "history", "list")
	if err != nil {
		t.Fatalf("history list error: %v", err)
	}
	if !strings.Contains(out, "Neozep (Mock)") {
		t.Fatalf("history list missing entry:\n%s", out)
	}
}

func TestScanReadsImageFile(t *testing.T) {
	c := newTestContainer(t)
	image := filepath.Join(t.TempDir(), "pill.jpg")
	if err := os.WriteFile(image, []byte{0xff, 0xd8, 0xff}, 0o600); err != nil {
		t.Fatal(err)
	}

	out, _, err := run(t, c, "", "scan", image)
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}
	for _, want := range []string{"sample data", "Biogesic (Mock)", "MOCK DATA"} {
		if !strings.Contains(out, want) {
			t.Fatalf("scan output missing %q:\n%s", want, out)
		}
	}
}

func TestScanEmptyImageIsRejected(t *testing.T) {
	c := newTestContainer(t)
	if _, _, err := run(t, c, "", "scan", "-"); err == nil {
		t.Fatal("expected an error for an empty image")
	}
}

func TestFirstLaunchGreetsOnce(t *testing.T) {
	c := newTestContainer(t)

	out, errOut, err := run(t, c, "", "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "MEDetech version") {
		t.Fatalf("version output = %q", out)
	}
	if !strings.Contains(errOut, "Welcome to MEDetech") {
		t.Fatalf("expected greeting on first launch, got %q", errOut)
	}
	_, errOut, _ = run(t, c, "", "version")
	if errOut != "" {
		t.Fatalf("greeting should only show once, got %q", errOut)
	}
}

func TestAccountFlow(t *testing.T) {
	c := newTestContainer(t)

	if _, _, err := run(t, c, "secret1\n", "account", "register", "maria"); err != nil {
		t.Fatalf("register error: %v", err)
	}
	if _, _, err := run(t, c, "", "account", "login", "maria", "--password", "wrong!!"); err == nil {
		t.Fatal("expected login with a wrong password to fail")
	}
	if _, _, err := run(t, c, "", "account", "login", "maria", "--password", "secret1"); err != nil {
		t.Fatalf("login error: %v", err)
	}
	out, _, _ := run(t, c, "", "account", "whoami")
	if strings.TrimSpace(out) != "maria" {
		t.Fatalf("whoami = %q", out)
	}
	run(t, c, "", "account", "logout")
	out, _, _ = run(t, c, "", "account", "whoami")
	if !strings.Contains(out, "Not signed in") {
		t.Fatalf("whoami after logout = %q", out)
	}
}

func TestProfileSetMergesFields(t *testing.T) {
	c := newTestContainer(t)

	if _, _, err := run(t, c, "", "profile", "set", "--name", "Maria Santos", "--allergies", "penicillin, aspirin"); err != nil {
		t.Fatalf("profile set error: %v", err)
	}
	if _, _, err := run(t, c, "", "profile", "set", "--age", "34"); err != nil {
		t.Fatalf("profile set error: %v", err)
	}
	if _, _, err := run(t, c, "", "profile", "set", "--dob", "03/04/1990"); err == nil {
		t.Fatal("expected invalid date of birth to be rejected")
	}

	out, _, err := run(t, c, "", "profile", "show")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Name: Maria Santos", "Age: 34", "Allergies: penicillin, aspirin"} {
		if !strings.Contains(out, want) {
			t.Fatalf("profile output missing %q:\n%s", want, out)
		}
	}
}

func TestInitWizard(t *testing.T) {
	c := newTestContainer(t)

	input := strings.Join([]string{"juan", "secret1", "y", "Juan Cruz", "1990-01-02", "o+", "", ""}, "\n") + "\n"
	out, _, err := run(t, c, input, "init")
	if err != nil {
		t.Fatalf("init error: %v", err)
	}
	if !strings.Contains(out, "Account created for juan") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if c.AccountService.IsFirstLaunch(context.Background()) {
		t.Fatal("init should mark the first launch done")
	}
	profile, ok := c.AccountService.Profile(context.Background())
	if !ok || profile.BloodType != "O+" || profile.DateOfBirth != "1990-01-02" {
		t.Fatalf("unexpected profile %+v", profile)
	}
}

func TestHistoryClearRequiresConfirmation(t *testing.T) {
	c := newTestContainer(t)
	if _, _, err := run(t, c, "", "ask", "biogesic"); err != nil {
		t.Fatal(err)
	}

	out, _, _ := run(t, c, "n\n", "history", "clear")
	if !strings.Contains(out, "Nothing was deleted") || len(c.HistoryStore.List(context.Background())) != 1 {
		t.Fatalf("history should be kept without confirmation:\n%s", out)
	}
	if _, _, err := run(t, c, "", "history", "clear", "--yes"); err != nil {
		t.Fatal(err)
	}
	if got := len(c.HistoryStore.List(context.Background())); got != 0 {
		t.Fatalf("expected empty history, got %d", got)
	}
}

func TestConfigAndDoctorCommands(t *testing.T) {
	c := newTestContainer(t)

	out, _, err := run(t, c, "", "config", "path")
	if err != nil || strings.TrimSpace(out) != c.ConfigLoader.Path() {
		t.Fatalf("config path = %q, %v", out, err)
	}
	out, _, err = run(t, c, "", "config", "get", "--key", "network.assume_online")
	if err != nil || strings.TrimSpace(out) != "true" {
		t.Fatalf("config get = %q, %v", out, err)
	}
	if _, _, err := run(t, c, "", "config", "validate"); err != nil {
		t.Fatalf("config validate error: %v", err)
	}
	out, _, err = run(t, c, "", "doctor")
	if err != nil {
		t.Fatalf("doctor error: %v\n%s", err, out)
	}
	if !strings.Contains(out, "[OK]") {
		t.Fatalf("doctor output:\n%s", out)
	}
}
