package app

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := fmt.Sprintf(`
identification:
  mock_image_delay_ms: 1
  mock_text_delay_ms: 1
network:
  assume_online: true
storage:
  backend: sqlite
  path: %s
  secure_key_file: %s
`, filepath.Join(dir, "medetech.db"), filepath.Join(dir, "master.key"))
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBuildContainerMockMode(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("EXPO_PUBLIC_GEMINI_API_KEY", "")
	ctx := context.Background()

	c, err := BuildContainer(ctx, Options{ConfigPath: writeConfig(t), LogOutput: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("BuildContainer error: %v", err)
	}
	defer c.Close()

	if !c.MockMode || !c.IdentifyService.Options.MockMode {
		t.Fatal("expected mock mode without a credential")
	}
	record, err := c.IdentifyService.IdentifyByText(ctx, "sipon")
	if err != nil {
		t.Fatalf("IdentifyByText error: %v", err)
	}
	if record.Name != "Neozep (Mock)" {
		t.Fatalf("unexpected record: %+v", record)
	}
	entries := c.HistoryStore.List(ctx)
	if len(entries) != 1 || entries[0].Name != "Neozep (Mock)" {
		t.Fatalf("expected result recorded in history, got %+v", entries)
	}

	if _, err := c.AccountService.Register(ctx, "maria", "secret1"); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if !c.AccountService.ValidateCredentials(ctx, "maria", "secret1") {
		t.Fatal("expected registered credentials to validate")
	}

	report, err := c.DoctorService.Run(ctx)
	if err != nil {
		t.Fatalf("doctor error: %v", err)
	}
	if !report.Healthy() {
		t.Fatalf("expected healthy report, got %+v", report.Checks)
	}
}

func TestBuildContainerLiveMode(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	c, err := BuildContainer(context.Background(), Options{ConfigPath: writeConfig(t), LogOutput: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("BuildContainer error: %v", err)
	}
	defer c.Close()

	if c.MockMode || c.IdentifyService.Generator == nil {
		t.Fatal("expected live mode with a generator when a credential is present")
	}
}

func TestBuildContainerVerboseEnablesDebug(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("EXPO_PUBLIC_GEMINI_API_KEY", "")
	path := writeConfig(t)

	for _, verbose := range []bool{false, true} {
		var buf bytes.Buffer
		c, err := BuildContainer(context.Background(), Options{ConfigPath: path, Verbose: verbose, LogOutput: &buf})
		if err != nil {
			t.Fatalf("BuildContainer error: %v", err)
		}
		c.Logger.Debug("cache warmed", nil)
		c.Close()

		if got := strings.Contains(buf.String(), "cache warmed"); got != verbose {
			t.Fatalf("verbose=%v: debug line logged = %v, output %q", verbose, got, buf.String())
		}
	}
}
