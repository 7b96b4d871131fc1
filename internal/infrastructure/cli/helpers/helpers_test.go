package helpers

import (
	"bufio"
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/doeshing/medetech-go/internal/domain"
)

func TestAnalyzeHistory(t *testing.T) {
	entries := []domain.HistoryEntry{
		{MedicineRecord: domain.MedicineRecord{Name: "Biogesic", Confidence: domain.ConfidenceHigh}},
		{MedicineRecord: domain.MedicineRecord{Name: "Neozep", Confidence: domain.ConfidenceMedium}},
		{MedicineRecord: domain.MedicineRecord{Name: "Biogesic", Confidence: domain.ConfidenceHigh}},
		{MedicineRecord: domain.MedicineRecord{Name: domain.UnknownMedicineName, Confidence: domain.ConfidenceLow}},
		{MedicineRecord: domain.MedicineRecord{Name: "Alaxan FR"}},
	}

	stats := AnalyzeHistory(entries, 2)

	if stats.Total != 5 || stats.Unknown != 1 {
		t.Fatalf("total %d unknown %d", stats.Total, stats.Unknown)
	}
	want := []MedicineStatistic{{Name: "Biogesic", Count: 2}, {Name: "Alaxan FR", Count: 1}}
	if diff := cmp.Diff(want, stats.Top); diff != "" {
		t.Fatalf("top mismatch (-want +got):\n%s", diff)
	}
	if stats.ByConfidence[domain.ConfidenceHigh] != 2 || stats.ByConfidence[""] != 1 {
		t.Fatalf("confidence counts = %v", stats.ByConfidence)
	}
}

func TestRenderHistoryList(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	entries := []domain.HistoryEntry{{
		ID:             "abc",
		Timestamp:      now.Add(-2 * time.Hour).UnixMilli(),
		MedicineRecord: domain.MedicineRecord{Name: "Kremil-S", Confidence: domain.ConfidenceHigh},
	}}

	var buf bytes.Buffer
	RenderHistoryList(&buf, entries, now)

	if got, want := buf.String(), "abc | 2 hours ago | high | Kremil-S\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRenderRecordSkipsEmptySections(t *testing.T) {
	var buf bytes.Buffer
	RenderRecord(&buf, domain.MedicineRecord{
		Name:        "Biogesic",
		Overview:    "Paracetamol for fever.",
		SideEffects: []string{"Nausea"},
		Disclaimer:  domain.DefaultDisclaimer,
	})
	out := buf.String()

	for _, want := range []string{"Biogesic\n", "Overview:", " - Nausea", domain.DefaultDisclaimer} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	for _, unwanted := range []string{"Usage:", "Brand names:", "Sources:", "Notes:"} {
		if strings.Contains(out, unwanted) {
			t.Fatalf("output should not contain %q:\n%s", unwanted, out)
		}
	}
}

func TestTraverseNestedMap(t *testing.T) {
	generic, err := ConfigToGenericMap(domain.Config{Network: domain.NetworkSettings{ProbeRetries: 3}})
	if err != nil {
		t.Fatal(err)
	}
	value, ok := TraverseNestedMap(generic, []string{"network", "probe_retries"})
	if !ok || value != float64(3) {
		t.Fatalf("got %v (%T), %v", value, value, ok)
	}
	if _, ok := TraverseNestedMap(generic, []string{"network", "missing"}); ok {
		t.Fatal("expected missing key")
	}
}

func TestPrompts(t *testing.T) {
	var out bytes.Buffer
	reader := bufio.NewReader(strings.NewReader("\nyes\n  pass word \n a, ,b \n"))

	if got := PromptForString(&out, reader, "Name", "guest"); got != "guest" {
		t.Fatalf("default not used, got %q", got)
	}
	if !PromptForConfirmation(&out, reader, "Sure?") {
		t.Fatal("expected confirmation")
	}
	if got := PromptForSecret(&out, reader, "Password"); got != "  pass word " {
		t.Fatalf("secret = %q", got)
	}
	if diff := cmp.Diff([]string{"a", "b"}, SplitAndTrimCSV(" a, ,b ")); diff != "" {
		t.Fatal(diff)
	}
}
