package helpers

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/doeshing/medetech-go/internal/domain"
)

// RenderRecord prints an identification result in a plain-text layout.
func RenderRecord(out io.Writer, record domain.MedicineRecord) {
	fmt.Fprintln(out, record.Name)
	if record.GenericName != "" {
		fmt.Fprintf(out, "Generic: %s\n", record.GenericName)
	}
	if record.Confidence != "" {
		fmt.Fprintf(out, "Confidence: %s\n", strings.ToUpper(string(record.Confidence)))
	}

	renderSection(out, "Overview", record.Overview)
	renderSection(out, "Usage", record.Usage)
	renderSection(out, "Dosage", record.Dosage)
	renderList(out, "Side effects", record.SideEffects)
	renderList(out, "Contraindications", record.Contraindications)
	renderList(out, "Brand names", record.BrandNames)
	renderList(out, "Sources", record.Sources)

	if record.AnalysisNotes != "" {
		fmt.Fprintf(out, "\nNotes: %s\n", record.AnalysisNotes)
	}
	fmt.Fprintf(out, "\n%s\n", record.Disclaimer)
}

// RenderHistoryList prints one line per entry with a relative timestamp.
func RenderHistoryList(out io.Writer, entries []domain.HistoryEntry, now time.Time) {
	for _, entry := range entries {
		fmt.Fprintf(out, "%s | %s | %s | %s\n",
			entry.ID,
			humanize.RelTime(time.UnixMilli(entry.Timestamp), now, "ago", "from now"),
			confidenceLabel(entry.Confidence),
			entry.Name)
	}
}

// RenderHistoryEntry prints a full entry including its record.
func RenderHistoryEntry(out io.Writer, entry domain.HistoryEntry, now time.Time) {
	created := time.UnixMilli(entry.Timestamp)
	fmt.Fprintf(out, "ID: %s\nScanned: %s (%s)\n\n",
		entry.ID,
		created.Local().Format(domain.TimestampFormat),
		humanize.RelTime(created, now, "ago", "from now"))
	RenderRecord(out, entry.MedicineRecord)
}

// RenderHistoryStatistics prints the output of AnalyzeHistory.
func RenderHistoryStatistics(out io.Writer, stats HistoryStatistics) {
	fmt.Fprintf(out, "Entries: %s\nUnrecognised: %s\n",
		humanize.Comma(int64(stats.Total)),
		humanize.Comma(int64(stats.Unknown)))

	fmt.Fprintln(out, "Confidence:")
	for _, level := range []domain.Confidence{domain.ConfidenceHigh, domain.ConfidenceMedium, domain.ConfidenceLow, ""} {
		if count := stats.ByConfidence[level]; count > 0 {
			fmt.Fprintf(out, "  %s: %d\n", confidenceLabel(level), count)
		}
	}

	if len(stats.Top) > 0 {
		fmt.Fprintln(out, "Most identified:")
		for i, stat := range stats.Top {
			fmt.Fprintf(out, "  %s %s (%d)\n", humanize.Ordinal(i+1), stat.Name, stat.Count)
		}
	}
}

func renderSection(out io.Writer, title, body string) {
	if body == "" {
		return
	}
	fmt.Fprintf(out, "\n%s:\n  %s\n", title, body)
}

func renderList(out io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(out, "\n%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(out, " - %s\n", item)
	}
}

func confidenceLabel(c domain.Confidence) string {
	if c == "" {
		return "n/a"
	}
	return string(c)
}
