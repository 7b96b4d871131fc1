package identify

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/doeshing/medetech-go/internal/domain"
)

// Parsed is a model reply mapped onto the record shape, before any policy.
type Parsed struct {
	Record          domain.MedicineRecord
	ConfidenceScore float64
	HasScore        bool
	AnalysisNotes   string
}

// ParseResponse extracts the JSON object from a model reply. Replies may be
// wrapped in a markdown fence. Every recognized field has an explicit default;
// absent or mistyped lists become empty slices.
func ParseResponse(raw string) (Parsed, error) {
	payload := stripFences(raw)
	if payload == "" {
		return Parsed{}, fmt.Errorf("%w: empty response", domain.ErrMalformedResponse)
	}
	if !gjson.Valid(payload) {
		return Parsed{}, fmt.Errorf("%w: response is not valid JSON", domain.ErrMalformedResponse)
	}
	doc := gjson.Parse(payload)
	if !doc.IsObject() {
		return Parsed{}, fmt.Errorf("%w: expected a JSON object", domain.ErrMalformedResponse)
	}

	parsed := Parsed{
		Record: domain.MedicineRecord{
			Name:              stringField(doc, "name"),
			GenericName:       stringField(doc, "genericName"),
			Overview:          stringField(doc, "overview"),
			Usage:             stringField(doc, "usage"),
			Dosage:            stringField(doc, "dosage"),
			SideEffects:       listField(doc, "sideEffects"),
			Contraindications: listField(doc, "contraindications"),
			BrandNames:        listField(doc, "brandNames"),
			Disclaimer:        stringField(doc, "disclaimer"),
		}.Normalize(),
		AnalysisNotes: stringField(doc, "analysis_notes"),
	}
	if parsed.AnalysisNotes == "" {
		parsed.AnalysisNotes = stringField(doc, "analysisNotes")
	}
	parsed.ConfidenceScore, parsed.HasScore = scoreField(doc.Get("confidenceScore"))
	return parsed, nil
}

// stripFences returns the body of the first fenced block when there is one,
// otherwise the trimmed text with any leading or trailing fence removed.
// A language tag after the opening fence is dropped with or without a
// newline after it.
func stripFences(raw string) string {
	if block, ok := fencedBlock(raw); ok {
		return block
	}
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = dropLanguageTag(text[3:])
	}
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

func fencedBlock(content string) (string, bool) {
	start := strings.Index(content, "```")
	if start == -1 {
		return "", false
	}
	suffix := content[start+3:]
	end := strings.Index(suffix, "```")
	if end == -1 {
		return "", false
	}
	return dropLanguageTag(suffix[:end]), true
}

// dropLanguageTag removes a leading marker such as "json" or "JSON" when a
// JSON value follows it.
func dropLanguageTag(body string) string {
	i := 0
	for i < len(body) && isASCIILetter(body[i]) {
		i++
	}
	rest := strings.TrimSpace(body[i:])
	if i > 0 && (rest == "" || rest[0] == '{' || rest[0] == '[') {
		return rest
	}
	return strings.TrimSpace(body)
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func stringField(doc gjson.Result, key string) string {
	value := doc.Get(key)
	switch value.Type {
	case gjson.String:
		return value.Str
	case gjson.Number:
		return value.Raw
	default:
		return ""
	}
}

func listField(doc gjson.Result, key string) []string {
	value := doc.Get(key)
	if !value.IsArray() {
		return []string{}
	}
	items := []string{}
	value.ForEach(func(_, item gjson.Result) bool {
		switch item.Type {
		case gjson.String:
			items = append(items, item.Str)
		case gjson.Number:
			items = append(items, item.Raw)
		}
		return true
	})
	return items
}

func scoreField(value gjson.Result) (float64, bool) {
	switch value.Type {
	case gjson.Number:
		return value.Num, true
	case gjson.String:
		text := strings.TrimSuffix(strings.TrimSpace(value.Str), "%")
		score, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return 0, false
		}
		return score, true
	case gjson.Null:
		// An explicit null counts as zero.
		return 0, value.Exists()
	default:
		return 0, false
	}
}
