package identify

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/doeshing/medetech-go/internal/domain"
)

const (
	unknownOverview   = "The image was not clear enough to identify with 85% confidence. Please retake the photo ensuring the text and shape are visible."
	unknownDisclaimer = "Please consult a doctor or pharmacist."
	notApplicable     = "N/A"
	textSearchNotes   = "Text search result"
)

// ApplyConfidence maps an image-path reply onto the three-tier policy:
// below 85 becomes the Unknown Medicine placeholder, 85 to 94 is medium and
// 95 or more is high. A reply without a usable score is accepted as medium;
// an explicit null arrives here as a zero score.
func ApplyConfidence(p Parsed) domain.MedicineRecord {
	if p.HasScore && p.ConfidenceScore < domain.ConfidenceAcceptThreshold {
		return unknownMedicine(p)
	}

	record := p.Record.Normalize()
	record.AnalysisNotes = p.AnalysisNotes
	if p.HasScore && p.ConfidenceScore >= domain.ConfidenceHighThreshold {
		record.Confidence = domain.ConfidenceHigh
	} else {
		record.Confidence = domain.ConfidenceMedium
	}
	return record
}

// NormalizeTextResult finishes a text-path reply. Text answers are not gated.
func NormalizeTextResult(p Parsed) domain.MedicineRecord {
	record := p.Record.Normalize()
	record.Confidence = domain.ConfidenceHigh
	record.AnalysisNotes = textSearchNotes
	return record
}

func unknownMedicine(p Parsed) domain.MedicineRecord {
	score := "unknown"
	if p.HasScore {
		score = strconv.FormatFloat(p.ConfidenceScore, 'f', -1, 64)
	}
	return domain.MedicineRecord{
		Name:              domain.UnknownMedicineName,
		GenericName:       domain.UnidentifiedGenericName,
		Overview:          unknownOverview,
		Usage:             notApplicable,
		Dosage:            notApplicable,
		SideEffects:       []string{},
		Contraindications: []string{},
		BrandNames:        []string{},
		Confidence:        domain.ConfidenceLow,
		Disclaimer:        unknownDisclaimer,
		AnalysisNotes:     strings.TrimSpace(fmt.Sprintf("Low confidence (%s%%). %s", score, p.AnalysisNotes)),
	}
}
