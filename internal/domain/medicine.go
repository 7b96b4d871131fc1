// Package domain defines core business entities and value objects for MEDetech.
//
// This file contains the medicine identification result and the history entry
// that wraps it. The domain layer is independent of infrastructure concerns and
// represents pure business data structures.
package domain

// Confidence is the discretized trust label shown to the user. It is always
// derived from the model's numeric score and never carries the raw value.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Sentinel values used when a result cannot be trusted.
const (
	UnknownMedicineName     = "Unknown Medicine"
	UnidentifiedGenericName = "Unidentified"
	DefaultDisclaimer       = "Consult a healthcare professional."
)

// MedicineRecord is the normalized identification result.
type MedicineRecord struct {
	Name              string     `json:"name"`
	GenericName       string     `json:"genericName,omitempty"`
	Overview          string     `json:"overview"`
	Usage             string     `json:"usage"`
	Dosage            string     `json:"dosage"`
	SideEffects       []string   `json:"sideEffects"`
	Contraindications []string   `json:"contraindications"`
	BrandNames        []string   `json:"brandNames"`
	Disclaimer        string     `json:"disclaimer"`
	Confidence        Confidence `json:"confidence,omitempty"`
	AnalysisNotes     string     `json:"analysis_notes,omitempty"`
	Sources           []string   `json:"sources,omitempty"`
}

// Normalize guarantees that list fields are never nil and the disclaimer is set.
func (m MedicineRecord) Normalize() MedicineRecord {
	m.SideEffects = nonNil(m.SideEffects)
	m.Contraindications = nonNil(m.Contraindications)
	m.BrandNames = nonNil(m.BrandNames)
	if m.Disclaimer == "" {
		m.Disclaimer = DefaultDisclaimer
	}
	return m
}

// IsUnknown reports whether the record is the low-confidence placeholder.
func (m MedicineRecord) IsUnknown() bool {
	return m.Name == UnknownMedicineName
}

// HistoryEntry is a MedicineRecord accepted into the scan history.
type HistoryEntry struct {
	MedicineRecord
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"`
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
