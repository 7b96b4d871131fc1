package identify

import (
	"context"
	"time"

	"github.com/doeshing/medetech-go/internal/domain"
)

const mockDisclaimer = "MOCK DATA: Consult a professional."

// MockImageRecord is the canned image result returned in mock mode.
func MockImageRecord() domain.MedicineRecord {
	return domain.MedicineRecord{
		Name:              "Biogesic (Mock)",
		GenericName:       "Paracetamol",
		Overview:          "Biogesic is a trusted brand of paracetamol...",
		Usage:             "Used for relief of minor aches and pains.",
		Dosage:            "500mg every 4-6 hours",
		SideEffects:       []string{"Nausea", "Skin rash"},
		Contraindications: []string{"Liver disease"},
		BrandNames:        []string{"Biogesic"},
		Confidence:        domain.ConfidenceHigh,
		Disclaimer:        mockDisclaimer,
	}
}

// MockTextRecord is the canned text result returned in mock mode.
func MockTextRecord() domain.MedicineRecord {
	return domain.MedicineRecord{
		Name:              "Neozep (Mock)",
		GenericName:       "Phenylephrine HCl + Chlorphenamine Maleate + Paracetamol",
		Overview:          "Neozep is used for the relief of clogged nose, runny nose, postnasal drip, itchy and watery eyes, sneezing, headache, body aches, and fever associated with the common cold, allergic rhinitis, sinusitis, flu, and other minor respiratory tract infections.",
		Usage:             "Relief of cold symptoms",
		Dosage:            "Adults and children 12 years and older: 1 tablet every 6 hours",
		SideEffects:       []string{"Drowsiness", "Dizziness"},
		Contraindications: []string{"High blood pressure", "Severe heart disease"},
		BrandNames:        []string{"Neozep Forte", "Neozep Non-Drowsy"},
		Confidence:        domain.ConfidenceHigh,
		Disclaimer:        mockDisclaimer,
	}
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
