// Package identify turns a medicine photo or a free-text query into a
// normalized MedicineRecord.
//
// Both paths share the same shape: connectivity gate, then either the canned
// mock result or one generative model call, then parsing. The image path
// additionally applies the confidence policy. Accepted results are appended to
// the scan history before being returned.
package identify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/doeshing/medetech-go/internal/domain"
	"github.com/doeshing/medetech-go/internal/ports"
)

const imageMimeType = "image/jpeg"

// Options are fixed for the lifetime of a Service.
type Options struct {
	// MockMode returns canned records instead of calling the model.
	MockMode bool
	// Model is the model identifier sent to the generator.
	Model string
	// Grounding enables the search tool on the image path.
	Grounding      bool
	MockImageDelay time.Duration
	MockTextDelay  time.Duration
}

// DefaultOptions returns live-mode options with the standard mock delays.
func DefaultOptions() Options {
	return Options{
		Model:          domain.DefaultModelName,
		Grounding:      true,
		MockImageDelay: domain.DefaultMockImageDelay,
		MockTextDelay:  domain.DefaultMockTextDelay,
	}
}

// Service orchestrates a single identification request.
type Service struct {
	Connectivity ports.ConnectivityChecker
	Generator    ports.Generator
	History      ports.HistoryRecorder
	Logger       ports.Logger
	Prompts      *Prompts
	Options      Options
}

// IdentifyByImage identifies a medicine from a base64-encoded JPEG.
func (s *Service) IdentifyByImage(ctx context.Context, imageBase64 string) (domain.MedicineRecord, error) {
	image := stripDataURL(strings.TrimSpace(imageBase64))
	if image == "" {
		return domain.MedicineRecord{}, fmt.Errorf("%w: image is empty", domain.ErrValidation)
	}
	if err := s.checkConnectivity(ctx); err != nil {
		return domain.MedicineRecord{}, err
	}

	if s.Options.MockMode {
		s.Logger.Warn("using mock identification response", map[string]interface{}{"path": "image"})
		if err := sleep(ctx, s.Options.MockImageDelay); err != nil {
			return domain.MedicineRecord{}, err
		}
		return s.record(ctx, MockImageRecord()), nil
	}

	prompts, err := s.prompts()
	if err != nil {
		return domain.MedicineRecord{}, err
	}
	resp, err := s.generate(ctx, "image", ports.GenerateRequest{
		Model:       s.model(),
		Instruction: prompts.Image,
		Image:       &ports.InlineData{MimeType: imageMimeType, Data: image},
		Grounding:   s.Options.Grounding,
	})
	if err != nil {
		return domain.MedicineRecord{}, err
	}

	parsed, err := ParseResponse(resp.Text)
	if err != nil {
		s.Logger.Error("model image reply could not be parsed", err, nil)
		return domain.MedicineRecord{}, err
	}
	record := ApplyConfidence(parsed)
	if !record.IsUnknown() && len(resp.Sources) > 0 {
		record.Sources = resp.Sources
	}
	s.Logger.Debug("image identified", map[string]interface{}{
		"name":       record.Name,
		"confidence": string(record.Confidence),
		"score":      parsed.ConfidenceScore,
	})
	return s.record(ctx, record), nil
}

// IdentifyByText identifies a medicine from a brand name, generic name,
// symptom or visual description.
func (s *Service) IdentifyByText(ctx context.Context, query string) (domain.MedicineRecord, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.MedicineRecord{}, fmt.Errorf("%w: query is empty", domain.ErrValidation)
	}
	if err := s.checkConnectivity(ctx); err != nil {
		return domain.MedicineRecord{}, err
	}

	if s.Options.MockMode {
		s.Logger.Warn("using mock identification response", map[string]interface{}{"path": "text"})
		if err := sleep(ctx, s.Options.MockTextDelay); err != nil {
			return domain.MedicineRecord{}, err
		}
		return s.record(ctx, MockTextRecord()), nil
	}

	prompts, err := s.prompts()
	if err != nil {
		return domain.MedicineRecord{}, err
	}
	resp, err := s.generate(ctx, "text", ports.GenerateRequest{
		Model:       s.model(),
		Instruction: prompts.TextInstruction(query),
	})
	if err != nil {
		return domain.MedicineRecord{}, err
	}

	parsed, err := ParseResponse(resp.Text)
	if err != nil {
		s.Logger.Error("model text reply could not be parsed", err, nil)
		return domain.MedicineRecord{}, err
	}
	return s.record(ctx, NormalizeTextResult(parsed)), nil
}

func (s *Service) checkConnectivity(ctx context.Context) error {
	if s.Connectivity == nil || s.Logger == nil {
		return errors.New("identify.Service dependencies not satisfied")
	}
	if !s.Connectivity.Connected(ctx) {
		return domain.ErrNoConnectivity
	}
	return nil
}

func (s *Service) generate(ctx context.Context, path string, req ports.GenerateRequest) (ports.GenerateResponse, error) {
	if s.Generator == nil {
		return ports.GenerateResponse{}, domain.ErrMissingCredential
	}

	s.Logger.Info("calling model", map[string]interface{}{
		"provider":  s.Generator.Name(),
		"model":     req.Model,
		"path":      path,
		"grounding": req.Grounding,
	})
	resp, err := s.Generator.Generate(ctx, req)
	if err == nil {
		return resp, nil
	}

	s.Logger.Error("model call failed", err, map[string]interface{}{"path": path})
	switch {
	case errors.Is(err, domain.ErrMissingCredential), errors.Is(err, domain.ErrUpstreamFailure):
		return ports.GenerateResponse{}, err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ports.GenerateResponse{}, err
	default:
		return ports.GenerateResponse{}, fmt.Errorf("%w: %v", domain.ErrUpstreamFailure, err)
	}
}

func (s *Service) record(ctx context.Context, record domain.MedicineRecord) domain.MedicineRecord {
	record = record.Normalize()
	if s.History != nil {
		s.History.Append(ctx, record)
	}
	return record
}

func (s *Service) prompts() (Prompts, error) {
	if s.Prompts != nil {
		return *s.Prompts, nil
	}
	prompts, err := RenderPrompts(DefaultCatalog())
	if err != nil {
		return Prompts{}, fmt.Errorf("render prompts: %w", err)
	}
	return prompts, nil
}

func (s *Service) model() string {
	if s.Options.Model == "" {
		return domain.DefaultModelName
	}
	return s.Options.Model
}

// stripDataURL removes a "data:image/jpeg;base64," prefix.
func stripDataURL(value string) string {
	if !strings.HasPrefix(value, "data:") {
		return value
	}
	if idx := strings.Index(value, ","); idx != -1 {
		return value[idx+1:]
	}
	return value
}
