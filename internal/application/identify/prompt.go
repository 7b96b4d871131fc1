package identify

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/medetech-go/assets"
)

// Catalog is the reference data rendered into the image instruction.
type Catalog struct {
	Targets []TargetGroup `yaml:"targets"`
	Visual  []VisualHint  `yaml:"visual"`
}

// TargetGroup lists brands of one therapeutic class.
type TargetGroup struct {
	Group  string   `yaml:"group"`
	Brands []string `yaml:"brands"`
}

// VisualHint describes how a medicine looks.
type VisualHint struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Brands flattens the target groups in declaration order.
func (c Catalog) Brands() []string {
	var brands []string
	for _, group := range c.Targets {
		brands = append(brands, group.Brands...)
	}
	return brands
}

// LoadCatalog decodes a YAML catalog.
func LoadCatalog(data []byte) (Catalog, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return Catalog{}, fmt.Errorf("parse medicine catalog: %w", err)
	}
	if len(catalog.Brands()) == 0 {
		return Catalog{}, fmt.Errorf("parse medicine catalog: no target medicines")
	}
	return catalog, nil
}

// DefaultCatalog returns the embedded catalog.
func DefaultCatalog() Catalog {
	catalog, err := LoadCatalog(assets.MedicineCatalogYAML)
	if err != nil {
		panic(err)
	}
	return catalog
}

// Prompts holds the rendered instructions for both identification paths.
type Prompts struct {
	Image string
	Text  string
}

// TextInstruction appends the user's query to the text instruction.
func (p Prompts) TextInstruction(query string) string {
	return fmt.Sprintf("%s\n\nUser Query: %s", p.Text, query)
}

// RenderPrompts expands the instruction templates against catalog.
func RenderPrompts(catalog Catalog) (Prompts, error) {
	image, err := executeTemplate(imageInstructionTemplate, catalog)
	if err != nil {
		return Prompts{}, err
	}
	return Prompts{
		Image: image,
		Text:  strings.TrimSpace(textInstruction),
	}, nil
}

func executeTemplate(raw string, data interface{}) (string, error) {
	tmpl, err := template.New("prompt").Funcs(template.FuncMap{
		"join": strings.Join,
	}).Parse(raw)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

const imageInstructionTemplate = `
You are an expert pharmacist assistant for the Philippines.
Your goal is to identify medicines from images with EXTREME PRECISION, using both TEXT and VISUAL features.

TARGET MEDICINE LIST:
{{join .Brands ", "}}

VISUAL REFERENCE GUIDE (Use this to identify medicines even if text is blurry):
{{range .Visual}}- {{.Name}}: {{.Description}}
{{end}}
ANALYSIS STEPS:
1. TEXT RECOGNITION: Look for brand names, generic names, and dosage on the pill or packaging.
2. VISUAL MATCHING: Compare color, shape, and markings against the VISUAL REFERENCE GUIDE above.
3. ONLINE VERIFICATION (GROUNDING):
   - Use the Google Search tool to verify your visual findings.
   - Search for queries like "Biogesic tablet appearance Philippines" or "orange and white capsule Philippines medicine" to confirm matches.
   - If the visual features match the search results, increase your confidence.
4. CONFIDENCE CHECK:
   - If text is clearly readable -> High Confidence (95-100%).
   - If text is blurry but VISUAL MATCH + ONLINE VERIFICATION is strong -> Medium-High Confidence (85-94%).
   - If neither text nor visual match is clear -> Low Confidence (<85%).

RESPONSE FORMAT (JSON ONLY):
{
  "name": "Brand Name" (or "Unknown"),
  "genericName": "Generic Name",
  "overview": "Brief usage description",
  "usage": "Primary indications/uses",
  "dosage": "Detected dosage (e.g. 500mg)",
  "sideEffects": ["Side effect 1", "Side effect 2"],
  "contraindications": ["Contraindication 1", "Contraindication 2"],
  "brandNames": ["List of known brand names in PH"],
  "confidenceScore": number (0-100),
  "disclaimer": "Standard medical disclaimer.",
  "analysis_notes": "Explain why you identified this. E.g., 'Text was blurry, but identified Biogesic based on unique orange/white oblong shape.'"
}
`

const textInstruction = `
You are MEDetech Assistant, a helpful AI that provides medicine information for users in the Philippines.

Your goal is to identify medicines based on user queries, which might be:
1. A brand name (e.g., "Biogesic")
2. A generic name (e.g., "Paracetamol")
3. A description of symptoms (e.g., "gamot sa sakit ng ulo")
4. A visual description (e.g., "orange na bilog na gamot")

OUTPUT FORMAT:
Respond ONLY with a valid JSON object.
{
  "name": "Medicine name",
  "genericName": "Generic name",
  "overview": "Description",
  "usage": "Indications",
  "dosage": "Typical dosage",
  "sideEffects": ["Side effect 1", "Side effect 2"],
  "contraindications": ["Contraindication 1", "Contraindication 2"],
  "brandNames": ["Available brands in PH"],
  "disclaimer": "Consultation disclaimer"
}
`
