package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"google.golang.org/genai"

	"github.com/riserecover/server/models"
)

const adviceSchemaJSON = `{
  "type": "object",
  "required": ["practicalTips", "encouragement"],
  "properties": {
    "practicalTips": {
      "type": "array",
      "minItems": 3,
      "maxItems": 3,
      "items": {"type": "string", "minLength": 1}
    },
    "encouragement": {"type": "string", "minLength": 1}
  }
}`

var adviceSchema = mustSchema(adviceSchemaJSON)

func mustSchema(s string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(err)
	}
	return schema
}

// GeminiAdvisor asks a Gemini model for structured recovery advice.
type GeminiAdvisor struct {
	client *genai.Client
	model  string
}

// NewGeminiAdvisor creates an advisor for model using apiKey.
func NewGeminiAdvisor(ctx context.Context, apiKey, model string) (*GeminiAdvisor, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiAdvisor{client: client, model: model}, nil
}

// Advise implements Advisor.
func (g *GeminiAdvisor) Advise(ctx context.Context, req AdviceRequest) (models.Advice, error) {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"practicalTips": {
					Type:        genai.TypeArray,
					Items:       &genai.Schema{Type: genai.TypeString},
					Description: "List of 3 practical tips.",
				},
				"encouragement": {
					Type:        genai.TypeString,
					Description: "A short motivational sentence.",
				},
			},
			Required: []string{"practicalTips", "encouragement"},
		},
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(buildPrompt(req)), config)
	if err != nil {
		return models.Advice{}, fmt.Errorf("gemini generate: %w", err)
	}
	return parseAdvice(result.Text())
}

// parseAdvice validates a model response against the advice schema.
func parseAdvice(text string) (models.Advice, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Advice{}, errors.New("empty advice response")
	}
	res, err := adviceSchema.Validate(gojsonschema.NewStringLoader(text))
	if err != nil {
		return models.Advice{}, fmt.Errorf("advice response is not JSON: %w", err)
	}
	if !res.Valid() {
		details := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			details = append(details, e.String())
		}
		return models.Advice{}, fmt.Errorf("advice response rejected: %s", strings.Join(details, "; "))
	}
	var advice models.Advice
	if err := json.Unmarshal([]byte(text), &advice); err != nil {
		return models.Advice{}, err
	}
	for i, tip := range advice.PracticalTips {
		advice.PracticalTips[i] = strings.TrimSpace(tip)
		if advice.PracticalTips[i] == "" {
			return models.Advice{}, errors.New("advice response has a blank tip")
		}
	}
	advice.Encouragement = strings.TrimSpace(advice.Encouragement)
	if advice.Encouragement == "" {
		return models.Advice{}, errors.New("advice response has blank encouragement")
	}
	return advice, nil
}

func buildPrompt(req AdviceRequest) string {
	remedies := make([]string, 0, len(req.Resources.HerbalRemedies))
	for _, r := range req.Resources.HerbalRemedies {
		remedies = append(remedies, r.Name+": "+r.Description)
	}
	contacts := make([]string, 0, len(req.Resources.EmergencyContacts))
	for _, c := range req.Resources.EmergencyContacts {
		contacts = append(contacts, c.Name+": "+c.Number)
	}

	var b strings.Builder
	b.WriteString("You are an expert addiction recovery specialist and empathetic life coach.\n")
	fmt.Fprintf(&b, "The user is recovering from an addiction to: %s.\n", req.Addiction)
	fmt.Fprintf(&b, "They have been clean for: %d days.\n\n", req.DaysClean)
	b.WriteString("They have reported the following symptoms with severity (1-10):\n")
	b.WriteString(req.SymptomSummary())
	fmt.Fprintf(&b, "\n\nAdditional notes from user: %q.\n\n", req.Notes)
	b.WriteString("Local remedies and resources available in Sri Lanka that you can recommend if relevant:\n")
	fmt.Fprintf(&b, "Herbal Remedies: %s\n", strings.Join(remedies, "; "))
	fmt.Fprintf(&b, "Emergency Contacts: %s\n\n", strings.Join(contacts, "; "))
	b.WriteString(`Task:
1. Analyze the combination of symptoms and their severity. Higher severity items need more immediate, stronger actionable advice.
2. Provide 3 highly specific, practical and immediate actions. Do not just say "see a doctor" unless it is life-threatening, such as severe tremors or delirium. Address the most severe symptom first.
3. Provide a short, punchy message of encouragement.

Return JSON.`)
	return b.String()
}
