package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

// Draft is a generated outreach email.
type Draft struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// DraftInput collects everything the drafter personalizes on. Research is
// the JSON blob produced by PerplexityClient.ResearchPerson.
type DraftInput struct {
	ProductDescription string
	CompanyName        string
	DecisionMaker      string
	DecisionMakerRole  string
	Research           string
	SenderName         string
	SenderPosition     string
	SenderCompany      string
}

// Drafter writes personalized proposal and reminder emails with Gemini.
// Structured output keeps parsing deterministic; the model cannot wander
// outside the subject/body schema.
type Drafter struct {
	client *genai.Client
	model  string
	logger *logrus.Logger
}

var draftSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"subject": {Type: genai.TypeString},
		"body":    {Type: genai.TypeString},
	},
	Required: []string{"subject", "body"},
}

func NewDrafter(ctx context.Context, apiKey, model string, logger *logrus.Logger) (*Drafter, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("GEMINI_MODEL is required")
	}
	if logger == nil {
		logger = logrus.New()
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  strings.TrimSpace(apiKey),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &Drafter{client: client, model: strings.TrimSpace(model), logger: logger}, nil
}

// DraftProposal writes the first outreach email for a decision maker.
func (d *Drafter) DraftProposal(ctx context.Context, in DraftInput) (*Draft, error) {
	prompt := fmt.Sprintf(`Product Description: %s
Target Company details and Decision Maker details: %s

Follow the below steps:
1. Understand the provided product description alongwith the company %s's pain points.
2. Understand the gathered information of the target company %s and the target decision maker %s who is the %s of the company.
3. Craft a casual engaging yet human-like business email tailored to the recipient's profile and the company's latest news and updates that enhance their existing feature or overcome an issue. The mail should be tailored to the target decision maker's preferences and interests.
4. Sign off as %s, %s at %s.
5. Structure the body with HTML tags for formatting and clarity like <br/> and <strong> where appropriate.`,
		in.ProductDescription, in.Research,
		in.CompanyName, in.CompanyName, in.DecisionMaker, in.DecisionMakerRole,
		in.SenderName, in.SenderPosition, in.SenderCompany)

	return d.generate(ctx, prompt)
}

// DraftReminder writes a short follow-up referencing the original email.
func (d *Drafter) DraftReminder(ctx context.Context, in DraftInput, originalSubject, originalBody string) (*Draft, error) {
	prompt := fmt.Sprintf(`You previously sent the outreach email below to %s (%s at %s) and received no response.

Original subject: %s
Original body: %s

Write a short, polite follow-up email that adds one new angle from this research rather than repeating the pitch: %s
Keep it under 120 words, sign off as %s, and structure the body with HTML tags like <br/> where appropriate.`,
		in.DecisionMaker, in.DecisionMakerRole, in.CompanyName,
		originalSubject, originalBody, in.Research, in.SenderName)

	return d.generate(ctx, prompt)
}

func (d *Drafter) generate(ctx context.Context, prompt string) (*Draft, error) {
	if d == nil {
		return nil, fmt.Errorf("drafter not configured")
	}
	resp, err := d.client.Models.GenerateContent(
		ctx,
		d.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			CandidateCount:   1,
			ResponseMIMEType: "application/json",
			ResponseSchema:   draftSchema,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini generate failed: %w", err)
	}

	var draft Draft
	if err := json.Unmarshal([]byte(resp.Text()), &draft); err != nil {
		// Structured output occasionally degrades to fenced JSON.
		if err := UnmarshalLoose(resp.Text(), &draft); err != nil {
			return nil, fmt.Errorf("gemini: parse structured json: %w", err)
		}
	}
	if draft.Subject == "" || draft.Body == "" {
		return nil, fmt.Errorf("gemini returned an incomplete draft")
	}
	d.logger.WithField("subject", draft.Subject).Debug("draft generated")
	return &draft, nil
}
