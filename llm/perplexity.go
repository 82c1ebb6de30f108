package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const perplexityBaseURL = "https://api.perplexity.ai/chat/completions"

// PerplexityClient calls the Perplexity chat completions API for the
// research prompts: prospect company suggestions, decision-maker ranking
// and per-person background gathering.
type PerplexityClient struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	logger  *logrus.Logger
}

func NewPerplexityClient(apiKey, model string, logger *logrus.Logger) *PerplexityClient {
	if model == "" {
		model = "sonar-pro"
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &PerplexityClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: perplexityBaseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
		logger:  logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (p *PerplexityClient) chat(ctx context.Context, req chatRequest) (string, error) {
	if p.apiKey == "" {
		return "", fmt.Errorf("perplexity API key not configured")
	}
	req.Model = p.model

	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("perplexity request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("perplexity returned status %d", resp.StatusCode)
	}
	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("perplexity response decode failed: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("perplexity returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// CompanySuggestion is one prospect proposed by the research model.
type CompanySuggestion struct {
	Name     string `json:"name"`
	Industry string `json:"industry"`
	Domain   string `json:"domain"`
}

// SuggestCompanies asks for the top companies likely to want the product.
func (p *PerplexityClient) SuggestCompanies(ctx context.Context, productDescription, icp string) ([]CompanySuggestion, error) {
	prompt := fmt.Sprintf(`Given the product description and Ideal Client Profile (ICP) detailed below, identify the top five companies that demonstrate strong growth potential and would likely be interested in this product.
Product Description: %s
Ideal Client Profile (ICP): %s

Output Format:
( provide only a JSON list of objects, each containing the name, industry and domain of the company, no extra content )`, productDescription, icp)

	content, err := p.chat(ctx, chatRequest{
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens: 400,
	})
	if err != nil {
		return nil, err
	}

	var suggestions []CompanySuggestion
	if err := UnmarshalLoose(content, &suggestions); err != nil {
		return nil, fmt.Errorf("parse company suggestions: %w", err)
	}
	p.logger.WithField("count", len(suggestions)).Info("company suggestions fetched")
	return suggestions, nil
}

// RankedDecisionMaker is one shortlisted person. Slice position is the
// rank; callers work down the slice in order.
type RankedDecisionMaker struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

// RankDecisionMakers reduces raw search snippets to the people most likely
// to own the buying decision, most influential first.
func (p *PerplexityClient) RankDecisionMakers(ctx context.Context, companyName string, scraped []map[string]string) ([]RankedDecisionMaker, error) {
	raw, _ := json.Marshal(scraped)
	prompt := fmt.Sprintf(`Given the list of scraped executives of the company %s from LinkedIn, identify the top 3 decision makers responsible for business decisions. For each decision maker, include the name and title only.

Scraped executives: %s

Output Format:
( provide only a JSON list of objects ordered from most to least influential, each with a name key and a title key, strictly without any other extra text or content )`, companyName, string(raw))

	content, err := p.chat(ctx, chatRequest{
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens: 200,
	})
	if err != nil {
		return nil, err
	}

	var ranked []RankedDecisionMaker
	if err := UnmarshalLoose(content, &ranked); err != nil {
		return nil, fmt.Errorf("parse decision makers: %w", err)
	}
	return ranked, nil
}

// ResearchPerson gathers company news, pain points and the person's
// background so the drafter can personalize the pitch.
func (p *PerplexityClient) ResearchPerson(ctx context.Context, companyName, personName, position, productDescription string) (string, error) {
	prompt := fmt.Sprintf(`Product Description: %s

Follow the below steps to get the necessary information:
1. Understand the provided product description.
2. Gather the company %s's latest news, updates and mainly the pain points if any from various sources and their official website.
3. Gather information about %s who is the %s of %s. Focus on their background, achievements and contributions.
4. Identify the person's mindset, preferred communication style and tone, personal interests and way of working.

Output Format:
( provide a JSON object of 3 keys: company, person and pain_points, each a string of at most 50 words, no other key should be present )`,
		productDescription, companyName, personName, position, companyName)

	content, err := p.chat(ctx, chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: "You are a helpful assistant that provides detailed information about companies and individuals."},
			{Role: "user", Content: prompt},
		},
		MaxTokens: 300,
		TopP:      0.9,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}
