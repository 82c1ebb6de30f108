package controller

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadstream/llm"
)

// A deployment without a model key still registers the drafting routes;
// they must decline cleanly instead of dereferencing a nil drafter.
func TestProposalWithoutDrafterReturns503(t *testing.T) {
	pr := NewProposalController(nil, logrus.New(), llm.NewPerplexityClient("", "", nil), nil)
	app := fiber.New()
	app.Post("/email-proposal", pr.Proposal)

	req := httptest.NewRequest(http.MethodPost, "/email-proposal",
		strings.NewReader(`{"product_description": "route planning software", "company_name": "Acme", "decision_maker": "Zoe Ward", "decision_maker_position": "CEO", "sender_name": "Sam Lee"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestReminderWithoutDrafterReturns503(t *testing.T) {
	oc := NewOutreachController(nil, logrus.New(), nil, nil, "https://app.example.com")
	app := fiber.New()
	app.Post("/email-reminder", oc.Reminder)

	req := httptest.NewRequest(http.MethodPost, "/email-reminder?tracking_id=0f0e3b9a-1111-4222-8333-444455556666", nil)

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}
