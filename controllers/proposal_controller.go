package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"leadstream/llm"
	"leadstream/utils"
)

type ProposalController struct {
	DB       *gorm.DB
	Logger   *logrus.Logger
	Research *llm.PerplexityClient
	Drafter  *llm.Drafter
}

func NewProposalController(db *gorm.DB, logger *logrus.Logger, research *llm.PerplexityClient, drafter *llm.Drafter) *ProposalController {
	return &ProposalController{
		DB:       db,
		Logger:   logger,
		Research: research,
		Drafter:  drafter,
	}
}

type proposalRequest struct {
	ProductDescription    string `json:"product_description" validate:"required,min=10"`
	CompanyName           string `json:"company_name" validate:"required,min=2"`
	DecisionMaker         string `json:"decision_maker" validate:"required,min=2"`
	DecisionMakerPosition string `json:"decision_maker_position" validate:"required"`
	SenderName            string `json:"sender_name" validate:"required"`
	SenderPosition        string `json:"sender_position"`
	SenderCompany         string `json:"sender_company"`
}

// Proposal researches the company and person, then drafts a personalized
// cold email. The draft is returned for review, not sent; sending is a
// separate, explicit step.
func (pr *ProposalController) Proposal(c *fiber.Ctx) error {
	// Drafting is optional at deploy time; without a model key the
	// endpoint declines instead of serving.
	if pr.Drafter == nil {
		return utils.ErrorResponse(c, fiber.StatusServiceUnavailable, "Drafting is not configured", nil)
	}

	var req proposalRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request format", err)
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	research, err := pr.Research.ResearchPerson(c.Context(),
		req.CompanyName, req.DecisionMaker, req.DecisionMakerPosition, req.ProductDescription)
	if err != nil {
		pr.Logger.WithError(err).WithFields(logrus.Fields{
			"company": req.CompanyName,
			"person":  req.DecisionMaker,
		}).Error("research failed")
		return utils.ErrorResponse(c, fiber.StatusBadGateway, "Research failed", err)
	}

	draft, err := pr.Drafter.DraftProposal(c.Context(), llm.DraftInput{
		ProductDescription: req.ProductDescription,
		CompanyName:        req.CompanyName,
		DecisionMaker:      req.DecisionMaker,
		DecisionMakerRole:  req.DecisionMakerPosition,
		Research:           research,
		SenderName:         req.SenderName,
		SenderPosition:     req.SenderPosition,
		SenderCompany:      req.SenderCompany,
	})
	if err != nil {
		pr.Logger.WithError(err).Error("proposal drafting failed")
		return utils.ErrorResponse(c, fiber.StatusBadGateway, "Proposal drafting failed", err)
	}

	return c.JSON(utils.SuccessResponse(draft))
}
