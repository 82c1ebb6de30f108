package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"leadstream/discovery"
	"leadstream/llm"
	"leadstream/models"
	"leadstream/search"
	"leadstream/utils"
)

type ProspectController struct {
	DB       *gorm.DB
	Logger   *logrus.Logger
	Research *llm.PerplexityClient
	Search   *search.GoogleClient
	Engine   *discovery.Engine
}

func NewProspectController(db *gorm.DB, logger *logrus.Logger, research *llm.PerplexityClient, googleSearch *search.GoogleClient, engine *discovery.Engine) *ProspectController {
	return &ProspectController{
		DB:       db,
		Logger:   logger,
		Research: research,
		Search:   googleSearch,
		Engine:   engine,
	}
}

type companiesRequest struct {
	ProductDescription string `json:"product_description" validate:"required,min=10"`
	ICP                string `json:"icp" validate:"required,min=3"`
}

// PotentialCompanies asks the research model for the companies most likely
// to want the product and records them as prospects.
func (pc *ProspectController) PotentialCompanies(c *fiber.Ctx) error {
	var req companiesRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request format", err)
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	suggestions, err := pc.Research.SuggestCompanies(c.Context(), req.ProductDescription, req.ICP)
	if err != nil {
		pc.Logger.WithError(err).Error("company research failed")
		return utils.ErrorResponse(c, fiber.StatusBadGateway, "Company research failed", err)
	}

	for _, s := range suggestions {
		prospect := models.Prospect{
			CompanyName: s.Name,
			Website:     s.Domain,
			Industry:    s.Industry,
		}
		// Re-running research on the same product must not duplicate rows.
		if err := pc.DB.Where("company_name = ?", s.Name).FirstOrCreate(&prospect).Error; err != nil {
			pc.Logger.WithError(err).WithField("company", s.Name).Warn("failed to persist prospect")
		}
	}
	return c.JSON(utils.SuccessResponse(suggestions))
}

type decisionMakersRequest struct {
	CompanyName string `json:"company_name" validate:"required,min=2"`
	DomainName  string `json:"domain_name" validate:"required,fqdn"`
}

type decisionMakerResponse struct {
	Name                  string  `json:"name"`
	DecisionMaker         string  `json:"decision_maker"`
	DecisionMakerMail     string  `json:"decision_maker_mail"`
	DecisionMakerPosition string  `json:"decision_maker_position"`
	Confidence            float64 `json:"confidence"`
}

// DecisionMakers scrapes public executive profiles for a company, ranks
// them, and runs email discovery down the ranking until a mailbox
// verifies. 404 only when every ranked person came up empty.
func (pc *ProspectController) DecisionMakers(c *fiber.Ctx) error {
	var req decisionMakersRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request format", err)
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	scraped, err := pc.Search.FindExecutives(c.Context(), req.CompanyName, nil)
	if err != nil {
		pc.Logger.WithError(err).WithField("company", req.CompanyName).Error("executive search failed")
		return utils.ErrorResponse(c, fiber.StatusBadGateway, "Executive search failed", err)
	}

	ranked, err := pc.Research.RankDecisionMakers(c.Context(), req.CompanyName, scraped)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadGateway, "Decision maker ranking failed", err)
	}

	// The shortlist is ordered; the first person whose mailbox verifies
	// wins, so rank decides who gets contacted.
	for _, dm := range ranked {
		first, last := utils.SplitName(dm.Name)
		if first == "" || last == "" {
			continue
		}
		outcome, err := pc.Engine.DiscoverEmail(c.Context(), first, last, req.DomainName)
		if err != nil {
			pc.Logger.WithError(err).WithField("person", dm.Name).Warn("discovery errored, trying next person")
			continue
		}
		if outcome.Status != discovery.StatusFound {
			continue
		}

		pc.saveDecisionMaker(req.CompanyName, dm.Name, dm.Title, outcome.Email)
		return c.JSON(utils.SuccessResponse(decisionMakerResponse{
			Name:                  req.CompanyName,
			DecisionMaker:         dm.Name,
			DecisionMakerMail:     outcome.Email,
			DecisionMakerPosition: dm.Title,
			Confidence:            outcome.Confidence,
		}))
	}

	return utils.ErrorResponse(c, fiber.StatusNotFound, "Email not found for any decision maker", nil)
}

func (pc *ProspectController) saveDecisionMaker(companyName, name, title, email string) {
	var prospect models.Prospect
	if err := pc.DB.Where("company_name = ?", companyName).
		FirstOrCreate(&prospect, models.Prospect{CompanyName: companyName}).Error; err != nil {
		pc.Logger.WithError(err).Warn("failed to ensure prospect row")
		return
	}
	dm := models.DecisionMaker{
		ProspectID: prospect.ID,
		Name:       strings.TrimSpace(name),
		Position:   title,
		Email:      email,
	}
	if err := pc.DB.Create(&dm).Error; err != nil {
		pc.Logger.WithError(err).Warn("failed to persist decision maker")
	}
}
