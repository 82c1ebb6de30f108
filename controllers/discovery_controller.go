package controller

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"leadstream/discovery"
	"leadstream/models"
	"leadstream/utils"
)

type DiscoveryController struct {
	DB     *gorm.DB
	Logger *logrus.Logger
	Engine *discovery.Engine
}

func NewDiscoveryController(db *gorm.DB, logger *logrus.Logger, engine *discovery.Engine) *DiscoveryController {
	return &DiscoveryController{
		DB:     db,
		Logger: logger,
		Engine: engine,
	}
}

type findEmailRequest struct {
	FirstName string `json:"first_name" validate:"required,min=1,max=64"`
	LastName  string `json:"last_name" validate:"required,min=1,max=64"`
	Domain    string `json:"domain" validate:"required,fqdn"`
}

// FindEmail guesses and verifies a mailbox for a person at a domain. A
// domain without mail service is a 200 with status no_mx, not an error;
// callers iterate many contacts and need to keep going.
func (dc *DiscoveryController) FindEmail(c *fiber.Ctx) error {
	var req findEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request format", err)
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	outcome, err := dc.Engine.DiscoverEmail(c.Context(), req.FirstName, req.LastName, req.Domain)
	if err != nil {
		dc.Logger.WithError(err).WithField("domain", req.Domain).Error("discovery failed")
		return utils.ErrorResponse(c, fiber.StatusUnprocessableEntity, "Discovery failed", err)
	}

	dc.persistOutcome(outcome)
	return c.JSON(utils.SuccessResponse(outcome))
}

func (dc *DiscoveryController) persistOutcome(outcome *discovery.Outcome) {
	checks, _ := json.Marshal(outcome.Checks)
	record := models.DiscoveryRecord{
		FirstName:  outcome.FirstName,
		LastName:   outcome.LastName,
		Domain:     outcome.Domain,
		Email:      outcome.Email,
		Status:     outcome.Status,
		Confidence: outcome.Confidence,
		Mechanism:  string(outcome.Mechanism),
		Checks:     string(checks),
		LatencyMS:  outcome.Latency.Milliseconds(),
	}
	if err := dc.DB.Create(&record).Error; err != nil {
		dc.Logger.WithError(err).Warn("failed to persist discovery record")
	}
}

// History lists past discovery outcomes, newest first.
func (dc *DiscoveryController) History(c *fiber.Ctx) error {
	var records []models.DiscoveryRecord
	query := dc.DB.Order("created_at DESC").Limit(200)
	if domain := c.Query("domain"); domain != "" {
		query = query.Where("domain = ?", domain)
	}
	if err := query.Find(&records).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch discovery history", err)
	}
	return c.JSON(utils.SuccessResponse(records))
}
