package controller

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"leadstream/llm"
	"leadstream/models"
	"leadstream/utils"
)

// trackingGIF is a transparent 1x1 pixel served on open-tracking hits.
var trackingGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00, 0x80, 0x00,
	0x00, 0x00, 0x00, 0x00, 0xff, 0xff, 0xff, 0x21, 0xf9, 0x04, 0x01, 0x00,
	0x00, 0x00, 0x00, 0x2c, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00,
	0x00, 0x02, 0x02, 0x44, 0x01, 0x00, 0x3b,
}

type OutreachController struct {
	DB      *gorm.DB
	Logger  *logrus.Logger
	Mailer  *utils.Mailer
	Drafter *llm.Drafter
	BaseURL string
}

func NewOutreachController(db *gorm.DB, logger *logrus.Logger, mailer *utils.Mailer, drafter *llm.Drafter, baseURL string) *OutreachController {
	return &OutreachController{
		DB:      db,
		Logger:  logger,
		Mailer:  mailer,
		Drafter: drafter,
		BaseURL: baseURL,
	}
}

type sendRequest struct {
	Recipient     string `json:"recipient" validate:"required,email"`
	RecipientName string `json:"recipient_name" validate:"required"`
	CompanyName   string `json:"company_name" validate:"required"`
	DMPosition    string `json:"dm_position"`
	Subject       string `json:"subject" validate:"required"`
	Body          string `json:"body" validate:"required"`
	EmailType     string `json:"email_type"` // Cold Email or Follow Up
	TrackingID    string `json:"tracking_id"`
}

// Send delivers an outreach email with tracking injected. A cold email
// creates a fresh EmailStatus row; a follow-up reuses the original
// tracking id so opens and replies land on the same thread.
func (oc *OutreachController) Send(c *fiber.Ctx) error {
	var req sendRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request format", err)
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	var trackingID string
	if req.EmailType == "" || req.EmailType == "Cold Email" {
		entry := models.EmailStatus{
			ID:          uuid.New(),
			DMName:      req.RecipientName,
			CompanyName: req.CompanyName,
			DMPosition:  req.DMPosition,
			EmailID:     req.Recipient,
			Subject:     req.Subject,
			Body:        req.Body,
			Status:      models.OutreachNotResponded,
			DateSent:    time.Now().UTC(),
		}
		if err := oc.DB.Create(&entry).Error; err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to record email", err)
		}
		trackingID = entry.ID.String()
	} else {
		id, err := uuid.Parse(req.TrackingID)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid tracking id", err)
		}
		var entry models.EmailStatus
		if err := oc.DB.First(&entry, "id = ?", id).Error; err != nil {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Email entry not found", err)
		}
		if err := oc.recordFollowup(id); err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to record follow-up", err)
		}
		req.Recipient = entry.EmailID
		trackingID = entry.ID.String()
	}

	html := utils.InjectTracking(req.Body, oc.BaseURL, trackingID)
	if err := oc.Mailer.Send(utils.OutreachEmail{
		To:      []string{req.Recipient},
		Subject: req.Subject,
		HTML:    html,
	}); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Error sending email", err)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"message":     "Email sent!",
		"tracking_id": trackingID,
	}))
}

func (oc *OutreachController) recordFollowup(emailID uuid.UUID) error {
	var followup models.FollowupStatus
	err := oc.DB.First(&followup, "email_status_id = ?", emailID).Error
	switch {
	case err == nil:
		followup.ReminderCount++
		followup.LastSentAt = time.Now().UTC()
		return oc.DB.Save(&followup).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		return oc.DB.Create(&models.FollowupStatus{
			EmailStatusID: emailID,
			ReminderCount: 1,
			LastSentAt:    time.Now().UTC(),
		}).Error
	default:
		return err
	}
}

// TrackOpen serves the pixel and stamps the first open time. It always
// returns the gif, even for unknown ids; mail clients retry broken images
// and we never want them probing differences.
func (oc *OutreachController) TrackOpen(c *fiber.Ctx) error {
	if id, err := uuid.Parse(c.Params("tracking_id")); err == nil {
		now := time.Now().UTC()
		res := oc.DB.Model(&models.EmailStatus{}).
			Where("id = ? AND date_opened IS NULL", id).
			Update("date_opened", now)
		if res.Error != nil {
			oc.Logger.WithError(res.Error).Warn("failed to record open")
		} else if res.RowsAffected > 0 {
			oc.Logger.WithField("tracking_id", id).Info("email opened")
		}
	}
	c.Set("Content-Type", "image/gif")
	c.Set("Cache-Control", "no-store")
	return c.Send(trackingGIF)
}

// TrackResponse records the recipient's decision-link click and shows a
// small confirmation page.
func (oc *OutreachController) TrackResponse(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("tracking_id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid tracking id", err)
	}

	response := c.Query("response")
	var status, page string
	switch response {
	case "Interested", "interested":
		status = models.OutreachInterested
		page = "<html><body><h3>Thank you for your interest. We will reach out shortly.</h3></body></html>"
	case "Not Interested", "not-interested":
		status = models.OutreachNotInterested
		page = "<html><body><h3>Thanks for letting us know. We won't email you again.</h3></body></html>"
	default:
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Unknown response", nil)
	}

	res := oc.DB.Model(&models.EmailStatus{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to record response", res.Error)
	}
	if res.RowsAffected == 0 {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Email entry not found", nil)
	}

	c.Set("Content-Type", "text/html; charset=utf-8")
	return c.SendString(page)
}

// Reminder drafts a follow-up email for a tracked thread. Like Proposal,
// it returns the draft; Send delivers it.
func (oc *OutreachController) Reminder(c *fiber.Ctx) error {
	if oc.Drafter == nil {
		return utils.ErrorResponse(c, fiber.StatusServiceUnavailable, "Drafting is not configured", nil)
	}

	id, err := uuid.Parse(c.Query("tracking_id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid tracking id", err)
	}

	var entry models.EmailStatus
	if err := oc.DB.First(&entry, "id = ?", id).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Email not found", err)
	}

	draft, err := oc.Drafter.DraftReminder(c.Context(), llm.DraftInput{
		CompanyName:       entry.CompanyName,
		DecisionMaker:     entry.DMName,
		DecisionMakerRole: entry.DMPosition,
	}, entry.Subject, entry.Body)
	if err != nil {
		oc.Logger.WithError(err).Error("reminder drafting failed")
		return utils.ErrorResponse(c, fiber.StatusBadGateway, "Reminder drafting failed", err)
	}
	return c.JSON(utils.SuccessResponse(draft))
}

// Status lists tracked emails.
func (oc *OutreachController) Status(c *fiber.Ctx) error {
	var emails []models.EmailStatus
	if err := oc.DB.Order("date_sent DESC").Find(&emails).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch statuses", err)
	}
	return c.JSON(fiber.Map{"tracked_emails": emails})
}

// MailStatus joins the tracked emails with their follow-up counters.
func (oc *OutreachController) MailStatus(c *fiber.Ctx) error {
	var emails []models.EmailStatus
	if err := oc.DB.Find(&emails).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch statuses", err)
	}
	var followups []models.FollowupStatus
	if err := oc.DB.Find(&followups).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch follow-ups", err)
	}

	followupByEmail := make(map[uuid.UUID]models.FollowupStatus, len(followups))
	for _, f := range followups {
		followupByEmail[f.EmailStatusID] = f
	}

	out := make([]fiber.Map, 0, len(emails))
	for _, e := range emails {
		row := fiber.Map{
			"id":           e.ID,
			"dm_name":      e.DMName,
			"company_name": e.CompanyName,
			"dm_position":  e.DMPosition,
			"email_id":     e.EmailID,
			"status":       e.Status,
			"date_sent":    e.DateSent,
			"date_opened":  e.DateOpened,
		}
		if f, ok := followupByEmail[e.ID]; ok {
			row["followup_sent_count"] = f.ReminderCount
			row["followup_date"] = f.LastSentAt
		} else {
			row["followup_sent_count"] = 0
		}
		out = append(out, row)
	}
	return c.JSON(out)
}

// StatusCheck reports how stale one thread is and flips Not Responded to
// Send Reminder once the follow-up window passes.
func (oc *OutreachController) StatusCheck(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Query("tracking_id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid tracking id", err)
	}

	var entry models.EmailStatus
	if err := oc.DB.First(&entry, "id = ?", id).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Email with the provided tracking ID not found", err)
	}

	days := int(time.Since(entry.DateSent).Hours() / 24)
	if days > 2 && entry.Status == models.OutreachNotResponded {
		if err := oc.DB.Model(&entry).Update("status", models.OutreachSendReminder).Error; err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update status", err)
		}
		return c.JSON(fiber.Map{
			"email_id":        entry.EmailID,
			"status":          models.OutreachSendReminder,
			"days_since_sent": days,
		})
	}
	return c.JSON(fiber.Map{
		"email_id":        entry.EmailID,
		"status":          entry.Status,
		"days_since_sent": days,
	})
}

// Delete removes a tracked email and its follow-up counters.
func (oc *OutreachController) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid id", err)
	}

	res := oc.DB.Delete(&models.EmailStatus{}, "id = ?", id)
	if res.Error != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Error deleting entity", res.Error)
	}
	if res.RowsAffected == 0 {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Entity not found", nil)
	}
	oc.DB.Delete(&models.FollowupStatus{}, "email_status_id = ?", id)

	return c.JSON(utils.SuccessResponse(fiber.Map{"message": "Entity deleted successfully"}))
}
