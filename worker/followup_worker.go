package worker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"leadstream/llm"
	"leadstream/models"
	"leadstream/utils"
)

// FollowupWorker watches sent outreach and nudges stale threads. A thread
// that stays Not Responded past the window is flipped to Send Reminder;
// when a drafter and mailer are wired, the reminder is drafted and sent in
// the same pass.
type FollowupWorker struct {
	db      *gorm.DB
	logger  *logrus.Logger
	drafter *llm.Drafter
	mailer  *utils.Mailer
	baseURL string

	window   time.Duration
	interval time.Duration
}

func NewFollowupWorker(db *gorm.DB, logger *logrus.Logger, drafter *llm.Drafter, mailer *utils.Mailer, baseURL string, window time.Duration) *FollowupWorker {
	if logger == nil {
		logger = logrus.New()
	}
	if window <= 0 {
		window = 48 * time.Hour
	}
	return &FollowupWorker{
		db:       db,
		logger:   logger,
		drafter:  drafter,
		mailer:   mailer,
		baseURL:  baseURL,
		window:   window,
		interval: time.Hour,
	}
}

func (fw *FollowupWorker) Start(ctx context.Context) {
	fw.logger.Info("starting follow-up worker")
	ticker := time.NewTicker(fw.interval)

	for {
		select {
		case <-ticker.C:
			fw.sweep(ctx)
		case <-ctx.Done():
			fw.logger.Info("stopping follow-up worker")
			ticker.Stop()
			return
		}
	}
}

func (fw *FollowupWorker) sweep(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-fw.window)

	var stale []models.EmailStatus
	if err := fw.db.
		Where("status = ? AND date_sent < ?", models.OutreachNotResponded, cutoff).
		Find(&stale).Error; err != nil {
		fw.logger.WithError(err).Error("failed to query stale threads")
		return
	}
	if len(stale) == 0 {
		return
	}
	fw.logger.WithField("count", len(stale)).Info("stale threads found")

	for _, entry := range stale {
		if ctx.Err() != nil {
			return
		}
		if err := fw.db.Model(&entry).Update("status", models.OutreachSendReminder).Error; err != nil {
			fw.logger.WithError(err).WithField("id", entry.ID).Error("failed to flag thread")
			continue
		}
		if fw.drafter != nil && fw.mailer != nil {
			fw.sendReminder(ctx, entry)
		}
	}
}

func (fw *FollowupWorker) sendReminder(ctx context.Context, entry models.EmailStatus) {
	draft, err := fw.drafter.DraftReminder(ctx, llm.DraftInput{
		CompanyName:       entry.CompanyName,
		DecisionMaker:     entry.DMName,
		DecisionMakerRole: entry.DMPosition,
	}, entry.Subject, entry.Body)
	if err != nil {
		fw.logger.WithError(err).WithField("id", entry.ID).Error("reminder drafting failed")
		return
	}

	html := utils.InjectTracking(draft.Body, fw.baseURL, entry.ID.String())
	if err := fw.mailer.Send(utils.OutreachEmail{
		To:      []string{entry.EmailID},
		Subject: draft.Subject,
		HTML:    html,
	}); err != nil {
		fw.logger.WithError(err).WithField("id", entry.ID).Error("reminder send failed")
		return
	}

	// The thread re-enters the wait loop so it can be nudged again.
	fw.db.Model(&entry).Update("status", models.OutreachNotResponded)

	var followup models.FollowupStatus
	err = fw.db.First(&followup, "email_status_id = ?", entry.ID).Error
	if err == nil {
		followup.ReminderCount++
		followup.LastSentAt = time.Now().UTC()
		fw.db.Save(&followup)
	} else {
		fw.db.Create(&models.FollowupStatus{
			EmailStatusID: entry.ID,
			ReminderCount: 1,
			LastSentAt:    time.Now().UTC(),
		})
	}
	fw.logger.WithField("id", entry.ID).Info("reminder sent")
}
