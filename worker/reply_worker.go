package worker

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"leadstream/config"
	"leadstream/models"
)

// ReplyWorker polls the outreach inbox over IMAP and marks threads as
// Responded when the sender address matches a tracked email. A real reply
// beats any pixel or link signal, so it overwrites every non-terminal
// status.
type ReplyWorker struct {
	db       *gorm.DB
	logger   *logrus.Logger
	cfg      config.IMAPConfig
	interval time.Duration
}

func NewReplyWorker(db *gorm.DB, logger *logrus.Logger, cfg config.IMAPConfig, interval time.Duration) *ReplyWorker {
	if logger == nil {
		logger = logrus.New()
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &ReplyWorker{
		db:       db,
		logger:   logger,
		cfg:      cfg,
		interval: interval,
	}
}

func (rw *ReplyWorker) Start(ctx context.Context) {
	if rw.cfg.Host == "" {
		rw.logger.Warn("IMAP not configured, reply worker disabled")
		return
	}
	rw.logger.Info("starting reply worker")
	ticker := time.NewTicker(rw.interval)

	for {
		select {
		case <-ticker.C:
			if err := rw.poll(); err != nil {
				rw.logger.WithError(err).Error("reply poll failed")
			}
		case <-ctx.Done():
			rw.logger.Info("stopping reply worker")
			ticker.Stop()
			return
		}
	}
}

func (rw *ReplyWorker) poll() error {
	addr := fmt.Sprintf("%s:%d", rw.cfg.Host, rw.cfg.Port)
	imapClient, err := client.DialTLS(addr, &tls.Config{ServerName: rw.cfg.Host})
	if err != nil {
		return fmt.Errorf("failed to connect to IMAP server: %w", err)
	}
	defer imapClient.Logout()

	if err := imapClient.Login(rw.cfg.Username, rw.cfg.Password); err != nil {
		return fmt.Errorf("failed to login to IMAP server: %w", err)
	}

	mailbox := rw.cfg.Mailbox
	if mailbox == "" {
		mailbox = "INBOX"
	}
	if _, err := imapClient.Select(mailbox, false); err != nil {
		return fmt.Errorf("failed to select mailbox: %w", err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{"\\Seen"}
	ids, err := imapClient.Search(criteria)
	if err != nil {
		return fmt.Errorf("failed to search messages: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)

	section := &imap.BodySectionName{Peek: true}
	messages := make(chan *imap.Message, 10)
	done := make(chan error, 1)
	go func() {
		done <- imapClient.Fetch(seqset,
			[]imap.FetchItem{imap.FetchEnvelope, section.FetchItem()}, messages)
	}()

	var matched []uint32
	for msg := range messages {
		if msg.Envelope == nil {
			continue
		}
		if rw.matchReply(msg) {
			matched = append(matched, msg.SeqNum)
		}
	}
	if err := <-done; err != nil {
		return fmt.Errorf("error during fetch: %w", err)
	}

	// Only matched replies get marked seen; unrelated mail stays unread
	// for whoever owns the inbox.
	if len(matched) > 0 {
		marked := new(imap.SeqSet)
		marked.AddNum(matched...)
		item := imap.FormatFlagsOp(imap.AddFlags, true)
		if err := imapClient.Store(marked, item, []interface{}{imap.SeenFlag}, nil); err != nil {
			rw.logger.WithError(err).Warn("failed to mark replies seen")
		}
	}
	return nil
}

func (rw *ReplyWorker) matchReply(msg *imap.Message) bool {
	for _, from := range msg.Envelope.From {
		sender := strings.ToLower(from.MailboxName + "@" + from.HostName)

		res := rw.db.Model(&models.EmailStatus{}).
			Where("LOWER(email_id) = ? AND status NOT IN ?", sender,
				[]string{models.OutreachResponded, models.OutreachNotInterested}).
			Updates(map[string]interface{}{
				"status":        models.OutreachResponded,
				"reply_excerpt": replyExcerpt(msg),
			})
		if res.Error != nil {
			rw.logger.WithError(res.Error).Warn("failed to record reply")
			continue
		}
		if res.RowsAffected > 0 {
			rw.logger.WithFields(logrus.Fields{
				"from":    sender,
				"subject": msg.Envelope.Subject,
			}).Info("reply received")
			return true
		}
	}
	return false
}

// replyExcerpt pulls the first text/plain part of the message, trimmed to
// a short preview. Parse failures just yield an empty excerpt.
func replyExcerpt(msg *imap.Message) string {
	// GetBody matches section names by value; the Body map is keyed by
	// the client's own pointers and is useless to index directly.
	literal := msg.GetBody(&imap.BodySectionName{})
	if literal == nil {
		return ""
	}
	mr, err := mail.CreateReader(literal)
	if err != nil {
		return ""
	}
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			return ""
		} else if err != nil {
			return ""
		}
		h, ok := p.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, _ := h.ContentType()
		if !strings.Contains(contentType, "text/plain") {
			continue
		}
		b, err := io.ReadAll(io.LimitReader(p.Body, 1024))
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(b))
	}
}
