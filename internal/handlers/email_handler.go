package handlers

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"serverless-api-starter/internal/models"
	"serverless-api-starter/internal/services"
)

// auditEventWelcomeEmail tags audit queue records written after welcome sends.
const auditEventWelcomeEmail = "welcome_email_sent"

// emailAuditRecord is the queue payload recorded for each delivered email.
type emailAuditRecord struct {
	Event     string    `json:"event"`
	Recipient string    `json:"recipient"`
	MessageID string    `json:"message_id"`
	SentAt    time.Time `json:"sent_at"`
}

// EmailHandler handles outbound email HTTP requests
type EmailHandler struct {
	emailService services.EmailService
	auditQueue   services.QueueService
	logger       *logrus.Logger
}

// NewEmailHandler creates a new email handler. The audit queue is optional;
// without one, sends are not recorded.
func NewEmailHandler(emailService services.EmailService, auditQueue services.QueueService, logger *logrus.Logger) *EmailHandler {
	return &EmailHandler{
		emailService: emailService,
		auditQueue:   auditQueue,
		logger:       logger,
	}
}

// SendWelcomeEmail sends the welcome email to the requested recipient and
// records the send on the audit queue
func (h *EmailHandler) SendWelcomeEmail(c *gin.Context) (any, error) {
	var req models.WelcomeEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, err
	}

	messageID, err := h.emailService.SendWelcomeEmail(c.Request.Context(), req.Recipient, req.Name)
	if err != nil {
		return nil, err
	}

	h.auditSend(c, req.Recipient, messageID)

	return &models.WelcomeEmailResponse{
		MessageID: messageID,
		Recipient: req.Recipient,
	}, nil
}

// auditSend enqueues an audit record for a delivered email. The email is
// already out, so enqueue failures are logged rather than surfaced.
func (h *EmailHandler) auditSend(c *gin.Context, recipient, messageID string) {
	if h.auditQueue == nil {
		return
	}

	payload, err := json.Marshal(&emailAuditRecord{
		Event:     auditEventWelcomeEmail,
		Recipient: recipient,
		MessageID: messageID,
		SentAt:    time.Now().UTC(),
	})
	if err == nil {
		_, err = h.auditQueue.SendMessage(c.Request.Context(), string(payload),
			map[string]string{"event": auditEventWelcomeEmail})
	}
	if err != nil && h.logger != nil {
		h.logger.WithError(err).WithField("recipient", recipient).Warn("email audit enqueue failed")
	}
}
