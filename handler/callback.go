package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Bhati90/workw-sub001/pkg/logger"
	"github.com/Bhati90/workw-sub001/service"
)

// CallbackHandler receives delivery receipts from the notification webhook
// receiver
type CallbackHandler struct {
	notifier *service.WebhookNotifier
}

func NewCallbackHandler(notifier *service.WebhookNotifier) *CallbackHandler {
	return &CallbackHandler{notifier: notifier}
}

type ReceiptRequest struct {
	Checksum string `json:"checksum"`
	Content  string `json:"content"`
}

type ReceiptContent struct {
	EventID string `json:"event_id"`
	State   string `json:"state"` // delivered, failed
	Detail  string `json:"detail,omitempty"`
}

// HandleReceipt verifies and applies a delivery receipt
func (h *CallbackHandler) HandleReceipt(c *gin.Context) {
	if h.notifier == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Webhook notifications are not configured"})
		return
	}

	var req ReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var content ReceiptContent
	if err := json.Unmarshal([]byte(req.Content), &content); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid content format"})
		return
	}

	if !h.notifier.VerifyReceipt(req.Checksum, req.Content, content.EventID) {
		logger.Warn(c.Request.Context(), "receipt checksum mismatch", "event_id", content.EventID)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Checksum verification failed"})
		return
	}

	delivered := content.State == "delivered"
	if err := h.notifier.MarkDelivered(content.EventID, delivered, content.Detail); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Receipt recorded"})
}
