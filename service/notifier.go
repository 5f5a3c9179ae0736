package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Bhati90/workw-sub001/config"
	"github.com/Bhati90/workw-sub001/pkg/logger"
)

// Event is a workflow notification emitted as a side effect of a stage
// transition
type Event struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	RequestID    string    `json:"request_id,omitempty"`
	ContractorID int64     `json:"contractor_id,omitempty"`
	Actor        string    `json:"actor,omitempty"`
	Message      string    `json:"message"`
	At           time.Time `json:"at"`
}

// NewEvent builds an event with a fresh id and timestamp
func NewEvent(eventType, requestID string, contractorID int64, actor, message string) Event {
	return Event{
		ID:           uuid.New().String(),
		Type:         eventType,
		RequestID:    requestID,
		ContractorID: contractorID,
		Actor:        actor,
		Message:      message,
		At:           time.Now(),
	}
}

// Notifier delivers workflow events to whoever needs to hear about them
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// LogNotifier writes events to the structured log. It is the default when
// no webhook is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, ev Event) error {
	logger.Info(ctx, "notification",
		"event_id", ev.ID,
		"type", ev.Type,
		"request_id", ev.RequestID,
		"contractor_id", ev.ContractorID,
		"message", ev.Message,
	)
	return nil
}

// Delivery states for webhook events
const (
	DeliveryPending   = "pending"
	DeliverySent      = "sent"
	DeliveryDelivered = "delivered"
	DeliveryFailed    = "failed"
)

// Delivery tracks the outcome of one webhook event
type Delivery struct {
	EventID   string    `json:"event_id"`
	State     string    `json:"state"`
	Attempts  int       `json:"attempts"`
	LastError string    `json:"last_error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// webhookPayload is the envelope posted to the webhook endpoint. The
// checksum lets the receiver verify the sender without shared sessions:
// checksum = SHA256(event_id + seed + content).
type webhookPayload struct {
	Checksum string `json:"checksum"`
	Content  string `json:"content"`
}

// WebhookNotifier posts signed JSON events to a configured URL with
// bounded retry, and records per-event delivery state so the receipt
// callback can close the loop
type WebhookNotifier struct {
	config     *config.NotifyConfig
	httpClient *http.Client
	maxRetries int
	deliveries map[string]*Delivery
	mu         sync.Mutex
}

func NewWebhookNotifier(cfg *config.NotifyConfig) *WebhookNotifier {
	// Every event gets at least one delivery attempt
	retries := cfg.MaxRetries
	if retries < 1 {
		retries = 1
	}
	return &WebhookNotifier{
		config:     cfg,
		maxRetries: retries,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		deliveries: make(map[string]*Delivery),
	}
}

// Notify posts the event, retrying transport failures up to the configured
// limit with a linear backoff
func (n *WebhookNotifier) Notify(ctx context.Context, ev Event) error {
	content, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	payload := webhookPayload{
		Checksum: n.Checksum(ev.ID, string(content)),
		Content:  string(content),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	n.setDelivery(ev.ID, DeliveryPending, 0, "")

	var lastErr error
	for attempt := 1; attempt <= n.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			n.setDelivery(ev.ID, DeliveryFailed, attempt-1, err.Error())
			return err
		}

		lastErr = n.post(ctx, body)
		if lastErr == nil {
			n.setDelivery(ev.ID, DeliverySent, attempt, "")
			return nil
		}

		logger.Warn(ctx, "webhook delivery attempt failed",
			"event_id", ev.ID,
			"attempt", attempt,
			"error", lastErr,
		)
		if attempt < n.maxRetries {
			time.Sleep(time.Duration(attempt) * time.Second)
		}
	}

	n.setDelivery(ev.ID, DeliveryFailed, n.maxRetries, lastErr.Error())
	return fmt.Errorf("webhook delivery failed after %d attempts: %w", n.maxRetries, lastErr)
}

func (n *WebhookNotifier) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.config.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "*/*")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// Checksum computes the payload signature: SHA256(eventID + seed + content)
func (n *WebhookNotifier) Checksum(eventID, content string) string {
	hash := sha256.Sum256([]byte(eventID + n.config.Seed + content))
	return hex.EncodeToString(hash[:])
}

// VerifyReceipt checks a delivery receipt's checksum against the seed
func (n *WebhookNotifier) VerifyReceipt(checksum, content, eventID string) bool {
	return checksum == n.Checksum(eventID, content)
}

// MarkDelivered records the receiver's acknowledgment for an event
func (n *WebhookNotifier) MarkDelivered(eventID string, ok bool, detail string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	d, exists := n.deliveries[eventID]
	if !exists {
		return ErrNotFound
	}

	if ok {
		d.State = DeliveryDelivered
	} else {
		d.State = DeliveryFailed
		d.LastError = detail
	}
	d.UpdatedAt = time.Now()
	return nil
}

// Delivery returns the tracked state for an event
func (n *WebhookNotifier) Delivery(eventID string) (*Delivery, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	d, ok := n.deliveries[eventID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *d
	return &copied, nil
}

func (n *WebhookNotifier) setDelivery(eventID, state string, attempts int, lastErr string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	d, ok := n.deliveries[eventID]
	if !ok {
		d = &Delivery{EventID: eventID}
		n.deliveries[eventID] = d
	}
	d.State = state
	d.Attempts = attempts
	d.LastError = lastErr
	d.UpdatedAt = time.Now()
}
