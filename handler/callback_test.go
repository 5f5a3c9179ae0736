package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/Bhati90/workw-sub001/config"
	"github.com/Bhati90/workw-sub001/service"
)

func newCallbackRouter(notifier *service.WebhookNotifier) *gin.Engine {
	handler := NewCallbackHandler(notifier)
	router := gin.New()
	router.POST("/notify/callback", handler.HandleReceipt)
	return router
}

// testNotifier builds a webhook notifier aimed at a disposable receiver and
// sends one event through it so a delivery is on record
func testNotifier(t *testing.T) (*service.WebhookNotifier, service.Event) {
	t.Helper()

	receiver := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(receiver.Close)

	notifier := service.NewWebhookNotifier(&config.NotifyConfig{
		WebhookURL:     receiver.URL,
		Seed:           "test-seed",
		TimeoutSeconds: 5,
		MaxRetries:     1,
	})

	ev := service.NewEvent("request_created", "req-1", 0, "", "test event")
	if err := notifier.Notify(context.Background(), ev); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	return notifier, ev
}

func receiptBody(t *testing.T, notifier *service.WebhookNotifier, eventID, state string) map[string]any {
	t.Helper()
	content, err := json.Marshal(ReceiptContent{EventID: eventID, State: state})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	return map[string]any{
		"checksum": notifier.Checksum(eventID, string(content)),
		"content":  string(content),
	}
}

func TestCallbackNotConfigured(t *testing.T) {
	router := newCallbackRouter(nil)

	w := postJSON(router, "POST", "/notify/callback", map[string]any{
		"checksum": "abc",
		"content":  "{}",
	})

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 without notifier, got %d", w.Code)
	}
}

func TestCallbackRecordsDelivery(t *testing.T) {
	notifier, ev := testNotifier(t)
	router := newCallbackRouter(notifier)

	w := postJSON(router, "POST", "/notify/callback", receiptBody(t, notifier, ev.ID, "delivered"))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	delivery, err := notifier.Delivery(ev.ID)
	if err != nil {
		t.Fatalf("Delivery() error = %v", err)
	}
	if delivery.State != service.DeliveryDelivered {
		t.Errorf("Expected state delivered, got %s", delivery.State)
	}
}

func TestCallbackFailedReceipt(t *testing.T) {
	notifier, ev := testNotifier(t)
	router := newCallbackRouter(notifier)

	content, _ := json.Marshal(ReceiptContent{EventID: ev.ID, State: "failed", Detail: "number unreachable"})
	w := postJSON(router, "POST", "/notify/callback", map[string]any{
		"checksum": notifier.Checksum(ev.ID, string(content)),
		"content":  string(content),
	})

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	delivery, _ := notifier.Delivery(ev.ID)
	if delivery.State != service.DeliveryFailed {
		t.Errorf("Expected state failed, got %s", delivery.State)
	}
	if delivery.LastError != "number unreachable" {
		t.Errorf("Expected failure detail recorded, got %q", delivery.LastError)
	}
}

func TestCallbackChecksumMismatch(t *testing.T) {
	notifier, ev := testNotifier(t)
	router := newCallbackRouter(notifier)

	body := receiptBody(t, notifier, ev.ID, "delivered")
	body["checksum"] = "tampered"

	w := postJSON(router, "POST", "/notify/callback", body)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for bad checksum, got %d", w.Code)
	}

	delivery, _ := notifier.Delivery(ev.ID)
	if delivery.State == service.DeliveryDelivered {
		t.Error("Delivery must not be marked from an unverified receipt")
	}
}

func TestCallbackUnknownEvent(t *testing.T) {
	notifier, _ := testNotifier(t)
	router := newCallbackRouter(notifier)

	w := postJSON(router, "POST", "/notify/callback", receiptBody(t, notifier, "no-such-event", "delivered"))

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for unknown event, got %d", w.Code)
	}
}

func TestCallbackMalformedContent(t *testing.T) {
	notifier, _ := testNotifier(t)
	router := newCallbackRouter(notifier)

	w := postJSON(router, "POST", "/notify/callback", map[string]any{
		"checksum": "abc",
		"content":  "not json",
	})

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for malformed content, got %d", w.Code)
	}
}
