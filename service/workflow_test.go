package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Bhati90/workw-sub001/model"
)

// recordingNotifier captures emitted events for assertions
type recordingNotifier struct {
	events chan Event
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{events: make(chan Event, 16)}
}

func (r *recordingNotifier) Notify(ctx context.Context, ev Event) error {
	r.events <- ev
	return nil
}

func (r *recordingNotifier) next(t *testing.T) Event {
	t.Helper()
	select {
	case ev := <-r.events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for notification")
		return Event{}
	}
}

func newTestWorkflow(t *testing.T) (*WorkflowStore, *RosterStore, *recordingNotifier) {
	t.Helper()
	roster := NewRosterStore()
	notifier := newRecordingNotifier()
	return NewWorkflowStore(roster, notifier), roster, notifier
}

func testRequestInput(t *testing.T) JobRequestInput {
	return JobRequestInput{
		FarmerName:     "Anna Patil",
		FarmerMobile:   "9000000001",
		Village:        "Baramati",
		WorkType:       "sugarcane cutting",
		CrewSizeNeeded: 15,
		WorkFrom:       date(t, "2024-07-01"),
		WorkTo:         date(t, "2024-07-10"),
	}
}

func TestWorkflowCreate(t *testing.T) {
	workflow, _, notifier := newTestWorkflow(t)

	req, err := workflow.Create(context.Background(), testRequestInput(t))
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	if req.Stage != model.StageIntake {
		t.Errorf("Expected intake stage, got %q", req.Stage)
	}
	if req.ID == "" {
		t.Error("Expected request id assigned")
	}

	ev := notifier.next(t)
	if ev.Type != "request_created" {
		t.Errorf("Expected request_created event, got %q", ev.Type)
	}
}

func TestWorkflowCreateValidation(t *testing.T) {
	workflow, _, _ := newTestWorkflow(t)

	cases := []struct {
		name   string
		mutate func(*JobRequestInput)
	}{
		{"missing farmer name", func(in *JobRequestInput) { in.FarmerName = " " }},
		{"missing work type", func(in *JobRequestInput) { in.WorkType = "" }},
		{"zero crew size", func(in *JobRequestInput) { in.CrewSizeNeeded = 0 }},
		{"inverted work range", func(in *JobRequestInput) {
			in.WorkFrom = date(t, "2024-07-10")
			in.WorkTo = date(t, "2024-07-01")
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := testRequestInput(t)
			tc.mutate(&in)
			if _, err := workflow.Create(context.Background(), in); !IsValidation(err) {
				t.Errorf("Expected validation error, got %v", err)
			}
		})
	}
}

// Happy path: intake -> allocation -> execution -> payment -> review -> closed
func TestWorkflowFullLifecycle(t *testing.T) {
	workflow, roster, notifier := newTestWorkflow(t)
	ctx := context.Background()

	contractor := registerTestContractor(t, roster, "Ramesh", "Nashik")
	req, err := workflow.Create(ctx, testRequestInput(t))
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	notifier.next(t) // request_created

	req, err = workflow.Allocate(ctx, req.ID, contractor.ID, "team-member-1")
	if err != nil {
		t.Fatalf("Failed to allocate: %v", err)
	}
	if req.Stage != model.StageAllocation || req.ContractorID != contractor.ID {
		t.Errorf("Expected allocated request, got %+v", req)
	}
	if ev := notifier.next(t); ev.Type != "request_allocated" || ev.ContractorID != contractor.ID {
		t.Errorf("Unexpected allocation event %+v", ev)
	}

	req, err = workflow.Approve(ctx, req.ID, "ops-head")
	if err != nil {
		t.Fatalf("Failed to approve: %v", err)
	}
	if req.Stage != model.StageExecution || req.ApprovedBy != "ops-head" {
		t.Errorf("Expected execution stage, got %+v", req)
	}
	notifier.next(t)

	req, err = workflow.MarkExecuted(ctx, req.ID, "team-member-1")
	if err != nil {
		t.Fatalf("Failed to mark executed: %v", err)
	}
	if req.Stage != model.StagePayment {
		t.Errorf("Expected payment stage, got %q", req.Stage)
	}
	notifier.next(t)

	req, err = workflow.RecordPayment(ctx, req.ID, "accounts", 25000)
	if err != nil {
		t.Fatalf("Failed to record payment: %v", err)
	}
	if req.Stage != model.StageReview || req.PaymentAmount != 25000 {
		t.Errorf("Expected review stage with payment, got %+v", req)
	}
	notifier.next(t)

	req, err = workflow.SubmitReview(ctx, req.ID, "team-member-1", 4, "good crew")
	if err != nil {
		t.Fatalf("Failed to submit review: %v", err)
	}
	if req.Stage != model.StageClosed || req.Rating != 4 {
		t.Errorf("Expected closed request, got %+v", req)
	}
	if ev := notifier.next(t); ev.Type != "request_closed" {
		t.Errorf("Expected request_closed event, got %q", ev.Type)
	}
}

func TestWorkflowReject(t *testing.T) {
	workflow, roster, notifier := newTestWorkflow(t)
	ctx := context.Background()

	contractor := registerTestContractor(t, roster, "Ramesh", "Nashik")
	req, _ := workflow.Create(ctx, testRequestInput(t))
	notifier.next(t)

	if _, err := workflow.Reject(ctx, req.ID, "ops-head", ""); !IsValidation(err) {
		t.Fatalf("Expected validation error for empty reason, got %v", err)
	}

	// Reject is only legal at the allocation gate
	if _, err := workflow.Reject(ctx, req.ID, "ops-head", "too costly"); !IsValidation(err) {
		t.Fatalf("Expected stage validation error at intake, got %v", err)
	}

	if _, err := workflow.Allocate(ctx, req.ID, contractor.ID, "team-member-1"); err != nil {
		t.Fatalf("Failed to allocate: %v", err)
	}
	notifier.next(t)

	rejected, err := workflow.Reject(ctx, req.ID, "ops-head", "crew too small")
	if err != nil {
		t.Fatalf("Failed to reject: %v", err)
	}
	if rejected.Stage != model.StageRejected || rejected.RejectReason != "crew too small" {
		t.Errorf("Expected rejected request, got %+v", rejected)
	}
}

func TestWorkflowIllegalTransitions(t *testing.T) {
	workflow, roster, notifier := newTestWorkflow(t)
	ctx := context.Background()

	contractor := registerTestContractor(t, roster, "Ramesh", "Nashik")
	req, _ := workflow.Create(ctx, testRequestInput(t))
	notifier.next(t)

	// Every action out of order is a stage validation error
	if _, err := workflow.Approve(ctx, req.ID, "ops-head"); !IsValidation(err) {
		t.Errorf("Expected stage error approving at intake, got %v", err)
	}
	if _, err := workflow.MarkExecuted(ctx, req.ID, "tm"); !IsValidation(err) {
		t.Errorf("Expected stage error executing at intake, got %v", err)
	}
	if _, err := workflow.RecordPayment(ctx, req.ID, "tm", 100); !IsValidation(err) {
		t.Errorf("Expected stage error paying at intake, got %v", err)
	}
	if _, err := workflow.SubmitReview(ctx, req.ID, "tm", 3, ""); !IsValidation(err) {
		t.Errorf("Expected stage error reviewing at intake, got %v", err)
	}

	// Allocating twice is rejected
	if _, err := workflow.Allocate(ctx, req.ID, contractor.ID, "tm"); err != nil {
		t.Fatalf("Failed to allocate: %v", err)
	}
	if _, err := workflow.Allocate(ctx, req.ID, contractor.ID, "tm"); !IsValidation(err) {
		t.Errorf("Expected stage error on second allocation, got %v", err)
	}
}

func TestWorkflowAllocateUnknownContractor(t *testing.T) {
	workflow, _, notifier := newTestWorkflow(t)
	ctx := context.Background()

	req, _ := workflow.Create(ctx, testRequestInput(t))
	notifier.next(t)

	if _, err := workflow.Allocate(ctx, req.ID, 999, "tm"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown contractor, got %v", err)
	}
}

func TestWorkflowUnknownRequest(t *testing.T) {
	workflow, _, _ := newTestWorkflow(t)

	if _, err := workflow.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := workflow.Approve(context.Background(), "missing", "ops"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on approve, got %v", err)
	}
}

func TestWorkflowPaymentValidation(t *testing.T) {
	workflow, _, _ := newTestWorkflow(t)

	if _, err := workflow.RecordPayment(context.Background(), "any", "tm", 0); !IsValidation(err) {
		t.Errorf("Expected validation error for zero amount, got %v", err)
	}
	if _, err := workflow.SubmitReview(context.Background(), "any", "tm", 6, ""); !IsValidation(err) {
		t.Errorf("Expected validation error for rating 6, got %v", err)
	}
}

func TestWorkflowList(t *testing.T) {
	workflow, _, notifier := newTestWorkflow(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := workflow.Create(ctx, testRequestInput(t)); err != nil {
			t.Fatalf("Failed to create request: %v", err)
		}
		notifier.next(t)
		time.Sleep(2 * time.Millisecond)
	}

	list := workflow.List()
	if len(list) != 3 {
		t.Fatalf("Expected 3 requests, got %d", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i].CreatedAt.Before(list[i-1].CreatedAt) {
			t.Error("Expected requests ordered oldest first")
		}
	}
}
