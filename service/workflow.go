package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/Bhati90/workw-sub001/model"
	"github.com/Bhati90/workw-sub001/pkg/logger"
)

// WorkflowStore moves farmer job requests through the staged approval
// flow: intake -> allocation -> execution -> payment -> review -> closed,
// with rejection possible at the allocation gate. Every transition is a
// manual user action; notifications fire as side effects.
type WorkflowStore struct {
	requests map[string]*model.JobRequest
	roster   *RosterStore
	notifier Notifier
	mu       sync.RWMutex
}

// NewWorkflowStore creates a workflow store backed by the given roster
func NewWorkflowStore(roster *RosterStore, notifier Notifier) *WorkflowStore {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &WorkflowStore{
		requests: make(map[string]*model.JobRequest),
		roster:   roster,
		notifier: notifier,
	}
}

// JobRequestInput is the team-member intake form
type JobRequestInput struct {
	FarmerName     string
	FarmerMobile   string
	Village        string
	WorkType       string
	CrewSizeNeeded int
	WorkFrom       civil.Date
	WorkTo         civil.Date
}

// Create records a new request at the intake stage
func (w *WorkflowStore) Create(ctx context.Context, in JobRequestInput) (*model.JobRequest, error) {
	if strings.TrimSpace(in.FarmerName) == "" {
		return nil, validationErr("farmer_name", "farmer name is required")
	}
	if strings.TrimSpace(in.WorkType) == "" {
		return nil, validationErr("work_type", "work type is required")
	}
	if in.CrewSizeNeeded <= 0 {
		return nil, validationErr("crew_size_needed", "crew size must be positive")
	}
	if err := validateSlotRange(in.WorkFrom, in.WorkTo); err != nil {
		return nil, err
	}

	now := time.Now()
	req := &model.JobRequest{
		ID:             uuid.New().String(),
		FarmerName:     in.FarmerName,
		FarmerMobile:   in.FarmerMobile,
		Village:        in.Village,
		WorkType:       in.WorkType,
		CrewSizeNeeded: in.CrewSizeNeeded,
		WorkFrom:       in.WorkFrom,
		WorkTo:         in.WorkTo,
		Stage:          model.StageIntake,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	w.mu.Lock()
	w.requests[req.ID] = req
	copied := *req
	w.mu.Unlock()

	w.emit(ctx, NewEvent("request_created", req.ID, 0, "",
		fmt.Sprintf("job request from %s (%s) received", req.FarmerName, req.Village)))
	return &copied, nil
}

// Get returns the request with the given id
func (w *WorkflowStore) Get(id string) (*model.JobRequest, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	req, ok := w.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *req
	return &copied, nil
}

// List returns all requests, oldest first
func (w *WorkflowStore) List() []model.JobRequest {
	w.mu.RLock()
	defer w.mu.RUnlock()

	result := make([]model.JobRequest, 0, len(w.requests))
	for _, req := range w.requests {
		result = append(result, *req)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// Allocate attaches a contractor to an intake request and parks it at the
// allocation stage, awaiting the operations head
func (w *WorkflowStore) Allocate(ctx context.Context, id string, contractorID int64, actor string) (*model.JobRequest, error) {
	if _, err := w.roster.Get(contractorID); err != nil {
		return nil, err
	}

	req, err := w.transition(id, model.StageIntake, model.StageAllocation, func(r *model.JobRequest) {
		r.ContractorID = contractorID
		r.AllocatedBy = actor
	})
	if err != nil {
		return nil, err
	}

	w.emit(ctx, NewEvent("request_allocated", req.ID, contractorID, actor,
		"mukkadam allocated, awaiting operations approval"))
	return req, nil
}

// Approve moves an allocated request into execution
func (w *WorkflowStore) Approve(ctx context.Context, id, actor string) (*model.JobRequest, error) {
	req, err := w.transition(id, model.StageAllocation, model.StageExecution, func(r *model.JobRequest) {
		r.ApprovedBy = actor
	})
	if err != nil {
		return nil, err
	}

	w.emit(ctx, NewEvent("request_approved", req.ID, req.ContractorID, actor,
		"allocation approved, crew dispatched"))
	return req, nil
}

// Reject terminates an allocated request with a reason
func (w *WorkflowStore) Reject(ctx context.Context, id, actor, reason string) (*model.JobRequest, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, validationErr("reason", "rejection reason is required")
	}

	req, err := w.transition(id, model.StageAllocation, model.StageRejected, func(r *model.JobRequest) {
		r.RejectedBy = actor
		r.RejectReason = reason
	})
	if err != nil {
		return nil, err
	}

	w.emit(ctx, NewEvent("request_rejected", req.ID, req.ContractorID, actor,
		"allocation rejected: "+reason))
	return req, nil
}

// MarkExecuted records that the work finished and moves to payment
func (w *WorkflowStore) MarkExecuted(ctx context.Context, id, actor string) (*model.JobRequest, error) {
	req, err := w.transition(id, model.StageExecution, model.StagePayment, nil)
	if err != nil {
		return nil, err
	}

	w.emit(ctx, NewEvent("request_executed", req.ID, req.ContractorID, actor,
		"work completed, awaiting payment"))
	return req, nil
}

// RecordPayment records the payment amount and moves to review
func (w *WorkflowStore) RecordPayment(ctx context.Context, id, actor string, amount float64) (*model.JobRequest, error) {
	if amount <= 0 {
		return nil, validationErr("amount", "payment amount must be positive")
	}

	req, err := w.transition(id, model.StagePayment, model.StageReview, func(r *model.JobRequest) {
		r.PaymentAmount = amount
	})
	if err != nil {
		return nil, err
	}

	w.emit(ctx, NewEvent("payment_recorded", req.ID, req.ContractorID, actor,
		fmt.Sprintf("payment of %.2f recorded", amount)))
	return req, nil
}

// SubmitReview closes the request with a rating and comments
func (w *WorkflowStore) SubmitReview(ctx context.Context, id, actor string, rating int, comments string) (*model.JobRequest, error) {
	if rating < 1 || rating > 5 {
		return nil, validationErr("rating", "rating must be between 1 and 5")
	}

	req, err := w.transition(id, model.StageReview, model.StageClosed, func(r *model.JobRequest) {
		r.Rating = rating
		r.ReviewComments = comments
	})
	if err != nil {
		return nil, err
	}

	w.emit(ctx, NewEvent("request_closed", req.ID, req.ContractorID, actor,
		fmt.Sprintf("review submitted, rating %d/5", rating)))
	return req, nil
}

// transition applies mutate and moves the request from one stage to
// another, rejecting the action when the request is not at the expected
// stage
func (w *WorkflowStore) transition(id, fromStage, toStage string, mutate func(*model.JobRequest)) (*model.JobRequest, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	req, ok := w.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	if req.Stage != fromStage {
		return nil, validationErr("stage", fmt.Sprintf("request is at stage %q, expected %q", req.Stage, fromStage))
	}

	if mutate != nil {
		mutate(req)
	}
	req.Stage = toStage
	req.UpdatedAt = time.Now()

	copied := *req
	return &copied, nil
}

// emit sends the notification without blocking the user action
func (w *WorkflowStore) emit(ctx context.Context, ev Event) {
	go func() {
		if err := w.notifier.Notify(context.WithoutCancel(ctx), ev); err != nil {
			logger.Error(ctx, "notification failed", "event_id", ev.ID, "error", err)
		}
	}()
}
