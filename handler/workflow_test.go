package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/Bhati90/workw-sub001/model"
	"github.com/Bhati90/workw-sub001/service"
)

func newWorkflowRouter() (*gin.Engine, *service.RosterStore, *service.WorkflowStore) {
	roster := service.NewRosterStore()
	workflow := service.NewWorkflowStore(roster, nil)
	handler := NewWorkflowHandler(workflow)

	router := gin.New()
	router.POST("/requests", handler.Create)
	router.GET("/requests", handler.List)
	router.GET("/requests/:id", handler.Get)
	router.POST("/requests/:id/allocate", handler.Allocate)
	router.POST("/requests/:id/approve", handler.Approve)
	router.POST("/requests/:id/reject", handler.Reject)
	router.POST("/requests/:id/executed", handler.MarkExecuted)
	router.POST("/requests/:id/payment", handler.RecordPayment)
	router.POST("/requests/:id/review", handler.SubmitReview)
	return router, roster, workflow
}

func intakeBody() map[string]any {
	return map[string]any{
		"farmer_name":      "Patil",
		"farmer_mobile":    "9876512345",
		"village":          "Pimpalgaon",
		"work_type":        "grape harvest",
		"crew_size_needed": 12,
		"work_from":        "2025-06-01",
		"work_to":          "2025-06-10",
	}
}

func createRequest(t *testing.T, router *gin.Engine) string {
	t.Helper()
	w := postJSON(router, "POST", "/requests", intakeBody())
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	var req model.JobRequest
	if err := json.Unmarshal(w.Body.Bytes(), &req); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if req.Stage != model.StageIntake {
		t.Fatalf("Expected stage intake, got %s", req.Stage)
	}
	return req.ID
}

func TestWorkflowLifecycle(t *testing.T) {
	router, roster, _ := newWorkflowRouter()
	c, _ := roster.Register(testContractor("Ramesh", "Nashik"))
	id := createRequest(t, router)

	steps := []struct {
		path      string
		body      map[string]any
		wantStage string
	}{
		{"/allocate", map[string]any{"contractor_id": c.ID, "actor": "Priya"}, model.StageAllocation},
		{"/approve", map[string]any{"actor": "OpsHead"}, model.StageExecution},
		{"/executed", map[string]any{"actor": "Priya"}, model.StagePayment},
		{"/payment", map[string]any{"actor": "Priya", "amount": 48000.0}, model.StageReview},
		{"/review", map[string]any{"actor": "Priya", "rating": 4, "comments": "crew arrived on time"}, model.StageClosed},
	}

	for _, step := range steps {
		w := postJSON(router, "POST", "/requests/"+id+step.path, step.body)
		if w.Code != http.StatusOK {
			t.Fatalf("POST %s: expected status 200, got %d: %s", step.path, w.Code, w.Body.String())
		}
		var req model.JobRequest
		if err := json.Unmarshal(w.Body.Bytes(), &req); err != nil {
			t.Fatalf("Failed to parse response: %v", err)
		}
		if req.Stage != step.wantStage {
			t.Fatalf("POST %s: expected stage %s, got %s", step.path, step.wantStage, req.Stage)
		}
	}
}

func TestWorkflowCreateValidation(t *testing.T) {
	router, _, _ := newWorkflowRouter()

	tests := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{"missing farmer name", func(b map[string]any) { delete(b, "farmer_name") }},
		{"missing work type", func(b map[string]any) { delete(b, "work_type") }},
		{"zero crew size", func(b map[string]any) { b["crew_size_needed"] = 0 }},
		{"malformed date", func(b map[string]any) { b["work_from"] = "June 1st" }},
		{"inverted window", func(b map[string]any) { b["work_from"] = "2025-06-20" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := intakeBody()
			tt.mutate(body)

			w := postJSON(router, "POST", "/requests", body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestWorkflowAllocateUnknownContractor(t *testing.T) {
	router, _, _ := newWorkflowRouter()
	id := createRequest(t, router)

	w := postJSON(router, "POST", "/requests/"+id+"/allocate", map[string]any{
		"contractor_id": 99,
		"actor":         "Priya",
	})

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestWorkflowSkippedStage(t *testing.T) {
	router, _, _ := newWorkflowRouter()
	id := createRequest(t, router)

	// Approving straight from intake must fail
	w := postJSON(router, "POST", "/requests/"+id+"/approve", map[string]any{"actor": "OpsHead"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 approving from intake, got %d: %s", w.Code, w.Body.String())
	}
}

func TestWorkflowReject(t *testing.T) {
	router, roster, _ := newWorkflowRouter()
	c, _ := roster.Register(testContractor("Ramesh", "Nashik"))
	id := createRequest(t, router)

	postJSON(router, "POST", "/requests/"+id+"/allocate", map[string]any{
		"contractor_id": c.ID,
		"actor":         "Priya",
	})

	// Reason is mandatory
	w := postJSON(router, "POST", "/requests/"+id+"/reject", map[string]any{"actor": "OpsHead"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 without reason, got %d", w.Code)
	}

	w = postJSON(router, "POST", "/requests/"+id+"/reject", map[string]any{
		"actor":  "OpsHead",
		"reason": "crew too small for the plot",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var req model.JobRequest
	json.Unmarshal(w.Body.Bytes(), &req)
	if req.Stage != model.StageRejected {
		t.Errorf("Expected stage rejected, got %s", req.Stage)
	}
	if req.RejectReason == "" {
		t.Error("Expected reject reason recorded")
	}

	// A rejected request cannot re-enter the flow
	w = postJSON(router, "POST", "/requests/"+id+"/approve", map[string]any{"actor": "OpsHead"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 approving rejected request, got %d", w.Code)
	}
}

func TestWorkflowPaymentValidation(t *testing.T) {
	router, _, _ := newWorkflowRouter()
	id := createRequest(t, router)

	w := postJSON(router, "POST", "/requests/"+id+"/payment", map[string]any{
		"actor":  "Priya",
		"amount": -100.0,
	})

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for negative amount, got %d", w.Code)
	}
}

func TestWorkflowReviewRatingBounds(t *testing.T) {
	router, _, _ := newWorkflowRouter()
	id := createRequest(t, router)

	for _, rating := range []int{0, 6} {
		w := postJSON(router, "POST", "/requests/"+id+"/review", map[string]any{
			"actor":  "Priya",
			"rating": rating,
		})
		if w.Code != http.StatusBadRequest {
			t.Errorf("rating %d: expected status 400, got %d", rating, w.Code)
		}
	}
}

func TestWorkflowGetAndList(t *testing.T) {
	router, _, _ := newWorkflowRouter()
	id := createRequest(t, router)

	req := httptest.NewRequest("GET", "/requests/"+id, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	req = httptest.NewRequest("GET", "/requests/no-such-id", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}

	req = httptest.NewRequest("GET", "/requests", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response map[string][]model.JobRequest
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if len(response["requests"]) != 1 {
		t.Errorf("Expected 1 request, got %d", len(response["requests"]))
	}
}
