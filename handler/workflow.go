package handler

import (
	"net/http"

	"cloud.google.com/go/civil"
	"github.com/gin-gonic/gin"

	"github.com/Bhati90/workw-sub001/service"
)

type WorkflowHandler struct {
	workflow *service.WorkflowStore
}

func NewWorkflowHandler(workflow *service.WorkflowStore) *WorkflowHandler {
	return &WorkflowHandler{workflow: workflow}
}

type JobRequestBody struct {
	FarmerName     string `json:"farmer_name" binding:"required"`
	FarmerMobile   string `json:"farmer_mobile"`
	Village        string `json:"village" binding:"required"`
	WorkType       string `json:"work_type" binding:"required"`
	CrewSizeNeeded int    `json:"crew_size_needed" binding:"required,min=1"`
	WorkFrom       string `json:"work_from" binding:"required,datetime=2006-01-02"`
	WorkTo         string `json:"work_to" binding:"required,datetime=2006-01-02"`
}

// Create records a farmer job request at the intake stage
func (h *WorkflowHandler) Create(c *gin.Context) {
	var in JobRequestBody
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindingError(c, err)
		return
	}

	workFrom, err := civil.ParseDate(in.WorkFrom)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid work_from date"})
		return
	}
	workTo, err := civil.ParseDate(in.WorkTo)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid work_to date"})
		return
	}

	req, err := h.workflow.Create(c.Request.Context(), service.JobRequestInput{
		FarmerName:     in.FarmerName,
		FarmerMobile:   in.FarmerMobile,
		Village:        in.Village,
		WorkType:       in.WorkType,
		CrewSizeNeeded: in.CrewSizeNeeded,
		WorkFrom:       workFrom,
		WorkTo:         workTo,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

// List returns all job requests, oldest first
func (h *WorkflowHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"requests": h.workflow.List()})
}

// Get returns one job request
func (h *WorkflowHandler) Get(c *gin.Context) {
	req, err := h.workflow.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

type AllocateBody struct {
	ContractorID int64  `json:"contractor_id" binding:"required"`
	Actor        string `json:"actor" binding:"required"`
}

// Allocate assigns a mukkadam to an intake request
func (h *WorkflowHandler) Allocate(c *gin.Context) {
	var in AllocateBody
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindingError(c, err)
		return
	}

	req, err := h.workflow.Allocate(c.Request.Context(), c.Param("id"), in.ContractorID, in.Actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

type ActorBody struct {
	Actor string `json:"actor" binding:"required"`
}

// Approve moves an allocated request into execution
func (h *WorkflowHandler) Approve(c *gin.Context) {
	var in ActorBody
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindingError(c, err)
		return
	}

	req, err := h.workflow.Approve(c.Request.Context(), c.Param("id"), in.Actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

type RejectBody struct {
	Actor  string `json:"actor" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

// Reject terminates an allocated request
func (h *WorkflowHandler) Reject(c *gin.Context) {
	var in RejectBody
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindingError(c, err)
		return
	}

	req, err := h.workflow.Reject(c.Request.Context(), c.Param("id"), in.Actor, in.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// MarkExecuted records work completion
func (h *WorkflowHandler) MarkExecuted(c *gin.Context) {
	var in ActorBody
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindingError(c, err)
		return
	}

	req, err := h.workflow.MarkExecuted(c.Request.Context(), c.Param("id"), in.Actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

type PaymentBody struct {
	Actor  string  `json:"actor" binding:"required"`
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

// RecordPayment records the payment and moves to review
func (h *WorkflowHandler) RecordPayment(c *gin.Context) {
	var in PaymentBody
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindingError(c, err)
		return
	}

	req, err := h.workflow.RecordPayment(c.Request.Context(), c.Param("id"), in.Actor, in.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

type ReviewBody struct {
	Actor    string `json:"actor" binding:"required"`
	Rating   int    `json:"rating" binding:"required,min=1,max=5"`
	Comments string `json:"comments"`
}

// SubmitReview closes the request with a crew rating
func (h *WorkflowHandler) SubmitReview(c *gin.Context) {
	var in ReviewBody
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindingError(c, err)
		return
	}

	req, err := h.workflow.SubmitReview(c.Request.Context(), c.Param("id"), in.Actor, in.Rating, in.Comments)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}
