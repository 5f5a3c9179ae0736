package handler

import (
	"net/http"
	"strconv"

	"cloud.google.com/go/civil"
	"github.com/gin-gonic/gin"

	"github.com/Bhati90/workw-sub001/model"
	"github.com/Bhati90/workw-sub001/pkg/logger"
	"github.com/Bhati90/workw-sub001/service"
)

type AvailabilityHandler struct {
	roster   *service.RosterStore
	sessions *service.SessionStore
}

func NewAvailabilityHandler(roster *service.RosterStore, sessions *service.SessionStore) *AvailabilityHandler {
	return &AvailabilityHandler{roster: roster, sessions: sessions}
}

// SlotInput carries slot dates as ISO calendar-date strings so validation
// errors surface before any date arithmetic runs
type SlotInput struct {
	From   string `json:"from" binding:"required,datetime=2006-01-02"`
	To     string `json:"to" binding:"required,datetime=2006-01-02"`
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes"`
}

func (in *SlotInput) toSlot() (model.AvailabilitySlot, error) {
	from, err := civil.ParseDate(in.From)
	if err != nil {
		return model.AvailabilitySlot{}, &service.ValidationError{Field: "from", Reason: "invalid date"}
	}
	to, err := civil.ParseDate(in.To)
	if err != nil {
		return model.AvailabilitySlot{}, &service.ValidationError{Field: "to", Reason: "invalid date"}
	}
	status, err := model.ParseSlotStatus(in.Status)
	if err != nil {
		return model.AvailabilitySlot{}, &service.ValidationError{Field: "status", Reason: err.Error()}
	}

	return model.AvailabilitySlot{From: from, To: to, Status: status, Notes: in.Notes}, nil
}

// List returns a contractor's availability slots in display order
func (h *AvailabilityHandler) List(c *gin.Context) {
	id, err := parseContractorID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	slots, err := h.roster.Slots(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": slots})
}

// Add appends a new availability slot
func (h *AvailabilityHandler) Add(c *gin.Context) {
	id, err := parseContractorID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var in SlotInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindingError(c, err)
		return
	}
	slot, err := in.toSlot()
	if err != nil {
		respondError(c, err)
		return
	}

	slots, err := h.roster.AddSlot(id, slot)
	if err != nil {
		respondError(c, err)
		return
	}

	logger.Info(c.Request.Context(), "availability slot added",
		"contractor_id", id,
		"from", slot.From.String(),
		"to", slot.To.String(),
		"status", slot.Status,
	)
	c.JSON(http.StatusCreated, gin.H{"slots": slots})
}

// Delete removes the slot at the given index. The UI confirms first; the
// API requires confirm=true so an accidental call cannot mutate.
func (h *AvailabilityHandler) Delete(c *gin.Context) {
	id, err := parseContractorID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	index, err := parseSlotIndex(c)
	if err != nil {
		respondError(c, err)
		return
	}

	if c.Query("confirm") != "true" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Deletion requires confirmation"})
		return
	}

	slots, err := h.roster.DeleteSlot(id, index)
	if err != nil {
		respondError(c, err)
		return
	}

	// Keep any open editor in this operator's session consistent. Only
	// a session resolved to this contractor is affected.
	if sid := c.Query("session"); sid != "" {
		if session, err := h.sessions.Get(sid); err == nil && session.Selected() == id {
			session.SlotDeleted(index)
		}
	}

	logger.Info(c.Request.Context(), "availability slot deleted", "contractor_id", id, "index", index)
	c.JSON(http.StatusOK, gin.H{"slots": slots})
}

// Split applies a sub-range edit to the slot at the given index, replacing
// it with up to three slots that cover the same dates
func (h *AvailabilityHandler) Split(c *gin.Context) {
	id, err := parseContractorID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	index, err := parseSlotIndex(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var in SlotInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindingError(c, err)
		return
	}
	edit, err := in.toSlot()
	if err != nil {
		respondError(c, err)
		return
	}

	slots, err := h.roster.SplitSlot(id, index, edit)
	if err != nil {
		respondError(c, err)
		return
	}

	logger.Info(c.Request.Context(), "availability slot split",
		"contractor_id", id,
		"index", index,
		"from", edit.From.String(),
		"to", edit.To.String(),
	)
	c.JSON(http.StatusOK, gin.H{
		"message": "Availability updated",
		"slots":   slots,
	})
}

func parseSlotIndex(c *gin.Context) (int, error) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return 0, service.ErrNotFound
	}
	return index, nil
}
