package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Bhati90/workw-sub001/model"
	"github.com/Bhati90/workw-sub001/pkg/logger"
	"github.com/Bhati90/workw-sub001/service"
)

type ContractorHandler struct {
	roster *service.RosterStore
}

func NewContractorHandler(roster *service.RosterStore) *ContractorHandler {
	return &ContractorHandler{roster: roster}
}

type ContractorInput struct {
	Name       string `json:"name" binding:"required"`
	Mobile     string `json:"mobile" binding:"required"`
	Village    string `json:"village"`
	CrewSize   string `json:"crew_size"`
	Smartphone bool   `json:"smartphone"`
}

// Register handles new mukkadam registration
func (h *ContractorHandler) Register(c *gin.Context) {
	var in ContractorInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindingError(c, err)
		return
	}

	contractor, err := h.roster.Register(model.Contractor{
		Name:       in.Name,
		Mobile:     in.Mobile,
		Village:    in.Village,
		CrewSize:   in.CrewSize,
		Smartphone: in.Smartphone,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	logger.Info(c.Request.Context(), "contractor registered",
		"contractor_id", contractor.ID,
		"village", contractor.Village,
	)
	c.JSON(http.StatusCreated, contractor)
}

// List returns the full contractor roster
func (h *ContractorHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"contractors": h.roster.List()})
}

// Get returns a single contractor
func (h *ContractorHandler) Get(c *gin.Context) {
	id, err := parseContractorID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	contractor, err := h.roster.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, contractor)
}

// Update replaces a contractor's editable attributes
func (h *ContractorHandler) Update(c *gin.Context) {
	id, err := parseContractorID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var in ContractorInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindingError(c, err)
		return
	}

	contractor, err := h.roster.Update(id, model.Contractor{
		Name:       in.Name,
		Mobile:     in.Mobile,
		Village:    in.Village,
		CrewSize:   in.CrewSize,
		Smartphone: in.Smartphone,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	logger.Info(c.Request.Context(), "contractor updated", "contractor_id", id)
	c.JSON(http.StatusOK, contractor)
}

func parseContractorID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, service.ErrNotFound
	}
	return id, nil
}
