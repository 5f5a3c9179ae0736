package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Bhati90/workw-sub001/model"
	"github.com/Bhati90/workw-sub001/service"
)

type SessionHandler struct {
	sessions *service.SessionStore
	roster   *service.RosterStore
}

func NewSessionHandler(sessions *service.SessionStore, roster *service.RosterStore) *SessionHandler {
	return &SessionHandler{sessions: sessions, roster: roster}
}

// Create opens a fresh lookup session
func (h *SessionHandler) Create(c *gin.Context) {
	session := h.sessions.Create()
	c.JSON(http.StatusCreated, h.view(session))
}

// Get returns the session's current search, selection and editor state
func (h *SessionHandler) Get(c *gin.Context) {
	session, err := h.sessions.Get(c.Param("sid"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.view(session))
}

type QueryInput struct {
	Q string `json:"q"`
}

// Query runs the contractor lookup and advances the disambiguation state
func (h *SessionHandler) Query(c *gin.Context) {
	session, err := h.sessions.Get(c.Param("sid"))
	if err != nil {
		respondError(c, err)
		return
	}

	var in QueryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindingError(c, err)
		return
	}

	session.Query(in.Q, h.roster.List())
	c.JSON(http.StatusOK, h.view(session))
}

type VillageInput struct {
	Village string `json:"village"`
}

// ChooseVillage narrows the candidates by village
func (h *SessionHandler) ChooseVillage(c *gin.Context) {
	session, err := h.sessions.Get(c.Param("sid"))
	if err != nil {
		respondError(c, err)
		return
	}

	var in VillageInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindingError(c, err)
		return
	}

	if err := session.ChooseVillage(in.Village); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.view(session))
}

type CrewSizeInput struct {
	CrewSize string `json:"crew_size"`
}

// ChooseCrewSize narrows the candidates by crew size
func (h *SessionHandler) ChooseCrewSize(c *gin.Context) {
	session, err := h.sessions.Get(c.Param("sid"))
	if err != nil {
		respondError(c, err)
		return
	}

	var in CrewSizeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindingError(c, err)
		return
	}

	if err := session.ChooseCrewSize(in.CrewSize); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.view(session))
}

type SelectInput struct {
	ContractorID int64 `json:"contractor_id" binding:"required"`
}

// Select resolves the session to one listed candidate
func (h *SessionHandler) Select(c *gin.Context) {
	session, err := h.sessions.Get(c.Param("sid"))
	if err != nil {
		respondError(c, err)
		return
	}

	var in SelectInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindingError(c, err)
		return
	}

	if err := session.Select(in.ContractorID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.view(session))
}

type EditorOpenInput struct {
	Index *int `json:"index" binding:"required"`
}

// EditorOpen snapshots the selected contractor's slot at index and enters
// editing state
func (h *SessionHandler) EditorOpen(c *gin.Context) {
	session, err := h.sessions.Get(c.Param("sid"))
	if err != nil {
		respondError(c, err)
		return
	}

	var in EditorOpenInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindingError(c, err)
		return
	}

	selected := session.Selected()
	if selected == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No contractor selected"})
		return
	}
	slots, err := h.roster.Slots(selected)
	if err != nil {
		respondError(c, err)
		return
	}
	index := *in.Index
	if index < 0 || index >= len(slots) {
		respondError(c, service.ErrNotFound)
		return
	}

	session.OpenEditor(index, slots[index])
	c.JSON(http.StatusOK, h.view(session))
}

// EditorSave applies the split edit against the snapshotted slot and
// closes the editor
func (h *SessionHandler) EditorSave(c *gin.Context) {
	session, err := h.sessions.Get(c.Param("sid"))
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

	index, snapshot, ok := session.Editing()
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No slot open for editing"})
		return
	}
	selected := session.Selected()
	if selected == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No contractor selected"})
		return
	}

	// The save applies only if the slot still matches the snapshot the
	// editor was opened on
	current, err := h.roster.Slots(selected)
	if err != nil {
		respondError(c, err)
		return
	}
	if index >= len(current) || current[index] != snapshot {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Slot changed since the edit was opened"})
		return
	}

	slots, err := h.roster.SplitSlot(selected, index, edit)
	if err != nil {
		respondError(c, err)
		return
	}

	session.CloseEditor()
	c.JSON(http.StatusOK, gin.H{
		"message": "Availability updated",
		"slots":   slots,
		"session": h.view(session),
	})
}

// EditorClose abandons the open edit
func (h *SessionHandler) EditorClose(c *gin.Context) {
	session, err := h.sessions.Get(c.Param("sid"))
	if err != nil {
		respondError(c, err)
		return
	}

	session.CloseEditor()
	c.JSON(http.StatusOK, h.view(session))
}

// view renders the session for the presentation layer: state, narrowing
// options, candidates and the open edit, all in one place
func (h *SessionHandler) view(s *service.Session) gin.H {
	sv := s.View()
	out := gin.H{
		"session_id": s.ID,
		"state":      sv.State,
	}

	switch sv.State {
	case service.SearchByVillage:
		out["villages"] = s.VillageOptions()
	case service.SearchByCrewSize:
		out["crew_sizes"] = s.CrewSizeOptions()
	case service.SearchByMobile:
		out["candidates"] = candidateViews(sv.Candidates)
	case service.SearchResolved:
		if contractor, err := h.roster.Get(sv.SelectedID); err == nil {
			out["selected"] = contractor
			if slots, err := h.roster.Slots(sv.SelectedID); err == nil {
				out["slots"] = slots
			}
		}
	}

	if index, snapshot, ok := s.Editing(); ok {
		out["editor"] = gin.H{
			"index":    index,
			"original": snapshot,
		}
	}
	return out
}

type candidateView struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Village  string `json:"village"`
	CrewSize string `json:"crew_size"`
	Mobile   string `json:"mobile"`
}

func candidateViews(candidates []model.Contractor) []candidateView {
	views := make([]candidateView, 0, len(candidates))
	for _, c := range candidates {
		views = append(views, candidateView{
			ID:       c.ID,
			Name:     c.Name,
			Village:  c.Village,
			CrewSize: c.CrewSize,
			Mobile:   c.Mobile,
		})
	}
	return views
}
