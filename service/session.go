package service

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Bhati90/workw-sub001/model"
)

// Session holds the state of one operator's lookup-and-edit interaction:
// the search/disambiguation progress, the resolved contractor, and the
// availability editor. All of it lives here instead of in globals so
// concurrent operators never share mutable state.
type Session struct {
	ID         string
	State      SearchState
	Candidates []model.Contractor
	SelectedID int64 // 0 = no contractor selected
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// Editor state: Closed is editIndex == -1. Opening an edit snapshots
	// the slot so the save computes remainders against pre-edit values.
	editIndex    int
	editSnapshot model.AvailabilitySlot

	mu sync.Mutex
}

// Query runs the lookup against the roster and advances the session to the
// resulting terminal or narrowing state. An empty query clears any
// presented results.
func (s *Session) Query(query string, roster []model.Contractor) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := MatchContractors(query, roster)
	s.SelectedID = 0
	s.resetEditorLocked()
	s.touch()

	switch {
	case strings.TrimSpace(query) == "":
		// Blank query clears results without matching; not a failure
		s.Candidates = nil
		s.State = SearchIdle
	case len(matched) == 0:
		s.Candidates = nil
		s.State = SearchNotFound
	case len(matched) == 1:
		s.Candidates = nil
		s.SelectedID = matched[0].ID
		s.State = SearchResolved
	default:
		s.Candidates = matched
		s.State = SearchByVillage
		s.skipSinglePartitions()
	}
}

// skipSinglePartitions advances past narrowing steps that would present
// only one choice. Must be called with the lock held.
func (s *Session) skipSinglePartitions() {
	if s.State == SearchByVillage && len(PartitionVillages(s.Candidates)) == 1 {
		s.State = SearchByCrewSize
	}
	if s.State == SearchByCrewSize && len(PartitionCrewSizes(s.Candidates)) == 1 {
		s.State = SearchByMobile
	}
}

// VillageOptions returns the village choices when the session is in the
// village narrowing step
func (s *Session) VillageOptions() []VillageOption {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State != SearchByVillage {
		return nil
	}
	return PartitionVillages(s.Candidates)
}

// CrewSizeOptions returns the crew-size choices when the session is in the
// crew-size narrowing step
func (s *Session) CrewSizeOptions() []CrewSizeOption {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State != SearchByCrewSize {
		return nil
	}
	return PartitionCrewSizes(s.Candidates)
}

// ChooseVillage narrows the candidates to one village and advances to the
// crew-size step
func (s *Session) ChooseVillage(village string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State != SearchByVillage {
		return validationErr("state", "not narrowing by village")
	}
	filtered := FilterByVillage(s.Candidates, village)
	if len(filtered) == 0 {
		return ErrNotFound
	}

	s.Candidates = filtered
	s.State = SearchByCrewSize
	s.skipSinglePartitions()
	s.touch()
	return nil
}

// ChooseCrewSize narrows the candidates to one crew size and advances to
// the final mobile listing
func (s *Session) ChooseCrewSize(crewSize string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State != SearchByCrewSize {
		return validationErr("state", "not narrowing by crew size")
	}
	filtered := FilterByCrewSize(s.Candidates, crewSize)
	if len(filtered) == 0 {
		return ErrNotFound
	}

	s.Candidates = filtered
	s.State = SearchByMobile
	s.touch()
	return nil
}

// Select resolves the session to one listed candidate directly, from any
// narrowing step
func (s *Session) Select(contractorID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.State {
	case SearchByVillage, SearchByCrewSize, SearchByMobile:
	default:
		return validationErr("state", "no candidates presented")
	}

	for _, c := range s.Candidates {
		if c.ID == contractorID {
			s.resetEditorLocked()
			s.SelectedID = c.ID
			s.Candidates = nil
			s.State = SearchResolved
			s.touch()
			return nil
		}
	}
	return ErrNotFound
}

// SessionView is a consistent snapshot of the mutable search fields,
// taken under the lock so readers never observe a half-applied transition
type SessionView struct {
	State      SearchState
	Candidates []model.Contractor
	SelectedID int64
}

// View returns a snapshot of the current search state
func (s *Session) View() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	return SessionView{
		State:      s.State,
		Candidates: append([]model.Contractor(nil), s.Candidates...),
		SelectedID: s.SelectedID,
	}
}

// Selected returns the resolved contractor id, 0 when none
func (s *Session) Selected() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.SelectedID
}

// OpenEditor enters editing state for the slot at index, snapshotting its
// pre-edit values. Opening a different index replaces any previous editing
// state.
func (s *Session) OpenEditor(index int, slot model.AvailabilitySlot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.editIndex = index
	s.editSnapshot = slot
	s.touch()
}

// CloseEditor returns the editor to the closed state
func (s *Session) CloseEditor() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resetEditorLocked()
	s.touch()
}

// resetEditorLocked drops any open edit so its snapshot cannot be
// applied against a later selection. Must be called with the lock held.
func (s *Session) resetEditorLocked() {
	s.editIndex = -1
	s.editSnapshot = model.AvailabilitySlot{}
}

// Editing returns the open edit's index and snapshot, or ok=false when the
// editor is closed
func (s *Session) Editing() (index int, snapshot model.AvailabilitySlot, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.editIndex < 0 {
		return -1, model.AvailabilitySlot{}, false
	}
	return s.editIndex, s.editSnapshot, true
}

// SlotDeleted keeps the editor consistent after a delete: deleting the slot
// under edit closes the editor, and deleting an earlier slot shifts the
// edit index down so it still points at the same slot.
func (s *Session) SlotDeleted(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.editIndex == index:
		s.resetEditorLocked()
	case s.editIndex > index:
		s.editIndex--
	}
	s.touch()
}

// touch must be called with the lock held
func (s *Session) touch() {
	s.UpdatedAt = time.Now()
}

// SessionStore is an in-memory store for operator sessions
type SessionStore struct {
	sessions    map[string]*Session
	mu          sync.RWMutex
	maxSessions int // Maximum sessions to keep, 0 = unlimited
}

// NewSessionStore creates a session store with a capacity bound
func NewSessionStore(maxSessions int) *SessionStore {
	if maxSessions < 0 {
		maxSessions = 0
	}
	return &SessionStore{
		sessions:    make(map[string]*Session),
		maxSessions: maxSessions,
	}
}

// Create registers a fresh idle session and returns it
func (st *SessionStore) Create() *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := time.Now()
	session := &Session{
		ID:        uuid.New().String(),
		State:     SearchIdle,
		CreatedAt: now,
		UpdatedAt: now,
		editIndex: -1,
	}
	st.sessions[session.ID] = session

	st.cleanupIfNeeded()
	return session
}

// Get returns the session with the given id
func (st *SessionStore) Get(id string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	session, ok := st.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return session, nil
}

// Delete removes a session
func (st *SessionStore) Delete(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

// Count returns the number of live sessions
func (st *SessionStore) Count() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// cleanupIfNeeded evicts the oldest sessions when the store exceeds its
// capacity. Must be called with lock held.
func (st *SessionStore) cleanupIfNeeded() {
	if st.maxSessions <= 0 {
		return // Unlimited
	}
	if len(st.sessions) <= st.maxSessions {
		return
	}

	sessions := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		sessions = append(sessions, s)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})

	removeCount := len(sessions) - st.maxSessions
	for i := 0; i < removeCount; i++ {
		slog.Info("evicting old session",
			"session_id", sessions[i].ID,
			"created_at", sessions[i].CreatedAt,
		)
		delete(st.sessions, sessions[i].ID)
	}
}
