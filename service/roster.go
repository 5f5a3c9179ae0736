package service

import (
	"encoding/json"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Bhati90/workw-sub001/model"
)

// RosterStore is an in-memory store for contractors and their availability
// slot lists. Slot writes always replace a contractor's whole list; there
// is no partial-update protocol.
type RosterStore struct {
	contractors map[int64]*model.Contractor
	slots       map[int64][]model.AvailabilitySlot
	nextID      int64
	mu          sync.RWMutex
}

// NewRosterStore creates an empty roster
func NewRosterStore() *RosterStore {
	return &RosterStore{
		contractors: make(map[int64]*model.Contractor),
		slots:       make(map[int64][]model.AvailabilitySlot),
		nextID:      1,
	}
}

// Register validates and stores a new contractor, assigning its id
func (s *RosterStore) Register(c model.Contractor) (*model.Contractor, error) {
	if strings.TrimSpace(c.Name) == "" {
		return nil, validationErr("name", "name is required")
	}
	if strings.TrimSpace(c.Mobile) == "" {
		return nil, validationErr("mobile", "mobile number is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	c.ID = s.nextID
	c.CreatedAt = now
	c.UpdatedAt = now
	s.nextID++

	stored := c
	s.contractors[stored.ID] = &stored
	return &stored, nil
}

// Get returns the contractor with the given id
func (s *RosterStore) Get(id int64) (*model.Contractor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.contractors[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *c
	return &copied, nil
}

// Update replaces a contractor's editable attributes. The id and creation
// time never change; contractors are never hard-deleted.
func (s *RosterStore) Update(id int64, c model.Contractor) (*model.Contractor, error) {
	if strings.TrimSpace(c.Name) == "" {
		return nil, validationErr("name", "name is required")
	}
	if strings.TrimSpace(c.Mobile) == "" {
		return nil, validationErr("mobile", "mobile number is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.contractors[id]
	if !ok {
		return nil, ErrNotFound
	}

	existing.Name = c.Name
	existing.Mobile = c.Mobile
	existing.Village = c.Village
	existing.CrewSize = c.CrewSize
	existing.Smartphone = c.Smartphone
	existing.UpdatedAt = time.Now()

	copied := *existing
	return &copied, nil
}

// List returns all contractors ordered by id
func (s *RosterStore) List() []model.Contractor {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]model.Contractor, 0, len(s.contractors))
	for _, c := range s.contractors {
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result
}

// Count returns the number of registered contractors
func (s *RosterStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.contractors)
}

// Slots returns a copy of a contractor's slot list in display order
func (s *RosterStore) Slots(id int64) ([]model.AvailabilitySlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.contractors[id]; !ok {
		return nil, ErrNotFound
	}

	slots := s.slots[id]
	copied := make([]model.AvailabilitySlot, len(slots))
	copy(copied, slots)
	return copied, nil
}

// ReplaceSlots writes back a contractor's full slot list
func (s *RosterStore) ReplaceSlots(id int64, slots []model.AvailabilitySlot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.contractors[id]; !ok {
		return ErrNotFound
	}

	copied := make([]model.AvailabilitySlot, len(slots))
	copy(copied, slots)
	s.slots[id] = copied
	return nil
}

// AddSlot appends a validated slot to a contractor's list
func (s *RosterStore) AddSlot(id int64, slot model.AvailabilitySlot) ([]model.AvailabilitySlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.contractors[id]; !ok {
		return nil, ErrNotFound
	}

	updated, err := AddSlot(s.slots[id], slot)
	if err != nil {
		return nil, err
	}
	s.slots[id] = updated
	return copySlots(updated), nil
}

// DeleteSlot removes the slot at index from a contractor's list
func (s *RosterStore) DeleteSlot(id int64, index int) ([]model.AvailabilitySlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.contractors[id]; !ok {
		return nil, ErrNotFound
	}

	updated, err := DeleteSlot(s.slots[id], index)
	if err != nil {
		return nil, err
	}
	s.slots[id] = updated
	return copySlots(updated), nil
}

// SplitSlot applies a sub-range edit to the slot at index, replacing it
// with the 1-3 pieces that tile its original coverage
func (s *RosterStore) SplitSlot(id int64, index int, edit model.AvailabilitySlot) ([]model.AvailabilitySlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.contractors[id]; !ok {
		return nil, ErrNotFound
	}

	updated, err := SplitSlot(s.slots[id], index, edit)
	if err != nil {
		return nil, err
	}
	s.slots[id] = updated
	return copySlots(updated), nil
}

func copySlots(slots []model.AvailabilitySlot) []model.AvailabilitySlot {
	copied := make([]model.AvailabilitySlot, len(slots))
	copy(copied, slots)
	return copied
}

// RosterSnapshot is the persisted form of the roster
type RosterSnapshot struct {
	NextID      int64                               `json:"next_id"`
	Contractors []model.Contractor                  `json:"contractors"`
	Slots       map[int64][]model.AvailabilitySlot `json:"slots"`
}

// Snapshot exports the full roster state for persistence
func (s *RosterStore) Snapshot() RosterSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := RosterSnapshot{
		NextID:      s.nextID,
		Contractors: make([]model.Contractor, 0, len(s.contractors)),
		Slots:       make(map[int64][]model.AvailabilitySlot, len(s.slots)),
	}
	for _, c := range s.contractors {
		snap.Contractors = append(snap.Contractors, *c)
	}
	sort.Slice(snap.Contractors, func(i, j int) bool {
		return snap.Contractors[i].ID < snap.Contractors[j].ID
	})
	for id, slots := range s.slots {
		snap.Slots[id] = copySlots(slots)
	}
	return snap
}

// Restore replaces the store contents with a snapshot
func (s *RosterStore) Restore(snap RosterSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.contractors = make(map[int64]*model.Contractor, len(snap.Contractors))
	s.slots = make(map[int64][]model.AvailabilitySlot, len(snap.Slots))
	maxID := int64(0)
	for _, c := range snap.Contractors {
		stored := c
		s.contractors[stored.ID] = &stored
		if stored.ID > maxID {
			maxID = stored.ID
		}
	}
	for id, slots := range snap.Slots {
		s.slots[id] = copySlots(slots)
	}

	s.nextID = snap.NextID
	if s.nextID <= maxID {
		s.nextID = maxID + 1
	}
}

// LoadSeed registers contractors from a JSON seed file. Seeded entries go
// through Register so ids are store-assigned.
func (s *RosterStore) LoadSeed(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	var seed []model.Contractor
	if err := json.Unmarshal(data, &seed); err != nil {
		return 0, err
	}

	loaded := 0
	for _, c := range seed {
		if _, err := s.Register(c); err != nil {
			return loaded, err
		}
		loaded++
	}
	return loaded, nil
}
