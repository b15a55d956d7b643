// Package tracks owns the ordered track list of the project being edited.
//
// Store operations never fail. Inputs are validated by the caller (see
// ValidateDraft and ValidatePatch) before they reach the store.
package tracks

import (
	"sync"

	"github.com/google/uuid"

	"github.com/romariotrain/clip-studio/internal/studio/effects"
	"github.com/romariotrain/clip-studio/internal/studio/models"
)

type Store struct {
	mu       sync.RWMutex
	tracks   []models.VideoTrack
	selected uuid.UUID
	idGen    func() uuid.UUID
}

func NewStore() *Store {
	return &Store{idGen: uuid.New}
}

// Add appends a new track, selects it and returns its id.
func (s *Store) Add(d Draft) uuid.UUID {
	t := d.build()

	s.mu.Lock()
	defer s.mu.Unlock()

	t.ID = s.freshID()
	s.tracks = append(s.tracks, t)
	s.selected = t.ID
	return t.ID
}

// Update merges p into the track with the given id. Unknown ids are ignored.
func (s *Store) Update(id uuid.UUID, p Patch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return false
	}
	p.apply(&s.tracks[i])
	return true
}

// Remove deletes the track and clears the selection if it pointed at it.
func (s *Store) Remove(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return false
	}
	s.tracks = append(s.tracks[:i], s.tracks[i+1:]...)
	if s.selected == id {
		s.selected = uuid.Nil
	}
	return true
}

// Select makes id the active track. uuid.Nil clears the selection; unknown
// ids leave it unchanged.
func (s *Store) Select(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == uuid.Nil {
		s.selected = uuid.Nil
		return true
	}
	if s.index(id) < 0 {
		return false
	}
	s.selected = id
	return true
}

func (s *Store) ClearSelection() {
	s.Select(uuid.Nil)
}

func (s *Store) Selected() (uuid.UUID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected, s.selected != uuid.Nil
}

func (s *Store) Get(id uuid.UUID) (models.VideoTrack, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.index(id)
	if i < 0 {
		return models.VideoTrack{}, false
	}
	return s.tracks[i].Clone(), true
}

// ApplyEffect appends e to the track's effect stack.
func (s *Store) ApplyEffect(id uuid.UUID, e effects.Effect) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return false
	}
	s.tracks[i].Effects = append(s.tracks[i].Effects, e)
	return true
}

// RemoveEffect drops the effect at index from the track's stack.
func (s *Store) RemoveEffect(id uuid.UUID, index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 || index < 0 || index >= len(s.tracks[i].Effects) {
		return false
	}
	fx := s.tracks[i].Effects
	s.tracks[i].Effects = append(fx[:index:index], fx[index+1:]...)
	return true
}

// Snapshot returns a deep copy of the tracks in order.
func (s *Store) Snapshot() []models.VideoTrack {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := models.CloneTracks(s.tracks)
	if out == nil {
		out = []models.VideoTrack{}
	}
	return out
}

// Replace swaps in a whole track list, as when a saved project is reopened.
// The selection is cleared.
func (s *Store) Replace(tracks []models.VideoTrack) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tracks = models.CloneTracks(tracks)
	s.selected = uuid.Nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tracks)
}

func (s *Store) index(id uuid.UUID) int {
	for i := range s.tracks {
		if s.tracks[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) freshID() uuid.UUID {
	for {
		id := s.idGen()
		if id != uuid.Nil && s.index(id) < 0 {
			return id
		}
	}
}
