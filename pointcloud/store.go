package pointcloud

import (
	"sync"

	"github.com/pkg/errors"
)

// Store is the authoritative set of all points accepted so far, kept as two
// parallel component slices ready for GPU upload: positions holds xyz
// triples and colors holds rgb triples normalized to [0, 1]. One mutex
// guards both slices and the dirty flag together, so readers never observe
// the slices at different lengths.
type Store struct {
	mu        sync.Mutex
	positions []float32
	colors    []float32
	dirty     bool
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

func validateComponents(positions, colors []float32) error {
	if len(positions) != len(colors) {
		return errors.Errorf(
			"positions and colors must describe the same number of points, got %d and %d values",
			len(positions), len(colors))
	}
	if len(positions)%3 != 0 {
		return errors.Errorf("component length %d is not a multiple of 3", len(positions))
	}
	return nil
}

// Append adds the given components to the store and marks it dirty.
// Malformed components are rejected before any state changes.
func (s *Store) Append(positions, colors []float32) error {
	if err := validateComponents(positions, colors); err != nil {
		return err
	}
	if len(positions) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions = append(s.positions, positions...)
	s.colors = append(s.colors, colors...)
	s.dirty = true
	return nil
}

// Replace swaps the store's entire contents for the given components in one
// critical section, so no reader ever sees a partially replaced cloud.
func (s *Store) Replace(positions, colors []float32) error {
	if err := validateComponents(positions, colors); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions = append(s.positions[:0], positions...)
	s.colors = append(s.colors[:0], colors...)
	s.dirty = true
	return nil
}

// Clear resets the store to empty and marks it dirty so the next snapshot
// propagates the empty cloud.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions = s.positions[:0]
	s.colors = s.colors[:0]
	s.dirty = true
}

// Size returns the number of stored points.
func (s *Store) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.positions) / 3
}

// SnapshotIfDirty returns copies of the component slices when the store has
// changed since the last snapshot, clearing the dirty flag in the same
// critical section. When nothing changed it reports false without copying.
// An append racing with a snapshot is therefore either included in it or
// leaves the flag set for the next one; it is never lost.
func (s *Store) SnapshotIfDirty() (positions, colors []float32, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil, nil, false
	}
	positions = make([]float32, len(s.positions))
	copy(positions, s.positions)
	colors = make([]float32, len(s.colors))
	copy(colors, s.colors)
	s.dirty = false
	return positions, colors, true
}
