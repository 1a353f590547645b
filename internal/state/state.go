package state

import (
	"sync"
	"time"
)

type Phase int

const (
	BOOTING Phase = iota
	IDLE
	ROTATING
	STOPPED
)

func (p Phase) String() string {
	switch p {
	case BOOTING:
		return "booting"
	case IDLE:
		return "idle"
	case ROTATING:
		return "rotating"
	case STOPPED:
		return "stopped"
	default:
		return "unknown"
	}
}

// FrameInfo describes the most recently presented frame.
type FrameInfo struct {
	Version   uint64
	Animated  bool
	Presented time.Time
}

type State struct {
	Phase     Phase
	LastIndex int
	RingLen   int
	Rotations uint64
	Frame     FrameInfo
}

type Store struct {
	mu    sync.RWMutex
	state State
}

func NewStore() *Store {
	return &Store{state: State{Phase: BOOTING}}
}

func (store *Store) Snapshot() State {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return store.state
}

func (store *Store) SetPhase(phase Phase) {
	store.mu.Lock()
	store.state.Phase = phase
	store.mu.Unlock()
}

func (store *Store) SetCursor(lastIndex, ringLen int) {
	store.mu.Lock()
	store.state.LastIndex = lastIndex
	store.state.RingLen = ringLen
	store.mu.Unlock()
}

func (store *Store) CompleteRotation(lastIndex int) {
	store.mu.Lock()
	store.state.LastIndex = lastIndex
	store.state.Rotations++
	store.mu.Unlock()
}

func (store *Store) UpdateFrame(frame FrameInfo) {
	store.mu.Lock()
	store.state.Frame = frame
	store.mu.Unlock()
}
