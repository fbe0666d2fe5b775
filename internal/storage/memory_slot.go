package storage

import (
	"context"
	"sync"
)

// MemorySlot keeps the payload in process. A positive quota rejects payloads
// larger than quota bytes with ErrQuotaExceeded.
type MemorySlot struct {
	mu      sync.Mutex
	name    string
	quota   int
	payload []byte
	writes  int
	err     error
}

func NewMemorySlot(name string, quota int) *MemorySlot {
	return &MemorySlot{name: name, quota: quota}
}

func (s *MemorySlot) Name() string {
	return "memory:" + s.name
}

func (s *MemorySlot) Load(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.payload) == 0 {
		return nil, ErrSlotEmpty
	}
	return append([]byte(nil), s.payload...), nil
}

func (s *MemorySlot) Save(_ context.Context, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	if s.quota > 0 && len(payload) > s.quota {
		return ErrQuotaExceeded
	}
	s.payload = append([]byte(nil), payload...)
	s.writes++
	return nil
}

// Put replaces the payload without quota checks or write accounting.
func (s *MemorySlot) Put(payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payload = append([]byte(nil), payload...)
}

func (s *MemorySlot) SetQuota(quota int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quota = quota
}

// FailWith makes every following Save return err until called with nil.
func (s *MemorySlot) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *MemorySlot) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
