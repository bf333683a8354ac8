package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

const callKeyPrefix = "voice:call:"

// placedSequence marks an entry seeded at call creation, before any callback.
const placedSequence = -1

// CallStatus latest known state of one outbound call
type CallStatus struct {
	CallSid        string    `json:"callSid"`
	Status         string    `json:"status"`
	To             string    `json:"to,omitempty"`
	From           string    `json:"from,omitempty"`
	Direction      string    `json:"direction,omitempty"`
	Duration       string    `json:"duration,omitempty"`
	SequenceNumber int       `json:"sequenceNumber"`
	ErrorCode      string    `json:"errorCode,omitempty"`
	ErrorMessage   string    `json:"errorMessage,omitempty"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// CallStatusStore tracks call progress reported by the provider's status
// callbacks. Callbacks may arrive out of order; an update with a lower
// sequence number than the stored one is ignored.
type CallStatusStore struct {
	kv  KV
	ttl time.Duration
	now func() time.Time
	mu  sync.Mutex
}

func NewCallStatusStore(kv KV, ttl time.Duration) *CallStatusStore {
	return &CallStatusStore{kv: kv, ttl: ttl, now: time.Now}
}

func callKey(sid string) string { return callKeyPrefix + sid }

// Get returns ErrMiss for unknown or expired calls.
func (s *CallStatusStore) Get(ctx context.Context, sid string) (*CallStatus, error) {
	raw, err := s.kv.Get(ctx, callKey(sid))
	if err != nil {
		return nil, err
	}
	var st CallStatus
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return nil, fmt.Errorf("decode call status %s: %w", sid, err)
	}
	return &st, nil
}

// Save stores st unless a newer update is already present. It returns the
// stored state and whether st was applied.
func (s *CallStatusStore) Save(ctx context.Context, st CallStatus) (*CallStatus, bool, error) {
	if st.CallSid == "" {
		return nil, false, errors.New("call status without CallSid")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, err := s.Get(ctx, st.CallSid)
	if err != nil && !errors.Is(err, ErrMiss) {
		return nil, false, err
	}
	if prev != nil {
		if st.SequenceNumber < prev.SequenceNumber {
			return prev, false, nil
		}
		if st.To == "" {
			st.To = prev.To
		}
		if st.From == "" {
			st.From = prev.From
		}
		if st.Direction == "" {
			st.Direction = prev.Direction
		}
	}
	if st.UpdatedAt.IsZero() {
		st.UpdatedAt = s.now().UTC()
	}

	b, err := json.Marshal(st)
	if err != nil {
		return nil, false, err
	}
	if err := s.kv.Set(ctx, callKey(st.CallSid), string(b), s.ttl); err != nil {
		return nil, false, fmt.Errorf("store call status %s: %w", st.CallSid, err)
	}
	return &st, true, nil
}

// RecordPlaced seeds the entry for a freshly created call.
func (s *CallStatusStore) RecordPlaced(ctx context.Context, sid, to, status string) error {
	_, _, err := s.Save(ctx, CallStatus{
		CallSid:        sid,
		Status:         status,
		To:             to,
		Direction:      "outbound-api",
		SequenceNumber: placedSequence,
	})
	return err
}
