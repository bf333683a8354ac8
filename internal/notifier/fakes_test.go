package notifier

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/smanilla/mindtrack/internal/client"
	"github.com/smanilla/mindtrack/internal/models"
)

type fakeUsers struct {
	users map[string]*models.User
	err   error
}

func (f *fakeUsers) GetUser(_ context.Context, id string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return u, nil
}

type fakeMailer struct {
	mu    sync.Mutex
	sent  []Message
	id    string
	err   error
	panic string
	block bool
}

func (f *fakeMailer) Send(ctx context.Context, msg Message) (string, error) {
	if f.panic != "" {
		panic(f.panic)
	}
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, msg)
	return f.id, nil
}

type fakePlacer struct {
	mu        sync.Mutex
	requests  []client.CallRequest
	callErrs  map[string]error
	lookup    *client.LookupResult
	lookupErr error
	lookups   int
	seq       int
	block     bool
}

func (f *fakePlacer) CreateCall(ctx context.Context, req client.CallRequest) (*client.Call, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if err, ok := f.callErrs[req.To]; ok {
		return nil, err
	}
	f.seq++
	return &client.Call{SID: fmt.Sprintf("CA%03d", f.seq), Status: "queued", To: req.To, From: req.From}, nil
}

func (f *fakePlacer) Lookup(_ context.Context, _ string) (*client.LookupResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	if f.lookup != nil {
		return f.lookup, nil
	}
	return &client.LookupResult{CountryCode: "US"}, nil
}

func (f *fakePlacer) requestFor(to string) (client.CallRequest, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r.To == to {
			return r, true
		}
	}
	return client.CallRequest{}, false
}

type placedCall struct {
	sid, to, status string
}

type fakeRecorder struct {
	mu     sync.Mutex
	placed []placedCall
	err    error
}

func (f *fakeRecorder) RecordPlaced(_ context.Context, sid, to, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.placed = append(f.placed, placedCall{sid: sid, to: to, status: status})
	return f.err
}

type fakeOutcomes struct {
	mu     sync.Mutex
	emails []models.EmailResult
	calls  []models.CallResult
}

func (f *fakeOutcomes) ObserveEmail(res models.EmailResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emails = append(f.emails, res)
}

func (f *fakeOutcomes) ObserveCall(res models.CallResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, res)
}
