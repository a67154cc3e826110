package service

import (
	"context"
	stdjson "encoding/json"
	"sync"

	"staking_hub/internal/app/port"
	"staking_hub/internal/domain/entity"
)

type rpcHandler func(params []any) (any, error)

// fakeProvider is an in-memory EIP-1193 provider.
type fakeProvider struct {
	id string

	mu       sync.Mutex
	handlers map[string]rpcHandler
	calls    []fakeCall
	events   chan<- entity.WalletEvent
}

type fakeCall struct {
	Method string
	Params []any
}

func newFakeProvider(id string) *fakeProvider {
	return &fakeProvider{id: id, handlers: make(map[string]rpcHandler)}
}

func (f *fakeProvider) on(method string, h rpcHandler) *fakeProvider {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[method] = h
	return f
}

func (f *fakeProvider) returns(method string, result any) *fakeProvider {
	return f.on(method, func([]any) (any, error) { return result, nil })
}

func (f *fakeProvider) fails(method string, err error) *fakeProvider {
	return f.on(method, func([]any) (any, error) { return nil, err })
}

func (f *fakeProvider) ID() string { return f.id }

func (f *fakeProvider) Request(_ context.Context, method string, params ...any) (stdjson.RawMessage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fakeCall{Method: method, Params: params})
	h := f.handlers[method]
	f.mu.Unlock()

	if h == nil {
		return nil, &entity.ProviderError{Code: entity.CodeUnsupported, Message: "unsupported method " + method}
	}
	res, err := h(params)
	if err != nil {
		return nil, err
	}
	return stdjson.Marshal(res)
}

func (f *fakeProvider) Subscribe(events chan<- entity.WalletEvent) func() {
	f.mu.Lock()
	f.events = events
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		f.events = nil
		f.mu.Unlock()
	}
}

func (f *fakeProvider) emit(ev entity.WalletEvent) bool {
	f.mu.Lock()
	ch := f.events
	f.mu.Unlock()
	if ch == nil {
		return false
	}
	ch <- ev
	return true
}

func (f *fakeProvider) callCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

func (f *fakeProvider) callsTo(method string) []fakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []fakeCall
	for _, c := range f.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

type fakeRegistry struct {
	providers map[string]port.WalletProvider
	defaultID string
}

func newFakeRegistry(providers ...port.WalletProvider) *fakeRegistry {
	r := &fakeRegistry{providers: make(map[string]port.WalletProvider)}
	for i, p := range providers {
		if i == 0 {
			r.defaultID = p.ID()
		}
		r.providers[p.ID()] = p
	}
	return r
}

func (r *fakeRegistry) Get(id string) (port.WalletProvider, bool) {
	p, ok := r.providers[id]
	return p, ok
}

func (r *fakeRegistry) Default() (port.WalletProvider, bool) { return r.Get(r.defaultID) }

func (r *fakeRegistry) IDs() []string {
	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	return ids
}
