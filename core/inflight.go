package core

import "sync"

// Inflight tracks actions that must have at most one run in flight.
// The zero value is ready to use.
type Inflight struct {
	mu      sync.Mutex
	running map[string]struct{}
}

// Begin marks action as running and returns the func that releases it.
// ErrBusy is returned while a previous run of the same action is outstanding.
func (f *Inflight) Begin(action string) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.running == nil {
		f.running = make(map[string]struct{})
	}
	if _, ok := f.running[action]; ok {
		return nil, ErrBusy
	}
	f.running[action] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.running, action)
			f.mu.Unlock()
		})
	}, nil
}

func (f *Inflight) Busy(action string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.running[action]
	return ok
}
