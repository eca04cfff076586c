package utils

import (
	"errors"
	"sync"
	"time"
)

// ErrNoAvailableKeys is returned when every key in the pool is cooling down.
var ErrNoAvailableKeys = errors.New("no available API keys")

// APIKeyPool rotates a set of provider API keys. Keys that hit a provider
// error are benched for a cooldown period so a rate-limited key is not
// hammered while siblings are healthy.
type APIKeyPool struct {
	keys    []string
	next    int
	benched map[string]time.Time
	mu      sync.Mutex
}

// NewAPIKeyPool creates a pool over the given keys. Returns nil for an empty
// key list.
func NewAPIKeyPool(keys []string) *APIKeyPool {
	if len(keys) == 0 {
		return nil
	}
	return &APIKeyPool{
		keys:    keys,
		benched: make(map[string]time.Time),
	}
}

// Next returns the next healthy key in round-robin order.
func (p *APIKeyPool) Next() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	for range p.keys {
		key := p.keys[p.next%len(p.keys)]
		p.next++
		if until, ok := p.benched[key]; ok {
			if now.Before(until) {
				continue
			}
			delete(p.benched, key)
		}
		return key, nil
	}
	return "", ErrNoAvailableKeys
}

// MarkFailed benches a key until the cooldown elapses.
func (p *APIKeyPool) MarkFailed(key string, cooldown time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.benched[key] = time.Now().Add(cooldown)
}

// Available reports how many keys are currently usable.
func (p *APIKeyPool) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	n := 0
	for _, key := range p.keys {
		if until, ok := p.benched[key]; ok && now.Before(until) {
			continue
		}
		n++
	}
	return n
}
