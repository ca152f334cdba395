// Package ratelimit implements the per-client cooldown gate in front of the chat
// pipeline. It is advisory: spoofed or rotating forwarded headers defeat it.
package ratelimit

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/xiaot623/gogo/chatgate/internal/clock"
	"github.com/xiaot623/gogo/chatgate/internal/domain"
)

// DefaultCooldown is the minimum spacing between accepted calls per client.
const DefaultCooldown = 1500 * time.Millisecond

// UnknownClient is the key used when no forwarded origin is present.
const UnknownClient = "unknown"

// Limiter decides whether a client may proceed. A rejection is returned as
// *domain.ThrottledError.
type Limiter interface {
	Allow(ctx context.Context, key string) error
}

// ClientKey derives the limiter key from an X-Forwarded-For header value.
func ClientKey(forwardedFor string) string {
	first, _, _ := strings.Cut(forwardedFor, ",")
	if key := strings.TrimSpace(first); key != "" {
		return key
	}
	return UnknownClient
}

// Memory keeps the rate window in process memory. Entries are never evicted.
type Memory struct {
	mu       sync.Mutex
	last     map[string]time.Time
	cooldown time.Duration
	clock    clock.Clock
}

// NewMemory creates an in-process limiter. A nil clock uses the system clock.
func NewMemory(cooldown time.Duration, clk clock.Clock) *Memory {
	if clk == nil {
		clk = clock.Real{}
	}
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Memory{
		last:     make(map[string]time.Time),
		cooldown: cooldown,
		clock:    clk,
	}
}

// Allow records the call and returns nil, or returns a ThrottledError when the
// previous accepted call is closer than the cooldown.
func (m *Memory) Allow(_ context.Context, key string) error {
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if prev, ok := m.last[key]; ok {
		if elapsed := now.Sub(prev); elapsed < m.cooldown {
			return &domain.ThrottledError{RetryAfter: m.cooldown - elapsed}
		}
	}
	m.last[key] = now
	return nil
}

// Len returns the number of tracked clients.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.last)
}
