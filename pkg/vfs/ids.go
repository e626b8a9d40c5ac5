package vfs

import (
	"crypto/rand"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// IDGenerator produces fresh node ids. Ids are prefixed with the node type,
// e.g. "file-01J...".
type IDGenerator interface {
	NewID(t NodeType) string
}

// ULIDGenerator generates lexically sortable ULID-based ids.
type ULIDGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewULIDGenerator returns a generator with monotonic entropy so ids made in
// the same millisecond still sort in creation order.
func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

func (g *ULIDGenerator) NewID(t NodeType) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return string(t) + "-" + ulid.MustNew(ulid.Now(), g.entropy).String()
}

// UUIDGenerator generates random UUID-based ids.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(t NodeType) string {
	return string(t) + "-" + uuid.NewString()
}

// CounterGenerator generates deterministic ids ("file-1", "folder-2", ...).
// Use it in tests.
type CounterGenerator struct {
	mu sync.Mutex
	n  int
}

func (g *CounterGenerator) NewID(t NodeType) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return string(t) + "-" + strconv.Itoa(g.n)
}

// NewIDGenerator returns the generator for a strategy name: "ulid" (default),
// "uuid" or "counter".
func NewIDGenerator(strategy string) IDGenerator {
	switch strategy {
	case "uuid":
		return UUIDGenerator{}
	case "counter":
		return &CounterGenerator{}
	default:
		return NewULIDGenerator()
	}
}
