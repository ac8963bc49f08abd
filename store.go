package smt

import (
	"encoding/hex"
	"math/big"

	"github.com/ethereum/go-ethereum/log"
)

// Backend is the pluggable storage interface a NodeStore is built on, kept
// from the teacher's Database abstraction so the sparse map can be swapped
// for another key-value implementation without touching the Batch Engine.
// Persistence to disk is out of scope (spec.md §1 Non-goals); the only
// implementation this module ships is the in-memory one below.
type Backend interface {
	Get(key []byte) ([]byte, bool)
	Set(key []byte, value []byte)
	Has(key []byte) bool
}

// MemoryBackend is a plain map-backed Backend: no balancing, no tombstones,
// exactly the "hash map with no frills" spec.md §4.2 calls for.
type MemoryBackend struct {
	data map[string][]byte
}

// NewMemoryBackend creates an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]byte)}
}

func (m *MemoryBackend) Get(key []byte) ([]byte, bool) {
	v, ok := m.data[string(key)]
	return v, ok
}

func (m *MemoryBackend) Set(key []byte, value []byte) {
	m.data[string(key)] = value
}

func (m *MemoryBackend) Has(key []byte) bool {
	_, ok := m.data[string(key)]
	return ok
}

// NodeStore is the Sparse Node Store of spec.md §4.2: a partial mapping
// (level, key) -> F. Any address not present logically reads as def[level].
// The store never records ⊥ values — a miss and a stored ⊥ are
// indistinguishable and both read back as default, so writing ⊥ would be
// redundant bookkeeping, never a correctness requirement.
type NodeStore struct {
	backend  Backend
	defaults *DefaultLevels
}

// NewNodeStore creates a NodeStore backed by backend, using defaults for
// every address not yet materialized.
func NewNodeStore(backend Backend, defaults *DefaultLevels) *NodeStore {
	if backend == nil {
		backend = NewMemoryBackend()
	}
	return &NodeStore{backend: backend, defaults: defaults}
}

func encodeAddress(level uint16, key *big.Int) []byte {
	// "<level-hex>:<key-hex>" is unambiguous because the level prefix is
	// fixed-width and colon cannot appear in hex.EncodeToString output.
	levelHex := [4]byte{}
	hex.Encode(levelHex[:], []byte{byte(level >> 8), byte(level)})
	out := make([]byte, 0, 4+1+2*((key.BitLen()+7)/8+1))
	out = append(out, levelHex[:]...)
	out = append(out, ':')
	out = append(out, []byte(key.Text(16))...)
	return out
}

// Get returns the logical value at (level, key): the stored value if
// present, else def[level]. Never fails.
func (s *NodeStore) Get(level uint16, key *big.Int) F {
	raw, ok := s.backend.Get(encodeAddress(level, key))
	if !ok {
		return s.defaults.At(level)
	}
	return FFromBytes(raw)
}

// Has reports whether (level, key) has a materialized (non-default) entry.
func (s *NodeStore) Has(level uint16, key *big.Int) bool {
	return s.backend.Has(encodeAddress(level, key))
}

// Set writes (level, key) = value; writing ⊥ is a no-op, since a miss already
// reads as ⊥. For level 0 (leaf) writes
// where an entry already exists, the write is suppressed and a soft
// DuplicateLeaf diagnostic is logged instead (spec.md §4.2, §7); the caller
// is expected to have already consulted Has at level 0 before offering the
// entry, so this is a defensive backstop, not the primary enforcement point.
func (s *NodeStore) Set(level uint16, key *big.Int, value F) {
	if value.IsZero() {
		return
	}
	if level == 0 && s.Has(0, key) {
		log.Warn("smt: duplicate leaf write suppressed", "key", key.String())
		return
	}
	s.backend.Set(encodeAddress(level, key), value[:])
}

// setInternal (levels ≥ 1) bypasses the leaf-duplicate check, which only
// applies to level 0; internal spine nodes are always safe to overwrite
// since they are pure functions of their children.
func (s *NodeStore) setInternal(level uint16, key *big.Int, value F) {
	if value.IsZero() {
		return
	}
	s.backend.Set(encodeAddress(level, key), value[:])
}
