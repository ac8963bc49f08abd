package smt

import (
	"github.com/ethereum/go-ethereum/crypto"
)

// HashFunc is the opaque binary combiner H the engine is parametric over. It
// is never called directly by engine code on a pair of all-⊥ inputs; see
// HashOracle.Combine.
type HashFunc func(left, right F) F

// Keccak256Combiner is the default HashFunc, standing in for the abstract
// "Poseidon/SHA-like" hash spec.md describes. It has no opinion about ⊥;
// that is entirely HashOracle's responsibility.
func Keccak256Combiner(left, right F) F {
	sum := crypto.Keccak256(left[:], right[:])
	return FFromBytes(sum)
}

// HashOracle wraps a HashFunc with the algebraic identities a deployment may
// rely on (spec.md §4.1). H(⊥,⊥)=⊥ is mandatory and enforced unconditionally
// by short-circuiting before the underlying function is ever invoked — this
// is what makes an empty depth-256 tree free to construct (see defaults.go).
// IdempotentOnDefault additionally makes ⊥ a two-sided identity element,
// H(x,⊥)=H(⊥,x)=x; this changes the meaning of the tree (leaf-bound identity
// vs. positional commitment) and MUST be the same setting used to build
// DefaultLevels and by the Non-Deletion Verifier, which is why both take a
// *HashOracle rather than a bare HashFunc.
type HashOracle struct {
	underlying          HashFunc
	idempotentOnDefault bool
}

// NewHashOracle constructs an oracle around fn. idempotentOnDefault selects
// the optional H(x,⊥)=H(⊥,x)=x identity; see the Config.IdempotentOnDefault
// field, which is the only place a deployment should set this.
func NewHashOracle(fn HashFunc, idempotentOnDefault bool) *HashOracle {
	if fn == nil {
		fn = Keccak256Combiner
	}
	return &HashOracle{underlying: fn, idempotentOnDefault: idempotentOnDefault}
}

// Combine computes H(left, right), honoring the identities described above.
func (h *HashOracle) Combine(left, right F) F {
	if left.IsZero() && right.IsZero() {
		return Empty
	}
	if h.idempotentOnDefault {
		if left.IsZero() {
			return right
		}
		if right.IsZero() {
			return left
		}
	}
	return h.underlying(left, right)
}

// IdempotentOnDefault reports the oracle's configured identity mode.
func (h *HashOracle) IdempotentOnDefault() bool {
	return h.idempotentOnDefault
}
