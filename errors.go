package smt

import (
	"errors"
	"fmt"
	"math/big"
)

// Sentinel errors for errors.Is matching, one per category in spec.md §7.
var (
	// ErrInvalidDepth is returned when a tree depth outside [1, 256] is requested.
	ErrInvalidDepth = errors.New("smt: depth must be between 1 and 256")

	// ErrKeyOutOfRange is the hard error for a batch key outside [0, 2^D).
	ErrKeyOutOfRange = errors.New("smt: key out of range for tree depth")

	// ErrDuplicateKeyInBatch is the hard error for two entries sharing a key
	// within a single batch (distinct from the soft DuplicateLeaf policy,
	// which concerns collisions against already-occupied tree slots).
	ErrDuplicateKeyInBatch = errors.New("smt: duplicate key within batch")

	// ErrMalformedWitness is the hard error for a witness that fails the
	// ascending-key-order or frontier-disjointness checks before verification.
	ErrMalformedWitness = errors.New("smt: malformed witness")

	// ErrRootMismatch is the hard error for a verifier recomputation that
	// disagrees with the claimed root.
	ErrRootMismatch = errors.New("smt: recomputed root does not match claimed root")

	// ErrDepthMismatch is the hard error for a verifier call whose depth
	// argument disagrees with the witness/tree depth.
	ErrDepthMismatch = errors.New("smt: depth argument does not match witness depth")
)

// OutOfRangeError reports a batch key outside [0, 2^D).
type OutOfRangeError struct {
	Key   *big.Int
	Depth uint16
}

func (e *OutOfRangeError) Error() string {
	max := new(big.Int).Lsh(big.NewInt(1), uint(e.Depth))
	return fmt.Sprintf("smt: key %s out of range for depth %d (max %s)", e.Key, e.Depth, max)
}

func (e *OutOfRangeError) Unwrap() error { return ErrKeyOutOfRange }

// DuplicateKeyError reports two batch entries sharing a key.
type DuplicateKeyError struct {
	Key *big.Int
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("smt: duplicate key %s within batch", e.Key)
}

func (e *DuplicateKeyError) Unwrap() error { return ErrDuplicateKeyInBatch }

// MalformedWitnessError reports a structural defect in a Witness: a nil
// witness, a non-ascending level, an entry whose key falls inside the
// batch's frontier (spec.md §4.4 "hard failure" case), or a forest that does
// not reduce to a single root. A witness whose level count differs from the
// depth argument is reported as a DepthMismatchError instead.
type MalformedWitnessError struct {
	Level  int
	Reason string
}

func (e *MalformedWitnessError) Error() string {
	return fmt.Sprintf("smt: malformed witness at level %d: %s", e.Level, e.Reason)
}

func (e *MalformedWitnessError) Unwrap() error { return ErrMalformedWitness }

// RootMismatchError reports which of the two verifier passes disagreed.
type RootMismatchError struct {
	Which    string // "old" or "new"
	Expected F
	Got      F
}

func (e *RootMismatchError) Error() string {
	return fmt.Sprintf("smt: %s root mismatch: expected %s, recomputed %s", e.Which, e.Expected, e.Got)
}

func (e *RootMismatchError) Unwrap() error { return ErrRootMismatch }

// DepthMismatchError reports a verifier depth argument that disagrees with
// the witness's own level count.
type DepthMismatchError struct {
	ArgDepth      uint16
	WitnessLevels int
}

func (e *DepthMismatchError) Error() string {
	return fmt.Sprintf("smt: depth argument %d does not match witness level count %d", e.ArgDepth, e.WitnessLevels)
}

func (e *DepthMismatchError) Unwrap() error { return ErrDepthMismatch }

// UnknownHashFunctionError reports a Config.HashFunction identifier NewEngine
// does not know how to resolve to a HashFunc on its own.
type UnknownHashFunctionError struct {
	Name string
}

func (e *UnknownHashFunctionError) Error() string {
	return fmt.Sprintf("smt: unknown hash function %q; use NewEngineWithOracle to supply one", e.Name)
}

// HashModeMismatchError reports a Config.IdempotentOnDefault that disagrees
// with the HashOracle actually supplied to NewEngineWithOracle.
type HashModeMismatchError struct {
	ConfigMode bool
	OracleMode bool
}

func (e *HashModeMismatchError) Error() string {
	return fmt.Sprintf("smt: config.IdempotentOnDefault=%v does not match oracle mode %v", e.ConfigMode, e.OracleMode)
}
