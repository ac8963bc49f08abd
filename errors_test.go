package smt

import (
	"errors"
	"math/big"
	"testing"
)

func TestOutOfRangeErrorUnwrapsToSentinel(t *testing.T) {
	err := &OutOfRangeError{Key: big.NewInt(99), Depth: 4}
	if !errors.Is(err, ErrKeyOutOfRange) {
		t.Error("OutOfRangeError should unwrap to ErrKeyOutOfRange")
	}
}

func TestDuplicateKeyErrorUnwrapsToSentinel(t *testing.T) {
	err := &DuplicateKeyError{Key: big.NewInt(1)}
	if !errors.Is(err, ErrDuplicateKeyInBatch) {
		t.Error("DuplicateKeyError should unwrap to ErrDuplicateKeyInBatch")
	}
}

func TestMalformedWitnessErrorUnwrapsToSentinel(t *testing.T) {
	err := &MalformedWitnessError{Level: 2, Reason: "test"}
	if !errors.Is(err, ErrMalformedWitness) {
		t.Error("MalformedWitnessError should unwrap to ErrMalformedWitness")
	}
}

func TestRootMismatchErrorUnwrapsToSentinel(t *testing.T) {
	err := &RootMismatchError{Which: "old", Expected: Empty, Got: Empty}
	if !errors.Is(err, ErrRootMismatch) {
		t.Error("RootMismatchError should unwrap to ErrRootMismatch")
	}
}

func TestDepthMismatchErrorUnwrapsToSentinel(t *testing.T) {
	err := &DepthMismatchError{ArgDepth: 4, WitnessLevels: 8}
	if !errors.Is(err, ErrDepthMismatch) {
		t.Error("DepthMismatchError should unwrap to ErrDepthMismatch")
	}
}
