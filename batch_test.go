package smt

import (
	"math/big"
	"testing"
)

func newTestEngine(t *testing.T, depth uint16) *Engine {
	t.Helper()
	cfg := Config{Depth: depth, HashFunction: "keccak256"}
	engine, err := NewEngine(cfg, NewMemoryBackend())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return engine
}

// S1 — empty tree: no insertions, root is def[D].
func TestBatchInsertEmptyTreeRoot(t *testing.T) {
	engine := newTestEngine(t, 8)
	oracle := NewHashOracle(Keccak256Combiner, false)
	defaults := precomputeDefaults(oracle, 8)
	if engine.Root() != defaults.At(8) {
		t.Errorf("empty tree root = %s, want def[8] = %s", engine.Root(), defaults.At(8))
	}

	witness, err := engine.BatchInsert(nil)
	if err != nil {
		t.Fatalf("BatchInsert(nil): %v", err)
	}
	ok, err := Verify(Config{Depth: 8, HashFunction: "keccak256"}, defaults.At(8), defaults.At(8), nil, witness)
	if err != nil || !ok {
		t.Errorf("verify of empty batch against empty tree: ok=%v err=%v", ok, err)
	}
}

// S2 — single insertion produces an empty witness (every sibling along the
// spine is still default).
func TestBatchInsertSingleLeafEmptyWitness(t *testing.T) {
	engine := newTestEngine(t, 8)
	oldRoot := engine.Root()

	var val F
	val[31] = 42
	witness, err := engine.BatchInsert(Batch{{Key: big.NewInt(1), Value: val}})
	if err != nil {
		t.Fatalf("BatchInsert: %v", err)
	}
	for level, entries := range witness.Levels {
		if len(entries) != 0 {
			t.Errorf("level %d: expected no witness entries for a lone insertion, got %d", level, len(entries))
		}
	}

	ok, err := Verify(Config{Depth: 8, HashFunction: "keccak256"}, oldRoot, engine.Root(), Batch{{Key: big.NewInt(1), Value: val}}, witness)
	if err != nil || !ok {
		t.Errorf("verify single-leaf batch: ok=%v err=%v", ok, err)
	}
}

// S3 — sibling leaves (adjacent-frontier case): witness stays empty even
// though both children of the parent are written, because the merge is
// resolved from the frontier itself, not the witness.
func TestBatchInsertAdjacentSiblingsEmptyWitness(t *testing.T) {
	engine := newTestEngine(t, 8)
	oldRoot := engine.Root()

	var v0, v1 F
	v0[31] = 20
	v1[31] = 10
	batch := Batch{
		{Key: big.NewInt(1), Value: v1},
		{Key: big.NewInt(0), Value: v0},
	}
	witness, err := engine.BatchInsert(batch)
	if err != nil {
		t.Fatalf("BatchInsert: %v", err)
	}
	if len(witness.Levels[0]) != 0 {
		t.Errorf("adjacent siblings should need no level-0 witness entry, got %d", len(witness.Levels[0]))
	}

	ok, err := Verify(Config{Depth: 8, HashFunction: "keccak256"}, oldRoot, engine.Root(), batch, witness)
	if err != nil || !ok {
		t.Errorf("verify sibling-leaves batch: ok=%v err=%v", ok, err)
	}
}

// S4 — two distant keys: every sibling on both spines is a default subtree,
// so the witness is empty end to end.
func TestBatchInsertDistantKeysEmptyWitness(t *testing.T) {
	engine := newTestEngine(t, 16)
	oldRoot := engine.Root()

	var v1, v2 F
	v1[31] = 1
	v2[31] = 2
	batch := Batch{
		{Key: big.NewInt(0x0001), Value: v1},
		{Key: big.NewInt(0x8000), Value: v2},
	}
	witness, err := engine.BatchInsert(batch)
	if err != nil {
		t.Fatalf("BatchInsert: %v", err)
	}
	for level, entries := range witness.Levels {
		if len(entries) != 0 {
			t.Errorf("level %d: expected empty witness for distant keys, got %d entries", level, len(entries))
		}
	}

	ok, err := Verify(Config{Depth: 16, HashFunction: "keccak256"}, oldRoot, engine.Root(), batch, witness)
	if err != nil || !ok {
		t.Errorf("verify distant-keys batch: ok=%v err=%v", ok, err)
	}
}

// S5 — two batches; the second batch's witness carries the non-default
// subtree the first batch materialized.
func TestBatchInsertSecondBatchWitnessCarriesFirstBatchSubtree(t *testing.T) {
	engine := newTestEngine(t, 16)
	root0 := engine.Root()

	var v1 F
	v1[31] = 1
	w1, err := engine.BatchInsert(Batch{{Key: big.NewInt(0x0001), Value: v1}})
	if err != nil {
		t.Fatalf("first BatchInsert: %v", err)
	}
	root1 := engine.Root()
	ok, err := Verify(Config{Depth: 16, HashFunction: "keccak256"}, root0, root1, Batch{{Key: big.NewInt(0x0001), Value: v1}}, w1)
	if err != nil || !ok {
		t.Fatalf("verify first batch: ok=%v err=%v", ok, err)
	}

	var v2 F
	v2[31] = 2
	batch2 := Batch{{Key: big.NewInt(0x0002), Value: v2}}
	w2, err := engine.BatchInsert(batch2)
	if err != nil {
		t.Fatalf("second BatchInsert: %v", err)
	}
	root2 := engine.Root()

	if len(w2.Levels[0]) != 0 {
		t.Errorf("level 0: expected no witness entry (sibling 0x0003 is default), got %d", len(w2.Levels[0]))
	}
	if len(w2.Levels[1]) != 1 {
		t.Fatalf("level 1: expected exactly one witness entry (the 0x0000 subtree), got %d", len(w2.Levels[1]))
	}
	if w2.Levels[1][0].Key.Cmp(big.NewInt(0)) != 0 {
		t.Errorf("level 1 witness key = %s, want 0", w2.Levels[1][0].Key)
	}

	ok, err = Verify(Config{Depth: 16, HashFunction: "keccak256"}, root1, root2, batch2, w2)
	if err != nil || !ok {
		t.Errorf("verify second batch: ok=%v err=%v", ok, err)
	}
}

// Invariant 4: order independence — permuting the caller's batch ordering
// must not change the resulting root.
func TestBatchInsertOrderIndependence(t *testing.T) {
	var v1, v2, v3 F
	v1[31], v2[31], v3[31] = 1, 2, 3

	engineA := newTestEngine(t, 16)
	_, err := engineA.BatchInsert(Batch{
		{Key: big.NewInt(5), Value: v1},
		{Key: big.NewInt(2), Value: v2},
		{Key: big.NewInt(9), Value: v3},
	})
	if err != nil {
		t.Fatalf("engineA BatchInsert: %v", err)
	}

	engineB := newTestEngine(t, 16)
	_, err = engineB.BatchInsert(Batch{
		{Key: big.NewInt(9), Value: v3},
		{Key: big.NewInt(5), Value: v1},
		{Key: big.NewInt(2), Value: v2},
	})
	if err != nil {
		t.Fatalf("engineB BatchInsert: %v", err)
	}

	if engineA.Root() != engineB.Root() {
		t.Errorf("root depends on batch ordering: %s vs %s", engineA.Root(), engineB.Root())
	}
}

// Invariant 6: a key already occupied at level 0 is dropped, not applied,
// and does not disturb the existing leaf.
func TestBatchInsertSkipsOccupiedSlot(t *testing.T) {
	engine := newTestEngine(t, 8)
	var original, attempted F
	original[31] = 1
	attempted[31] = 99

	_, err := engine.BatchInsert(Batch{{Key: big.NewInt(3), Value: original}})
	if err != nil {
		t.Fatalf("first insert: %v", err)
	}
	rootAfterFirst := engine.Root()

	witness, err := engine.BatchInsert(Batch{{Key: big.NewInt(3), Value: attempted}})
	if err != nil {
		t.Fatalf("second insert should not hard-fail: %v", err)
	}
	if engine.Root() != rootAfterFirst {
		t.Error("root changed after inserting into an already-occupied slot")
	}
	for level, entries := range witness.Levels {
		if len(entries) != 0 {
			t.Errorf("level %d: fully-filtered batch should yield an empty witness, got %d entries", level, len(entries))
		}
	}
	if engine.store.Get(0, big.NewInt(3)) != original {
		t.Error("existing leaf value was modified by the skipped insertion")
	}
}

func TestBatchInsertRejectsOutOfRangeKey(t *testing.T) {
	engine := newTestEngine(t, 4)
	_, err := engine.BatchInsert(Batch{{Key: big.NewInt(16), Value: Empty}})
	if err == nil {
		t.Fatal("expected OutOfRangeError for key >= 2^depth")
	}
	if _, ok := err.(*OutOfRangeError); !ok {
		t.Errorf("expected *OutOfRangeError, got %T: %v", err, err)
	}
}

func TestBatchInsertRejectsDuplicateKeyWithinBatch(t *testing.T) {
	engine := newTestEngine(t, 8)
	before := engine.Root()
	_, err := engine.BatchInsert(Batch{
		{Key: big.NewInt(1), Value: Empty},
		{Key: big.NewInt(1), Value: Empty},
	})
	if err == nil {
		t.Fatal("expected DuplicateKeyError for two entries sharing a key")
	}
	if engine.Root() != before {
		t.Error("a hard validation failure must not mutate the tree (transactional batch)")
	}
}
