package smt

import (
	"math/big"
	"sort"
)

// Verify is the Non-Deletion Verifier of spec.md §4.4. It is a pure,
// stateless function: it owns no tree state and recomputes both oldRoot and
// newRoot from witness and batch alone, using the built-in Keccak256Combiner
// under cfg's identity mode. Use VerifyWithOracle to check a witness
// produced under a different hash function.
//
// Why two passes over the identical witness suffice: witness contains the
// hash of every subtree the batch did not touch. If recomputing with the
// batch's keys forced to ⊥ reproduces oldRoot, those slots really were empty
// before the batch and the witness really does describe the pre-state's
// unaffected subtrees; reusing that same witness with the batch's real
// values then computes the only root consistent with flipping exactly those
// leaves, which is newRoot if and only if no other leaf was disturbed. This
// is why the verifier must recompute bottom-up from the witness on every
// call rather than trust any higher-level hint — a hint could substitute a
// forged subtree root and no amount of re-checking would catch it.
func Verify(cfg Config, oldRoot, newRoot F, batch Batch, witness *Witness) (bool, error) {
	oracle := NewHashOracle(Keccak256Combiner, cfg.IdempotentOnDefault)
	return VerifyWithOracle(oracle, cfg.Depth, oldRoot, newRoot, batch, witness)
}

// VerifyWithOracle is Verify parameterized over an explicit HashOracle, for
// witnesses produced under a hash function other than the built-in
// Keccak256Combiner. oracle's IdempotentOnDefault mode must match whatever
// the Engine that produced witness used (spec.md §4.1).
func VerifyWithOracle(oracle *HashOracle, depth uint16, oldRoot, newRoot F, batch Batch, witness *Witness) (bool, error) {
	if witness == nil {
		return false, &MalformedWitnessError{Reason: "nil witness"}
	}

	// spec.md §4.4 edge case: a one-key batch at a degenerate depth-0 root.
	if depth == 0 {
		return verifyDegenerateRoot(oldRoot, newRoot, batch)
	}

	if int(depth) != len(witness.Levels) {
		return false, &DepthMismatchError{ArgDepth: depth, WitnessLevels: len(witness.Levels)}
	}

	if len(batch) == 0 {
		if oldRoot == newRoot {
			return true, nil
		}
		return false, &RootMismatchError{Which: "old/new", Expected: oldRoot, Got: newRoot}
	}

	sortedBatch := batch.sortedCopy()
	for i, e := range sortedBatch {
		if e.Key.Sign() < 0 || e.Key.BitLen() > int(depth) {
			return false, &OutOfRangeError{Key: e.Key, Depth: depth}
		}
		if i > 0 && sortedBatch[i-1].Key.Cmp(e.Key) == 0 {
			return false, &DuplicateKeyError{Key: e.Key}
		}
	}

	defaults := precomputeDefaults(oracle, depth)

	empties := make([]Entry, len(sortedBatch))
	for i, e := range sortedBatch {
		empties[i] = Entry{Key: e.Key, Value: Empty}
	}
	r1, err := computeForest(empties, witness, depth, oracle, defaults)
	if err != nil {
		return false, err
	}
	if r1 != oldRoot {
		return false, &RootMismatchError{Which: "old", Expected: oldRoot, Got: r1}
	}

	r2, err := computeForest(sortedBatch, witness, depth, oracle, defaults)
	if err != nil {
		return false, err
	}
	if r2 != newRoot {
		return false, &RootMismatchError{Which: "new", Expected: newRoot, Got: r2}
	}

	return true, nil
}

func verifyDegenerateRoot(oldRoot, newRoot F, batch Batch) (bool, error) {
	if len(batch) != 1 || batch[0].Key.Sign() != 0 {
		return false, &DepthMismatchError{ArgDepth: 0, WitnessLevels: 0}
	}
	if !oldRoot.IsZero() {
		return false, &RootMismatchError{Which: "old", Expected: Empty, Got: oldRoot}
	}
	if newRoot != batch[0].Value {
		return false, &RootMismatchError{Which: "new", Expected: batch[0].Value, Got: newRoot}
	}
	return true, nil
}

// computeForest is the "layered forest reduction" of spec.md §4.4: given an
// ordered list of (key, value) level-0 nodes, it reduces them to a single
// root using only witness as the source of every sibling value outside the
// adjacent-frontier case, never accepting a higher-level shortcut.
func computeForest(leaves []Entry, witness *Witness, depth uint16, oracle *HashOracle, defaults *DefaultLevels) (F, error) {
	cur := make([]Entry, len(leaves))
	copy(cur, leaves)
	sort.Slice(cur, func(i, j int) bool { return cur[i].Key.Cmp(cur[j].Key) < 0 })

	for level := uint16(0); level < depth; level++ {
		levelWitness := witness.Levels[level]

		for idx, we := range levelWitness {
			if idx > 0 && levelWitness[idx-1].Key.Cmp(we.Key) >= 0 {
				return F{}, &MalformedWitnessError{Level: int(level), Reason: "entries must be strictly ascending by key"}
			}
			if entriesContainKey(cur, we.Key) {
				return F{}, &MalformedWitnessError{Level: int(level), Reason: "entry key lies inside the batch frontier"}
			}
		}

		next := make([]Entry, 0, (len(cur)+1)/2)
		i, j := 0, 0
		for i < len(cur) {
			k, kv := cur[i].Key, cur[i].Value
			parity := bit(k, 0)
			p := new(big.Int).Rsh(k, 1)
			sib := new(big.Int).Lsh(p, 1)
			if parity == 0 {
				sib.SetBit(sib, 0, 1)
			}

			var sv F
			consumedPair := false
			switch {
			case parity == 0 && i+1 < len(cur) && cur[i+1].Key.Cmp(sib) == 0:
				sv = cur[i+1].Value
				consumedPair = true
			case j < len(levelWitness) && levelWitness[j].Key.Cmp(sib) == 0:
				sv = levelWitness[j].Value
				j++
			default:
				sv = defaults.At(level)
			}

			var pv F
			if parity == 0 {
				pv = oracle.Combine(kv, sv)
			} else {
				pv = oracle.Combine(sv, kv)
			}
			next = append(next, Entry{Key: p, Value: pv})

			if consumedPair {
				i += 2
			} else {
				i++
			}
		}
		cur = next
	}

	if len(cur) != 1 {
		return F{}, &MalformedWitnessError{Level: int(depth), Reason: "forest did not reduce to a single root"}
	}
	return cur[0].Value, nil
}

// entriesContainKey reports whether the ascending, unique entries slice
// contains key, via binary search.
func entriesContainKey(entries []Entry, key *big.Int) bool {
	i := sort.Search(len(entries), func(i int) bool { return entries[i].Key.Cmp(key) >= 0 })
	return i < len(entries) && entries[i].Key.Cmp(key) == 0
}
