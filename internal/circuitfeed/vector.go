// Package circuitfeed produces the flattened hex argument vector described
// in spec.md §6.2: the calling convention a downstream zero-knowledge circuit
// expects to receive a batch-insertion witness in. It stops at producing
// those bytes — checking them is the circuit's job, not this module's
// (spec.md §1 Non-goals: circuit-side verifiers).
package circuitfeed

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"sort"

	"github.com/batchsmt/smt/internal/testutils"
	"golang.org/x/crypto/sha3"
)

// Vector is the flattened argument sequence for one batch transition: a
// fixed header followed by the batch entries and then, level by level, the
// witness siblings collected at that level. Every field is a hex string so
// the vector serializes to a circuit's calling convention without further
// conversion.
type Vector struct {
	Depth      uint16
	OldRoot    string
	NewRoot    string
	BatchKeys  []string
	BatchVals  []string
	WitnessLvl []uint32 // entry count per level, in level order
	WitnessKey []string // all witness keys, concatenated level by level
	WitnessVal []string // all witness values, concatenated level by level
}

// Flatten renders Vector into the single ordered []string a fixed-arity
// circuit call expects, per spec.md §6.2: old_root, new_root, len(batch),
// (key,value) pairs interleaved per batch entry, len(proof) [the number of
// witness levels], then per level a count followed by that many interleaved
// (key, value) pairs, and finally depth trailing the whole vector. This
// mirrors the teacher's SolidityRootSimulator calling convention (leaf,
// index, enables, siblings...) generalized from one leaf to a whole batch.
func (v *Vector) Flatten() []string {
	out := make([]string, 0, 4+2*len(v.BatchKeys)+len(v.WitnessLvl)+2*len(v.WitnessKey))
	out = append(out, v.OldRoot, v.NewRoot, fmt.Sprintf("0x%x", len(v.BatchKeys)))
	for i := range v.BatchKeys {
		out = append(out, v.BatchKeys[i], v.BatchVals[i])
	}

	out = append(out, fmt.Sprintf("0x%x", len(v.WitnessLvl)))
	idx := 0
	for _, count := range v.WitnessLvl {
		out = append(out, fmt.Sprintf("0x%x", count))
		for i := uint32(0); i < count; i++ {
			out = append(out, v.WitnessKey[idx], v.WitnessVal[idx])
			idx++
		}
	}
	out = append(out, fmt.Sprintf("0x%x", v.Depth))
	return out
}

// keyedEntry is the minimal shape Encode needs from a batch entry or witness
// entry, expressed as hex strings so circuitfeed has no dependency on the
// root smt package's types.
type keyedEntry struct {
	Key   string
	Value string
}

// Encode builds a Vector from already-hex-encoded batch entries and, per
// level, already-hex-encoded witness entries. Callers in the root package
// convert F/big.Int to hex before calling this so circuitfeed stays
// independent of the tree's internal representation.
func Encode(depth uint16, oldRoot, newRoot string, batch []keyedEntry, witnessLevels [][]keyedEntry) (*Vector, error) {
	if int(depth) != len(witnessLevels) {
		return nil, fmt.Errorf("circuitfeed: depth %d does not match %d witness levels", depth, len(witnessLevels))
	}

	v := &Vector{
		Depth:      depth,
		OldRoot:    oldRoot,
		NewRoot:    newRoot,
		BatchKeys:  make([]string, len(batch)),
		BatchVals:  make([]string, len(batch)),
		WitnessLvl: make([]uint32, len(witnessLevels)),
	}
	for i, e := range batch {
		v.BatchKeys[i] = e.Key
		v.BatchVals[i] = e.Value
	}
	for level, entries := range witnessLevels {
		v.WitnessLvl[level] = uint32(len(entries))
		for _, e := range entries {
			v.WitnessKey = append(v.WitnessKey, e.Key)
			v.WitnessVal = append(v.WitnessVal, e.Value)
		}
	}
	return v, nil
}

// NewKeyedEntry is the sole constructor exposed for keyedEntry, so callers
// outside the package build entries without needing access to its fields
// directly.
func NewKeyedEntry(key, value string) keyedEntry {
	return keyedEntry{Key: key, Value: value}
}

// circuitHash matches the teacher's solidityHash: Keccak256 with the same
// both-zero short-circuit the root package's HashOracle enforces, so a
// self-check against an independently-encoded vector agrees with the
// engine's own root.
func circuitHash(left, right []byte) []byte {
	if isZeroBytes(left) && isZeroBytes(right) {
		return make([]byte, 32)
	}
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(left)
	hasher.Write(right)
	return hasher.Sum(nil)
}

func isZeroBytes(data []byte) bool {
	for _, b := range data {
		if b != 0 {
			return false
		}
	}
	return true
}

// vecNode is a (key, 32-byte value) pair used internally by SelfCheckRoot;
// kept distinct from keyedEntry since arithmetic here needs *big.Int, not
// hex strings.
type vecNode struct {
	key   *big.Int
	value [32]byte
}

// SelfCheckRoot independently re-derives newRoot from v's batch entries and
// witness, using circuitHash rather than the root package's HashOracle, as
// a sanity check that Encode preserved everything a circuit needs
// before the vector leaves this process. It is not a substitute for
// VerifyWithOracle: that is the only component in this module that checks a
// witness's correctness against an independently supplied old root.
func SelfCheckRoot(v *Vector) (string, error) {
	cur := make([]vecNode, len(v.BatchKeys))
	for i := range v.BatchKeys {
		k, err := testutils.HexToBigInt(v.BatchKeys[i])
		if err != nil {
			return "", fmt.Errorf("circuitfeed: self-check batch key %q: %w", v.BatchKeys[i], err)
		}
		val, err := hexTo32(v.BatchVals[i])
		if err != nil {
			return "", fmt.Errorf("circuitfeed: self-check batch value %q: %w", v.BatchVals[i], err)
		}
		cur[i] = vecNode{key: k, value: val}
	}
	sort.Slice(cur, func(i, j int) bool { return cur[i].key.Cmp(cur[j].key) < 0 })

	witnessIdx := 0
	for level := uint16(0); level < v.Depth; level++ {
		count := v.WitnessLvl[level]
		wit := make([]vecNode, count)
		for i := uint32(0); i < count; i++ {
			k, err := testutils.HexToBigInt(v.WitnessKey[witnessIdx])
			if err != nil {
				return "", fmt.Errorf("circuitfeed: self-check witness key %q: %w", v.WitnessKey[witnessIdx], err)
			}
			val, err := hexTo32(v.WitnessVal[witnessIdx])
			if err != nil {
				return "", fmt.Errorf("circuitfeed: self-check witness value %q: %w", v.WitnessVal[witnessIdx], err)
			}
			wit[i] = vecNode{key: k, value: val}
			witnessIdx++
		}

		next := make([]vecNode, 0, (len(cur)+1)/2)
		i, j := 0, 0
		for i < len(cur) {
			k, kv := cur[i].key, cur[i].value
			parity := k.Bit(0)
			p := new(big.Int).Rsh(k, 1)
			sib := new(big.Int).Lsh(p, 1)
			if parity == 0 {
				sib.SetBit(sib, 0, 1)
			}

			var sv [32]byte
			consumed := false
			switch {
			case parity == 0 && i+1 < len(cur) && cur[i+1].key.Cmp(sib) == 0:
				sv = cur[i+1].value
				consumed = true
			case j < len(wit) && wit[j].key.Cmp(sib) == 0:
				sv = wit[j].value
				j++
			default:
				sv = [32]byte{}
			}

			var pv [32]byte
			if parity == 0 {
				copy(pv[:], circuitHash(kv[:], sv[:]))
			} else {
				copy(pv[:], circuitHash(sv[:], kv[:]))
			}
			next = append(next, vecNode{key: p, value: pv})

			if consumed {
				i += 2
			} else {
				i++
			}
		}
		cur = next
	}

	if len(cur) != 1 {
		return "", fmt.Errorf("circuitfeed: self-check did not reduce to a single root (got %d nodes)", len(cur))
	}
	return "0x" + hex.EncodeToString(cur[0].value[:]), nil
}

func hexTo32(s string) ([32]byte, error) {
	var out [32]byte
	b, err := testutils.HexToBytes(s)
	if err != nil {
		return out, err
	}
	if len(b) > 32 {
		b = b[len(b)-32:]
	}
	copy(out[32-len(b):], b)
	return out, nil
}
