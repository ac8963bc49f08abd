package smt

import (
	"encoding/json"
	"fmt"

	"github.com/batchsmt/smt/internal/testutils"
)

// Bundle is the JSON witness-bundle wire format of spec.md §6.1: everything
// a downstream verifier (in this process or another) needs to check a single
// BatchInsert transition, with no implicit reliance on tree state that isn't
// named in the bundle itself. Batch entries and proof entries are each
// encoded as a 2-element `[key, value]` JSON array, matching §6.1's tuple
// schema rather than a `{"key":…,"value":…}` object, so a consumer written
// directly against the spec can parse the bundle without a student-specific
// shape.
type Bundle struct {
	OldRoot string             `json:"old_root"`
	NewRoot string             `json:"new_root"`
	Depth   uint16             `json:"depth"`
	Batch   []serializedLeaf   `json:"batch"`
	Proof   [][]serializedLeaf `json:"proof"`
}

// serializedLeaf is a (key, value) pair that marshals as the 2-element JSON
// array `[key, value]` spec.md §6.1 specifies, not a keyed object.
type serializedLeaf struct {
	Key   string
	Value string
}

func (l serializedLeaf) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{l.Key, l.Value})
}

func (l *serializedLeaf) UnmarshalJSON(data []byte) error {
	var pair [2]string
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	l.Key, l.Value = pair[0], pair[1]
	return nil
}

// MarshalBundle renders a batch, witness, and root transition into the
// wire format of spec.md §6.1. Roots and values are emitted 0x-prefixed via
// F.String(), the same prefix testutils.BigIntToHex uses for keys, so every
// hex field in the bundle follows one consistent encoding.
func MarshalBundle(oldRoot, newRoot F, depth uint16, batch Batch, witness *Witness) *Bundle {
	b := &Bundle{
		OldRoot: oldRoot.String(),
		NewRoot: newRoot.String(),
		Depth:   depth,
		Batch:   make([]serializedLeaf, len(batch)),
		Proof:   make([][]serializedLeaf, depth),
	}
	for i, e := range batch {
		b.Batch[i] = serializedLeaf{Key: testutils.BigIntToHex(e.Key), Value: e.Value.String()}
	}
	for level := uint16(0); level < depth; level++ {
		var entries []WitnessEntry
		if witness != nil && int(level) < len(witness.Levels) {
			entries = witness.Levels[level]
		}
		row := make([]serializedLeaf, len(entries))
		for i, we := range entries {
			row[i] = serializedLeaf{Key: testutils.BigIntToHex(we.Key), Value: we.Value.String()}
		}
		b.Proof[level] = row
	}
	return b
}

// UnmarshalBundle parses the wire format back into the independent pieces
// VerifyWithOracle expects: old root, new root, batch, and witness.
func UnmarshalBundle(b *Bundle) (oldRoot, newRoot F, batch Batch, witness *Witness, err error) {
	oldRoot, err = FFromHex(b.OldRoot)
	if err != nil {
		return F{}, F{}, nil, nil, fmt.Errorf("smt: bundle old_root: %w", err)
	}
	newRoot, err = FFromHex(b.NewRoot)
	if err != nil {
		return F{}, F{}, nil, nil, fmt.Errorf("smt: bundle new_root: %w", err)
	}

	batch = make(Batch, len(b.Batch))
	for i, sl := range b.Batch {
		key, kerr := testutils.HexToBigInt(sl.Key)
		if kerr != nil {
			return F{}, F{}, nil, nil, fmt.Errorf("smt: bundle batch[%d].key: %w", i, kerr)
		}
		value, verr := FFromHex(sl.Value)
		if verr != nil {
			return F{}, F{}, nil, nil, fmt.Errorf("smt: bundle batch[%d].value: %w", i, verr)
		}
		batch[i] = Entry{Key: key, Value: value}
	}

	if uint16(len(b.Proof)) != b.Depth {
		return F{}, F{}, nil, nil, &DepthMismatchError{ArgDepth: b.Depth, WitnessLevels: len(b.Proof)}
	}
	witness = emptyWitness(b.Depth)
	for level, row := range b.Proof {
		entries := make(WitnessLevel, len(row))
		for i, sl := range row {
			key, kerr := testutils.HexToBigInt(sl.Key)
			if kerr != nil {
				return F{}, F{}, nil, nil, fmt.Errorf("smt: bundle proof[%d][%d].key: %w", level, i, kerr)
			}
			value, verr := FFromHex(sl.Value)
			if verr != nil {
				return F{}, F{}, nil, nil, fmt.Errorf("smt: bundle proof[%d][%d].value: %w", level, i, verr)
			}
			entries[i] = WitnessEntry{Key: key, Value: value}
		}
		witness.Levels[level] = entries
	}

	return oldRoot, newRoot, batch, witness, nil
}

// MarshalJSON and UnmarshalJSON let Bundle round-trip through encoding/json
// directly, the way the teacher's SerializedProof does.
func (b *Bundle) MarshalJSON() ([]byte, error) {
	type alias Bundle
	return json.Marshal((*alias)(b))
}

func (b *Bundle) UnmarshalJSON(data []byte) error {
	type alias Bundle
	return json.Unmarshal(data, (*alias)(b))
}
