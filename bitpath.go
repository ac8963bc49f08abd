package smt

import "math/big"

// KeyToBits renders key as its D-bit MSB-first bitstring, for display and
// interop with tooling that expects bit-path notation (spec.md §4.5). The
// core algorithms never use this representation; they use k>>1 and k&1
// directly on the integer key.
func KeyToBits(key *big.Int, depth uint16) string {
	bits := make([]byte, depth)
	for i := uint16(0); i < depth; i++ {
		// MSB first: bit for position depth-1-i.
		pos := uint(depth - 1 - i)
		if key.Bit(int(pos)) == 1 {
			bits[i] = '1'
		} else {
			bits[i] = '0'
		}
	}
	return string(bits)
}

// BitsToKey parses a D-bit MSB-first bitstring back into an integer key.
// Returns an error via the second return value being false if s contains
// anything other than '0'/'1' or has the wrong length for depth.
func BitsToKey(s string, depth uint16) (*big.Int, bool) {
	if uint16(len(s)) != depth {
		return nil, false
	}
	key := new(big.Int)
	for i := 0; i < len(s); i++ {
		key.Lsh(key, 1)
		switch s[i] {
		case '0':
		case '1':
			key.SetBit(key, 0, 1)
		default:
			return nil, false
		}
	}
	return key, true
}

// bit extracts the bit of key at the given integer level position, where
// position 0 is the least-significant bit (the level-0 parity bit used by
// the layered-ascent algorithm).
func bit(key *big.Int, position uint16) uint {
	return uint(key.Bit(int(position)))
}
