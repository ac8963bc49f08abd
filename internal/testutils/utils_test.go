package testutils

import (
	"math/big"
	"testing"
)

func TestHexToBytesHandlesPrefixAndOddLength(t *testing.T) {
	got, err := HexToBytes("0xabc")
	if err != nil {
		t.Fatalf("HexToBytes: %v", err)
	}
	want := []byte{0x0a, 0xbc}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("HexToBytes(0xabc) = %x, want %x", got, want)
	}
}

func TestBytesToHexRoundTripsWithHexToBytes(t *testing.T) {
	original := []byte{0xde, 0xad, 0xbe, 0xef}
	s := BytesToHex(original)
	back, err := HexToBytes(s)
	if err != nil {
		t.Fatalf("HexToBytes: %v", err)
	}
	if len(back) != len(original) {
		t.Fatalf("round trip length mismatch: got %d, want %d", len(back), len(original))
	}
	for i := range original {
		if back[i] != original[i] {
			t.Errorf("byte %d = %x, want %x", i, back[i], original[i])
		}
	}
}

func TestHexToBigIntRejectsGarbage(t *testing.T) {
	if _, err := HexToBigInt("0xnotreallyhex"); err == nil {
		t.Error("expected error for malformed hex")
	}
}

func TestHexToBigIntEmptyStringIsZero(t *testing.T) {
	got, err := HexToBigInt("")
	if err != nil {
		t.Fatalf("HexToBigInt: %v", err)
	}
	if got.Sign() != 0 {
		t.Errorf("HexToBigInt(\"\") = %s, want 0", got)
	}
}

func TestBigIntToHexRoundTripsWithHexToBigInt(t *testing.T) {
	values := []*big.Int{big.NewInt(0), big.NewInt(1), big.NewInt(255), new(big.Int).Lsh(big.NewInt(1), 200)}
	for _, v := range values {
		s := BigIntToHex(v)
		back, err := HexToBigInt(s)
		if err != nil {
			t.Fatalf("HexToBigInt(%s): %v", s, err)
		}
		if back.Cmp(v) != 0 {
			t.Errorf("round trip %s -> %s -> %s", v, s, back)
		}
	}
}
