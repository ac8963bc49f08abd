package testutils

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// HexToBytes converts a hex string to bytes, handling both prefixed and non-prefixed formats
func HexToBytes(hexStr string) ([]byte, error) {
	// Remove 0x prefix if present
	hexStr = strings.TrimPrefix(hexStr, "0x")
	
	// Ensure even length by padding with leading zero if necessary
	if len(hexStr)%2 != 0 {
		hexStr = "0" + hexStr
	}
	
	return hex.DecodeString(hexStr)
}

// BytesToHex converts bytes to a hex string with 0x prefix
func BytesToHex(data []byte) string {
	return "0x" + hex.EncodeToString(data)
}

// HexToBigInt converts a hex string to a big.Int
func HexToBigInt(hexStr string) (*big.Int, error) {
	// Remove 0x prefix if present
	hexStr = strings.TrimPrefix(hexStr, "0x")
	
	// Handle empty string as zero
	if hexStr == "" {
		return big.NewInt(0), nil
	}
	
	bigInt := new(big.Int)
	bigInt, ok := bigInt.SetString(hexStr, 16)
	if !ok {
		return nil, fmt.Errorf("invalid hex string: %s", hexStr)
	}
	
	return bigInt, nil
}

// BigIntToHex converts a big.Int to a hex string with 0x prefix
func BigIntToHex(bigInt *big.Int) string {
	if bigInt == nil || bigInt.Sign() == 0 {
		return "0x0"
	}
	return "0x" + bigInt.Text(16)
}

