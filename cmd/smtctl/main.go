// Command smtctl is the CLI collaborator of spec.md §6.4: an "insert"
// subcommand that runs a batch through a fresh tree and writes a witness
// bundle to standard output, and a "verify" subcommand that checks a bundle
// against no other tree state. Exit code 0 is success; nonzero covers any
// verification failure or malformed input. Diagnostics go to standard
// error, never standard output, so piping a bundle downstream never mixes
// the two.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/log"

	smt "github.com/batchsmt/smt"
)

func main() {
	log.SetDefault(log.NewLogger(log.NewTerminalHandler(os.Stderr, false)))
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "smtctl: usage: smtctl <insert|verify> [file]")
		return 2
	}

	switch args[0] {
	case "insert":
		return runInsert(args[1:])
	case "verify":
		return runVerify(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "smtctl: unknown subcommand %q\n", args[0])
		return 2
	}
}

// insertRequest is the CLI's input shape for "insert": a depth, an
// optional hash function identifier, and the batch itself as hex strings.
type insertRequest struct {
	Depth               uint16 `json:"depth"`
	HashFunction        string `json:"hash_function"`
	IdempotentOnDefault bool   `json:"idempotent_on_default"`
	Batch               []struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	} `json:"batch"`
}

func runInsert(args []string) int {
	data, err := readInput(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "smtctl: %v\n", err)
		return 1
	}

	var req insertRequest
	if err := json.Unmarshal(data, &req); err != nil {
		fmt.Fprintf(os.Stderr, "smtctl: malformed insert request: %v\n", err)
		return 1
	}

	cfg := smt.Config{Depth: req.Depth, HashFunction: req.HashFunction, IdempotentOnDefault: req.IdempotentOnDefault}
	engine, err := smt.NewEngine(cfg, smt.NewMemoryBackend())
	if err != nil {
		log.Error("smtctl: failed to build engine", "err", err)
		return 1
	}

	oldRoot := engine.Root()
	batch := make(smt.Batch, len(req.Batch))
	for i, e := range req.Batch {
		key, ok := new(big.Int).SetString(trimHexPrefix(e.Key), 16)
		if !ok {
			fmt.Fprintf(os.Stderr, "smtctl: invalid batch[%d].key %q\n", i, e.Key)
			return 1
		}
		value, err := smt.FFromHex(e.Value)
		if err != nil {
			fmt.Fprintf(os.Stderr, "smtctl: invalid batch[%d].value: %v\n", i, err)
			return 1
		}
		batch[i] = smt.Entry{Key: key, Value: value}
	}

	witness, err := engine.BatchInsert(batch)
	if err != nil {
		log.Error("smtctl: batch insert failed", "err", err)
		return 1
	}

	bundle := smt.MarshalBundle(oldRoot, engine.Root(), req.Depth, batch, witness)
	out, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		log.Error("smtctl: failed to marshal bundle", "err", err)
		return 1
	}
	fmt.Println(string(out))
	return 0
}

func runVerify(args []string) int {
	data, err := readInput(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "smtctl: %v\n", err)
		return 1
	}

	var bundle smt.Bundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		fmt.Fprintf(os.Stderr, "smtctl: malformed bundle: %v\n", err)
		return 1
	}

	oldRoot, newRoot, batch, witness, err := smt.UnmarshalBundle(&bundle)
	if err != nil {
		fmt.Fprintf(os.Stderr, "smtctl: %v\n", err)
		return 1
	}

	cfg := smt.Config{Depth: bundle.Depth, HashFunction: "keccak256"}
	ok, err := smt.Verify(cfg, oldRoot, newRoot, batch, witness)
	if err != nil {
		log.Error("smtctl: verification failed", "err", err)
		return 1
	}
	if !ok {
		fmt.Fprintln(os.Stderr, "smtctl: witness does not verify")
		return 1
	}

	fmt.Println("ok")
	return 0
}

func readInput(args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(args[0])
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
