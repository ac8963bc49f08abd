package smt

import (
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/log"

	"github.com/batchsmt/smt/internal/pool"
)

// Engine is the Batch Engine of spec.md §4.3: it holds exclusive ownership of
// a NodeStore for the duration of a single BatchInsert call and produces the
// sibling Witness that lets a Non-Deletion Verifier check the transition
// without any other tree state (spec.md §2, §3 "Ownership").
type Engine struct {
	store    *NodeStore
	oracle   *HashOracle
	defaults *DefaultLevels
	depth    uint16
	pool     *pool.BigIntPool
	root     F
}

// NewEngine builds an Engine for the given configuration over backend. The
// only hash function identifier this module resolves directly is
// "keccak256"; inject a custom oracle with NewEngineWithOracle for anything
// else (a deployment-specific Poseidon implementation, for instance).
func NewEngine(cfg Config, backend Backend) (*Engine, error) {
	if cfg.HashFunction != "" && cfg.HashFunction != "keccak256" {
		return nil, &UnknownHashFunctionError{Name: cfg.HashFunction}
	}
	oracle := NewHashOracle(Keccak256Combiner, cfg.IdempotentOnDefault)
	return NewEngineWithOracle(cfg, backend, oracle)
}

// NewEngineWithOracle builds an Engine over an explicitly supplied oracle,
// for deployments whose HashFunction is not the built-in Keccak256Combiner.
// oracle's IdempotentOnDefault mode must agree with cfg.IdempotentOnDefault
// (spec.md §4.1); mismatches are rejected rather than silently resolved.
func NewEngineWithOracle(cfg Config, backend Backend, oracle *HashOracle) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if oracle.IdempotentOnDefault() != cfg.IdempotentOnDefault {
		return nil, &HashModeMismatchError{ConfigMode: cfg.IdempotentOnDefault, OracleMode: oracle.IdempotentOnDefault()}
	}
	defaults := precomputeDefaults(oracle, cfg.Depth)
	store := NewNodeStore(backend, defaults)
	return &Engine{
		store:    store,
		oracle:   oracle,
		defaults: defaults,
		depth:    cfg.Depth,
		pool:     pool.NewBigIntPool(),
		root:     defaults.At(cfg.Depth),
	}, nil
}

// Root returns store.get(D, 0), the current root.
func (e *Engine) Root() F {
	return e.root
}

// Depth returns the engine's configured tree depth.
func (e *Engine) Depth() uint16 {
	return e.depth
}

func (e *Engine) validateKey(key *big.Int) error {
	if key.Sign() < 0 {
		return &OutOfRangeError{Key: key, Depth: e.depth}
	}
	max := new(big.Int).Lsh(big.NewInt(1), uint(e.depth))
	if key.Cmp(max) >= 0 {
		return &OutOfRangeError{Key: key, Depth: e.depth}
	}
	return nil
}

// BatchInsert implements the layered-ascent algorithm of spec.md §4.3.
//
// It validates the whole batch (unique keys, in-range) before performing any
// store mutation, so a hard validation failure leaves the tree untouched
// (spec.md §7 "transactional with respect to hard errors"). It then drops
// any entry whose level-0 slot is already occupied, logging a soft
// DuplicateLeaf diagnostic per dropped entry, and finally walks the
// remaining batch's frontier up to the root one level at a time, collecting
// the non-default off-frontier sibling at each level into the Witness.
func (e *Engine) BatchInsert(batch Batch) (*Witness, error) {
	sorted := batch.sortedCopy()
	for i, entry := range sorted {
		if err := e.validateKey(entry.Key); err != nil {
			return nil, err
		}
		if i > 0 && sorted[i-1].Key.Cmp(entry.Key) == 0 {
			return nil, &DuplicateKeyError{Key: entry.Key}
		}
	}

	filtered := make(Batch, 0, len(sorted))
	for _, entry := range sorted {
		if e.store.Has(0, entry.Key) {
			log.Warn("smt: batch entry skipped, leaf already occupied", "key", entry.Key.String())
			continue
		}
		filtered = append(filtered, entry)
	}

	if len(filtered) == 0 {
		return emptyWitness(e.depth), nil
	}

	frontier := make([]*big.Int, len(filtered))
	for i, entry := range filtered {
		frontier[i] = entry.Key
		e.store.Set(0, entry.Key, entry.Value)
	}

	witness := emptyWitness(e.depth)

	for level := uint16(0); level < e.depth; level++ {
		parents := e.parentsOf(frontier)

		for _, p := range parents {
			lc := e.pool.Get()
			lc.Lsh(p, 1)
			rc := e.pool.Get()
			rc.Add(lc, big.NewInt(1))

			lcAffected := frontierContains(frontier, lc)
			rcAffected := frontierContains(frontier, rc)

			switch {
			case lcAffected && !rcAffected:
				sv := e.store.Get(level, rc)
				if sv != e.defaults.At(level) {
					witness.Levels[level] = append(witness.Levels[level], WitnessEntry{Key: new(big.Int).Set(rc), Value: sv})
				}
			case rcAffected && !lcAffected:
				sv := e.store.Get(level, lc)
				if sv != e.defaults.At(level) {
					witness.Levels[level] = append(witness.Levels[level], WitnessEntry{Key: new(big.Int).Set(lc), Value: sv})
				}
			}

			pv := e.oracle.Combine(e.store.Get(level, lc), e.store.Get(level, rc))
			e.store.setInternal(level+1, p, pv)

			e.pool.Put(lc)
			e.pool.Put(rc)
		}

		frontier = parents
	}

	sortWitness(witness)
	e.root = e.store.Get(e.depth, big.NewInt(0))
	return witness, nil
}

// parentsOf returns the ascending, duplicate-free set {k>>1 : k in frontier}.
// frontier is ascending and unique on entry, so k>>1 is non-decreasing as k
// increases; a single pass collapses runs of equal parents, mirroring the
// "skip if parent == last_parent" rule original_source/nd-smt.py's
// compute_forest applies.
func (e *Engine) parentsOf(frontier []*big.Int) []*big.Int {
	parents := make([]*big.Int, 0, len(frontier))
	var last *big.Int
	for _, k := range frontier {
		p := e.pool.Get()
		p.Rsh(k, 1)
		if last != nil && last.Cmp(p) == 0 {
			e.pool.Put(p)
			continue
		}
		parents = append(parents, p)
		last = p
	}
	return parents
}

// frontierContains reports whether k appears in the ascending, unique slice
// frontier, via binary search.
func frontierContains(frontier []*big.Int, k *big.Int) bool {
	i := sort.Search(len(frontier), func(i int) bool { return frontier[i].Cmp(k) >= 0 })
	return i < len(frontier) && frontier[i].Cmp(k) == 0
}

func sortWitness(w *Witness) {
	for _, level := range w.Levels {
		sort.Slice(level, func(i, j int) bool { return level[i].Key.Cmp(level[j].Key) < 0 })
	}
}
