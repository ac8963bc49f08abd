// Package pool provides a sync.Pool-backed allocator for math/big.Int,
// used by the batch engine to cut allocation churn while ascending a tree
// whose depth can run to 256 levels.
package pool

import (
	"math/big"
	"sync"
)

// BigIntPool provides a pool of reusable big.Int instances to reduce allocations
type BigIntPool struct {
	pool sync.Pool
}

// NewBigIntPool creates a new BigIntPool
func NewBigIntPool() *BigIntPool {
	return &BigIntPool{
		pool: sync.Pool{
			New: func() interface{} {
				return new(big.Int)
			},
		},
	}
}

// Get retrieves a big.Int from the pool
func (p *BigIntPool) Get() *big.Int {
	return p.pool.Get().(*big.Int)
}

// Put returns a big.Int to the pool after resetting it
func (p *BigIntPool) Put(x *big.Int) {
	if x != nil {
		x.SetInt64(0) // Reset to zero
		p.pool.Put(x)
	}
}

// GetCopy retrieves a big.Int from the pool and sets it to the value of src
func (p *BigIntPool) GetCopy(src *big.Int) *big.Int {
	x := p.Get()
	x.Set(src)
	return x
}
