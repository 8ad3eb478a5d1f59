package mempool

import (
	"sync"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/bitval/bitval/consensus"
	"github.com/bitval/bitval/script"
)

// Pool holds unconfirmed transactions in admission order and runs candidate
// transactions through a TxValidator before letting them in.  Entries are
// only ever appended or removed between validation runs: a snapshot handed
// to a validator reflects one consistent instant.
type Pool struct {
	chain  consensus.Chain
	engine script.Engine
	strand *consensus.Strand

	mtx     sync.Mutex
	entries []consensus.PoolEntry

	// unconfirmedDeps remembers, per admitted transaction, which of its
	// inputs spent outputs that were themselves still in the pool at
	// admission time.
	unconfirmedDeps map[chainhash.Hash][]int
}

// New returns an empty pool validating against chain with engine.
func New(chain consensus.Chain, engine script.Engine) *Pool {
	return &Pool{
		chain:           chain,
		engine:          engine,
		strand:          consensus.NewStrand(),
		unconfirmedDeps: make(map[chainhash.Hash][]int),
	}
}

// Snapshot returns a copy of the current entries, ordered by admission.
func (p *Pool) Snapshot() []consensus.PoolEntry {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	snap := make([]consensus.PoolEntry, len(p.entries))
	copy(snap, p.entries)
	return snap
}

// Size returns the number of pending transactions.
func (p *Pool) Size() int {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return len(p.entries)
}

// Contains reports whether a transaction with the hash is pending.
func (p *Pool) Contains(hash *chainhash.Hash) bool {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	for i := range p.entries {
		if p.entries[i].Hash == *hash {
			return true
		}
	}
	return false
}

// UnconfirmedDeps returns the input indices recorded as unconfirmed when
// the transaction was admitted, or nil.
func (p *Pool) UnconfirmedDeps(hash *chainhash.Hash) []int {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return p.unconfirmedDeps[*hash]
}

// Accept validates tx against the chain and the current pool contents and
// admits it on success.  done fires once with the verdict and the
// unconfirmed input indices, after the pool has been updated.
func (p *Pool) Accept(tx *btcutil.Tx, done func(err error, unconfirmed []int)) {
	snapshot := p.Snapshot()
	validator := consensus.NewTxValidator(p.chain, tx, snapshot, p.strand,
		p.engine)
	validator.Start(func(err error, unconfirmed []int) {
		if err == nil {
			p.add(tx, unconfirmed)
			log.Debugf("accepted transaction %v (%d unconfirmed inputs)",
				tx.Hash(), len(unconfirmed))
		} else {
			log.Debugf("rejected transaction %v: %v", tx.Hash(), err)
		}
		if done != nil {
			done(err, unconfirmed)
		}
	})
}

// add appends an admitted transaction.
func (p *Pool) add(tx *btcutil.Tx, unconfirmed []int) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	p.entries = append(p.entries, consensus.PoolEntry{
		Hash: *tx.Hash(),
		Tx:   tx,
	})
	if len(unconfirmed) > 0 {
		p.unconfirmedDeps[*tx.Hash()] = unconfirmed
	}
}

// Remove drops a pending transaction, if present.
func (p *Pool) Remove(hash *chainhash.Hash) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	p.removeLocked(hash)
}

func (p *Pool) removeLocked(hash *chainhash.Hash) {
	for i := range p.entries {
		if p.entries[i].Hash == *hash {
			p.entries = append(p.entries[:i], p.entries[i+1:]...)
			break
		}
	}
	delete(p.unconfirmedDeps, *hash)
}

// RemoveConfirmed drops every pool transaction that the given block
// confirmed.  The organizer calls this after splicing a block in.
func (p *Pool) RemoveConfirmed(block *btcutil.Block) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	for _, tx := range block.Transactions() {
		p.removeLocked(tx.Hash())
	}
}
