package chain

import (
	"sync"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/bitval/bitval/consensus"
)

// AsyncChain adapts the synchronous store to the asynchronous lookup
// contract validators consume.  Each lookup runs on its own goroutine and
// invokes the callback from there; validators re-post onto their strand.
// After Stop, pending and new lookups answer consensus.ErrServiceStopped.
type AsyncChain struct {
	store *Store

	quitMtx sync.Mutex
	quit    chan struct{}
	wg      sync.WaitGroup
}

// NewAsyncChain returns an asynchronous facade over store.
func NewAsyncChain(store *Store) *AsyncChain {
	return &AsyncChain{
		store: store,
		quit:  make(chan struct{}),
	}
}

// Stop shuts the facade down.  It waits for in-flight lookups to deliver
// their callbacks.
func (c *AsyncChain) Stop() {
	c.quitMtx.Lock()
	select {
	case <-c.quit:
	default:
		close(c.quit)
	}
	c.quitMtx.Unlock()
	c.wg.Wait()
}

// stopped reports whether Stop has been called.
func (c *AsyncChain) stopped() bool {
	select {
	case <-c.quit:
		return true
	default:
		return false
	}
}

// run executes one lookup on its own goroutine.
func (c *AsyncChain) run(f func()) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		f()
	}()
}

// FetchTransaction implements consensus.Chain.
func (c *AsyncChain) FetchTransaction(hash chainhash.Hash,
	f func(tx *btcutil.Tx, err error)) {

	c.run(func() {
		if c.stopped() {
			f(nil, consensus.ErrServiceStopped)
			return
		}
		tx, _, err := c.store.Transaction(&hash)
		f(tx, err)
	})
}

// FetchTransactionDepth implements consensus.Chain.
func (c *AsyncChain) FetchTransactionDepth(hash chainhash.Hash,
	f func(depth int32, err error)) {

	c.run(func() {
		if c.stopped() {
			f(0, consensus.ErrServiceStopped)
			return
		}
		depth, err := c.store.TransactionDepth(&hash)
		f(depth, err)
	})
}

// FetchLastDepth implements consensus.Chain.
func (c *AsyncChain) FetchLastDepth(f func(depth int32, err error)) {
	c.run(func() {
		if c.stopped() {
			f(0, consensus.ErrServiceStopped)
			return
		}
		depth, err := c.store.LastDepth()
		f(depth, err)
	})
}

// FetchSpend implements consensus.Chain.
func (c *AsyncChain) FetchSpend(op wire.OutPoint,
	f func(spend consensus.SpendRecord, err error)) {

	c.run(func() {
		if c.stopped() {
			f(consensus.SpendRecord{}, consensus.ErrServiceStopped)
			return
		}
		spend, err := c.store.Spend(&op)
		f(spend, err)
	})
}
