package node

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/lightningnetwork/lnd/clock"

	"github.com/bitval/bitval/chain"
	"github.com/bitval/bitval/consensus"
	"github.com/bitval/bitval/mempool"
	"github.com/bitval/bitval/script"
)

// Node composes the chain store, the memory pool and the validators into
// the validation service the session and organizer layers drive.
type Node struct {
	store      *chain.Store
	asyncChain *chain.AsyncChain
	pool       *mempool.Pool
	vm         *script.VM
	clock      clock.Clock
}

// New builds a node around an open store.
func New(store *chain.Store) *Node {
	vm := script.NewVM()
	asyncChain := chain.NewAsyncChain(store)
	return &Node{
		store:      store,
		asyncChain: asyncChain,
		pool:       mempool.New(asyncChain, vm),
		vm:         vm,
		clock:      clock.NewDefaultClock(),
	}
}

// Pool returns the node's memory pool.
func (n *Node) Pool() *mempool.Pool {
	return n.pool
}

// SubmitBlock validates block at the depth above the current tip and, on
// success, connects it and clears its transactions from the pool.
func (n *Node) SubmitBlock(block *btcutil.Block) error {
	depth := int32(0)
	tip, err := n.store.LastDepth()
	switch err {
	case nil:
		depth = tip + 1
	case consensus.ErrNotFound:
	default:
		return err
	}

	ctx := chain.NewContext(n.store, depth, block)
	validator := consensus.NewBlockValidator(depth, block, ctx, n.vm,
		n.clock)
	if err := validator.Start(); err != nil {
		log.Infof("rejected block %v at depth %d: %v", block.Hash(),
			depth, err)
		return err
	}

	if err := n.store.ConnectBlock(block, depth); err != nil {
		return err
	}
	n.pool.RemoveConfirmed(block)
	log.Infof("block %v connected at depth %d", block.Hash(), depth)
	return nil
}

// SubmitTransaction runs a loose transaction through pool admission.  done
// fires once with the verdict and the unconfirmed input indices.
func (n *Node) SubmitTransaction(tx *btcutil.Tx,
	done func(err error, unconfirmed []int)) {

	n.pool.Accept(tx, done)
}

// Stop shuts the node down.  Validators blocked on chain lookups complete
// with consensus.ErrServiceStopped.
func (n *Node) Stop() {
	n.asyncChain.Stop()
	log.Info("node stopped")
}
