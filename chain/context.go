package chain

import (
	"fmt"
	"sort"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/bitval/bitval/consensus"
)

// medianTimeBlocks is how many recent headers feed the median-time-past
// rule.
const medianTimeBlocks = 11

// Context binds the store to one block validation run: the candidate block
// and its target depth.  It implements consensus.BlockContext.
type Context struct {
	store *Store
	depth int32
	block *btcutil.Block
}

// NewContext returns the validation context for block at depth.
func NewContext(store *Store, depth int32, block *btcutil.Block) *Context {
	return &Context{store: store, depth: depth, block: block}
}

// PreviousBlockBits returns the bits of the header right below the target
// depth.
func (c *Context) PreviousBlockBits() (uint32, error) {
	header, err := c.store.Header(c.depth - 1)
	if err != nil {
		return 0, err
	}
	return header.Bits, nil
}

// ActualTimespan measures the seconds between the first and the last of the
// interval headers right below the target depth (depths depth-interval and
// depth-1).
func (c *Context) ActualTimespan(interval int32) (uint32, error) {
	first, err := c.store.Header(c.depth - interval)
	if err != nil {
		return 0, err
	}
	last, err := c.store.Header(c.depth - 1)
	if err != nil {
		return 0, err
	}
	span := last.Timestamp.Unix() - first.Timestamp.Unix()
	if span < 0 {
		return 0, fmt.Errorf("negative timespan below depth %d", c.depth)
	}
	return uint32(span), nil
}

// MedianTimePast returns the median of the timestamps of the last
// medianTimeBlocks headers below the target depth.  With no headers below
// (the genesis case) it returns zero.
func (c *Context) MedianTimePast() (int64, error) {
	count := int32(medianTimeBlocks)
	if count > c.depth {
		count = c.depth
	}
	if count == 0 {
		return 0, nil
	}

	timestamps := make([]int64, 0, count)
	for depth := c.depth - count; depth < c.depth; depth++ {
		header, err := c.store.Header(depth)
		if err != nil {
			return 0, err
		}
		timestamps = append(timestamps, header.Timestamp.Unix())
	}
	sort.Slice(timestamps, func(i, j int) bool {
		return timestamps[i] < timestamps[j]
	})
	return timestamps[len(timestamps)/2], nil
}

// TransactionExists reports whether the hash is already confirmed.
func (c *Context) TransactionExists(hash chainhash.Hash) (bool, error) {
	_, err := c.store.TransactionDepth(&hash)
	if err == consensus.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// FetchTransaction returns a confirmed transaction and its depth.
func (c *Context) FetchTransaction(hash chainhash.Hash) (*btcutil.Tx, int32,
	error) {

	return c.store.Transaction(&hash)
}

// IsOutputSpent reports whether the store records a spend of op.
func (c *Context) IsOutputSpent(op wire.OutPoint) (bool, error) {
	_, err := c.store.Spend(&op)
	if err == consensus.ErrUnspentOutput {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// IsOutputSpentBy is IsOutputSpent minus the spend the given input of the
// validating block records for itself.
func (c *Context) IsOutputSpentBy(op wire.OutPoint, txIndex,
	inputIndex int) (bool, error) {

	spend, err := c.store.Spend(&op)
	if err == consensus.ErrUnspentOutput {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	txs := c.block.Transactions()
	if txIndex < len(txs) &&
		spend.TxHash == *txs[txIndex].Hash() &&
		spend.InputIndex == uint32(inputIndex) {
		return false, nil
	}
	return true, nil
}
