package consensus

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// SpendRecord identifies the input that consumed an output: the hash of the
// spending transaction and the index of the spending input within it.
type SpendRecord struct {
	TxHash     chainhash.Hash
	InputIndex uint32
}

// Chain is the asynchronous lookup contract the blockchain store provides to
// validators.  Every method eventually invokes its callback exactly once,
// possibly on another goroutine; validators re-post callbacks onto their own
// strand before touching state.
//
// Misses are reported through the protocol sentinels: FetchTransaction and
// FetchTransactionDepth answer ErrNotFound for unknown hashes, FetchSpend
// answers ErrUnspentOutput for outputs without a spend record.  Any other
// error is a transport failure.
type Chain interface {
	// FetchTransaction looks up a confirmed transaction by hash.
	FetchTransaction(hash chainhash.Hash, f func(tx *btcutil.Tx, err error))

	// FetchTransactionDepth looks up the depth of the block containing
	// the transaction with the given hash.
	FetchTransactionDepth(hash chainhash.Hash, f func(depth int32, err error))

	// FetchLastDepth reports the depth of the current chain tip.
	FetchLastDepth(f func(depth int32, err error))

	// FetchSpend looks up the spend record for an outpoint.
	FetchSpend(op wire.OutPoint, f func(spend SpendRecord, err error))
}

// PoolEntry is one pending transaction in a memory pool snapshot.
type PoolEntry struct {
	Hash chainhash.Hash
	Tx   *btcutil.Tx
}
