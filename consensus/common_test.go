package consensus

import (
	"math"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// stubEngine is a script engine returning a scripted verdict, so validator
// tests don't depend on real signatures.
type stubEngine struct {
	err error

	// recorded from the last Execute call.
	lastBip16 bool
	calls     int
}

func (e *stubEngine) Execute(pkScript, sigScript []byte, tx *wire.MsgTx,
	inputIndex int, bip16 bool) error {

	e.lastBip16 = bip16
	e.calls++
	return e.err
}

// fakeChain is a map backed Chain whose callbacks fire inline.
type fakeChain struct {
	txs      map[chainhash.Hash]*btcutil.Tx
	depths   map[chainhash.Hash]int32
	tip      int32
	tipErr   error
	fetchErr map[chainhash.Hash]error
	spends   map[wire.OutPoint]SpendRecord
	spendErr map[wire.OutPoint]error
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		txs:      make(map[chainhash.Hash]*btcutil.Tx),
		depths:   make(map[chainhash.Hash]int32),
		fetchErr: make(map[chainhash.Hash]error),
		spends:   make(map[wire.OutPoint]SpendRecord),
		spendErr: make(map[wire.OutPoint]error),
	}
}

// addTx confirms a transaction at the given depth.
func (c *fakeChain) addTx(tx *btcutil.Tx, depth int32) {
	c.txs[*tx.Hash()] = tx
	c.depths[*tx.Hash()] = depth
}

func (c *fakeChain) FetchTransaction(hash chainhash.Hash,
	f func(tx *btcutil.Tx, err error)) {

	if err, ok := c.fetchErr[hash]; ok {
		f(nil, err)
		return
	}
	if tx, ok := c.txs[hash]; ok {
		f(tx, nil)
		return
	}
	f(nil, ErrNotFound)
}

func (c *fakeChain) FetchTransactionDepth(hash chainhash.Hash,
	f func(depth int32, err error)) {

	if depth, ok := c.depths[hash]; ok {
		f(depth, nil)
		return
	}
	f(0, ErrNotFound)
}

func (c *fakeChain) FetchLastDepth(f func(depth int32, err error)) {
	f(c.tip, c.tipErr)
}

func (c *fakeChain) FetchSpend(op wire.OutPoint,
	f func(spend SpendRecord, err error)) {

	if err, ok := c.spendErr[op]; ok {
		f(SpendRecord{}, err)
		return
	}
	if spend, ok := c.spends[op]; ok {
		f(spend, nil)
		return
	}
	f(SpendRecord{}, ErrUnspentOutput)
}

// hashFromByte makes a distinct hash out of one byte.
func hashFromByte(b byte) chainhash.Hash {
	var hash chainhash.Hash
	hash[0] = b
	return hash
}

// spendingTx builds a transaction spending the given outpoints into outputs
// of the given values.
func spendingTx(outPoints []wire.OutPoint, values ...int64) *btcutil.Tx {
	msgTx := wire.NewMsgTx(1)
	for _, op := range outPoints {
		msgTx.AddTxIn(&wire.TxIn{
			PreviousOutPoint: op,
			SignatureScript:  []byte{txscript.OP_TRUE},
			Sequence:         wire.MaxTxInSequenceNum,
		})
	}
	for _, value := range values {
		msgTx.AddTxOut(&wire.TxOut{
			Value:    value,
			PkScript: []byte{txscript.OP_TRUE},
		})
	}
	return btcutil.NewTx(msgTx)
}

// coinbaseTx builds a coinbase paying value.  The extra byte makes hashes
// distinct between coinbases.
func coinbaseTx(value int64, extra byte) *btcutil.Tx {
	msgTx := wire.NewMsgTx(1)
	msgTx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{Index: math.MaxUint32},
		SignatureScript:  []byte{txscript.OP_DATA_2, extra, 0x00},
		Sequence:         wire.MaxTxInSequenceNum,
	})
	msgTx.AddTxOut(&wire.TxOut{
		Value:    value,
		PkScript: []byte{txscript.OP_TRUE},
	})
	return btcutil.NewTx(msgTx)
}

// coinbaseWithScriptLen builds a coinbase whose input script has exactly
// the given length.  Only the length matters to the size rule.
func coinbaseWithScriptLen(length int) *btcutil.Tx {
	msgTx := wire.NewMsgTx(1)
	msgTx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{Index: math.MaxUint32},
		SignatureScript:  make([]byte, length),
		Sequence:         wire.MaxTxInSequenceNum,
	})
	msgTx.AddTxOut(&wire.TxOut{Value: 1})
	return btcutil.NewTx(msgTx)
}

// buildBlock assembles a block over the transactions with a correct merkle
// root.  Proof of work is not mined; tests exercising later stages call
// them directly.
func buildBlock(timestamp time.Time, bits uint32, txs ...*btcutil.Tx) *btcutil.Block {
	msgBlock := &wire.MsgBlock{
		Header: wire.BlockHeader{
			Version:   1,
			Timestamp: timestamp,
			Bits:      bits,
		},
	}
	utilTxs := make([]*btcutil.Tx, 0, len(txs))
	for _, tx := range txs {
		msgBlock.AddTransaction(tx.MsgTx())
		utilTxs = append(utilTxs, tx)
	}
	msgBlock.Header.MerkleRoot = CalcMerkleRoot(utilTxs)
	return btcutil.NewBlock(msgBlock)
}

// runTxValidator drives a TxValidator to completion and returns its verdict.
func runTxValidator(t *testing.T, c Chain, tx *btcutil.Tx, pool []PoolEntry,
	engine *stubEngine) (error, []int) {

	t.Helper()
	type result struct {
		err         error
		unconfirmed []int
	}
	done := make(chan result, 1)

	v := NewTxValidator(c, tx, pool, NewStrand(), engine)
	v.Start(func(err error, unconfirmed []int) {
		done <- result{err, unconfirmed}
	})

	select {
	case r := <-done:
		return r.err, r.unconfirmed
	case <-time.After(5 * time.Second):
		t.Fatal("validator did not complete")
		return nil, nil
	}
}
