package chain

import (
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/bitval/bitval/consensus"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// block1 builds a minimal (unvalidated) block spending the given output on
// top of genesis.  The store does not validate, it just indexes.
func block1(spend wire.OutPoint) *btcutil.Block {
	coinbase := wire.NewMsgTx(1)
	coinbase.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{Index: 0xffffffff},
		SignatureScript:  []byte{0x01, 0x01},
		Sequence:         wire.MaxTxInSequenceNum,
	})
	coinbase.AddTxOut(&wire.TxOut{
		Value:    50 * 1e8,
		PkScript: []byte{txscript.OP_TRUE},
	})

	spender := wire.NewMsgTx(1)
	spender.AddTxIn(&wire.TxIn{
		PreviousOutPoint: spend,
		Sequence:         wire.MaxTxInSequenceNum,
	})
	spender.AddTxOut(&wire.TxOut{
		Value:    1,
		PkScript: []byte{txscript.OP_TRUE},
	})

	msgBlock := &wire.MsgBlock{
		Header: wire.BlockHeader{
			Version:   1,
			PrevBlock: *chaincfg.MainNetParams.GenesisHash,
			Timestamp: time.Unix(1231469665, 0),
			Bits:      0x1d00ffff,
		},
	}
	msgBlock.AddTransaction(coinbase)
	msgBlock.AddTransaction(spender)
	return btcutil.NewBlock(msgBlock)
}

func TestStoreEmpty(t *testing.T) {
	store := openTestStore(t)

	_, err := store.LastDepth()
	require.Equal(t, consensus.ErrNotFound, err)

	_, _, err = store.Transaction(chaincfg.MainNetParams.GenesisHash)
	require.Equal(t, consensus.ErrNotFound, err)

	op := wire.OutPoint{Hash: *chaincfg.MainNetParams.GenesisHash}
	_, err = store.Spend(&op)
	require.Equal(t, consensus.ErrUnspentOutput, err)
}

func TestStoreConnectBlockRoundTrip(t *testing.T) {
	store := openTestStore(t)

	genesis := btcutil.NewBlock(chaincfg.MainNetParams.GenesisBlock)
	require.NoError(t, store.ConnectBlock(genesis, 0))

	depth, err := store.LastDepth()
	require.NoError(t, err)
	require.Equal(t, int32(0), depth)

	// The coinbase round-trips with its depth.
	coinbaseHash := genesis.Transactions()[0].Hash()
	tx, txDepth, err := store.Transaction(coinbaseHash)
	require.NoError(t, err)
	require.Equal(t, int32(0), txDepth)
	require.Equal(t, *coinbaseHash, tx.MsgTx().TxHash())

	txDepth, err = store.TransactionDepth(coinbaseHash)
	require.NoError(t, err)
	require.Equal(t, int32(0), txDepth)

	// The stored header reproduces the genesis hash.
	header, err := store.Header(0)
	require.NoError(t, err)
	require.Equal(t, *chaincfg.MainNetParams.GenesisHash,
		header.BlockHash())

	// Connecting a spending block records the spend.
	spent := wire.OutPoint{Hash: *coinbaseHash, Index: 0}
	next := block1(spent)
	require.NoError(t, store.ConnectBlock(next, 1))

	depth, err = store.LastDepth()
	require.NoError(t, err)
	require.Equal(t, int32(1), depth)

	spend, err := store.Spend(&spent)
	require.NoError(t, err)
	require.Equal(t, *next.Transactions()[1].Hash(), spend.TxHash)
	require.Equal(t, uint32(0), spend.InputIndex)

	// The coinbase of the new block spends nothing.
	nullOp := wire.OutPoint{Index: 0xffffffff}
	_, err = store.Spend(&nullOp)
	require.Equal(t, consensus.ErrUnspentOutput, err)
}

func TestAsyncChainStop(t *testing.T) {
	store := openTestStore(t)
	async := NewAsyncChain(store)
	async.Stop()

	done := make(chan error, 1)
	async.FetchLastDepth(func(depth int32, err error) {
		done <- err
	})
	select {
	case err := <-done:
		require.Equal(t, consensus.ErrServiceStopped, err)
	case <-time.After(5 * time.Second):
		t.Fatal("callback never fired")
	}
}

func TestAsyncChainLookup(t *testing.T) {
	store := openTestStore(t)
	genesis := btcutil.NewBlock(chaincfg.MainNetParams.GenesisBlock)
	require.NoError(t, store.ConnectBlock(genesis, 0))

	async := NewAsyncChain(store)
	defer async.Stop()

	done := make(chan int32, 1)
	async.FetchLastDepth(func(depth int32, err error) {
		require.NoError(t, err)
		done <- depth
	})
	select {
	case depth := <-done:
		require.Equal(t, int32(0), depth)
	case <-time.After(5 * time.Second):
		t.Fatal("callback never fired")
	}
}

func TestContextMedianTimePast(t *testing.T) {
	store := openTestStore(t)

	// Store headers at depths 0..4 with out of order timestamps.
	times := []int64{1000, 5000, 2000, 4000, 3000}
	for depth, ts := range times {
		msgBlock := &wire.MsgBlock{
			Header: wire.BlockHeader{
				Version:   1,
				Timestamp: time.Unix(ts, 0),
				Bits:      0x1d00ffff,
				Nonce:     uint32(depth),
			},
		}
		coinbase := wire.NewMsgTx(1)
		coinbase.AddTxIn(&wire.TxIn{
			PreviousOutPoint: wire.OutPoint{Index: 0xffffffff},
			SignatureScript:  []byte{0x01, byte(depth)},
		})
		coinbase.AddTxOut(&wire.TxOut{Value: 1})
		msgBlock.AddTransaction(coinbase)
		block := btcutil.NewBlock(msgBlock)
		require.NoError(t, store.ConnectBlock(block, int32(depth)))
	}

	ctx := NewContext(store, 5, nil)
	median, err := ctx.MedianTimePast()
	require.NoError(t, err)
	require.Equal(t, int64(3000), median)

	// Genesis has no past.
	ctx = NewContext(store, 0, nil)
	median, err = ctx.MedianTimePast()
	require.NoError(t, err)
	require.Equal(t, int64(0), median)
}

func TestContextTimespanAndBits(t *testing.T) {
	store := openTestStore(t)
	for depth := int32(0); depth < 3; depth++ {
		msgBlock := &wire.MsgBlock{
			Header: wire.BlockHeader{
				Version:   1,
				Timestamp: time.Unix(int64(1000+600*depth), 0),
				Bits:      0x1d00ffff,
				Nonce:     uint32(depth),
			},
		}
		coinbase := wire.NewMsgTx(1)
		coinbase.AddTxIn(&wire.TxIn{
			PreviousOutPoint: wire.OutPoint{Index: 0xffffffff},
			SignatureScript:  []byte{0x01, byte(depth)},
		})
		coinbase.AddTxOut(&wire.TxOut{Value: 1})
		msgBlock.AddTransaction(coinbase)
		require.NoError(t,
			store.ConnectBlock(btcutil.NewBlock(msgBlock), depth))
	}

	ctx := NewContext(store, 3, nil)
	bits, err := ctx.PreviousBlockBits()
	require.NoError(t, err)
	require.Equal(t, uint32(0x1d00ffff), bits)

	span, err := ctx.ActualTimespan(2)
	require.NoError(t, err)
	require.Equal(t, uint32(600), span)
}
