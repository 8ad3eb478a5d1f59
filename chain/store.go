package chain

import (
	"bytes"
	"encoding/binary"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/syndtr/goleveldb/leveldb"

	"github.com/bitval/bitval/consensus"
	"github.com/bitval/bitval/util"
)

// Key prefixes.  Transactions carry their depth in the value so one read
// serves both the body and the index lookup.
const (
	txKeyPrefix     = 't'
	spendKeyPrefix  = 's'
	headerKeyPrefix = 'h'
)

// tipKey holds the depth of the chain tip.
var tipKey = []byte("T")

// Store is the goleveldb backed chain store.  It indexes confirmed
// transactions by hash, spends by outpoint, and headers by depth.
// Validators read it through the AsyncChain facade or a block Context;
// the organizer writes it through ConnectBlock.
type Store struct {
	db *leveldb.DB
}

// Open opens (creating if needed) the store at path.
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func txKey(hash *chainhash.Hash) []byte {
	return append([]byte{txKeyPrefix}, hash[:]...)
}

func spendKey(op *wire.OutPoint) []byte {
	return append([]byte{spendKeyPrefix}, util.OutpointToBytes(op)...)
}

func headerKey(depth int32) []byte {
	return append([]byte{headerKeyPrefix}, util.I32tB(depth)...)
}

// get wraps leveldb reads, translating the leveldb miss into the given
// protocol sentinel.
func (s *Store) get(key []byte, miss error) ([]byte, error) {
	val, err := s.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, miss
	}
	return val, err
}

// Transaction returns a confirmed transaction and the depth of the block
// holding it.  Misses answer consensus.ErrNotFound.
func (s *Store) Transaction(hash *chainhash.Hash) (*btcutil.Tx, int32, error) {
	val, err := s.get(txKey(hash), consensus.ErrNotFound)
	if err != nil {
		return nil, 0, err
	}
	depth := util.BtI32(val[:4])
	var msgTx wire.MsgTx
	if err := msgTx.Deserialize(bytes.NewReader(val[4:])); err != nil {
		return nil, 0, err
	}
	return btcutil.NewTx(&msgTx), depth, nil
}

// TransactionDepth returns just the depth of the block holding the
// transaction.
func (s *Store) TransactionDepth(hash *chainhash.Hash) (int32, error) {
	val, err := s.get(txKey(hash), consensus.ErrNotFound)
	if err != nil {
		return 0, err
	}
	return util.BtI32(val[:4]), nil
}

// LastDepth returns the depth of the chain tip.  An empty store answers
// consensus.ErrNotFound.
func (s *Store) LastDepth() (int32, error) {
	val, err := s.get(tipKey, consensus.ErrNotFound)
	if err != nil {
		return 0, err
	}
	return util.BtI32(val), nil
}

// Spend returns the spend record for an outpoint.  Unspent outputs answer
// consensus.ErrUnspentOutput.
func (s *Store) Spend(op *wire.OutPoint) (consensus.SpendRecord, error) {
	var spend consensus.SpendRecord
	val, err := s.get(spendKey(op), consensus.ErrUnspentOutput)
	if err != nil {
		return spend, err
	}
	copy(spend.TxHash[:], val[:32])
	spend.InputIndex = binary.BigEndian.Uint32(val[32:])
	return spend, nil
}

// Header returns the block header stored at depth.
func (s *Store) Header(depth int32) (*wire.BlockHeader, error) {
	val, err := s.get(headerKey(depth), consensus.ErrNotFound)
	if err != nil {
		return nil, err
	}
	var header wire.BlockHeader
	if err := header.Deserialize(bytes.NewReader(val)); err != nil {
		return nil, err
	}
	return &header, nil
}

// ConnectBlock installs a validated block at depth: every transaction is
// indexed, every non-coinbase input records its spend, the header joins the
// depth index and the tip advances.  All of it lands in one batch.
func (s *Store) ConnectBlock(block *btcutil.Block, depth int32) error {
	var batch leveldb.Batch

	for _, tx := range block.Transactions() {
		var txBuf bytes.Buffer
		txBuf.Write(util.I32tB(depth))
		if err := tx.MsgTx().Serialize(&txBuf); err != nil {
			return err
		}
		batch.Put(txKey(tx.Hash()), txBuf.Bytes())

		if consensus.IsCoinBase(tx) {
			continue
		}
		for inputIndex, txIn := range tx.MsgTx().TxIn {
			val := make([]byte, 36)
			copy(val[:32], tx.Hash()[:])
			binary.BigEndian.PutUint32(val[32:], uint32(inputIndex))
			batch.Put(spendKey(&txIn.PreviousOutPoint), val)
		}
	}

	var headerBuf bytes.Buffer
	err := block.MsgBlock().Header.Serialize(&headerBuf)
	if err != nil {
		return err
	}
	batch.Put(headerKey(depth), headerBuf.Bytes())
	batch.Put(tipKey, util.I32tB(depth))

	if err := s.db.Write(&batch, nil); err != nil {
		return err
	}
	log.Debugf("connected block %v at depth %d (%d txs)",
		block.Hash(), depth, len(block.Transactions()))
	return nil
}
