package consensus

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/bitval/bitval/script"
)

// StandardPolicy is the standardness hook consulted during basic checks.
// The default accepts everything; a node may tighten it without touching
// consensus rules.
type StandardPolicy func(tx *btcutil.Tx) bool

// TxValidator validates one candidate transaction against the chain tip and
// a snapshot of the memory pool.  It is single-shot: construct, Start, wait
// for the callback, discard.  All of its steps resume on its strand, so the
// state below needs no locking.
type TxValidator struct {
	chain    Chain
	tx       *btcutil.Tx
	txHash   *chainhash.Hash
	pool     []PoolEntry
	strand   *Strand
	engine   script.Engine
	standard StandardPolicy

	lastBlockDepth int32
	valueIn        int64
	currentInput   int
	unconfirmed    []int
	done           func(err error, unconfirmed []int)
}

// NewTxValidator returns a validator for tx.  The pool snapshot must stay
// unchanged for the duration of the run; the validator borrows it along with
// the chain and never mutates either.
func NewTxValidator(chain Chain, tx *btcutil.Tx, pool []PoolEntry,
	strand *Strand, engine script.Engine) *TxValidator {

	return &TxValidator{
		chain:  chain,
		tx:     tx,
		txHash: tx.Hash(),
		pool:   pool,
		strand: strand,
		engine: engine,
	}
}

// SetStandardPolicy installs a standardness hook.  Without one every
// transaction is considered standard.
func (v *TxValidator) SetStandardPolicy(p StandardPolicy) {
	v.standard = p
}

// Start begins validation.  done fires exactly once with the verdict and,
// on success, the indices of inputs whose previous outputs are still
// unconfirmed (sitting in the pool).  The validator keeps itself alive
// until then through the closures it posts.
func (v *TxValidator) Start(done func(err error, unconfirmed []int)) {
	v.done = done
	if err := v.basicChecks(); err != nil {
		v.finish(err, nil)
		return
	}

	// Check for duplicates in the blockchain.
	v.chain.FetchTransaction(*v.txHash, func(tx *btcutil.Tx, err error) {
		v.strand.Post(func() { v.handleDuplicateCheck(err) })
	})
}

// basicChecks is phase 1: the synchronous, context-free rejections.
func (v *TxValidator) basicChecks() error {
	if err := CheckTransaction(v.tx); err != nil {
		return err
	}

	// Loose coinbases don't exist; only blocks mint.
	if IsCoinBase(v.tx) {
		return ruleError(ErrCoinbaseTransaction,
			"coinbase transaction outside a block")
	}

	if v.standard != nil && !v.standard(v.tx) {
		return ruleError(ErrIsNotStandard, "transaction is not standard")
	}

	if v.fetchFromPool(v.txHash) != nil {
		return ruleError(ErrDuplicate, fmt.Sprintf(
			"transaction %v already in the pool", v.txHash))
	}
	return nil
}

// fetchFromPool scans the snapshot for a pending transaction by hash.
func (v *TxValidator) fetchFromPool(hash *chainhash.Hash) *btcutil.Tx {
	for i := range v.pool {
		if v.pool[i].Hash == *hash {
			return v.pool[i].Tx
		}
	}
	return nil
}

// handleDuplicateCheck resumes after the chain-level duplicate lookup.  Only
// the not-found sentinel lets validation proceed; a hit is a duplicate and
// anything else is a transport failure surfaced as-is.
func (v *TxValidator) handleDuplicateCheck(fetchErr error) {
	switch fetchErr {
	case ErrNotFound:
	case nil:
		v.finish(ruleError(ErrDuplicate, fmt.Sprintf(
			"transaction %v already confirmed", v.txHash)), nil)
		return
	default:
		v.finish(fetchErr, nil)
		return
	}

	// Check for conflicts with pool transactions.
	for _, txIn := range v.tx.MsgTx().TxIn {
		if v.isSpentInPool(&txIn.PreviousOutPoint) {
			v.finish(ruleError(ErrDoubleSpend, fmt.Sprintf(
				"outpoint %v already spent in the pool",
				txIn.PreviousOutPoint)), nil)
			return
		}
	}

	v.chain.FetchLastDepth(func(depth int32, err error) {
		v.strand.Post(func() { v.setLastDepth(depth, err) })
	})
}

// isSpentInPool reports whether any pool transaction already spends the
// outpoint.
func (v *TxValidator) isSpentInPool(op *wire.OutPoint) bool {
	for i := range v.pool {
		for _, txIn := range v.pool[i].Tx.MsgTx().TxIn {
			if txIn.PreviousOutPoint == *op {
				return true
			}
		}
	}
	return false
}

// setLastDepth records the tip depth used for coinbase maturity and starts
// the per-input loop.
func (v *TxValidator) setLastDepth(depth int32, err error) {
	if err != nil {
		v.finish(err, nil)
		return
	}
	v.lastBlockDepth = depth
	v.valueIn = 0
	v.currentInput = 0
	v.nextPreviousTransaction()
}

// nextPreviousTransaction starts processing of the current input by fetching
// the depth of the block holding its previous transaction.
func (v *TxValidator) nextPreviousTransaction() {
	prevHash := v.tx.MsgTx().TxIn[v.currentInput].PreviousOutPoint.Hash
	v.chain.FetchTransactionDepth(prevHash, func(depth int32, err error) {
		v.strand.Post(func() { v.previousTxIndex(depth, err) })
	})
}

// previousTxIndex resumes once the parent depth is known.  A stop of the
// backing service passes through; any other error means the previous
// transaction is not confirmed, so the pool is searched instead.
func (v *TxValidator) previousTxIndex(parentDepth int32, err error) {
	if err == ErrServiceStopped {
		v.finish(err, nil)
		return
	}
	if err != nil {
		v.searchPoolPreviousTx()
		return
	}
	prevHash := v.tx.MsgTx().TxIn[v.currentInput].PreviousOutPoint.Hash
	v.chain.FetchTransaction(prevHash, func(tx *btcutil.Tx, err error) {
		v.strand.Post(func() { v.handlePreviousTx(tx, parentDepth, err) })
	})
}

// searchPoolPreviousTx falls back to the pool snapshot for the previous
// transaction.  Pool transactions can never be coinbases, so the parent
// depth is irrelevant for maturity.
func (v *TxValidator) searchPoolPreviousTx() {
	prevHash := v.tx.MsgTx().TxIn[v.currentInput].PreviousOutPoint.Hash
	previousTx := v.fetchFromPool(&prevHash)
	if previousTx == nil {
		v.finish(ruleError(ErrInputNotFound, fmt.Sprintf(
			"previous transaction %v not found", prevHash)),
			[]int{v.currentInput})
		return
	}
	v.unconfirmed = append(v.unconfirmed, v.currentInput)
	v.handlePreviousTx(previousTx, 0, nil)
}

// handlePreviousTx connects the current input against its previous
// transaction, then asks the chain whether the outpoint is already spent.
func (v *TxValidator) handlePreviousTx(previousTx *btcutil.Tx,
	parentDepth int32, err error) {

	if err != nil {
		if err != ErrNotFound {
			v.finish(err, nil)
			return
		}
		v.finish(ruleError(ErrInputNotFound, fmt.Sprintf(
			"previous transaction for input %d not found",
			v.currentInput)), []int{v.currentInput})
		return
	}
	if !v.connectInput(previousTx, parentDepth) {
		v.finish(ruleError(ErrValidateInputsFailed, fmt.Sprintf(
			"input %d of %v failed to connect",
			v.currentInput, v.txHash)), nil)
		return
	}

	op := v.tx.MsgTx().TxIn[v.currentInput].PreviousOutPoint
	v.chain.FetchSpend(op, func(spend SpendRecord, err error) {
		v.strand.Post(func() { v.checkDoubleSpend(err) })
	})
}

// connectInput applies the per-input rules: the previous output must exist,
// be in money range and mature if minted by a coinbase, the scripts must
// verify, and the running input value must stay in range.  P2SH evaluation
// is off on the loose-transaction path.
func (v *TxValidator) connectInput(previousTx *btcutil.Tx,
	parentDepth int32) bool {

	txIn := v.tx.MsgTx().TxIn[v.currentInput]
	prevOut := txIn.PreviousOutPoint
	prevMsgTx := previousTx.MsgTx()
	if prevOut.Index >= uint32(len(prevMsgTx.TxOut)) {
		return false
	}
	output := prevMsgTx.TxOut[prevOut.Index]
	if output.Value < 0 || output.Value > MaxMoney {
		return false
	}
	if IsCoinBase(previousTx) {
		if v.lastBlockDepth-parentDepth < CoinbaseMaturity {
			return false
		}
	}
	err := v.engine.Execute(output.PkScript, txIn.SignatureScript,
		v.tx.MsgTx(), v.currentInput, false)
	if err != nil {
		log.Debugf("script failed for input %d of %v: %v",
			v.currentInput, v.txHash, err)
		return false
	}
	v.valueIn += output.Value
	return v.valueIn <= MaxMoney
}

// checkDoubleSpend resumes after the spend lookup for the current input.
// The unspent-output sentinel is the success reply; a stop of the backing
// service passes through; everything else means the output is taken.
func (v *TxValidator) checkDoubleSpend(spendErr error) {
	switch spendErr {
	case ErrUnspentOutput:
	case ErrServiceStopped:
		v.finish(spendErr, nil)
		return
	default:
		v.finish(ruleError(ErrDoubleSpend, fmt.Sprintf(
			"input %d of %v spends a taken output",
			v.currentInput, v.txHash)), nil)
		return
	}

	v.currentInput++
	if v.currentInput == len(v.tx.MsgTx().TxIn) {
		v.checkFees()
		return
	}
	v.nextPreviousTransaction()
}

// checkFees is phase 6.  The tally result is computed and discarded here;
// fees are only enforced when the transaction is connected in a block.
func (v *TxValidator) checkFees() {
	var fees int64
	tallyFees(v.tx, v.valueIn, &fees)
	v.finish(nil, v.unconfirmed)
}

// finish delivers the verdict exactly once.
func (v *TxValidator) finish(err error, unconfirmed []int) {
	done := v.done
	v.done = nil
	if done != nil {
		done(err, unconfirmed)
	}
}
