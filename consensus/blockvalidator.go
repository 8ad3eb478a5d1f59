package consensus

import (
	"fmt"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/lightningnetwork/lnd/clock"

	"github.com/bitval/bitval/script"
)

// BlockContext supplies the chain context a block validator needs at its
// target depth.  Implementations may bind these to a synchronous store or
// to something that suspends; the validator only requires that each call
// returns the answer for a consistent view of the chain below the block.
type BlockContext interface {
	// PreviousBlockBits returns the compact difficulty bits of the block
	// immediately below the target depth.
	PreviousBlockBits() (uint32, error)

	// ActualTimespan returns the seconds spanned by the last interval
	// blocks below the target depth.
	ActualTimespan(interval int32) (uint32, error)

	// MedianTimePast returns the median timestamp of the recent blocks
	// below the target depth.
	MedianTimePast() (int64, error)

	// TransactionExists reports whether a transaction with the hash is
	// already confirmed.
	TransactionExists(hash chainhash.Hash) (bool, error)

	// FetchTransaction returns a confirmed transaction and the depth of
	// its block.  Misses answer ErrNotFound.
	FetchTransaction(hash chainhash.Hash) (*btcutil.Tx, int32, error)

	// IsOutputSpent reports whether a spend of the outpoint is recorded.
	IsOutputSpent(op wire.OutPoint) (bool, error)

	// IsOutputSpentBy is IsOutputSpent that disregards a spend recorded
	// by the given input of the given transaction of the block under
	// validation, so a block spending its own earlier outputs isn't
	// flagged against itself.
	IsOutputSpentBy(op wire.OutPoint, txIndex, inputIndex int) (bool, error)
}

// BlockValidator validates one candidate block at a given chain depth.
// Single-shot, like TxValidator.
type BlockValidator struct {
	depth  int32
	block  *btcutil.Block
	ctx    BlockContext
	engine script.Engine
	clock  clock.Clock
}

// NewBlockValidator returns a validator for block at depth.  The wall clock
// is injected so the future-timestamp rule is testable.
func NewBlockValidator(depth int32, block *btcutil.Block, ctx BlockContext,
	engine script.Engine, clk clock.Clock) *BlockValidator {

	return &BlockValidator{
		depth:  depth,
		block:  block,
		ctx:    ctx,
		engine: engine,
		clock:  clk,
	}
}

// Start runs the three validation stages in order and returns the first
// verdict.
func (v *BlockValidator) Start() error {
	if err := v.checkBlock(); err != nil {
		return err
	}
	if err := v.acceptBlock(); err != nil {
		return err
	}
	return v.connectBlock()
}

// checkBlock performs the context-independent checks, the ones that can run
// before the block's place in the chain is known.
func (v *BlockValidator) checkBlock() error {
	msgBlock := v.block.MsgBlock()
	txs := v.block.Transactions()

	// Size limits.
	if len(txs) == 0 || len(txs) > MaxBlockSize ||
		msgBlock.SerializeSize() > MaxBlockSize {
		return ruleError(ErrSizeLimits, "block size out of limits")
	}

	blockHash := v.block.Hash()
	if err := CheckProofOfWork(blockHash, msgBlock.Header.Bits); err != nil {
		return err
	}

	twoHourFuture := v.clock.Now().Add(maxTimeOffsetSeconds * time.Second)
	if msgBlock.Header.Timestamp.After(twoHourFuture) {
		return ruleError(ErrFuturisticTimestamp, fmt.Sprintf(
			"block timestamp %v is more than two hours ahead",
			msgBlock.Header.Timestamp))
	}

	if !IsCoinBase(txs[0]) {
		return ruleError(ErrFirstNotCoinbase,
			"first transaction is not the coinbase")
	}
	for i := 1; i < len(txs); i++ {
		if IsCoinBase(txs[i]) {
			return ruleError(ErrExtraCoinbases, fmt.Sprintf(
				"transaction %d is an extra coinbase", i))
		}
	}

	uniqueTxs := make(map[chainhash.Hash]struct{}, len(txs))
	for _, tx := range txs {
		if err := CheckTransaction(tx); err != nil {
			return err
		}
		uniqueTxs[*tx.Hash()] = struct{}{}
	}
	if len(uniqueTxs) != len(txs) {
		return ruleError(ErrDuplicate,
			"block contains duplicate transactions")
	}

	if LegacySigOpsCount(v.block) > MaxBlockSigOps {
		return ruleError(ErrTooManySigs,
			"too many signature operations in block")
	}

	if msgBlock.Header.MerkleRoot != CalcMerkleRoot(txs) {
		return ruleError(ErrMerkleMismatch,
			"header merkle root does not match the transactions")
	}

	return nil
}

// acceptBlock performs the depth-dependent checks.
func (v *BlockValidator) acceptBlock() error {
	header := &v.block.MsgBlock().Header

	required, err := v.workRequired()
	if err != nil {
		return err
	}
	if header.Bits != required {
		return ruleError(ErrIncorrectProofOfWork, fmt.Sprintf(
			"block bits %08x, want %08x at depth %d",
			header.Bits, required, v.depth))
	}

	medianTime, err := v.ctx.MedianTimePast()
	if err != nil {
		return err
	}
	if header.Timestamp.Unix() <= medianTime {
		return ruleError(ErrTimestampTooEarly, fmt.Sprintf(
			"block timestamp %v not after median time past %v",
			header.Timestamp.Unix(), medianTime))
	}

	// Txs should be final when included in a block.
	for i, tx := range v.block.Transactions() {
		if !IsFinalTx(tx, v.depth, header.Timestamp.Unix()) {
			return ruleError(ErrNonFinalTransaction, fmt.Sprintf(
				"transaction %d is not final at depth %d", i,
				v.depth))
		}
	}

	if !VerifyCheckpoint(v.depth, v.block.Hash()) {
		return ruleError(ErrCheckpointsFailed, fmt.Sprintf(
			"block hash does not match checkpoint at depth %d",
			v.depth))
	}

	return nil
}

// workRequired computes the difficulty the block at the target depth must
// carry.
func (v *BlockValidator) workRequired() (uint32, error) {
	if v.depth == 0 {
		return MaxBits, nil
	}
	if v.depth%ReadjustmentInterval != 0 {
		return v.ctx.PreviousBlockBits()
	}

	actual, err := v.ctx.ActualTimespan(ReadjustmentInterval)
	if err != nil {
		return 0, err
	}
	prevBits, err := v.ctx.PreviousBlockBits()
	if err != nil {
		return 0, err
	}
	return CalcRetarget(prevBits, actual), nil
}

// connectBlock performs the stateful checks: BIP30, per-input connection
// with running sigop and fee accumulators, and the coinbase value bound.
func (v *BlockValidator) connectBlock() error {
	txs := v.block.Transactions()

	// BIP30: a confirmed transaction may only be recreated once every
	// output of the old instance is spent.  Two historical blocks
	// predate the rule and are exempt.
	if _, exempt := bip30ExceptionDepths[v.depth]; !exempt {
		for _, tx := range txs {
			ok, err := v.notDuplicateOrSpent(tx)
			if err != nil {
				return err
			}
			if !ok {
				return ruleError(ErrDuplicateOrSpent, fmt.Sprintf(
					"unspent duplicate of transaction %v",
					tx.Hash()))
			}
		}
	}

	var fees int64
	totalSigOps := 0
	for txIndex := 1; txIndex < len(txs); txIndex++ {
		tx := txs[txIndex]
		totalSigOps += TxLegacySigOpsCount(tx)
		if totalSigOps > MaxBlockSigOps {
			return ruleError(ErrTooManySigs,
				"too many signature operations in block")
		}

		var valueIn int64
		err := v.validateInputs(tx, txIndex, &valueIn, &totalSigOps)
		if err != nil {
			if IsValidateFailed(err) {
				log.Debugf("inputs of %v failed: %v", tx.Hash(), err)
				return ruleError(ErrValidateInputsFailed, fmt.Sprintf(
					"transaction %d failed input validation",
					txIndex))
			}
			return err
		}

		if !tallyFees(tx, valueIn, &fees) {
			return ruleError(ErrFeesOutOfRange, fmt.Sprintf(
				"fees out of range connecting transaction %d",
				txIndex))
		}
	}

	coinbaseValue := totalOutputValue(txs[0])
	if coinbaseValue > BlockReward(v.depth)+fees {
		return ruleError(ErrCoinbaseTooLarge, fmt.Sprintf(
			"coinbase claims %v, limit is %v", coinbaseValue,
			BlockReward(v.depth)+fees))
	}

	return nil
}

// notDuplicateOrSpent applies the BIP30 test to one transaction.
func (v *BlockValidator) notDuplicateOrSpent(tx *btcutil.Tx) (bool, error) {
	exists, err := v.ctx.TransactionExists(*tx.Hash())
	if err != nil {
		return false, err
	}
	if !exists {
		return true, nil
	}
	// A duplicate may only exist if all of its outputs are spent.
	for outputIndex := range tx.MsgTx().TxOut {
		op := wire.OutPoint{Hash: *tx.Hash(), Index: uint32(outputIndex)}
		spent, err := v.ctx.IsOutputSpent(op)
		if err != nil {
			return false, err
		}
		if !spent {
			return false, nil
		}
	}
	return true, nil
}

// validateInputs connects every input of tx, carrying the block-wide value
// and sigop accumulators.
func (v *BlockValidator) validateInputs(tx *btcutil.Tx, txIndex int,
	valueIn *int64, totalSigOps *int) error {

	for inputIndex := range tx.MsgTx().TxIn {
		err := v.connectInput(tx, txIndex, inputIndex, valueIn,
			totalSigOps)
		if err != nil {
			return err
		}
	}
	return nil
}

// connectInput is the block form of the per-input rule set.  It differs
// from the loose-transaction form in that sigops accumulate against the
// block cap, BIP16 may be active, and the spend check excludes the spend
// this very input records.
func (v *BlockValidator) connectInput(tx *btcutil.Tx, txIndex,
	inputIndex int, valueIn *int64, totalSigOps *int) error {

	txIn := tx.MsgTx().TxIn[inputIndex]
	prevOut := txIn.PreviousOutPoint

	previousTx, previousDepth, err := v.ctx.FetchTransaction(prevOut.Hash)
	if err != nil {
		if err == ErrNotFound {
			return ruleError(ErrValidateInputsFailed, fmt.Sprintf(
				"previous transaction %v not found",
				prevOut.Hash))
		}
		return err
	}
	prevMsgTx := previousTx.MsgTx()
	if prevOut.Index >= uint32(len(prevMsgTx.TxOut)) {
		return ruleError(ErrValidateInputsFailed, fmt.Sprintf(
			"previous output index %d out of range", prevOut.Index))
	}
	previousOutput := prevMsgTx.TxOut[prevOut.Index]

	*totalSigOps += ScriptHashSigOps(previousOutput.PkScript,
		txIn.SignatureScript)
	if *totalSigOps > MaxBlockSigOps {
		return ruleError(ErrValidateInputsFailed,
			"too many signature operations in block")
	}

	if previousOutput.Value < 0 || previousOutput.Value > MaxMoney {
		return ruleError(ErrValidateInputsFailed,
			"previous output value out of range")
	}

	if IsCoinBase(previousTx) {
		if v.depth-previousDepth < CoinbaseMaturity {
			return ruleError(ErrValidateInputsFailed, fmt.Sprintf(
				"coinbase spent at depth %d, minted at %d",
				v.depth, previousDepth))
		}
	}

	// The timestamp decides BIP16 activation; the depth bound is an
	// invariant asserted alongside it.
	bip16Enabled := v.block.MsgBlock().Header.Timestamp.Unix() >=
		Bip16SwitchoverTimestamp
	if bip16Enabled && v.depth < Bip16SwitchoverDepth {
		return ruleError(ErrValidateInputsFailed, fmt.Sprintf(
			"bip16 active below switchover depth %d",
			Bip16SwitchoverDepth))
	}

	err = v.engine.Execute(previousOutput.PkScript, txIn.SignatureScript,
		tx.MsgTx(), inputIndex, bip16Enabled)
	if err != nil {
		return ruleError(ErrValidateInputsFailed, fmt.Sprintf(
			"script failed for input %d: %v", inputIndex, err))
	}

	spent, err := v.ctx.IsOutputSpentBy(prevOut, txIndex, inputIndex)
	if err != nil {
		return err
	}
	if spent {
		return ruleError(ErrValidateInputsFailed, fmt.Sprintf(
			"outpoint %v is already spent", prevOut))
	}

	*valueIn += previousOutput.Value
	if *valueIn > MaxMoney {
		return ruleError(ErrValidateInputsFailed,
			"input value out of range")
	}
	return nil
}
