package consensus

import (
	"fmt"
	"math"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// zeroHash is the hash found in a coinbase input's previous outpoint.
var zeroHash chainhash.Hash

// isNullOutpoint reports whether the outpoint is the distinguished null
// outpoint used by coinbase inputs.
func isNullOutpoint(op *wire.OutPoint) bool {
	return op.Index == math.MaxUint32 && op.Hash == zeroHash
}

// IsCoinBase determines whether or not a transaction is a coinbase: a single
// input whose previous outpoint is null.
func IsCoinBase(tx *btcutil.Tx) bool {
	msgTx := tx.MsgTx()
	if len(msgTx.TxIn) != 1 {
		return false
	}
	return isNullOutpoint(&msgTx.TxIn[0].PreviousOutPoint)
}

// CheckTransaction performs the context-free sanity checks on a transaction.
// It is pure: the verdict depends only on the transaction itself.
func CheckTransaction(tx *btcutil.Tx) error {
	msgTx := tx.MsgTx()
	if len(msgTx.TxIn) == 0 || len(msgTx.TxOut) == 0 {
		return ruleError(ErrEmptyTransaction,
			"transaction has no inputs or no outputs")
	}

	// Check for negative or overflow output values.  The total of all
	// outputs must stay in range after every add.
	var totalOut int64
	for _, txOut := range msgTx.TxOut {
		if txOut.Value < 0 || txOut.Value > MaxMoney {
			return ruleError(ErrOutputValueOverflow, fmt.Sprintf(
				"transaction output value of %v is out of range",
				txOut.Value))
		}
		totalOut += txOut.Value
		if totalOut > MaxMoney {
			return ruleError(ErrOutputValueOverflow, fmt.Sprintf(
				"total output value %v exceeds max of %v",
				totalOut, int64(MaxMoney)))
		}
	}

	if IsCoinBase(tx) {
		scriptLen := len(msgTx.TxIn[0].SignatureScript)
		if scriptLen < 2 || scriptLen > 100 {
			return ruleError(ErrInvalidCoinbaseScriptSize, fmt.Sprintf(
				"coinbase script size %d is outside [2, 100]",
				scriptLen))
		}
	} else {
		for i, txIn := range msgTx.TxIn {
			if isNullOutpoint(&txIn.PreviousOutPoint) {
				return ruleError(ErrPreviousOutputNull, fmt.Sprintf(
					"input %d refers to a null previous output", i))
			}
		}
	}

	return nil
}

// totalOutputValue sums the outputs of a transaction.  Range checking is the
// caller's business; CheckTransaction has already vetted any transaction
// that reaches the spots this is used from.
func totalOutputValue(tx *btcutil.Tx) int64 {
	var total int64
	for _, txOut := range tx.MsgTx().TxOut {
		total += txOut.Value
	}
	return total
}

// IsFinalTx reports whether a transaction is final at the given depth and
// block time.  A locktime below LockTimeThreshold is a depth, otherwise a
// unix timestamp.  A transaction whose inputs all carry the maximum sequence
// is final regardless of locktime.
func IsFinalTx(tx *btcutil.Tx, depth int32, blockTime int64) bool {
	msgTx := tx.MsgTx()
	lockTime := msgTx.LockTime
	if lockTime == 0 {
		return true
	}

	var threshold int64
	if lockTime < LockTimeThreshold {
		threshold = int64(depth)
	} else {
		threshold = blockTime
	}
	if int64(lockTime) < threshold {
		return true
	}

	for _, txIn := range msgTx.TxIn {
		if txIn.Sequence != math.MaxUint32 {
			return false
		}
	}
	return true
}

// tallyFees folds one transaction's fee into a running total.  It returns
// false if the transaction spends more than its inputs provide or if the
// accumulated fees leave the money range.
func tallyFees(tx *btcutil.Tx, valueIn int64, totalFees *int64) bool {
	valueOut := totalOutputValue(tx)
	if valueIn < valueOut {
		return false
	}
	*totalFees += valueIn - valueOut
	if *totalFees > MaxMoney {
		return false
	}
	return true
}
