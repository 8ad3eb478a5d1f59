package consensus

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"

	"github.com/bitval/bitval/script"
)

// countScriptSigOps walks a script's operations counting signature
// operations.  In accurate mode a CHECKMULTISIG preceded by a small-integer
// push OP_1..OP_16 counts as that many operations; otherwise it counts as
// the 20-key maximum.
func countScriptSigOps(ops []script.Op, accurate bool) int {
	totalSigs := 0
	lastNumber := 0
	for _, op := range ops {
		switch op.Code {
		case txscript.OP_CHECKSIG, txscript.OP_CHECKSIGVERIFY:
			totalSigs++
		case txscript.OP_CHECKMULTISIG, txscript.OP_CHECKMULTISIGVERIFY:
			if accurate && lastNumber != 0 {
				totalSigs += lastNumber
			} else {
				totalSigs += 20
			}
		}
		if op.Code >= txscript.OP_1 && op.Code <= txscript.OP_16 {
			lastNumber = int(op.Code) - (txscript.OP_1 - 1)
		}
	}
	return totalSigs
}

// TxLegacySigOpsCount returns the legacy (inaccurate) signature operation
// count over all of a transaction's input and output scripts.
func TxLegacySigOpsCount(tx *btcutil.Tx) int {
	msgTx := tx.MsgTx()
	totalSigs := 0
	for _, txIn := range msgTx.TxIn {
		totalSigs += countScriptSigOps(script.Parse(txIn.SignatureScript), false)
	}
	for _, txOut := range msgTx.TxOut {
		totalSigs += countScriptSigOps(script.Parse(txOut.PkScript), false)
	}
	return totalSigs
}

// LegacySigOpsCount sums TxLegacySigOpsCount over every transaction in a
// block.
func LegacySigOpsCount(block *btcutil.Block) int {
	totalSigs := 0
	for _, tx := range block.Transactions() {
		totalSigs += TxLegacySigOpsCount(tx)
	}
	return totalSigs
}

// ScriptHashSigOps returns the accurate signature operation count for one
// input.  For a non-P2SH previous output the output script itself is
// counted.  For a P2SH output the redeem script is the final push of the
// input script, and that is what gets counted.
func ScriptHashSigOps(pkScript, sigScript []byte) int {
	if !script.IsPayToScriptHash(pkScript) {
		return countScriptSigOps(script.Parse(pkScript), true)
	}
	redeem, ok := script.LastPushData(sigScript)
	if !ok {
		return 0
	}
	return countScriptSigOps(script.Parse(redeem), true)
}
