package script

import (
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// Engine executes an input script against the output script it is trying to
// spend.  Validation only ever talks to this interface so the interpreter can
// be swapped for a scripted stub in tests.
type Engine interface {
	// Execute runs sigScript against pkScript in the context of the
	// spending transaction and input index.  The bip16 flag enables
	// pay-to-script-hash evaluation.  A nil return means the scripts
	// verified.
	Execute(pkScript, sigScript []byte, tx *wire.MsgTx, inputIndex int,
		bip16 bool) error
}

// VM is the txscript backed Engine used by the node.  The signature cache is
// shared across all executions so repeated validation of the same inputs
// (mempool then block) doesn't redo the expensive ECDSA work.  The sighash
// cache is allocated with the VM, but Execute does not hand it to the
// interpreter, so sighashes are recomputed on every run.
type VM struct {
	sigCache  *txscript.SigCache
	hashCache *txscript.HashCache
}

// maxCachedSigs is the number of entries the shared signature cache holds.
const maxCachedSigs = 50000

// NewVM returns a VM with freshly initialized caches.
func NewVM() *VM {
	return &VM{
		sigCache:  txscript.NewSigCache(maxCachedSigs),
		hashCache: txscript.NewHashCache(maxCachedSigs),
	}
}

// Execute implements the Engine interface on top of txscript.
func (vm *VM) Execute(pkScript, sigScript []byte, tx *wire.MsgTx,
	inputIndex int, bip16 bool) error {

	var flags txscript.ScriptFlags
	if bip16 {
		flags |= txscript.ScriptBip16
	}

	prevOuts := txscript.NewCannedPrevOutputFetcher(pkScript, 0)
	eng, err := txscript.NewEngine(pkScript, tx, inputIndex, flags,
		vm.sigCache, nil, 0, prevOuts)
	if err != nil {
		return err
	}
	return eng.Execute()
}
