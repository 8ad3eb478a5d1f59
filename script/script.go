package script

import (
	"github.com/btcsuite/btcd/txscript"
)

// Op is one parsed script operation: the opcode byte and, for data pushes,
// the pushed bytes.
type Op struct {
	Code byte
	Data []byte
}

// Parse tokenizes a raw script into its operations.  Parsing stops at the
// first malformed operation; everything successfully tokenized up to that
// point is returned, which matches how sigop counting treats scripts that
// fail to fully parse.
func Parse(scr []byte) []Op {
	var ops []Op
	tokenizer := txscript.MakeScriptTokenizer(0, scr)
	for tokenizer.Next() {
		data := tokenizer.Data()
		if data != nil {
			data = append([]byte(nil), data...)
		}
		ops = append(ops, Op{Code: tokenizer.Opcode(), Data: data})
	}
	return ops
}

// IsPayToScriptHash returns whether the script is a standard
// pay-to-script-hash output.
func IsPayToScriptHash(scr []byte) bool {
	return txscript.IsPayToScriptHash(scr)
}

// LastPushData returns the data of the final operation of a signature
// script.  For a P2SH spend this is the serialized redeem script.  The
// second return is false when the script has no operations.
func LastPushData(sigScript []byte) ([]byte, bool) {
	ops := Parse(sigScript)
	if len(ops) == 0 {
		return nil, false
	}
	return ops[len(ops)-1].Data, true
}
