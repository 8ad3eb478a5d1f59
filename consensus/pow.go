package consensus

import (
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// CompactToBig expands a 32-bit compact representation into a 256-bit
// target.  The representation is a floating point number with a 3-byte
// mantissa, a one byte exponent counting bytes of significance, and bit 24
// as a sign bit.
func CompactToBig(compact uint32) *big.Int {
	mantissa := compact & 0x007fffff
	isNegative := compact&0x00800000 != 0
	exponent := uint(compact >> 24)

	var bn *big.Int
	if exponent <= 3 {
		mantissa >>= 8 * (3 - exponent)
		bn = big.NewInt(int64(mantissa))
	} else {
		bn = big.NewInt(int64(mantissa))
		bn.Lsh(bn, 8*(exponent-3))
	}

	if isNegative {
		bn = bn.Neg(bn)
	}
	return bn
}

// BigToCompact converts a 256-bit integer into the compact representation.
// Inverse of CompactToBig, modulo the precision lost to the 3-byte
// mantissa.
func BigToCompact(n *big.Int) uint32 {
	if n.Sign() == 0 {
		return 0
	}

	var mantissa uint32
	exponent := uint(len(n.Bytes()))
	if exponent <= 3 {
		mantissa = uint32(n.Bits()[0])
		mantissa <<= 8 * (3 - exponent)
	} else {
		tn := new(big.Int).Set(n)
		mantissa = uint32(tn.Rsh(tn, 8*(exponent-3)).Bits()[0])
	}

	// A mantissa with the sign bit set is pushed into the exponent
	// instead.
	if mantissa&0x00800000 != 0 {
		mantissa >>= 8
		exponent++
	}

	compact := uint32(exponent<<24) | mantissa
	if n.Sign() < 0 {
		compact |= 0x00800000
	}
	return compact
}

// HashToBig treats a block hash as a little-endian 256-bit integer, the
// ordering proof-of-work comparison is defined over.
func HashToBig(hash *chainhash.Hash) *big.Int {
	buf := *hash
	blen := len(buf)
	for i := 0; i < blen/2; i++ {
		buf[i], buf[blen-1-i] = buf[blen-1-i], buf[i]
	}
	return new(big.Int).SetBytes(buf[:])
}

// CheckProofOfWork verifies that a block hash satisfies the claimed target:
// the expanded bits must be a positive target no easier than MaxBits, and
// the hash interpreted as an integer must not exceed it.
func CheckProofOfWork(blockHash *chainhash.Hash, bits uint32) error {
	target := CompactToBig(bits)
	if target.Sign() <= 0 {
		return ruleError(ErrProofOfWork, fmt.Sprintf(
			"target difficulty %064x is not positive", target))
	}
	if target.Cmp(maxTarget) > 0 {
		return ruleError(ErrProofOfWork, fmt.Sprintf(
			"target difficulty %064x is higher than max %064x",
			target, maxTarget))
	}
	if HashToBig(blockHash).Cmp(target) > 0 {
		return ruleError(ErrProofOfWork, fmt.Sprintf(
			"block hash %v is higher than the target %064x",
			blockHash, target))
	}
	return nil
}

// CalcRetarget computes the compact bits for the block after a retarget
// boundary.  The measured timespan is clamped to a factor of retargetClamp
// around TargetTimespan before scaling the previous target, and the result
// never exceeds MaxTarget.
func CalcRetarget(prevBits uint32, actualTimespan uint32) uint32 {
	actual := int64(actualTimespan)
	if actual < TargetTimespan/retargetClamp {
		actual = TargetTimespan / retargetClamp
	}
	if actual > TargetTimespan*retargetClamp {
		actual = TargetTimespan * retargetClamp
	}

	target := CompactToBig(prevBits)
	target.Mul(target, big.NewInt(actual))
	target.Div(target, big.NewInt(TargetTimespan))
	if target.Cmp(maxTarget) > 0 {
		target.Set(maxTarget)
	}
	return BigToCompact(target)
}

// BlockReward returns the coinbase subsidy for a block at the given depth,
// following the halving schedule.
func BlockReward(depth int32) int64 {
	halvings := uint(depth / HalvingInterval)
	if halvings >= 64 {
		return 0
	}
	return int64(baseSubsidy) >> halvings
}
