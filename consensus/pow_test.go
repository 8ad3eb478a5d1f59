package consensus

import (
	"math/big"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"
)

func TestCompactRoundTrip(t *testing.T) {
	for _, compact := range []uint32{
		MaxBits, 0x1b0404cb, 0x1a05db8b, 0x170ed0eb, 0x03123456,
	} {
		got := BigToCompact(CompactToBig(compact))
		require.Equal(t, compact, got, "%08x", compact)
	}

	// Zero stays zero.
	require.Equal(t, uint32(0), BigToCompact(big.NewInt(0)))
}

func TestCompactToBigSign(t *testing.T) {
	// Bit 24 is the sign bit.
	require.Equal(t, -1, CompactToBig(0x01800001).Sign())
	require.Equal(t, 1, CompactToBig(0x01000001).Sign())
}

func TestCheckProofOfWork(t *testing.T) {
	// The real genesis block satisfies its own bits.
	genesisHash := chaincfg.MainNetParams.GenesisHash
	require.NoError(t, CheckProofOfWork(genesisHash, MaxBits))

	// A target above the maximum is rejected no matter the hash.
	err := CheckProofOfWork(genesisHash, 0x1e00ffff)
	require.True(t, IsRuleCode(err, ErrProofOfWork))

	// A non-positive target is rejected.
	err = CheckProofOfWork(genesisHash, 0x01800001)
	require.True(t, IsRuleCode(err, ErrProofOfWork))

	// A tiny target is not met by the genesis hash.
	err = CheckProofOfWork(genesisHash, 0x01000001)
	require.True(t, IsRuleCode(err, ErrProofOfWork))
}

func TestCalcRetargetClamp(t *testing.T) {
	quarter := new(big.Int).Div(MaxTarget(), big.NewInt(4))

	// Anything faster than a quarter timespan clamps to a quarter.
	got := CalcRetarget(MaxBits, TargetTimespan/8)
	require.Equal(t, BigToCompact(quarter), got)
	require.Equal(t, got, CalcRetarget(MaxBits, TargetTimespan/4))

	// Anything slower than 4x clamps to 4x, and the result is capped at
	// the maximum target.
	require.Equal(t, uint32(MaxBits),
		CalcRetarget(MaxBits, TargetTimespan*8))

	// A spot-on timespan leaves the difficulty alone.
	require.Equal(t, uint32(MaxBits),
		CalcRetarget(MaxBits, TargetTimespan))
}

func TestBlockReward(t *testing.T) {
	require.Equal(t, int64(50*SatoshiPerBitcoin), BlockReward(0))
	require.Equal(t, int64(50*SatoshiPerBitcoin), BlockReward(209999))
	require.Equal(t, int64(25*SatoshiPerBitcoin), BlockReward(210000))
	require.Equal(t, int64(1250000000), BlockReward(420000))
	require.Equal(t, int64(0), BlockReward(64*210000))
}
