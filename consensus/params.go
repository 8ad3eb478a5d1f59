package consensus

import (
	"math/big"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Consensus constants.  These are wire-exact; changing any of them forks the
// chain.
const (
	// MaxBlockSize is the maximum serialized block size in bytes.
	MaxBlockSize = 1000000

	// MaxBlockSigOps is the maximum number of signature operations
	// allowed in a block.
	MaxBlockSigOps = MaxBlockSize / 50

	// CoinbaseMaturity is the number of blocks a coinbase output must be
	// buried under before it may be spent.
	CoinbaseMaturity = 100

	// ReadjustmentInterval is the number of blocks between difficulty
	// retargets.
	ReadjustmentInterval = 2016

	// TargetTimespan is the desired duration of a retarget interval, in
	// seconds (two weeks).
	TargetTimespan = 14 * 24 * 60 * 60

	// retargetClamp bounds how far a single retarget may move: the
	// measured timespan is constrained to [TargetTimespan/retargetClamp,
	// TargetTimespan*retargetClamp].
	retargetClamp = 4

	// SatoshiPerBitcoin is the number of satoshi in one bitcoin.
	SatoshiPerBitcoin = 100000000

	// MaxMoney is the maximum representable monetary value in satoshi.
	MaxMoney = 21000000 * SatoshiPerBitcoin

	// MaxBits is the compact encoding of the genesis (easiest) difficulty
	// target.
	MaxBits = 0x1d00ffff

	// HalvingInterval is the number of blocks between block reward
	// halvings.
	HalvingInterval = 210000

	// baseSubsidy is the block reward before any halvings.
	baseSubsidy = 50 * SatoshiPerBitcoin

	// LockTimeThreshold is the locktime value below which a locktime is
	// interpreted as a block depth rather than a unix timestamp.
	LockTimeThreshold = 500000000

	// maxTimeOffsetSeconds is how far into the future a block timestamp
	// may be relative to wall-clock time (two hours).
	maxTimeOffsetSeconds = 2 * 60 * 60

	// Bip16SwitchoverTimestamp activates pay-to-script-hash evaluation
	// for blocks stamped at or after it (2012-04-01).
	Bip16SwitchoverTimestamp = 1333238400

	// Bip16SwitchoverDepth is the depth by which the switchover timestamp
	// had been reached.  Block 170060 contains an invalid BIP16
	// transaction before the switchover date, so the timestamp check is
	// authoritative and the depth is asserted as an invariant only.
	Bip16SwitchoverDepth = 173805
)

// bip30ExceptionDepths are the two historical blocks exempt from the BIP30
// duplicate-transaction rule.
var bip30ExceptionDepths = map[int32]struct{}{
	91842: {},
	91880: {},
}

// maxTarget is the largest valid proof-of-work target, the expansion of
// MaxBits.
var maxTarget = CompactToBig(MaxBits)

// newHashFromStr converts a big-endian hex string to a chainhash.Hash.  It
// only differs from chainhash.NewHashFromStr in that it panics on invalid
// input, which is fine for the hardcoded tables below.
func newHashFromStr(hexStr string) *chainhash.Hash {
	hash, err := chainhash.NewHashFromStr(hexStr)
	if err != nil {
		panic(err)
	}
	return hash
}

// checkpoints fences history against deep reorganizations: a block arriving
// at one of these depths must carry exactly the tabulated hash.
var checkpoints = map[int32]*chainhash.Hash{
	11111:  newHashFromStr("0000000069e244f73d78e8fd29ba2fd2ed618bd6fa2ee92559f542fdb26e7c1d"),
	33333:  newHashFromStr("000000002dd5588a74784eaa7ab0507a18ad16a236e7b1ce69f00d7ddfb5d0a6"),
	68555:  newHashFromStr("00000000001e1b4903550a0b96e9a9405c8a95f387162e4944e8d9fbe501cd6a"),
	70567:  newHashFromStr("00000000006a49b14bcf27462068f1264c961f11fa2e0eddd2be0791e1d4124a"),
	74000:  newHashFromStr("0000000000573993a3c9e41ce34471c079dcf5f52a0e824a81e7f953b8661a20"),
	105000: newHashFromStr("00000000000291ce28027faea320c8d2b054b2e0fe44a773f3eefb151d6bdc97"),
	118000: newHashFromStr("000000000000774a7f8a7a12dc906ddb9e17e75d684f15e00f8767f9e8f36553"),
	134444: newHashFromStr("00000000000005b12ffd4cd315cd34ffd4a594f430ac814c91184a0d42d2b0fe"),
	140700: newHashFromStr("000000000000033b512028abb90e1626d8b346fd0ed598ac0a3c371138dce2bd"),
	168000: newHashFromStr("000000000000099e61ea72015e79632f216fe6cb33d7899acb35b75c8303b763"),
	193000: newHashFromStr("000000000000059f452a5f7340de6682a977387c17010ff6e6c3bd83ca8b1317"),
	210000: newHashFromStr("000000000000048b95347e83192f69cf0366076336c639f9b7228e9ba171342e"),
	216116: newHashFromStr("00000000000001b4f4b433e81ee46494af945cf96014816a4e2370f11b23df4e"),
}

// VerifyCheckpoint reports whether a block hash at the given depth is
// consistent with the checkpoint table.  Depths without a checkpoint always
// pass.
func VerifyCheckpoint(depth int32, blockHash *chainhash.Hash) bool {
	want, ok := checkpoints[depth]
	if !ok {
		return true
	}
	return want.IsEqual(blockHash)
}

// MaxTarget returns a copy of the largest valid proof-of-work target.
func MaxTarget() *big.Int {
	return new(big.Int).Set(maxTarget)
}
