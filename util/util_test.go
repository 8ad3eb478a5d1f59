package util

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

func TestU32RoundTrip(t *testing.T) {
	for _, v := range []uint32{0, 1, 0xdeadbeef, 0xffffffff} {
		require.Equal(t, v, BtU32(U32tB(v)))
	}
	require.Equal(t, int32(-7), BtI32(I32tB(-7)))
}

func TestOutpointRoundTrip(t *testing.T) {
	op := wire.OutPoint{Hash: chainhash.Hash{0x11, 0x22}, Index: 42}
	b := OutpointToBytes(&op)
	require.Len(t, b, 36)

	got, err := BytesToOutpoint(b)
	require.NoError(t, err)
	require.Equal(t, op, got)

	_, err = BytesToOutpoint(b[:35])
	require.Error(t, err)
}
