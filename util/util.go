package util

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/btcsuite/btcd/wire"
)

// HasAccess reports whether the file or directory exists.
func HasAccess(fileName string) bool {
	if _, err := os.Stat(fileName); os.IsNotExist(err) {
		return false
	}
	return true
}

// U32tB converts uint32 to 4 bytes.  Always works.
func U32tB(i uint32) []byte {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], i)
	return buf[:]
}

// BtU32 converts 4 bytes to uint32.  Returns ffffffff if something doesn't
// work.
func BtU32(b []byte) uint32 {
	if len(b) != 4 {
		fmt.Printf("Got %x to BtU32 (%d bytes)\n", b, len(b))
		return 0xffffffff
	}
	return binary.BigEndian.Uint32(b)
}

// U64tB converts uint64 to 8 bytes.  Always works.
func U64tB(i uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], i)
	return buf[:]
}

// BtU64 converts 8 bytes to uint64.  Returns ffffffffffffffff if something
// doesn't work.
func BtU64(b []byte) uint64 {
	if len(b) != 8 {
		fmt.Printf("Got %x to BtU64 (%d bytes)\n", b, len(b))
		return 0xffffffffffffffff
	}
	return binary.BigEndian.Uint64(b)
}

// I32tB converts int32 to 4 bytes.
func I32tB(i int32) []byte {
	return U32tB(uint32(i))
}

// BtI32 converts 4 bytes to int32.
func BtI32(b []byte) int32 {
	return int32(BtU32(b))
}

// OutpointToBytes turns an outpoint into its 36 byte key form: the txid
// followed by the big-endian output index.
func OutpointToBytes(op *wire.OutPoint) []byte {
	b := make([]byte, 36)
	copy(b[:32], op.Hash[:])
	binary.BigEndian.PutUint32(b[32:], op.Index)
	return b
}

// BytesToOutpoint is the inverse of OutpointToBytes.
func BytesToOutpoint(b []byte) (op wire.OutPoint, err error) {
	if len(b) != 36 {
		err = fmt.Errorf("outpoint key wrong size %d", len(b))
		return
	}
	copy(op.Hash[:], b[:32])
	op.Index = binary.BigEndian.Uint32(b[32:])
	return
}
