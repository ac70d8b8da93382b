// Package crcsum implements the two CRC algorithms used to protect bundle
// blocks and TCPCL session messages: CRC-16/X-25 and CRC-32C (Castagnoli).
// Both are reflected, table-driven algorithms built from scratch rather than
// wrapping an external CRC library, since bit-exact residue checking is part
// of what this module is meant to demonstrate.
package crcsum

import "sync"

// Params describes a reflected CRC algorithm: polynomial, seed, output XOR
// mask and the expected residue when running the check over a message that
// already carries its own correct CRC appended in the trailing bytes.
type Params struct {
	Poly    uint32
	Init    uint32
	XorOut  uint32
	Residue uint32
	Bits    int
}

// CRC16X25 are the parameters for CRC-16/X-25: poly 0x1021 (reflected
// 0x8408), init 0xFFFF, xorout 0xFFFF, residue 0x0F47.
var CRC16X25 = Params{Poly: 0x8408, Init: 0xFFFF, XorOut: 0xFFFF, Residue: 0x0F47, Bits: 16}

// CRC32C are the parameters for CRC-32C (Castagnoli): poly 0x1EDC6F41
// (reflected 0x82F63B78), init 0xFFFFFFFF, xorout 0xFFFFFFFF, residue
// 0x48674BC7.
var CRC32C = Params{Poly: 0x82F63B78, Init: 0xFFFFFFFF, XorOut: 0xFFFFFFFF, Residue: 0x48674BC7, Bits: 32}

var (
	table16     [256]uint16
	table16Once sync.Once

	table32     [256]uint32
	table32Once sync.Once
)

func makeTable16(poly uint16) (t [256]uint16) {
	for i := 0; i < 256; i++ {
		crc := uint16(i)
		for b := 0; b < 8; b++ {
			if crc&1 != 0 {
				crc = (crc >> 1) ^ poly
			} else {
				crc >>= 1
			}
		}
		t[i] = crc
	}
	return
}

func makeTable32(poly uint32) (t [256]uint32) {
	for i := 0; i < 256; i++ {
		crc := uint32(i)
		for b := 0; b < 8; b++ {
			if crc&1 != 0 {
				crc = (crc >> 1) ^ poly
			} else {
				crc >>= 1
			}
		}
		t[i] = crc
	}
	return
}

// Checksum16 computes the CRC-16/X-25 checksum of data.
func Checksum16(data []byte) uint16 {
	table16Once.Do(func() { table16 = makeTable16(uint16(CRC16X25.Poly)) })

	crc := uint16(CRC16X25.Init)
	for _, b := range data {
		crc = (crc >> 8) ^ table16[byte(crc)^b]
	}
	return crc ^ uint16(CRC16X25.XorOut)
}

// Checksum32 computes the CRC-32C (Castagnoli) checksum of data.
func Checksum32(data []byte) uint32 {
	table32Once.Do(func() { table32 = makeTable32(CRC32C.Poly) })

	crc := CRC32C.Init
	for _, b := range data {
		crc = (crc >> 8) ^ table32[byte(crc)^b]
	}
	return crc ^ CRC32C.XorOut
}

// VerifyResidue16 returns true if data (message bytes followed by its own
// big-endian CRC-16/X-25 trailer) checks out to the fixed residue 0x0F47.
func VerifyResidue16(data []byte) bool {
	table16Once.Do(func() { table16 = makeTable16(uint16(CRC16X25.Poly)) })

	n := len(data) - 2
	if n < 0 {
		return false
	}
	crc := uint16(CRC16X25.Init)
	for _, b := range data[:n] {
		crc = (crc >> 8) ^ table16[byte(crc)^b]
	}
	// The reflected register consumes the trailer low byte first.
	for i := len(data) - 1; i >= n; i-- {
		crc = (crc >> 8) ^ table16[byte(crc)^data[i]]
	}
	return crc^uint16(CRC16X25.XorOut) == uint16(CRC16X25.Residue)
}

// VerifyResidue32 returns true if data (message bytes followed by its own
// big-endian CRC-32C trailer) checks out to the fixed residue 0x48674BC7.
func VerifyResidue32(data []byte) bool {
	table32Once.Do(func() { table32 = makeTable32(CRC32C.Poly) })

	n := len(data) - 4
	if n < 0 {
		return false
	}
	crc := CRC32C.Init
	for _, b := range data[:n] {
		crc = (crc >> 8) ^ table32[byte(crc)^b]
	}
	// The reflected register consumes the trailer low byte first.
	for i := len(data) - 1; i >= n; i-- {
		crc = (crc >> 8) ^ table32[byte(crc)^data[i]]
	}
	return crc^CRC32C.XorOut == CRC32C.Residue
}
