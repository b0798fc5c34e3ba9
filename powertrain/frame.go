package powertrain

import (
	"encoding/binary"
	"math"

	"github.com/brutella/can"
)

// SocketCAN carries frame flags in the upper bits of the 32-bit identifier
// word. Only the low 11 bits are meaningful for standard frames.
const (
	canEffFlag uint32 = 0x80000000
	canRtrFlag uint32 = 0x40000000
	canErrFlag uint32 = 0x20000000

	canSffMask uint32 = 0x000007FF
)

// MaxStandardID is the largest valid 11-bit CAN identifier.
const MaxStandardID = 0x7FF

// isExtended reports whether the frame carries a 29-bit identifier.
func isExtended(frame can.Frame) bool {
	return frame.ID&canEffFlag != 0
}

// standardID extracts the raw 11-bit identifier from a standard frame.
func standardID(frame can.Frame) uint16 {
	return uint16(frame.ID & canSffMask)
}

// packFrame creates a standard-id CAN data frame with the given payload.
// The id must fit in 11 bits; overflowing the standard identifier range is
// a programming error, not a bus condition.
func packFrame(id uint16, data []byte) can.Frame {
	if id > MaxStandardID {
		panic("powertrain: identifier exceeds 11 bits")
	}
	var frameData [8]byte
	copy(frameData[:], data)
	return can.Frame{
		ID:     uint32(id),
		Length: uint8(len(data)),
		Flags:  0,
		Data:   frameData,
	}
}

// f32LE decodes an IEEE-754 single from four little-endian bytes.
func f32LE(data []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(data))
}

// putF32LE encodes an IEEE-754 single as four little-endian bytes.
func putF32LE(data []byte, value float32) {
	binary.LittleEndian.PutUint32(data, math.Float32bits(value))
}

// putF32BE encodes an IEEE-754 single as four big-endian bytes.
func putF32BE(data []byte, value float32) {
	binary.BigEndian.PutUint32(data, math.Float32bits(value))
}
