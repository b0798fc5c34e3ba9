package powertrain

import (
	"github.com/brutella/can"
)

// DcDefaultBaseID is the conventional driver-controls base identifier.
const DcDefaultBaseID = 0x500

// Command message id offsets from the driver-controls base identifier.
const (
	DcMotorDriveOffset     = 0x01
	DcMotorPowerOffset     = 0x02
	DcResetOffset          = 0x03
	DcSwitchPositionOffset = 0x05
)

// IgnitionPosition is the position of the ignition switch.
type IgnitionPosition uint8

const (
	IgnitionRun IgnitionPosition = iota
	IgnitionStart
)

// DriverControls emulates the driver-controls CAN node, forming the
// command frames a BMU or WaveSculptor listens for. It is a stateless
// value apart from its base identifier.
type DriverControls struct {
	baseID uint16
}

// NewDriverControls creates a driver-controls encoder at the given 11-bit
// base identifier, typically DcDefaultBaseID.
func NewDriverControls(baseID uint16) DriverControls {
	return DriverControls{baseID: baseID}
}

// MotorDrive forms the motor drive command carrying the desired motor
// velocity in RPM and the current setpoint as a percentage of the maximum
// current setting.
//
// The velocity is little-endian but the current field is big-endian: the
// vendor protocol mixes endianness within this one frame.
func (dc DriverControls) MotorDrive(velocityRPM, currentPercent float32) can.Frame {
	data := make([]byte, 8)
	putF32LE(data[0:4], velocityRPM)
	putF32BE(data[4:8], currentPercent)
	return packFrame(dc.baseID+DcMotorDriveOffset, data)
}

// MotorPower forms the motor power command carrying the desired bus
// current draw as a percentage of the absolute bus current limit.
func (dc DriverControls) MotorPower(busCurrentPercent float32) can.Frame {
	data := make([]byte, 8)
	putF32LE(data[4:8], busCurrentPercent)
	return packFrame(dc.baseID+DcMotorPowerOffset, data)
}

// ResetWaveSculptor forms the command that resets the WaveSculptor
// software.
func (dc DriverControls) ResetWaveSculptor() can.Frame {
	return packFrame(dc.baseID+DcResetOffset, make([]byte, 8))
}

// SwitchPosition forms the ignition switch position frame. Only the first
// payload byte is occupied.
func (dc DriverControls) SwitchPosition(position IgnitionPosition) can.Frame {
	data := make([]byte, 8)
	switch position {
	case IgnitionRun:
		data[0] = 0x20
	case IgnitionStart:
		data[0] = 0x40
	}
	return packFrame(dc.baseID+DcSwitchPositionOffset, data)
}
