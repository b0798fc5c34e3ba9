package powertrain

import (
	"encoding/binary"

	"github.com/brutella/can"
)

// WsDefaultBaseID is the factory-default WaveSculptor base identifier.
const WsDefaultBaseID = 0x600

// Broadcast message id offsets from the WaveSculptor base identifier.
const (
	WsIdentificationOffset    = 0x00
	WsStatusOffset            = 0x01
	WsBusMeasurementOffset    = 0x02
	WsVelocityOffset          = 0x03
	WsPhaseCurrentOffset      = 0x04
	WsMotorVoltageOffset      = 0x05
	WsMotorCurrentOffset      = 0x06
	WsBackEMFOffset           = 0x07
	WsRail15vOffset           = 0x08
	WsRail3v3And1v9Offset     = 0x09
	WsHeatsinkMotorTempOffset = 0x0B
	WsDSPTempOffset           = 0x0C
	WsOdometerOffset          = 0x0E
	WsSlipSpeedOffset         = 0x17
)

// Command message id offsets from the WaveSculptor base identifier.
const (
	WsActiveMotorChangeOffset = 0x12
)

// WsStatus is the aggregated status snapshot of a WaveSculptor motor
// controller. Fields are absent until their producing broadcast frame has
// been seen at least once.
type WsStatus struct {
	// Device identifier (Tritium or Prohelion ID).
	Identifier Optional[uint32]
	// Serial number allocated at manufacture.
	SerialNumber Optional[uint32]

	CanRxErrorCount Optional[uint8]
	CanTxErrorCount Optional[uint8]
	ActiveMotor     Optional[uint16]
	ErrorFlags      Optional[ErrorFlags]
	LimitFlags      Optional[LimitFlags]

	// Bus voltage in volts and current in amps.
	BusVoltage Optional[float32]
	BusCurrent Optional[float32]

	// Motor velocity in RPM, vehicle velocity in meters per second.
	MotorVelocity   Optional[float32]
	VehicleVelocity Optional[float32]

	// RMS phase currents in amps.
	PhaseBCurrent Optional[float32]
	PhaseCCurrent Optional[float32]

	// Voltage, current and back-EMF vectors. The wire packs the imaginary
	// component first, the real component second.
	MotorVoltageVector Optional[complex64]
	MotorCurrentVector Optional[complex64]
	MotorBackEMFVector Optional[complex64]

	// Supply rail measurements in volts.
	Rail15v Optional[float32]
	Rail3v3 Optional[float32]
	Rail1v9 Optional[float32]

	// Temperatures in degrees Celsius.
	HeatsinkTemperature Optional[float32]
	MotorTemperature    Optional[float32]
	DSPBoardTemperature Optional[float32]

	// DC bus amp-hours and odometer (meters since last reset).
	BusAmpHours Optional[float32]
	Odometer    Optional[float32]

	// Slip speed in Hz.
	SlipSpeed Optional[float32]
}

// WaveSculptor decodes the broadcast frames of a WaveSculptor 22/200 motor
// controller (backward compatible with Tritium WaveSculptors) and forms its
// configuration command frames. It performs no I/O and takes no locks.
type WaveSculptor struct {
	baseID uint16
	status WsStatus
}

// NewWaveSculptor creates a decoder listening at the given 11-bit base
// identifier, typically WsDefaultBaseID.
func NewWaveSculptor(baseID uint16) *WaveSculptor {
	return &WaveSculptor{baseID: baseID}
}

// Status returns a copy of the current snapshot.
func (ws *WaveSculptor) Status() WsStatus {
	return ws.status
}

// HandleFrame consumes a single incoming CAN frame and merges any fields it
// produces into the snapshot. Extended identifiers, identifiers below the
// base, empty payloads and unknown offsets are ignored without error.
func (ws *WaveSculptor) HandleFrame(frame can.Frame) error {
	if isExtended(frame) {
		return nil
	}

	id := standardID(frame)
	if id < ws.baseID || frame.Length == 0 {
		return nil
	}

	data := frame.Data[:]

	switch id - ws.baseID {
	case WsIdentificationOffset:
		if frame.Length < 8 {
			return nil
		}
		ws.status.Identifier = some(binary.LittleEndian.Uint32(data[0:4]))
		ws.status.SerialNumber = some(binary.LittleEndian.Uint32(data[4:8]))

	case WsStatusOffset:
		if frame.Length < 8 {
			return nil
		}
		ws.status.CanRxErrorCount = some(data[0])
		ws.status.CanTxErrorCount = some(data[1])
		ws.status.ActiveMotor = some(binary.LittleEndian.Uint16(data[2:4]))
		errorFlags, ok := ErrorFlagsFromBits(binary.LittleEndian.Uint16(data[4:6]))
		ws.status.ErrorFlags = Optional[ErrorFlags]{Value: errorFlags, Valid: ok}
		limitFlags, ok := LimitFlagsFromBits(binary.LittleEndian.Uint16(data[6:8]))
		ws.status.LimitFlags = Optional[LimitFlags]{Value: limitFlags, Valid: ok}

	case WsBusMeasurementOffset:
		if frame.Length < 8 {
			return nil
		}
		ws.status.BusVoltage = some(f32LE(data[0:4]))
		ws.status.BusCurrent = some(f32LE(data[4:8]))

	case WsVelocityOffset:
		if frame.Length < 8 {
			return nil
		}
		ws.status.MotorVelocity = some(f32LE(data[0:4]))
		ws.status.VehicleVelocity = some(f32LE(data[4:8]))

	case WsPhaseCurrentOffset:
		if frame.Length < 8 {
			return nil
		}
		ws.status.PhaseBCurrent = some(f32LE(data[0:4]))
		ws.status.PhaseCCurrent = some(f32LE(data[4:8]))

	case WsMotorVoltageOffset:
		if frame.Length < 8 {
			return nil
		}
		ws.status.MotorVoltageVector = some(vectorLE(data))

	case WsMotorCurrentOffset:
		if frame.Length < 8 {
			return nil
		}
		ws.status.MotorCurrentVector = some(vectorLE(data))

	case WsBackEMFOffset:
		if frame.Length < 8 {
			return nil
		}
		ws.status.MotorBackEMFVector = some(vectorLE(data))

	case WsRail15vOffset:
		if frame.Length < 8 {
			return nil
		}
		// Bytes 0-3 of this frame are unused on the wire.
		ws.status.Rail15v = some(f32LE(data[4:8]))

	case WsRail3v3And1v9Offset:
		if frame.Length < 8 {
			return nil
		}
		ws.status.Rail1v9 = some(f32LE(data[0:4]))
		ws.status.Rail3v3 = some(f32LE(data[4:8]))

	case WsHeatsinkMotorTempOffset:
		if frame.Length < 8 {
			return nil
		}
		ws.status.MotorTemperature = some(f32LE(data[0:4]))
		ws.status.HeatsinkTemperature = some(f32LE(data[4:8]))

	case WsDSPTempOffset:
		if frame.Length < 4 {
			return nil
		}
		ws.status.DSPBoardTemperature = some(f32LE(data[0:4]))

	case WsOdometerOffset:
		if frame.Length < 8 {
			return nil
		}
		ws.status.Odometer = some(f32LE(data[0:4]))
		ws.status.BusAmpHours = some(f32LE(data[4:8]))

	case WsSlipSpeedOffset:
		if frame.Length < 8 {
			return nil
		}
		ws.status.SlipSpeed = some(f32LE(data[4:8]))
	}

	return nil
}

// vectorLE builds a complex value from an eight-byte payload carrying the
// imaginary component in bytes 0-3 and the real component in bytes 4-7.
func vectorLE(data []byte) complex64 {
	im := f32LE(data[0:4])
	re := f32LE(data[4:8])
	return complex(re, im)
}

// ActiveMotorChange forms the command frame that selects one of the ten
// pre-configured motor profiles. motor must be in [0, 9]; values outside
// that range are a programming error and panic.
func (ws *WaveSculptor) ActiveMotorChange(motor uint8) can.Frame {
	if motor > 9 {
		panic("powertrain: active motor profile out of range")
	}
	return packFrame(ws.baseID+WsActiveMotorChangeOffset,
		[]byte{0x00, motor, 'A', 'C', 'T', 'M', 'O', 'T'})
}
