package powertrain

import (
	"encoding/binary"

	"github.com/brutella/can"
)

// Broadcast message id offsets from the BMU base identifier.
const (
	BmuHeartbeatOffset        = 0x00
	BmuCMUStatusOffset        = 0x01
	BmuSocOffset              = 0xF4
	BmuBalanceSocOffset       = 0xF5
	BmuChargerControlOffset   = 0xF6
	BmuPrechargeOffset        = 0xF7
	BmuMinMaxCellVoltsOffset  = 0xF8
	BmuMinMaxCellTempsOffset  = 0xF9
	BmuPackVoltCurrentOffset  = 0xFA
	BmuPackStatusOffset       = 0xFB
	BmuFanStatusOffset        = 0xFC
	BmuExtendedStatusOffset   = 0xFD

	// Last offset of the per-CMU broadcast band.
	bmuCMUBandEnd = 0x09
)

// CMUCount is the number of cell management units a single BMU supervises.
const CMUCount = 8

// BmuStatus is the aggregated status snapshot of a battery management
// unit. Every field stays absent until its producing broadcast frame has
// been seen; after that, each new frame overwrites it.
type BmuStatus struct {
	DeviceIdentifier   Optional[uint32]
	DeviceSerialNumber Optional[uint32]

	CMUs [CMUCount]Optional[CMUStatus]

	SocAmpHours        Optional[float32]
	SocPercent         Optional[float32]
	BalanceSocAmpHours Optional[float32]
	BalanceSocPercent  Optional[float32]

	ChargingCellVoltageError    Optional[uint16]
	CellTemperatureMargin       Optional[uint16]
	DischargingCellVoltageError Optional[uint16]
	TotalPackCapacity           Optional[uint16]

	ContactorDriverStatus  Optional[ContactorDriverStatus]
	PrechargeState         Optional[PrechargeState]
	ContactorSupplyVoltage Optional[uint16]
	PrechargeTimerElapsed  Optional[bool]
	PrechargeTimerCounter  Optional[uint8]

	MinimumVoltageCell     Optional[CellWithVoltage]
	MaximumVoltageCell     Optional[CellWithVoltage]
	MinimumTemperatureCell Optional[CellWithTemperature]
	MaximumTemperatureCell Optional[CellWithTemperature]

	PackVoltageMv Optional[uint32]
	PackCurrentMa Optional[uint32]
}

// Bmu decodes the broadcast frames of a battery management unit into an
// owned status snapshot. It performs no I/O and takes no locks; callers
// reading the snapshot concurrently with HandleFrame must synchronize.
type Bmu struct {
	baseID uint16
	status BmuStatus
}

// NewBmu creates a BMU decoder listening at the given 11-bit base
// identifier. The snapshot starts with every field absent.
func NewBmu(baseID uint16) *Bmu {
	return &Bmu{baseID: baseID}
}

// Status returns a copy of the current snapshot.
func (b *Bmu) Status() BmuStatus {
	return b.status
}

// HandleFrame consumes a single incoming CAN frame and merges any fields
// it produces into the snapshot. Extended identifiers, identifiers below
// the base, empty payloads and unknown offsets are ignored without error.
func (b *Bmu) HandleFrame(frame can.Frame) error {
	if isExtended(frame) {
		return nil
	}

	id := standardID(frame)
	if id < b.baseID || frame.Length == 0 {
		return nil
	}

	offset := id - b.baseID
	data := frame.Data[:]

	if offset >= BmuCMUStatusOffset && offset <= bmuCMUBandEnd {
		// TODO: decode the per-CMU serial/temperature/voltage frame groups
		// per the PHLN67.011 BMS user's manual.
		return nil
	}

	switch offset {
	case BmuHeartbeatOffset:
		if frame.Length < 8 {
			return nil
		}
		b.status.DeviceIdentifier = some(binary.LittleEndian.Uint32(data[0:4]))
		b.status.DeviceSerialNumber = some(binary.LittleEndian.Uint32(data[4:8]))

	case BmuSocOffset:
		if frame.Length < 8 {
			return nil
		}
		b.status.SocAmpHours = some(f32LE(data[0:4]))
		b.status.SocPercent = some(f32LE(data[4:8]))

	case BmuBalanceSocOffset:
		if frame.Length < 8 {
			return nil
		}
		b.status.BalanceSocAmpHours = some(f32LE(data[0:4]))
		b.status.BalanceSocPercent = some(f32LE(data[4:8]))

	case BmuChargerControlOffset:
		if frame.Length < 8 {
			return nil
		}
		b.status.ChargingCellVoltageError = some(binary.LittleEndian.Uint16(data[0:2]))
		b.status.CellTemperatureMargin = some(binary.LittleEndian.Uint16(data[2:4]))
		b.status.DischargingCellVoltageError = some(binary.LittleEndian.Uint16(data[4:6]))
		// Bytes 6-7 land in the same field, overwriting bytes 4-5. The
		// reference firmware does exactly this; the BMS manual hints the
		// last word is the total pack capacity, but that reading is
		// unverified, so TotalPackCapacity stays absent.
		b.status.DischargingCellVoltageError = some(binary.LittleEndian.Uint16(data[6:8]))

	case BmuPrechargeOffset:
		if frame.Length < 8 {
			return nil
		}
		contactors, ok := ContactorDriverStatusFromBits(data[0])
		b.status.ContactorDriverStatus = Optional[ContactorDriverStatus]{Value: contactors, Valid: ok}
		state, ok := PrechargeStateFromByte(data[1])
		b.status.PrechargeState = Optional[PrechargeState]{Value: state, Valid: ok}
		b.status.ContactorSupplyVoltage = some(binary.LittleEndian.Uint16(data[2:4]))
		b.status.PrechargeTimerElapsed = some(data[6] == 1)
		b.status.PrechargeTimerCounter = some(data[7])

	case BmuPackVoltCurrentOffset:
		if frame.Length < 8 {
			return nil
		}
		b.status.PackVoltageMv = some(binary.LittleEndian.Uint32(data[0:4]))
		b.status.PackCurrentMa = some(binary.LittleEndian.Uint32(data[4:8]))

	case BmuMinMaxCellVoltsOffset, BmuMinMaxCellTempsOffset,
		BmuPackStatusOffset, BmuFanStatusOffset, BmuExtendedStatusOffset:
		// TODO: decode per the PHLN67.011 BMS user's manual. The snapshot
		// carries fields for the min/max cell frames already.
	}

	return nil
}
