package powertrain

// Optional holds a snapshot field that is absent until the producing
// broadcast frame has been observed at least once.
type Optional[T any] struct {
	Value T
	Valid bool
}

func some[T any](value T) Optional[T] {
	return Optional[T]{Value: value, Valid: true}
}

// PrechargeState is the state of the BMU precharge sequence.
type PrechargeState uint8

const (
	PrechargeError      PrechargeState = 0
	PrechargeIdle       PrechargeState = 1
	PrechargeMeasure    PrechargeState = 2
	PrechargePrecharge  PrechargeState = 3
	PrechargeRun        PrechargeState = 4
	PrechargeEnablePack PrechargeState = 5
)

// PrechargeStateFromByte maps a wire byte to a precharge state. Bytes
// outside the enumeration return ok=false.
func PrechargeStateFromByte(value uint8) (PrechargeState, bool) {
	switch state := PrechargeState(value); state {
	case PrechargeError, PrechargeIdle, PrechargeMeasure,
		PrechargePrecharge, PrechargeRun, PrechargeEnablePack:
		return state, true
	}
	return 0, false
}

func (s PrechargeState) String() string {
	switch s {
	case PrechargeError:
		return "error"
	case PrechargeIdle:
		return "idle"
	case PrechargeMeasure:
		return "measure"
	case PrechargePrecharge:
		return "precharge"
	case PrechargeRun:
		return "run"
	case PrechargeEnablePack:
		return "enable-pack"
	default:
		return "unknown"
	}
}

// Cell identifies a single cell by its CMU index and cell number.
type Cell struct {
	CMU    uint8
	Number uint8
}

// CellWithVoltage pairs a cell with a voltage reading in millivolts.
type CellWithVoltage struct {
	Cell    Cell
	Voltage uint16
}

// CellWithTemperature pairs a cell with a temperature reading.
type CellWithTemperature struct {
	Cell        Cell
	Temperature uint16
}

// CMUStatus is the per-CMU report: serial number, board and cell
// temperatures, and the voltages of the up-to-eight supervised cells.
type CMUStatus struct {
	SerialNumber    uint32
	PCBTemperature  uint16
	CellTemperature uint16
	CellVoltage     [8]int16
}
