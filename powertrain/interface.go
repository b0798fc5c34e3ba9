package powertrain

import (
	"errors"

	"github.com/brutella/can"
)

// ErrNotReported is returned by status queries whose producing broadcast
// frame has not been observed yet.
var ErrNotReported = errors.New("powertrain: not yet reported by device")

// FrameSink accepts outgoing CAN frames for transmission. *can.Bus
// satisfies it; tests substitute an in-memory fake.
type FrameSink interface {
	Publish(frame can.Frame) error
}

// VoltageRail selects one of the controller supply rails.
type VoltageRail int

const (
	Rail15V VoltageRail = iota
	Rail3V3
	Rail1V9
)

// TemperatureSensor selects one of the controller temperature sensors.
type TemperatureSensor int

const (
	SensorHeatsink TemperatureSensor = iota
	SensorMotor
	SensorDSPBoard
)

// MotorController is the capability set of a WaveSculptor-compatible motor
// controller: drive commands, status queries and configuration commands.
// Status queries return ErrNotReported until the matching broadcast frame
// has been observed.
type MotorController interface {
	// Drive commands.

	// Drive sets the desired current setpoint as a percentage of the
	// maximum current setting and the desired velocity in RPM.
	Drive(currentPercent, velocityRPM float32) error

	// Power sets the desired current draw from the bus as a percentage of
	// the absolute bus current limit.
	Power(busCurrentPercent float32) error

	// Reset resets the software on the controller.
	Reset() error

	// Status queries.

	SerialNumber() (uint32, error)
	ManufacturerID() (uint32, error)
	ReceiveErrorCount() (uint8, error)
	TransmitErrorCount() (uint8, error)
	ActiveMotor() (uint16, error)
	ErrorFlags() (ErrorFlags, error)
	LimitFlags() (LimitFlags, error)
	BusCurrent() (float32, error)
	BusVoltage() (float32, error)
	VehicleVelocity() (float32, error)
	MotorVelocity() (float32, error)
	PhaseCurrentB() (float32, error)
	PhaseCurrentC() (float32, error)
	MotorVoltageVector() (complex64, error)
	MotorCurrentVector() (complex64, error)
	MotorBackEMF() (complex64, error)
	RailMeasurement(rail VoltageRail) (float32, error)
	TemperatureMeasurement(sensor TemperatureSensor) (float32, error)
	BusAmpHours() (float32, error)
	Odometer() (float32, error)
	SlipSpeed() (float32, error)

	// Configuration commands.

	// ActiveMotorChange selects one of the ten pre-configured motor
	// profiles. motor must be in [0, 9].
	ActiveMotorChange(motor uint8) error

	// HandleFrame consumes an incoming broadcast frame.
	HandleFrame(frame can.Frame) error
}
