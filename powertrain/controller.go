package powertrain

import (
	"errors"

	"github.com/brutella/can"
)

// ControllerConfig configures a Controller. Zero base identifiers select
// the factory defaults.
type ControllerConfig struct {
	Logger   Logger
	Sink     FrameSink
	WsBaseID uint16
	DcBaseID uint16
}

// Controller binds a WaveSculptor decoder and a driver-controls encoder to
// a frame sink, implementing the full MotorController capability set.
type Controller struct {
	ws     *WaveSculptor
	dc     DriverControls
	sink   FrameSink
	logger Logger
}

var _ MotorController = (*Controller)(nil)

// NewController creates a controller front-end. The sink is required; the
// logger may be nil.
func NewController(config ControllerConfig) (*Controller, error) {
	if config.Sink == nil {
		return nil, errors.New("powertrain: controller requires a frame sink")
	}

	wsBase := config.WsBaseID
	if wsBase == 0 {
		wsBase = WsDefaultBaseID
	}
	dcBase := config.DcBaseID
	if dcBase == 0 {
		dcBase = DcDefaultBaseID
	}

	return &Controller{
		ws:     NewWaveSculptor(wsBase),
		dc:     NewDriverControls(dcBase),
		sink:   config.Sink,
		logger: config.Logger,
	}, nil
}

// Status returns a copy of the underlying WaveSculptor snapshot.
func (c *Controller) Status() WsStatus {
	return c.ws.Status()
}

// HandleFrame feeds an incoming broadcast frame to the decoder.
func (c *Controller) HandleFrame(frame can.Frame) error {
	DebugCANFrame(c.logger, "RX", frame.ID, frame.Data, frame.Length)
	return c.ws.HandleFrame(frame)
}

func (c *Controller) send(frame can.Frame) error {
	DebugCANFrame(c.logger, "TX", frame.ID, frame.Data, frame.Length)
	return c.sink.Publish(frame)
}

func (c *Controller) Drive(currentPercent, velocityRPM float32) error {
	return c.send(c.dc.MotorDrive(velocityRPM, currentPercent))
}

func (c *Controller) Power(busCurrentPercent float32) error {
	return c.send(c.dc.MotorPower(busCurrentPercent))
}

func (c *Controller) Reset() error {
	return c.send(c.dc.ResetWaveSculptor())
}

func (c *Controller) ActiveMotorChange(motor uint8) error {
	return c.send(c.ws.ActiveMotorChange(motor))
}

// value unwraps an optional snapshot field for the query methods.
func value[T any](opt Optional[T]) (T, error) {
	if !opt.Valid {
		var zero T
		return zero, ErrNotReported
	}
	return opt.Value, nil
}

func (c *Controller) SerialNumber() (uint32, error) {
	return value(c.ws.status.SerialNumber)
}

func (c *Controller) ManufacturerID() (uint32, error) {
	return value(c.ws.status.Identifier)
}

func (c *Controller) ReceiveErrorCount() (uint8, error) {
	return value(c.ws.status.CanRxErrorCount)
}

func (c *Controller) TransmitErrorCount() (uint8, error) {
	return value(c.ws.status.CanTxErrorCount)
}

func (c *Controller) ActiveMotor() (uint16, error) {
	return value(c.ws.status.ActiveMotor)
}

func (c *Controller) ErrorFlags() (ErrorFlags, error) {
	return value(c.ws.status.ErrorFlags)
}

func (c *Controller) LimitFlags() (LimitFlags, error) {
	return value(c.ws.status.LimitFlags)
}

func (c *Controller) BusCurrent() (float32, error) {
	return value(c.ws.status.BusCurrent)
}

func (c *Controller) BusVoltage() (float32, error) {
	return value(c.ws.status.BusVoltage)
}

func (c *Controller) VehicleVelocity() (float32, error) {
	return value(c.ws.status.VehicleVelocity)
}

func (c *Controller) MotorVelocity() (float32, error) {
	return value(c.ws.status.MotorVelocity)
}

func (c *Controller) PhaseCurrentB() (float32, error) {
	return value(c.ws.status.PhaseBCurrent)
}

func (c *Controller) PhaseCurrentC() (float32, error) {
	return value(c.ws.status.PhaseCCurrent)
}

func (c *Controller) MotorVoltageVector() (complex64, error) {
	return value(c.ws.status.MotorVoltageVector)
}

func (c *Controller) MotorCurrentVector() (complex64, error) {
	return value(c.ws.status.MotorCurrentVector)
}

func (c *Controller) MotorBackEMF() (complex64, error) {
	return value(c.ws.status.MotorBackEMFVector)
}

func (c *Controller) RailMeasurement(rail VoltageRail) (float32, error) {
	switch rail {
	case Rail15V:
		return value(c.ws.status.Rail15v)
	case Rail3V3:
		return value(c.ws.status.Rail3v3)
	case Rail1V9:
		return value(c.ws.status.Rail1v9)
	default:
		return 0, errors.New("powertrain: unknown voltage rail")
	}
}

func (c *Controller) TemperatureMeasurement(sensor TemperatureSensor) (float32, error) {
	switch sensor {
	case SensorHeatsink:
		return value(c.ws.status.HeatsinkTemperature)
	case SensorMotor:
		return value(c.ws.status.MotorTemperature)
	case SensorDSPBoard:
		return value(c.ws.status.DSPBoardTemperature)
	default:
		return 0, errors.New("powertrain: unknown temperature sensor")
	}
}

func (c *Controller) BusAmpHours() (float32, error) {
	return value(c.ws.status.BusAmpHours)
}

func (c *Controller) Odometer() (float32, error) {
	return value(c.ws.status.Odometer)
}

func (c *Controller) SlipSpeed() (float32, error) {
	return value(c.ws.status.SlipSpeed)
}
