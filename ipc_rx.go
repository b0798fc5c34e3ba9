package main

import (
	"context"
	"strconv"
	"sync"

	"powertrain-service/powertrain"

	"github.com/go-redis/redis/v8"
)

const driverControlsKey = "driver-controls"

type IPCRx struct {
	log        *LeveledLogger
	redis      *redis.Client
	controller powertrain.MotorController
	drive      *DriveScheduler
	dc         powertrain.DriverControls
	bus        powertrain.FrameSink
	mu         sync.RWMutex
	ctx        context.Context
	cancel     context.CancelFunc

	controlsSubscription *redis.PubSub
	vehicleSubscription  *redis.PubSub
}

func NewIPCRx(logger *LeveledLogger, redis *redis.Client, controller powertrain.MotorController, drive *DriveScheduler, dc powertrain.DriverControls, bus powertrain.FrameSink) *IPCRx {
	ctx, cancel := context.WithCancel(context.Background())

	rx := &IPCRx{
		log:        logger,
		redis:      redis,
		controller: controller,
		drive:      drive,
		dc:         dc,
		bus:        bus,
		ctx:        ctx,
		cancel:     cancel,
	}

	// Setup initial subscriptions
	if err := rx.setupSubscriptions(); err != nil {
		rx.log.Error("Failed to setup subscriptions: %v", err)
		rx.Destroy()
		return nil
	}

	// Initial state reads
	rx.readInitialStates()

	return rx
}

func (rx *IPCRx) setupSubscriptions() error {
	// Subscribe to vehicle updates
	rx.vehicleSubscription = rx.redis.Subscribe(rx.ctx, "vehicle")
	go rx.handleVehicleSubscription()

	// Subscribe to driver control commands
	rx.controlsSubscription = rx.redis.Subscribe(rx.ctx, driverControlsKey)
	go rx.handleControlsSubscription()

	return nil
}

func (rx *IPCRx) handleVehicleSubscription() {
	rx.log.Info("Starting vehicle subscription handler")

	for {
		msg, err := rx.vehicleSubscription.Receive(rx.ctx)
		if err != nil {
			if err == context.Canceled {
				return
			}
			// Check for closed client - panic to trigger systemd restart
			if err.Error() == "redis: client is closed" {
				rx.log.Error("Redis connection lost on vehicle subscription - restarting service")
				panic("Redis disconnected")
			}
			rx.log.Error("Vehicle subscription error: %v", err)
			continue
		}

		switch m := msg.(type) {
		case *redis.Message:
			rx.log.Debug("Vehicle message received: channel=%s, payload=%s", m.Channel, m.Payload)

			// Check if state was updated
			state, err := rx.redis.HGet(rx.ctx, "vehicle", "state").Result()
			if err != nil && err != redis.Nil {
				rx.log.Error("Failed to get vehicle state: %v", err)
				continue
			}

			if err != redis.Nil {
				rx.handleVehicleState(state)
			}

		case *redis.Subscription:
			rx.log.Debug("Vehicle subscription event: %s %s", m.Channel, m.Kind)
		}
	}
}

func (rx *IPCRx) handleControlsSubscription() {
	rx.log.Info("Starting driver controls subscription handler")

	for {
		msg, err := rx.controlsSubscription.Receive(rx.ctx)
		if err != nil {
			if err == context.Canceled {
				return
			}
			// Check for closed client - panic to trigger systemd restart
			if err.Error() == "redis: client is closed" {
				rx.log.Error("Redis connection lost on controls subscription - restarting service")
				panic("Redis disconnected")
			}
			rx.log.Error("Controls subscription error: %v", err)
			continue
		}

		switch m := msg.(type) {
		case *redis.Message:
			rx.log.Debug("Controls message received: channel=%s, payload=%s", m.Channel, m.Payload)
			rx.handleControlCommand(m.Payload)

		case *redis.Subscription:
			rx.log.Debug("Controls subscription event: %s %s", m.Channel, m.Kind)
		}
	}
}

// handleControlCommand dispatches a command published on the driver
// controls channel. Command parameters live in the driver-controls hash.
func (rx *IPCRx) handleControlCommand(command string) {
	switch command {
	case "drive":
		velocity, err := rx.controlsFloat("velocity-rpm")
		if err != nil {
			rx.log.Error("Failed to read drive velocity: %v", err)
			return
		}
		current, err := rx.controlsFloat("current-percent")
		if err != nil {
			rx.log.Error("Failed to read drive current: %v", err)
			return
		}
		rx.drive.SetSetpoint(velocity, current)

	case "power":
		current, err := rx.controlsFloat("bus-current-percent")
		if err != nil {
			rx.log.Error("Failed to read bus current limit: %v", err)
			return
		}
		if err := rx.controller.Power(current); err != nil {
			rx.log.Error("Failed to send motor power command: %v", err)
		}

	case "reset":
		rx.log.Info("Resetting motor controller")
		if err := rx.controller.Reset(); err != nil {
			rx.log.Error("Failed to send reset command: %v", err)
		}

	case "ignition":
		position, err := rx.redis.HGet(rx.ctx, driverControlsKey, "ignition").Result()
		if err != nil {
			rx.log.Error("Failed to read ignition position: %v", err)
			return
		}
		rx.handleIgnition(position)

	case "active-motor":
		value, err := rx.redis.HGet(rx.ctx, driverControlsKey, "active-motor").Result()
		if err != nil {
			rx.log.Error("Failed to read active motor: %v", err)
			return
		}
		motor, err := strconv.ParseUint(value, 10, 8)
		if err != nil || motor > 9 {
			rx.log.Error("Invalid active motor %q (must be 0-9)", value)
			return
		}
		rx.log.Info("Changing active motor to %d", motor)
		if err := rx.controller.ActiveMotorChange(uint8(motor)); err != nil {
			rx.log.Error("Failed to send active motor change: %v", err)
		}

	default:
		rx.log.Warn("Unknown driver controls command: %s", command)
	}
}

func (rx *IPCRx) handleIgnition(position string) {
	var ignition powertrain.IgnitionPosition
	switch position {
	case "run":
		ignition = powertrain.IgnitionRun
	case "start":
		ignition = powertrain.IgnitionStart
	default:
		rx.log.Error("Invalid ignition position %q (must be 'run' or 'start')", position)
		return
	}

	rx.log.Info("Ignition switch position: %s", position)
	if err := rx.bus.Publish(rx.dc.SwitchPosition(ignition)); err != nil {
		rx.log.Error("Failed to publish ignition frame: %v", err)
	}
}

func (rx *IPCRx) controlsFloat(field string) (float32, error) {
	value, err := rx.redis.HGet(rx.ctx, driverControlsKey, field).Result()
	if err != nil {
		return 0, err
	}
	parsed, err := strconv.ParseFloat(value, 32)
	if err != nil {
		return 0, err
	}
	return float32(parsed), nil
}

func (rx *IPCRx) readInitialStates() {
	// Read vehicle state
	state, err := rx.redis.HGet(rx.ctx, "vehicle", "state").Result()
	if err != nil && err != redis.Nil {
		rx.log.Error("Failed to read initial vehicle state: %v", err)
	} else if err != redis.Nil {
		rx.log.Info("Initial vehicle state: %s", state)
		rx.handleVehicleState(state)
	}
}

func (rx *IPCRx) handleVehicleState(state string) {
	ready := state == "ready-to-drive"
	rx.drive.HandleVehicleStateChange(ready)
}

func (rx *IPCRx) Destroy() {
	rx.mu.Lock()
	defer rx.mu.Unlock()

	if rx.cancel != nil {
		rx.cancel()
	}

	if rx.controlsSubscription != nil {
		rx.controlsSubscription.Close()
	}

	if rx.vehicleSubscription != nil {
		rx.vehicleSubscription.Close()
	}
}
