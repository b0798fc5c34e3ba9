package main

import (
	"context"
	"sync"
	"time"

	"powertrain-service/powertrain"
)

// WaveSculptors fail safe to zero torque when the drive command is not
// refreshed within their watchdog window, so the active setpoint has to be
// retransmitted continuously while the vehicle is ready to drive.
const DriveResendPeriod = 100 * time.Millisecond

type DriveScheduler struct {
	log            *LeveledLogger
	controller     powertrain.MotorController
	precharge      *PrechargeMonitor
	velocityRPM    float32
	currentPercent float32
	engineReady    bool
	ticker         *time.Ticker
	mu             sync.Mutex
	ctx            context.Context
}

func NewDriveScheduler(logger *LeveledLogger, ctx context.Context, controller powertrain.MotorController, precharge *PrechargeMonitor) *DriveScheduler {
	d := &DriveScheduler{
		log:        logger,
		controller: controller,
		precharge:  precharge,
		ctx:        ctx,
	}

	d.ticker = time.NewTicker(DriveResendPeriod)
	go d.resendLoop()

	return d
}

func (d *DriveScheduler) Destroy() {
	if d.ticker != nil {
		d.ticker.Stop()
	}
}

func (d *DriveScheduler) resendLoop() {
	for {
		select {
		case <-d.ctx.Done():
			return
		case <-d.ticker.C:
			d.sendDrive()
		}
	}
}

func (d *DriveScheduler) sendDrive() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.engineReady {
		return
	}

	if !d.precharge.ReadyToDrive() {
		d.log.Debug("Pack not ready to drive, withholding drive command")
		return
	}

	if err := d.controller.Drive(d.currentPercent, d.velocityRPM); err != nil {
		d.log.Error("Failed to send drive command: %v", err)
	}
}

// SetSetpoint updates the drive setpoint picked up by the next resend tick.
func (d *DriveScheduler) SetSetpoint(velocityRPM, currentPercent float32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.log.Debug("Drive setpoint: %.1f RPM at %.2f current", velocityRPM, currentPercent)
	d.velocityRPM = velocityRPM
	d.currentPercent = currentPercent
}

// HandleVehicleStateChange starts or stops the resend of drive commands.
// Leaving the ready state zeroes the setpoint so a fresh ignition cycle
// starts from zero torque.
func (d *DriveScheduler) HandleVehicleStateChange(ready bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.engineReady == ready {
		return
	}

	d.log.Info("Vehicle state changed to: %s", map[bool]string{true: "ready-to-drive", false: "not-ready"}[ready])
	d.engineReady = ready

	if !ready {
		d.velocityRPM = 0
		d.currentPercent = 0
	}
}
