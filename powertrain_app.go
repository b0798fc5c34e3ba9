package main

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"powertrain-service/powertrain"

	"github.com/brutella/can"
	"github.com/go-redis/redis/v8"
)

type PowertrainApp struct {
	log        *LeveledLogger
	redis      *redis.Client
	ipcRx      *IPCRx
	ipcTx      *IPCTx
	controller *powertrain.Controller
	bmu        *powertrain.Bmu
	precharge  *PrechargeMonitor
	drive      *DriveScheduler
	diag       *Diag
	mu         sync.Mutex
	ctx        context.Context
	cancel     context.CancelFunc

	lastMotorVelocity float32 // Track last published motor velocity
}

// writeDefaultRedisState writes default values to Redis
func (app *PowertrainApp) writeDefaultRedisState() {
	app.mu.Lock()
	defer app.mu.Unlock()

	if err := app.ipcTx.SendMotorStatus(RedisMotorStatus{}); err != nil {
		app.log.Error("Failed to send default motor status: %v", err)
	}

	if err := app.ipcTx.SendMotorTemps(RedisMotorTemps{}); err != nil {
		app.log.Error("Failed to send default motor temperatures: %v", err)
	}

	if err := app.ipcTx.SendPackStatus(RedisPackStatus{}); err != nil {
		app.log.Error("Failed to send default pack status: %v", err)
	}

	if err := app.ipcTx.SendPrechargeStatus(RedisPrechargeStatus{State: "unknown"}); err != nil {
		app.log.Error("Failed to send default precharge status: %v", err)
	}

	app.log.Info("Default Redis state written")
}

func NewPowertrainApp(opts *Options) (*PowertrainApp, error) {
	ctx, cancel := context.WithCancel(context.Background())

	base := log.New(log.Writer(), fmt.Sprintf("%s: ", ProjectName), log.LstdFlags)
	app := &PowertrainApp{
		log:    NewLeveledLogger(base, opts.LogLevel),
		ctx:    ctx,
		cancel: cancel,
	}

	// Initialize Redis client with timeouts
	app.redis = redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", opts.RedisServerAddr, opts.RedisServerPort),
		Password:     "",
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	// Test Redis connection with timeout
	connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
	defer connectCancel()

	app.log.Info("Connecting to Redis at %s:%d...", opts.RedisServerAddr, opts.RedisServerPort)

	if err := app.redis.Ping(connectCtx).Err(); err != nil {
		app.log.Error("Failed to connect to Redis: %v", err)
		return nil, fmt.Errorf("failed to connect to Redis: %v", err)
	}
	app.log.Info("Successfully connected to Redis")

	app.ipcTx = NewIPCTx(app.log, app.redis)
	app.log.Info("IPC TX component initialized")

	// Write default values to Redis after ipcTx is initialized
	app.writeDefaultRedisState()

	// Start health check goroutine
	go app.redisHealthCheck()

	app.precharge = NewPrechargeMonitor(app.log)
	app.log.Info("Precharge monitor initialized")

	app.diag = NewDiag(app.log, app.redis)
	app.log.Info("Diagnostics component initialized")

	// Initialize CAN bus
	bus, err := can.NewBusForInterfaceWithName(opts.CANDevice)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize CAN bus: %v", err)
	}

	controller, err := powertrain.NewController(powertrain.ControllerConfig{
		Logger:   app.log,
		Sink:     bus,
		WsBaseID: opts.WsBaseID,
		DcBaseID: opts.DcBaseID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create motor controller: %v", err)
	}
	app.controller = controller
	app.log.Info("Motor controller initialized - base 0x%03X", opts.WsBaseID)

	app.bmu = powertrain.NewBmu(opts.BmuBaseID)
	app.log.Info("BMU decoder initialized - base 0x%03X", opts.BmuBaseID)

	app.drive = NewDriveScheduler(app.log, ctx, app.controller, app.precharge)
	app.log.Info("Drive scheduler initialized")

	// Create frame handler for CAN messages
	handler := &frameHandler{app: app}
	bus.Subscribe(handler)

	// Start CAN message publishing
	go func() {
		if err := bus.ConnectAndPublish(); err != nil {
			app.log.Error("CAN bus publish error: %v", err)
		}
	}()

	dc := powertrain.NewDriverControls(opts.DcBaseID)
	app.ipcRx = NewIPCRx(app.log, app.redis, app.controller, app.drive, dc, bus)
	if app.ipcRx == nil {
		return nil, fmt.Errorf("failed to initialize IPC RX")
	}
	app.log.Info("IPC RX component initialized")

	return app, nil
}

// Frame handler for CAN messages
type frameHandler struct {
	app *PowertrainApp
}

func (h *frameHandler) Handle(frame can.Frame) {
	h.app.handleFrame(frame)
}

func (app *PowertrainApp) handleFrame(frame can.Frame) {
	app.mu.Lock()
	defer app.mu.Unlock()

	if err := app.controller.HandleFrame(frame); err != nil {
		app.log.Error("Error handling motor controller frame: %v", err)
		return
	}
	if err := app.bmu.HandleFrame(frame); err != nil {
		app.log.Error("Error handling BMU frame: %v", err)
		return
	}

	app.updateRedisState()
}

// updateRedisState publishes the latest decoder snapshots. Callers must
// hold app.mu.
func (app *PowertrainApp) updateRedisState() {
	wsStatus := app.controller.Status()
	bmuStatus := app.bmu.Status()

	app.precharge.Update(bmuStatus)
	app.diag.SetFaults(wsStatus.ErrorFlags)

	// Only publish velocities when the motor velocity has changed
	if wsStatus.MotorVelocity.Valid && wsStatus.MotorVelocity.Value != app.lastMotorVelocity {
		motorStatus := RedisMotorStatus{
			BusVoltage:      wsStatus.BusVoltage.Value,
			BusCurrent:      wsStatus.BusCurrent.Value,
			MotorVelocity:   wsStatus.MotorVelocity.Value,
			VehicleVelocity: wsStatus.VehicleVelocity.Value,
		}

		if err := app.ipcTx.SendMotorStatus(motorStatus); err != nil {
			app.log.Error("Failed to send motor status: %v", err)
		} else {
			app.lastMotorVelocity = wsStatus.MotorVelocity.Value
		}
	}

	if wsStatus.HeatsinkTemperature.Valid || wsStatus.DSPBoardTemperature.Valid {
		temps := RedisMotorTemps{
			HeatsinkTemp: wsStatus.HeatsinkTemperature.Value,
			MotorTemp:    wsStatus.MotorTemperature.Value,
			DSPTemp:      wsStatus.DSPBoardTemperature.Value,
		}

		if err := app.ipcTx.SendMotorTemps(temps); err != nil {
			app.log.Error("Failed to send motor temperatures: %v", err)
		}
	}

	if wsStatus.ActiveMotor.Valid {
		health := RedisMotorHealth{
			CanRxErrors: wsStatus.CanRxErrorCount.Value,
			CanTxErrors: wsStatus.CanTxErrorCount.Value,
			ActiveMotor: wsStatus.ActiveMotor.Value,
			LimitFlags:  uint16(wsStatus.LimitFlags.Value),
		}

		if err := app.ipcTx.SendMotorHealth(health); err != nil {
			app.log.Error("Failed to send motor health: %v", err)
		}
	}

	if bmuStatus.SocAmpHours.Valid || bmuStatus.PackVoltageMv.Valid {
		pack := RedisPackStatus{
			SocAmpHours:   bmuStatus.SocAmpHours.Value,
			SocPercent:    bmuStatus.SocPercent.Value,
			PackVoltageMv: bmuStatus.PackVoltageMv.Value,
			PackCurrentMa: bmuStatus.PackCurrentMa.Value,
		}

		if err := app.ipcTx.SendPackStatus(pack); err != nil {
			app.log.Error("Failed to send pack status: %v", err)
		}
	}

	if bmuStatus.PrechargeState.Valid {
		precharge := RedisPrechargeStatus{
			State:         bmuStatus.PrechargeState.Value.String(),
			SupplyVoltage: bmuStatus.ContactorSupplyVoltage.Value,
			TimerElapsed:  bmuStatus.PrechargeTimerElapsed.Value,
			TimerCounter:  bmuStatus.PrechargeTimerCounter.Value,
		}

		if err := app.ipcTx.SendPrechargeStatus(precharge); err != nil {
			app.log.Error("Failed to send precharge status: %v", err)
		}
	}
}

func (app *PowertrainApp) redisHealthCheck() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-app.ctx.Done():
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(app.ctx, 2*time.Second)
			if err := app.redis.Ping(ctx).Err(); err != nil {
				app.log.Error("Redis health check failed: %v", err)
			}
			cancel()
		}
	}
}

func (app *PowertrainApp) Destroy() {
	app.mu.Lock()
	defer app.mu.Unlock()

	app.log.Info("Shutting down powertrain application...")

	if app.cancel != nil {
		app.cancel()
	}

	if app.ipcRx != nil {
		app.ipcRx.Destroy()
		app.log.Info("IPC RX shutdown complete")
	}

	if app.drive != nil {
		app.drive.Destroy()
		app.log.Info("Drive scheduler shutdown complete")
	}

	if app.precharge != nil {
		app.precharge.Destroy()
		app.log.Info("Precharge monitor shutdown complete")
	}

	if app.diag != nil {
		app.diag.Destroy()
		app.log.Info("Diagnostics shutdown complete")
	}

	if app.ipcTx != nil {
		app.ipcTx.Destroy()
		app.log.Info("IPC TX shutdown complete")
	}

	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.log.Error("Error closing Redis connection: %v", err)
		} else {
			app.log.Info("Redis connection closed")
		}
	}

	app.log.Info("Powertrain application shutdown complete")
}
