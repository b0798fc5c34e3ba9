package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"
)

type IPCTx struct {
	log   *LeveledLogger
	redis *redis.Client
	mu    sync.Mutex
	ctx   context.Context
}

func NewIPCTx(logger *LeveledLogger, redis *redis.Client) *IPCTx {
	return &IPCTx{
		log:   logger,
		redis: redis,
		ctx:   context.Background(),
	}
}

func (tx *IPCTx) Destroy() {}

func (tx *IPCTx) SendMotorStatus(data RedisMotorStatus) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	pipe := tx.redis.Pipeline()

	pipe.HSet(tx.ctx, "wavesculptor", map[string]interface{}{
		"bus:voltage":   data.BusVoltage,
		"bus:current":   data.BusCurrent,
		"motor:rpm":     data.MotorVelocity,
		"vehicle:speed": data.VehicleVelocity,
	})

	// Notify listeners that the velocity fields changed
	pipe.Publish(tx.ctx, "wavesculptor motor", nil)

	_, err := pipe.Exec(tx.ctx)
	if err != nil {
		return fmt.Errorf("failed to send motor status: %v", err)
	}

	return nil
}

func (tx *IPCTx) SendMotorTemps(data RedisMotorTemps) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	if err := tx.redis.HSet(tx.ctx, "wavesculptor", map[string]interface{}{
		"temp:heatsink": data.HeatsinkTemp,
		"temp:motor":    data.MotorTemp,
		"temp:dsp":      data.DSPTemp,
	}).Err(); err != nil {
		return fmt.Errorf("failed to send motor temperatures: %v", err)
	}

	return nil
}

func (tx *IPCTx) SendMotorHealth(data RedisMotorHealth) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	if err := tx.redis.HSet(tx.ctx, "wavesculptor", map[string]interface{}{
		"can-rx-errors": data.CanRxErrors,
		"can-tx-errors": data.CanTxErrors,
		"active-motor":  data.ActiveMotor,
		"limit-flags":   fmt.Sprintf("%04X", data.LimitFlags),
	}).Err(); err != nil {
		return fmt.Errorf("failed to send motor health: %v", err)
	}

	return nil
}

func (tx *IPCTx) SendPackStatus(data RedisPackStatus) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	pipe := tx.redis.Pipeline()

	pipe.HSet(tx.ctx, "bmu", map[string]interface{}{
		"soc:amp-hours":   data.SocAmpHours,
		"soc:percent":     data.SocPercent,
		"pack:voltage-mv": data.PackVoltageMv,
		"pack:current-ma": data.PackCurrentMa,
	})

	// Also publish SOC updates
	pipe.Publish(tx.ctx, "bmu soc", nil)

	_, err := pipe.Exec(tx.ctx)
	if err != nil {
		return fmt.Errorf("failed to send pack status: %v", err)
	}

	return nil
}

func (tx *IPCTx) SendPrechargeStatus(data RedisPrechargeStatus) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	pipe := tx.redis.Pipeline()

	pipe.HSet(tx.ctx, "bmu", map[string]interface{}{
		"precharge:state":         data.State,
		"precharge:supply-mv":     data.SupplyVoltage,
		"precharge:timer-elapsed": map[bool]string{true: "true", false: "false"}[data.TimerElapsed],
		"precharge:timer-counter": data.TimerCounter,
	})

	// Also publish precharge state changes
	pipe.Publish(tx.ctx, "bmu precharge", nil)

	_, err := pipe.Exec(tx.ctx)
	if err != nil {
		return fmt.Errorf("failed to send precharge status: %v", err)
	}

	return nil
}
