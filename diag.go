package main

import (
	"context"
	"sync"

	"powertrain-service/powertrain"

	"github.com/go-redis/redis/v8"
)

const (
	diagGroupName           = "wavesculptor"
	diagFaultSetKey         = "wavesculptor:fault"
	diagEventStream         = "events:faults"
	diagEventStreamMaxLen   = 1000
	diagNotificationChannel = "wavesculptor"
)

type Diag struct {
	log         *LeveledLogger
	redis       *redis.Client
	mu          sync.RWMutex
	faultStates map[powertrain.ErrorFlags]bool
	ctx         context.Context
}

func NewDiag(logger *LeveledLogger, redis *redis.Client) *Diag {
	return &Diag{
		log:         logger,
		redis:       redis,
		faultStates: make(map[powertrain.ErrorFlags]bool),
		ctx:         context.Background(),
	}
}

func (d *Diag) Destroy() {}

// SetFaults reconciles the error flags reported by the motor controller
// with the fault set in Redis. An absent flag word means the last status
// frame carried reserved bits, in which case the fault set is left as is.
func (d *Diag) SetFaults(flags powertrain.Optional[powertrain.ErrorFlags]) {
	if !flags.Valid {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, flag := range powertrain.AllErrorFlags {
		newPresent := flags.Value.Has(flag)
		wasPresent := d.faultStates[flag]

		if newPresent == wasPresent {
			continue
		}

		d.faultStates[flag] = newPresent

		config, ok := powertrain.GetFaultConfig(flag)
		if !ok {
			continue
		}

		if newPresent {
			d.log.Info("Fault set: code=0x%04X, description=%s", uint16(flag), config.Description)
			d.reportFaultPresent(flag, config)
		} else {
			d.log.Info("Fault cleared: code=0x%04X, description=%s", uint16(flag), config.Description)
			d.reportFaultAbsent(flag)
		}
	}
}

func (d *Diag) reportFaultPresent(flag powertrain.ErrorFlags, config powertrain.FaultConfig) {
	pipe := d.redis.Pipeline()

	pipe.SAdd(d.ctx, diagFaultSetKey, uint32(flag))

	pipe.XAdd(d.ctx, &redis.XAddArgs{
		Stream: diagEventStream,
		MaxLen: diagEventStreamMaxLen,
		Values: map[string]interface{}{
			"group":       diagGroupName,
			"code":        uint32(flag),
			"description": config.Description,
		},
	})

	pipe.Publish(d.ctx, diagNotificationChannel, "fault")

	if _, err := pipe.Exec(d.ctx); err != nil {
		d.log.Error("Failed to report fault present: %v", err)
	}
}

func (d *Diag) reportFaultAbsent(flag powertrain.ErrorFlags) {
	pipe := d.redis.Pipeline()

	pipe.SRem(d.ctx, diagFaultSetKey, uint32(flag))

	pipe.XAdd(d.ctx, &redis.XAddArgs{
		Stream: diagEventStream,
		MaxLen: diagEventStreamMaxLen,
		Values: map[string]interface{}{
			"group": diagGroupName,
			"code":  -int32(flag),
		},
	})

	pipe.Publish(d.ctx, diagNotificationChannel, "fault")

	if _, err := pipe.Exec(d.ctx); err != nil {
		d.log.Error("Failed to report fault absent: %v", err)
	}
}
