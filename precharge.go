package main

import (
	"sync"

	"powertrain-service/powertrain"
)

// PrechargeMonitor tracks the precharge sequence reported by the battery
// management unit and gates drive commands until the pack contactors are
// closed and healthy.
type PrechargeMonitor struct {
	log        *LeveledLogger
	state      powertrain.Optional[powertrain.PrechargeState]
	contactors powertrain.Optional[powertrain.ContactorDriverStatus]
	mu         sync.RWMutex
}

func NewPrechargeMonitor(logger *LeveledLogger) *PrechargeMonitor {
	return &PrechargeMonitor{
		log: logger,
	}
}

func (p *PrechargeMonitor) Destroy() {}

// Update absorbs the latest battery snapshot.
func (p *PrechargeMonitor) Update(status powertrain.BmuStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if status.PrechargeState != p.state {
		if status.PrechargeState.Valid {
			p.log.Info("Precharge state changed to: %s", status.PrechargeState.Value)
		} else {
			p.log.Warn("Precharge state no longer reported")
		}
	}

	p.state = status.PrechargeState
	p.contactors = status.ContactorDriverStatus
}

// ReadyToDrive reports whether the pack has completed precharge with
// healthy contactor drivers. Unreported state counts as not ready.
func (p *PrechargeMonitor) ReadyToDrive() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.state.Valid || p.state.Value != powertrain.PrechargeRun {
		return false
	}
	if !p.contactors.Valid {
		return false
	}

	contactors := p.contactors.Value
	if contactors.Has(powertrain.Contactor1DriverError) ||
		contactors.Has(powertrain.Contactor2DriverError) ||
		contactors.Has(powertrain.Contactor3DriverError) {
		return false
	}

	return contactors.Has(powertrain.ContactorSupplyOK)
}

// State returns the latest precharge state for publication, or "unknown"
// when the pack has not reported one yet.
func (p *PrechargeMonitor) State() string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.state.Valid {
		return "unknown"
	}
	return p.state.Value.String()
}
