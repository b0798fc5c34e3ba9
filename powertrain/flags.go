package powertrain

// ErrorFlags is the WaveSculptor error flag word. Bits 9-15 are reserved.
type ErrorFlags uint16

const (
	ErrorHardwareOverCurrent      ErrorFlags = 1 << 0
	ErrorSoftwareOverCurrent      ErrorFlags = 1 << 1
	ErrorDCBusOverCurrent         ErrorFlags = 1 << 2
	ErrorBadMotorPositionSequence ErrorFlags = 1 << 3
	ErrorWatchdogCausedLastReset  ErrorFlags = 1 << 4
	ErrorConfigReadError          ErrorFlags = 1 << 5
	ErrorRail15vUVLO              ErrorFlags = 1 << 6
	ErrorDesaturationFault        ErrorFlags = 1 << 7
	ErrorMotorOverSpeed           ErrorFlags = 1 << 8

	errorFlagsMask ErrorFlags = 0x01FF
)

// ErrorFlagsFromBits validates a raw flag word. Words with reserved bits
// set return ok=false.
func ErrorFlagsFromBits(bits uint16) (ErrorFlags, bool) {
	if bits&^uint16(errorFlagsMask) != 0 {
		return 0, false
	}
	return ErrorFlags(bits), true
}

// Has reports whether all bits of flag are set.
func (f ErrorFlags) Has(flag ErrorFlags) bool {
	return f&flag == flag
}

// LimitFlags is the WaveSculptor control-loop limit word. Bits 7-15 are
// reserved.
type LimitFlags uint16

const (
	LimitOutputVoltagePWM LimitFlags = 1 << 0
	LimitMotorCurrent     LimitFlags = 1 << 1
	LimitVelocity         LimitFlags = 1 << 2
	LimitBusCurrent       LimitFlags = 1 << 3
	LimitBusVoltageUpper  LimitFlags = 1 << 4
	LimitBusVoltageLower  LimitFlags = 1 << 5
	LimitTemperature      LimitFlags = 1 << 6

	limitFlagsMask LimitFlags = 0x007F
)

// LimitFlagsFromBits validates a raw limit word. Words with reserved bits
// set return ok=false.
func LimitFlagsFromBits(bits uint16) (LimitFlags, bool) {
	if bits&^uint16(limitFlagsMask) != 0 {
		return 0, false
	}
	return LimitFlags(bits), true
}

// Has reports whether all bits of flag are set.
func (f LimitFlags) Has(flag LimitFlags) bool {
	return f&flag == flag
}

// ContactorDriverStatus is the BMU precharge controller contactor driver
// byte. Bit 0x80 is reserved.
type ContactorDriverStatus uint8

const (
	Contactor1DriverError ContactorDriverStatus = 0x01
	Contactor2DriverError ContactorDriverStatus = 0x02
	Contactor1OutputOn    ContactorDriverStatus = 0x04
	Contactor2OutputOn    ContactorDriverStatus = 0x08
	ContactorSupplyOK     ContactorDriverStatus = 0x10
	Contactor3DriverError ContactorDriverStatus = 0x20
	Contactor3OutputOn    ContactorDriverStatus = 0x40

	contactorDriverStatusMask ContactorDriverStatus = 0x7F
)

// ContactorDriverStatusFromBits validates a raw status byte. Bytes with the
// reserved bit set return ok=false.
func ContactorDriverStatusFromBits(bits uint8) (ContactorDriverStatus, bool) {
	if bits&^uint8(contactorDriverStatusMask) != 0 {
		return 0, false
	}
	return ContactorDriverStatus(bits), true
}

// Has reports whether all bits of flag are set.
func (s ContactorDriverStatus) Has(flag ContactorDriverStatus) bool {
	return s&flag == flag
}

// FaultSeverity classifies an error flag for reporting purposes.
type FaultSeverity int

const (
	SeverityWarning FaultSeverity = iota
	SeverityCritical
)

// FaultConfig describes a single error flag for fault reporting.
type FaultConfig struct {
	Flag        ErrorFlags
	Description string
	Severity    FaultSeverity
}

var faultConfigs = map[ErrorFlags]FaultConfig{
	ErrorHardwareOverCurrent:      {ErrorHardwareOverCurrent, "Hardware over-current", SeverityCritical},
	ErrorSoftwareOverCurrent:      {ErrorSoftwareOverCurrent, "Software over-current", SeverityCritical},
	ErrorDCBusOverCurrent:         {ErrorDCBusOverCurrent, "DC bus over-current", SeverityCritical},
	ErrorBadMotorPositionSequence: {ErrorBadMotorPositionSequence, "Bad motor position hall sequence", SeverityCritical},
	ErrorWatchdogCausedLastReset:  {ErrorWatchdogCausedLastReset, "Watchdog caused last reset", SeverityWarning},
	ErrorConfigReadError:          {ErrorConfigReadError, "Config read error", SeverityCritical},
	ErrorRail15vUVLO:              {ErrorRail15vUVLO, "15V rail under-voltage lockout", SeverityCritical},
	ErrorDesaturationFault:        {ErrorDesaturationFault, "Desaturation fault", SeverityCritical},
	ErrorMotorOverSpeed:           {ErrorMotorOverSpeed, "Motor over-speed", SeverityCritical},
}

// AllErrorFlags lists every defined error flag bit, for iteration by fault
// reporters.
var AllErrorFlags = []ErrorFlags{
	ErrorHardwareOverCurrent,
	ErrorSoftwareOverCurrent,
	ErrorDCBusOverCurrent,
	ErrorBadMotorPositionSequence,
	ErrorWatchdogCausedLastReset,
	ErrorConfigReadError,
	ErrorRail15vUVLO,
	ErrorDesaturationFault,
	ErrorMotorOverSpeed,
}

// GetFaultConfig returns the reporting description of an error flag.
func GetFaultConfig(flag ErrorFlags) (FaultConfig, bool) {
	config, ok := faultConfigs[flag]
	return config, ok
}
