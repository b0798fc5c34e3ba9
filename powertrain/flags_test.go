package powertrain

import "testing"

func TestErrorFlagsFromBits(t *testing.T) {
	tests := []struct {
		bits uint16
		want ErrorFlags
		ok   bool
	}{
		{0x0000, 0, true},
		{0x0001, ErrorHardwareOverCurrent, true},
		{0x01FF, errorFlagsMask, true},
		{0x0100, ErrorMotorOverSpeed, true},
		{0x0200, 0, false}, // bit 9 reserved
		{0x8000, 0, false},
		{0x0201, 0, false}, // valid bit mixed with reserved bit
	}

	for _, tt := range tests {
		got, ok := ErrorFlagsFromBits(tt.bits)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ErrorFlagsFromBits(0x%04X) = (0x%04X, %v), want (0x%04X, %v)",
				tt.bits, uint16(got), ok, uint16(tt.want), tt.ok)
		}
	}
}

func TestLimitFlagsFromBits(t *testing.T) {
	tests := []struct {
		bits uint16
		want LimitFlags
		ok   bool
	}{
		{0x0000, 0, true},
		{0x0001, LimitOutputVoltagePWM, true},
		{0x007F, limitFlagsMask, true},
		{0x0080, 0, false}, // bit 7 reserved
		{0x0081, 0, false},
	}

	for _, tt := range tests {
		got, ok := LimitFlagsFromBits(tt.bits)
		if ok != tt.ok || got != tt.want {
			t.Errorf("LimitFlagsFromBits(0x%04X) = (0x%04X, %v), want (0x%04X, %v)",
				tt.bits, uint16(got), ok, uint16(tt.want), tt.ok)
		}
	}
}

func TestContactorDriverStatusFromBits(t *testing.T) {
	tests := []struct {
		bits uint8
		want ContactorDriverStatus
		ok   bool
	}{
		{0x00, 0, true},
		{0x05, Contactor1DriverError | Contactor1OutputOn, true},
		{0x7F, contactorDriverStatusMask, true},
		{0x80, 0, false}, // bit 7 reserved
		{0x81, 0, false},
	}

	for _, tt := range tests {
		got, ok := ContactorDriverStatusFromBits(tt.bits)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ContactorDriverStatusFromBits(0x%02X) = (0x%02X, %v), want (0x%02X, %v)",
				tt.bits, uint8(got), ok, uint8(tt.want), tt.ok)
		}
	}
}

func TestFlagsHas(t *testing.T) {
	flags := ErrorFlags(0x05)
	if !flags.Has(ErrorHardwareOverCurrent) || !flags.Has(ErrorDCBusOverCurrent) {
		t.Error("expected bits 0 and 2 set")
	}
	if flags.Has(ErrorSoftwareOverCurrent) {
		t.Error("bit 1 should not be set")
	}
	if flags.Has(ErrorHardwareOverCurrent | ErrorSoftwareOverCurrent) {
		t.Error("Has must require all bits of the queried flag")
	}
}

func TestPrechargeStateFromByte(t *testing.T) {
	tests := []struct {
		value uint8
		want  PrechargeState
		ok    bool
	}{
		{0, PrechargeError, true},
		{1, PrechargeIdle, true},
		{2, PrechargeMeasure, true},
		{3, PrechargePrecharge, true},
		{4, PrechargeRun, true},
		{5, PrechargeEnablePack, true},
		{6, 0, false},
		{0xFF, 0, false},
	}

	for _, tt := range tests {
		got, ok := PrechargeStateFromByte(tt.value)
		if ok != tt.ok || got != tt.want {
			t.Errorf("PrechargeStateFromByte(%d) = (%v, %v), want (%v, %v)",
				tt.value, got, ok, tt.want, tt.ok)
		}
	}
}

func TestPrechargeStateString(t *testing.T) {
	if PrechargeRun.String() != "run" {
		t.Errorf("expected \"run\", got %q", PrechargeRun.String())
	}
	if PrechargeState(99).String() != "unknown" {
		t.Errorf("expected \"unknown\", got %q", PrechargeState(99).String())
	}
}

func TestGetFaultConfig(t *testing.T) {
	config, ok := GetFaultConfig(ErrorHardwareOverCurrent)
	if !ok {
		t.Fatal("hardware over-current should have a fault config")
	}
	if config.Severity != SeverityCritical {
		t.Errorf("hardware over-current should be critical, got %v", config.Severity)
	}

	if _, ok := GetFaultConfig(ErrorFlags(0x8000)); ok {
		t.Error("reserved bits should have no fault config")
	}
}

func TestAllErrorFlagsCovered(t *testing.T) {
	var combined ErrorFlags
	for _, flag := range AllErrorFlags {
		if _, ok := GetFaultConfig(flag); !ok {
			t.Errorf("flag 0x%04X has no fault config", uint16(flag))
		}
		combined |= flag
	}
	if combined != errorFlagsMask {
		t.Errorf("AllErrorFlags covers 0x%04X, want 0x%04X", uint16(combined), uint16(errorFlagsMask))
	}
}
