package powertrain

import (
	"encoding/binary"
	"testing"

	"github.com/brutella/can"
)

func TestBmuHeartbeat_Parse(t *testing.T) {
	bmu := NewBmu(0x620)
	data := make([]byte, 8)
	binary.LittleEndian.PutUint32(data[0:4], 0x00424D55)
	binary.LittleEndian.PutUint32(data[4:8], 12345)

	if err := bmu.HandleFrame(makeCANFrame(0x620, data)); err != nil {
		t.Fatalf("HandleFrame error: %v", err)
	}

	status := bmu.Status()
	if !status.DeviceIdentifier.Valid || status.DeviceIdentifier.Value != 0x00424D55 {
		t.Errorf("device identifier: got %+v", status.DeviceIdentifier)
	}
	if !status.DeviceSerialNumber.Valid || status.DeviceSerialNumber.Value != 12345 {
		t.Errorf("serial number: got %+v", status.DeviceSerialNumber)
	}
}

func TestBmuSoc_Parse(t *testing.T) {
	bmu := NewBmu(0x620)
	data := make([]byte, 8)
	putF32(data[0:4], 54.3) // amp-hours
	putF32(data[4:8], 0.81) // fraction

	bmu.HandleFrame(makeCANFrame(0x620+BmuSocOffset, data))

	status := bmu.Status()
	if !status.SocAmpHours.Valid || status.SocAmpHours.Value != 54.3 {
		t.Errorf("SOC amp-hours: got %+v", status.SocAmpHours)
	}
	if !status.SocPercent.Valid || status.SocPercent.Value != 0.81 {
		t.Errorf("SOC percent: got %+v", status.SocPercent)
	}
}

func TestBmuBalanceSoc_Parse(t *testing.T) {
	bmu := NewBmu(0x620)
	data := make([]byte, 8)
	putF32(data[0:4], 1.25)
	putF32(data[4:8], 0.02)

	bmu.HandleFrame(makeCANFrame(0x620+BmuBalanceSocOffset, data))

	status := bmu.Status()
	if !status.BalanceSocAmpHours.Valid || status.BalanceSocAmpHours.Value != 1.25 {
		t.Errorf("balance SOC amp-hours: got %+v", status.BalanceSocAmpHours)
	}
	if !status.BalanceSocPercent.Valid || status.BalanceSocPercent.Value != 0.02 {
		t.Errorf("balance SOC percent: got %+v", status.BalanceSocPercent)
	}
}

func TestBmuChargerControl_Parse(t *testing.T) {
	bmu := NewBmu(0x620)
	data := make([]byte, 8)
	binary.LittleEndian.PutUint16(data[0:2], 150)
	binary.LittleEndian.PutUint16(data[2:4], 25)
	binary.LittleEndian.PutUint16(data[4:6], 0xAAAA)
	binary.LittleEndian.PutUint16(data[6:8], 0xBBBB)

	bmu.HandleFrame(makeCANFrame(0x620+BmuChargerControlOffset, data))

	status := bmu.Status()
	if !status.ChargingCellVoltageError.Valid || status.ChargingCellVoltageError.Value != 150 {
		t.Errorf("charging cell voltage error: got %+v", status.ChargingCellVoltageError)
	}
	if !status.CellTemperatureMargin.Valid || status.CellTemperatureMargin.Value != 25 {
		t.Errorf("cell temperature margin: got %+v", status.CellTemperatureMargin)
	}
	// Bytes 6-7 win over bytes 4-5; the trailing word never lands in
	// TotalPackCapacity.
	if !status.DischargingCellVoltageError.Valid || status.DischargingCellVoltageError.Value != 0xBBBB {
		t.Errorf("discharging cell voltage error: got %+v", status.DischargingCellVoltageError)
	}
	if status.TotalPackCapacity.Valid {
		t.Errorf("total pack capacity should stay absent, got %+v", status.TotalPackCapacity)
	}
}

func TestBmuPrecharge_Parse(t *testing.T) {
	bmu := NewBmu(0x620)
	data := []byte{0x05, 0x03, 0xE8, 0x03, 0x00, 0x00, 0x01, 0x07}

	if err := bmu.HandleFrame(makeCANFrame(0x627, data)); err != nil {
		t.Fatalf("HandleFrame error: %v", err)
	}

	status := bmu.Status()
	if !status.ContactorDriverStatus.Valid {
		t.Fatal("contactor driver status should be set")
	}
	contactors := status.ContactorDriverStatus.Value
	if !contactors.Has(Contactor1DriverError) || !contactors.Has(Contactor1OutputOn) {
		t.Errorf("contactor status: expected contactor 1 error+output, got 0x%02X", uint8(contactors))
	}
	if contactors.Has(Contactor2DriverError) || contactors.Has(ContactorSupplyOK) {
		t.Errorf("contactor status: unexpected bits set: 0x%02X", uint8(contactors))
	}
	if !status.PrechargeState.Valid || status.PrechargeState.Value != PrechargePrecharge {
		t.Errorf("precharge state: got %+v", status.PrechargeState)
	}
	if !status.ContactorSupplyVoltage.Valid || status.ContactorSupplyVoltage.Value != 0x03E8 {
		t.Errorf("contactor supply voltage: got %+v", status.ContactorSupplyVoltage)
	}
	if !status.PrechargeTimerElapsed.Valid || !status.PrechargeTimerElapsed.Value {
		t.Errorf("precharge timer elapsed: got %+v", status.PrechargeTimerElapsed)
	}
	if !status.PrechargeTimerCounter.Valid || status.PrechargeTimerCounter.Value != 7 {
		t.Errorf("precharge timer counter: got %+v", status.PrechargeTimerCounter)
	}
}

func TestBmuPrecharge_ReservedContactorBit(t *testing.T) {
	bmu := NewBmu(0x620)
	data := []byte{0x85, 0x04, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}

	bmu.HandleFrame(makeCANFrame(0x627, data))

	status := bmu.Status()
	if status.ContactorDriverStatus.Valid {
		t.Errorf("contactor status should be absent for reserved bit 0x80, got %+v",
			status.ContactorDriverStatus)
	}
	// The rest of the frame still lands.
	if !status.PrechargeState.Valid || status.PrechargeState.Value != PrechargeRun {
		t.Errorf("precharge state: got %+v", status.PrechargeState)
	}
}

func TestBmuPrecharge_UnknownStateByte(t *testing.T) {
	bmu := NewBmu(0x620)
	data := []byte{0x10, 0x09, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}

	bmu.HandleFrame(makeCANFrame(0x627, data))

	status := bmu.Status()
	if status.PrechargeState.Valid {
		t.Errorf("precharge state should be absent for unknown byte 9, got %+v",
			status.PrechargeState)
	}
	if !status.ContactorDriverStatus.Valid || status.ContactorDriverStatus.Value != ContactorSupplyOK {
		t.Errorf("contactor status: got %+v", status.ContactorDriverStatus)
	}
}

func TestBmuPackVoltageCurrent_Parse(t *testing.T) {
	bmu := NewBmu(0x620)
	data := make([]byte, 8)
	binary.LittleEndian.PutUint32(data[0:4], 134500) // mV
	binary.LittleEndian.PutUint32(data[4:8], 21250)  // mA

	bmu.HandleFrame(makeCANFrame(0x620+BmuPackVoltCurrentOffset, data))

	status := bmu.Status()
	if !status.PackVoltageMv.Valid || status.PackVoltageMv.Value != 134500 {
		t.Errorf("pack voltage: got %+v", status.PackVoltageMv)
	}
	if !status.PackCurrentMa.Valid || status.PackCurrentMa.Value != 21250 {
		t.Errorf("pack current: got %+v", status.PackCurrentMa)
	}
}

func TestBmuExtendedFrameIgnored(t *testing.T) {
	bmu := NewBmu(0x620)
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}

	if err := bmu.HandleFrame(makeExtendedCANFrame(0x620, data)); err != nil {
		t.Fatalf("extended frame should not error: %v", err)
	}

	if bmu.Status() != (BmuStatus{}) {
		t.Error("extended frame must not mutate the snapshot")
	}
}

func TestBmuBelowBaseIgnored(t *testing.T) {
	bmu := NewBmu(0x620)
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}

	if err := bmu.HandleFrame(makeCANFrame(0x61F, data)); err != nil {
		t.Fatalf("below-base frame should not error: %v", err)
	}

	if bmu.Status() != (BmuStatus{}) {
		t.Error("below-base frame must not mutate the snapshot")
	}
}

func TestBmuUndecodedOffsetsIgnored(t *testing.T) {
	bmu := NewBmu(0x620)
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}

	// CMU band, min/max cell frames and the status/fan frames currently
	// carry no decoders.
	for _, offset := range []uint16{0x01, 0x05, 0x09, 0xF8, 0xF9, 0xFB, 0xFC, 0xFD, 0x42} {
		if err := bmu.HandleFrame(makeCANFrame(uint32(0x620+offset), data)); err != nil {
			t.Fatalf("offset 0x%X should not error: %v", offset, err)
		}
	}

	if bmu.Status() != (BmuStatus{}) {
		t.Error("undecoded offsets must not mutate the snapshot")
	}
}

func TestBmuEmptyPayloadIgnored(t *testing.T) {
	bmu := NewBmu(0x620)

	if err := bmu.HandleFrame(makeCANFrame(0x627, nil)); err != nil {
		t.Fatalf("empty payload should not error: %v", err)
	}

	if bmu.Status() != (BmuStatus{}) {
		t.Error("empty payload must not mutate the snapshot")
	}
}

func TestBmuDeterministic(t *testing.T) {
	soc := make([]byte, 8)
	putF32(soc[0:4], 54.3)
	putF32(soc[4:8], 0.81)

	frames := []can.Frame{
		makeCANFrame(0x620, []byte{0x55, 0x4D, 0x42, 0x00, 0x39, 0x30, 0x00, 0x00}),
		makeCANFrame(0x620+BmuSocOffset, soc),
		makeCANFrame(0x627, []byte{0x05, 0x03, 0xE8, 0x03, 0x00, 0x00, 0x01, 0x07}),
	}

	a := NewBmu(0x620)
	b := NewBmu(0x620)
	for _, frame := range frames {
		a.HandleFrame(frame)
		b.HandleFrame(frame)
	}

	if a.Status() != b.Status() {
		t.Error("identical frame sequences must yield identical snapshots")
	}
}
