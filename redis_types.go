package main

// Redis message types for motor controller status updates
type RedisMotorStatus struct {
	BusVoltage      float32 // volts
	BusCurrent      float32 // amps
	MotorVelocity   float32 // RPM
	VehicleVelocity float32 // m/s
}

type RedisMotorTemps struct {
	HeatsinkTemp float32
	MotorTemp    float32
	DSPTemp      float32
}

type RedisMotorHealth struct {
	CanRxErrors uint8
	CanTxErrors uint8
	ActiveMotor uint16
	LimitFlags  uint16
}

// Redis message types for battery pack status updates
type RedisPackStatus struct {
	SocAmpHours   float32
	SocPercent    float32
	PackVoltageMv uint32
	PackCurrentMa uint32
}

type RedisPrechargeStatus struct {
	State         string
	SupplyVoltage uint16
	TimerElapsed  bool
	TimerCounter  uint8
}
