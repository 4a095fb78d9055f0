package model

import (
	"dyno/motor"
)

// 前后端通信消息结构
type Msg struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// 消息类型
const (
	TypeEnv     = "env"
	TypeStart   = "start"
	TypeStop    = "stop"
	TypeEnvSet  = "envSet"
	TypeStarted = "started"
	TypeStopped = "stopped"
	TypeError   = "error"
)

// Env 前端下发的电机及供电参数
type Env struct {
	Motor       MotorCfg `json:"motor"`
	Calibration []Sample `json:"calibration"`
	Drive       DriveCfg `json:"drive"`
}

// 电机铭牌
type MotorCfg struct {
	Label           string  `json:"label"`
	Kv              float64 `json:"kv"`
	PolePairs       int     `json:"pole_pairs"`
	PhaseResistance float64 `json:"phase_resistance"`
	PeakCurrent     float64 `json:"peak_current"`
}

// 空载标定点
type Sample struct {
	Erpm    float64 `json:"erpm"`
	Current float64 `json:"current"`
}

// 供电条件
type DriveCfg struct {
	SupplyVoltage float64 `json:"supply_voltage"`
	PeakDutyCycle float64 `json:"peak_duty_cycle"`
}

func (m MotorCfg) Spec() motor.Spec {
	return motor.Spec{
		Label:           m.Label,
		Kv:              m.Kv,
		PolePairs:       m.PolePairs,
		PhaseResistance: m.PhaseResistance,
		PeakCurrent:     m.PeakCurrent,
	}
}

func (e Env) CalibrationData() motor.Calibration {
	c := motor.Calibration{Samples: make([]motor.Sample, len(e.Calibration))}
	for i, s := range e.Calibration {
		c.Samples[i] = motor.Sample{Erpm: s.Erpm, Current: s.Current}
	}
	return c
}
