package motor

import (
	"fmt"
	"math"
)

// 电机铭牌参数 + 空载标定数据

// 单位约定
// 1. 转速 rpm（机械转速），标定数据为 erpm（电转速）
// 2. 转矩 N·m，电流 A，电阻 Ω，功率 W

const (
	// KtFactor Kt = KtFactor / Kv，60 / (2π) ≈ 9.55
	KtFactor = 9.55
	// RpmToRadPerSec rpm 转换为 rad/s
	RpmToRadPerSec = 2 * math.Pi / 60
	// PhaseFactor 三相铜损系数，P = 1.5 * R * I^2
	PhaseFactor = 1.5
)

type Spec struct {
	Label           string  // 铭牌名称
	Kv              float64 // 速度常数 rpm/V
	PolePairs       int     // 极对数
	PhaseResistance float64 // 相电阻 Ω
	PeakCurrent     float64 // 峰值电流 A
}

// Sample 一组空载标定数据
type Sample struct {
	Erpm    float64 // 电转速
	Current float64 // 空载电流
}

type Calibration struct {
	Samples []Sample
}

// Validate 校验铭牌参数
func (s Spec) Validate() error {
	if !positive(s.Kv) {
		return fmt.Errorf("%w: Kv must be positive, got %v", ErrInvalidSpec, s.Kv)
	}
	if s.PolePairs < 1 {
		return fmt.Errorf("%w: pole pairs must be at least 1, got %d", ErrInvalidSpec, s.PolePairs)
	}
	if !positive(s.PhaseResistance) {
		return fmt.Errorf("%w: phase resistance must be positive, got %v", ErrInvalidSpec, s.PhaseResistance)
	}
	if !positive(s.PeakCurrent) {
		return fmt.Errorf("%w: peak current must be positive, got %v", ErrInvalidSpec, s.PeakCurrent)
	}
	return nil
}

// positive 有限正数，NaN 与 Inf 均不通过
func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

// Kt 转矩常数 N·m/A
func (s Spec) Kt() float64 {
	return KtFactor / s.Kv
}

// Km 电机常数，只用于选型参考
func (s Spec) Km() float64 {
	return s.Kt() / math.Sqrt(PhaseFactor*s.PhaseResistance)
}

// PeakRPM 给定供电电压下的空载转速上限
func (s Spec) PeakRPM(supplyVoltage float64) float64 {
	return supplyVoltage * s.Kv
}

// PeakTorque 峰值电流对应的转矩
func (s Spec) PeakTorque() float64 {
	return s.PeakCurrent * s.Kt()
}

// MechanicalRPM 电转速换算为机械转速
func (c Calibration) MechanicalRPM(polePairs int) []float64 {
	rpm := make([]float64, len(c.Samples))
	for i, s := range c.Samples {
		rpm[i] = s.Erpm / float64(polePairs)
	}
	return rpm
}

func (c Calibration) Currents() []float64 {
	current := make([]float64, len(c.Samples))
	for i, s := range c.Samples {
		current[i] = s.Current
	}
	return current
}

// Validate 至少两个不同转速的标定点，否则线性拟合无解
func (c Calibration) Validate() error {
	if len(c.Samples) < 2 {
		return fmt.Errorf("%w: need at least 2 calibration samples, got %d", ErrInvalidSpec, len(c.Samples))
	}
	for i, s := range c.Samples {
		if math.IsNaN(s.Erpm) || math.IsInf(s.Erpm, 0) || math.IsNaN(s.Current) || math.IsInf(s.Current, 0) {
			return fmt.Errorf("%w: calibration sample %d is not finite", ErrInvalidSpec, i)
		}
	}
	first := c.Samples[0].Erpm
	for _, s := range c.Samples[1:] {
		if s.Erpm != first {
			return nil
		}
	}
	return fmt.Errorf("%w: calibration speeds must not all be equal (%v erpm)", ErrInvalidSpec, first)
}
