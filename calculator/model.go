package calculator

import (
	"time"

	"dyno/motor"

	"gonum.org/v1/gonum/mat"
)

// Input 一次计算所需的全部参数，计算过程中只读
type Input struct {
	Spec          motor.Spec
	Calibration   motor.Calibration
	SupplyVoltage float64 // 供电电压 V
	PeakDutyCycle float64 // 最大占空比 (0, 1]
}

// FieldName 性能图名称
type FieldName string

const (
	TotalTorque     FieldName = "total_torque"     // 总转矩 N·m
	MotorCurrent    FieldName = "motor_current"    // 电机电流 A
	OutputPower     FieldName = "output_power"     // 输出功率 W
	CopperLoss      FieldName = "copper_loss"      // 铜损 W
	CoreLoss        FieldName = "core_loss"        // 铁损 W
	TotalLoss       FieldName = "total_loss"       // 总损耗 W
	Efficiency      FieldName = "efficiency"       // 效率 %
	RequiredVoltage FieldName = "required_voltage" // 所需电压 V
)

// FieldNames 固定顺序，推送和绘图都按这个顺序
var FieldNames = []FieldName{
	Efficiency, TotalLoss, CopperLoss, CoreLoss, OutputPower, RequiredVoltage, MotorCurrent, TotalTorque,
}

// Result 计算结果
// 所有矩阵形状均为 (len(Torque), len(Speed))，行为转矩，列为转速
type Result struct {
	Input Input

	Kt         float64
	Km         float64
	Fit        motor.CoreLossFit
	PeakRPM    float64
	PeakTorque float64
	Cost       time.Duration // 网格计算耗时

	Speed  []float64 // 转速轴 rpm
	Torque []float64 // 转矩轴 N·m

	TotalTorque     *mat.Dense
	MotorCurrent    *mat.Dense
	OutputPower     *mat.Dense
	CopperLoss      *mat.Dense
	CoreLoss        *mat.Dense
	TotalLoss       *mat.Dense
	Efficiency      *mat.Dense
	RequiredVoltage *mat.Dense
}

// Dims 返回 (转矩点数, 转速点数)
func (r *Result) Dims() (int, int) {
	return len(r.Torque), len(r.Speed)
}

// Field 按名称取性能图，未知名称返回 nil
func (r *Result) Field(name FieldName) *mat.Dense {
	switch name {
	case TotalTorque:
		return r.TotalTorque
	case MotorCurrent:
		return r.MotorCurrent
	case OutputPower:
		return r.OutputPower
	case CopperLoss:
		return r.CopperLoss
	case CoreLoss:
		return r.CoreLoss
	case TotalLoss:
		return r.TotalLoss
	case Efficiency:
		return r.Efficiency
	case RequiredVoltage:
		return r.RequiredVoltage
	}
	return nil
}
