package calculator

import (
	"fmt"
	"math"

	"dyno/motor"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

// 稳态性能图计算
// 1. 空载电流按转速线性拟合，作为铁损等效转矩，只与转速有关
// 2. 总转矩 = 负载转矩 + 铁损等效转矩，决定电流与铜损
// 3. 输出功率只计负载转矩

// Validate 校验计算参数
func (in Input) Validate() error {
	if err := in.Spec.Validate(); err != nil {
		return err
	}
	if err := in.Calibration.Validate(); err != nil {
		return err
	}
	if !(in.SupplyVoltage > 0) || math.IsInf(in.SupplyVoltage, 1) {
		return fmt.Errorf("%w: supply voltage must be positive, got %v", motor.ErrInvalidSpec, in.SupplyVoltage)
	}
	if !(in.PeakDutyCycle > 0) || in.PeakDutyCycle > 1 {
		return fmt.Errorf("%w: peak duty cycle must be in (0, 1], got %v", motor.ErrInvalidSpec, in.PeakDutyCycle)
	}
	return nil
}

// Compute 计算全部性能图，相同输入得到逐位相同的结果
func Compute(in Input, workers int) (*Result, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	spec := in.Spec
	fit, err := motor.FitCoreLoss(in.Calibration.MechanicalRPM(spec.PolePairs), in.Calibration.Currents())
	if err != nil {
		return nil, err
	}

	res := &Result{
		Input:      in,
		Kt:         spec.Kt(),
		Km:         spec.Km(),
		Fit:        fit,
		PeakRPM:    spec.PeakRPM(in.SupplyVoltage),
		PeakTorque: spec.PeakTorque(),
	}
	res.Speed = SpeedAxis(res.PeakRPM)
	res.Torque = TorqueAxis(res.PeakTorque)
	rows, cols := res.Dims()

	// 铁损只与转速有关，按列预先算好，每一行共用
	coreTorque := make([]float64, cols)
	corePower := make([]float64, cols)
	for k, rpm := range res.Speed {
		coreTorque[k] = coreLossTorque(fit, rpm)
		corePower[k] = coreTorque[k] * rpm * motor.RpmToRadPerSec
	}

	res.TotalTorque = mat.NewDense(rows, cols, nil)
	res.MotorCurrent = mat.NewDense(rows, cols, nil)
	res.OutputPower = mat.NewDense(rows, cols, nil)
	res.CopperLoss = mat.NewDense(rows, cols, nil)
	res.CoreLoss = mat.NewDense(rows, cols, nil)
	res.TotalLoss = mat.NewDense(rows, cols, nil)
	res.Efficiency = mat.NewDense(rows, cols, nil)
	res.RequiredVoltage = mat.NewDense(rows, cols, nil)

	kt, r, kv, duty := res.Kt, spec.PhaseResistance, spec.Kv, in.PeakDutyCycle
	res.Cost = newExecutor(workers).dispatchTask(rows, func(t task) {
		for i := t.start; i < t.end; i++ {
			torque := res.Torque[i]
			totalTorque := res.TotalTorque.RawRowView(i)
			current := res.MotorCurrent.RawRowView(i)
			output := res.OutputPower.RawRowView(i)
			copper := res.CopperLoss.RawRowView(i)
			core := res.CoreLoss.RawRowView(i)
			loss := res.TotalLoss.RawRowView(i)
			efficiency := res.Efficiency.RawRowView(i)
			voltage := res.RequiredVoltage.RawRowView(i)
			for k, rpm := range res.Speed {
				totalTorque[k] = torque + coreTorque[k]
				current[k] = totalTorque[k] / kt
				output[k] = torque * rpm * motor.RpmToRadPerSec
				copper[k] = motor.PhaseFactor * r * current[k] * current[k]
				core[k] = corePower[k]
				loss[k] = core[k] + copper[k]
				if total := loss[k] + output[k]; total != 0 {
					efficiency[k] = 100 * output[k] / total
				}
				voltage[k] = (rpm/kv + r*current[k]) / duty
			}
		}
	})

	log.WithFields(log.Fields{
		"motor":      spec.Label,
		"Kt":         res.Kt,
		"Km":         res.Km,
		"intercept":  fit.Intercept,
		"slope":      fit.Slope,
		"peakRPM":    res.PeakRPM,
		"peakTorque": res.PeakTorque,
		"rows":       rows,
		"cols":       cols,
		"cost":       res.Cost.String(),
	}).Debug("性能图计算完成")
	return res, nil
}

// coreLossTorque 静止时没有铁损，转动时按拟合值计算
// 拟合截距为负时低速段会小于 0，按 0 处理，铁损功率不为负
func coreLossTorque(fit motor.CoreLossFit, rpm float64) float64 {
	if rpm == 0 {
		return 0
	}
	return math.Max(0, fit.At(rpm))
}
