package calculator

import (
	"errors"

	"dyno/motor"

	log "github.com/sirupsen/logrus"
)

// calculator 的接口定义

type Calculator interface {
	// 设置电机与供电参数
	SetSpec(spec motor.Spec)
	SetCalibration(calibration motor.Calibration)
	SetSupplyVoltage(supplyVoltage float64)
	SetPeakDutyCycle(peakDutyCycle float64)
	Input() Input

	// 运行，参数不变时重复运行得到相同结果
	Run() (*Result, error)

	// 最近一次运行结果
	Result() *Result

	// 构建推送数据
	BuildData(stride int) (*PushData, error)
}

// ErrNotComputed 尚未运行就请求推送数据
var ErrNotComputed = errors.New("performance maps not computed")

type calculator struct {
	input   Input
	workers int
	result  *Result
}

func NewCalculator(input Input, workers int) Calculator {
	return &calculator{
		input:   input,
		workers: workers,
	}
}

func (c *calculator) SetSpec(spec motor.Spec) {
	c.input.Spec = spec
	c.result = nil
	log.WithFields(log.Fields{
		"Label":           spec.Label,
		"Kv":              spec.Kv,
		"PolePairs":       spec.PolePairs,
		"PhaseResistance": spec.PhaseResistance,
		"PeakCurrent":     spec.PeakCurrent,
	}).Info("设置电机参数")
}

func (c *calculator) SetCalibration(calibration motor.Calibration) {
	c.input.Calibration = calibration
	c.result = nil
	log.WithField("samples", len(calibration.Samples)).Info("设置空载标定数据")
}

func (c *calculator) SetSupplyVoltage(supplyVoltage float64) {
	c.input.SupplyVoltage = supplyVoltage
	c.result = nil
	log.WithField("SupplyVoltage", supplyVoltage).Info("设置供电电压")
}

func (c *calculator) SetPeakDutyCycle(peakDutyCycle float64) {
	c.input.PeakDutyCycle = peakDutyCycle
	c.result = nil
	log.WithField("PeakDutyCycle", peakDutyCycle).Info("设置最大占空比")
}

func (c *calculator) Input() Input {
	return c.input
}

func (c *calculator) Run() (*Result, error) {
	res, err := Compute(c.input, c.workers)
	if err != nil {
		log.WithError(err).Warn("计算参数错误")
		return nil, err
	}
	c.result = res
	rows, cols := res.Dims()
	log.WithFields(log.Fields{
		"motor": c.input.Spec.Label,
		"Km":    res.Km,
		"rows":  rows,
		"cols":  cols,
		"cost":  res.Cost.String(),
	}).Info("性能图计算完成")
	return res, nil
}

func (c *calculator) Result() *Result {
	return c.result
}

func (c *calculator) BuildData(stride int) (*PushData, error) {
	if c.result == nil {
		return nil, ErrNotComputed
	}
	data := BuildData(c.result, stride)
	return &data, nil
}
