package render

import (
	"dyno/calculator"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	efficiencyStep = 5.0
	mapLevels      = 20
)

// 峰值电流的 1/4、1/2、3/4 和满值
var currentFractions = []float64{0.25, 0.5, 0.75, 1}

// Levels 等值线分级
type Levels struct {
	Efficiency  []float64 `json:"efficiency"`
	Loss        []float64 `json:"loss"` // 总损耗、铜损、铁损共用
	OutputPower []float64 `json:"output_power"`
	Voltages    []float64 `json:"voltages"`
	Currents    []float64 `json:"currents"`
}

// NewLevels 按计算结果生成分级，voltages 为需要标注的电压
func NewLevels(res *calculator.Result, voltages []float64) Levels {
	l := Levels{
		Loss:        span(mat.Max(res.TotalLoss)),
		OutputPower: span(mat.Max(res.OutputPower)),
		Voltages:    append([]float64(nil), voltages...),
		Currents:    TargetCurrents(res.Input.Spec.PeakCurrent),
	}
	for v := 0.0; v <= 100; v += efficiencyStep {
		l.Efficiency = append(l.Efficiency, v)
	}
	return l
}

// TargetCurrents 电流等值线
func TargetCurrents(peakCurrent float64) []float64 {
	currents := make([]float64, len(currentFractions))
	for i, f := range currentFractions {
		currents[i] = peakCurrent * f
	}
	return currents
}

// span 0 到 peak 均分，peak 不为正时没有分级
func span(peak float64) []float64 {
	if !(peak > 0) {
		return nil
	}
	return floats.Span(make([]float64, mapLevels), 0, peak)
}

// isoLevels 只保留落在数据范围内的分级
// 只剩一个时补上 hi，保证分级区间不为零
func isoLevels(levels []float64, lo, hi float64) []float64 {
	res := make([]float64, 0, len(levels))
	for _, v := range levels {
		if v > lo && v < hi {
			res = append(res, v)
		}
	}
	if len(res) == 1 {
		res = append(res, hi)
	}
	return res
}
