package calculator

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// 网格划分
// 1. 转速方向 约 10 rpm 一格
// 2. 转矩方向 约 0.01 N·m 一格
// 两端都包含，点数向下取整，至少保留 0 这一个点

const (
	SpeedStep         = 10.0  // rpm
	TorquePointsPerNm = 100.0 // 0.01 N·m
)

// SpeedAxis 0 到 peakRPM 的转速轴
func SpeedAxis(peakRPM float64) []float64 {
	return linspace(peakRPM, int(math.Floor(peakRPM/SpeedStep)))
}

// TorqueAxis 0 到 peakTorque 的转矩轴
func TorqueAxis(peakTorque float64) []float64 {
	return linspace(peakTorque, int(math.Floor(peakTorque*TorquePointsPerNm)))
}

// GridCells 按与坐标轴相同的取整规则估算格点数，不分配内存
// 用 float64 返回，超大输入不会溢出
func GridCells(peakRPM, peakTorque float64) float64 {
	return axisLen(peakRPM/SpeedStep) * axisLen(peakTorque*TorquePointsPerNm)
}

func axisLen(points float64) float64 {
	n := math.Floor(points)
	if !(n >= 2) {
		return 1
	}
	return n
}

func linspace(peak float64, n int) []float64 {
	if n < 2 {
		return []float64{0}
	}
	axis := floats.Span(make([]float64, n), 0, peak)
	axis[n-1] = peak
	return axis
}
