package motor

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// CoreLossFit 空载（铁损）电流随转速的一次拟合: I = Intercept + Slope * rpm
type CoreLossFit struct {
	Intercept float64 `json:"intercept"`
	Slope     float64 `json:"slope"`
}

// FitCoreLoss 最小二乘一次拟合，rpm 为机械转速
func FitCoreLoss(rpm, current []float64) (CoreLossFit, error) {
	if len(rpm) != len(current) {
		return CoreLossFit{}, fmt.Errorf("%w: %d speeds but %d currents", ErrInvalidSpec, len(rpm), len(current))
	}
	if distinct(rpm) < 2 {
		return CoreLossFit{}, fmt.Errorf("%w: need at least 2 distinct calibration speeds", ErrInvalidSpec)
	}
	alpha, beta := stat.LinearRegression(rpm, current, nil, false)
	return CoreLossFit{Intercept: alpha, Slope: beta}, nil
}

// At 给定机械转速下的空载电流
func (f CoreLossFit) At(rpm float64) float64 {
	return f.Intercept + f.Slope*rpm
}

func distinct(values []float64) int {
	seen := make(map[float64]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	return len(seen)
}
