package calculator

import (
	"time"

	"dyno/motor"

	log "github.com/sirupsen/logrus"
)

// PushData 推送给前端的性能图，按步长抽样以减小数据量
type PushData struct {
	Label      string            `json:"label"`
	Kt         float64           `json:"kt"`
	Km         float64           `json:"km"`
	Fit        motor.CoreLossFit `json:"fit"`
	PeakRPM    float64           `json:"peak_rpm"`
	PeakTorque float64           `json:"peak_torque"`
	Stride     int               `json:"stride"`

	Speed  []float64                 `json:"speed"`
	Torque []float64                 `json:"torque"`
	Fields map[FieldName][][]float64 `json:"fields"`

	// 叠加在图上的电压、电流等值线
	Voltages []float64 `json:"voltages,omitempty"`
	Currents []float64 `json:"currents,omitempty"`
}

// BuildData 每 stride 个点取一个，最后一行和最后一列总是保留
func BuildData(res *Result, stride int) PushData {
	start := time.Now()
	if stride < 1 {
		stride = 1
	}
	rows := SampleIndex(len(res.Torque), stride)
	cols := SampleIndex(len(res.Speed), stride)

	data := PushData{
		Label:      res.Input.Spec.Label,
		Kt:         res.Kt,
		Km:         res.Km,
		Fit:        res.Fit,
		PeakRPM:    res.PeakRPM,
		PeakTorque: res.PeakTorque,
		Stride:     stride,
		Speed:      pick(res.Speed, cols),
		Torque:     pick(res.Torque, rows),
		Fields:     make(map[FieldName][][]float64, len(FieldNames)),
	}
	for _, name := range FieldNames {
		field := res.Field(name)
		grid := make([][]float64, len(rows))
		for y, i := range rows {
			grid[y] = pick(field.RawRowView(i), cols)
		}
		data.Fields[name] = grid
	}
	log.WithFields(log.Fields{
		"stride": stride,
		"rows":   len(rows),
		"cols":   len(cols),
		"cost":   time.Since(start).String(),
	}).Debug("build data")
	return data
}

// SampleIndex 0..n-1 中每 stride 个取一个，最后一个总是保留
func SampleIndex(n, stride int) []int {
	if stride < 1 {
		stride = 1
	}
	index := make([]int, 0, n/stride+2)
	for i := 0; i < n; i += stride {
		index = append(index, i)
	}
	if n > 0 && index[len(index)-1] != n-1 {
		index = append(index, n-1)
	}
	return index
}

func pick(values []float64, index []int) []float64 {
	res := make([]float64, len(index))
	for i, idx := range index {
		res[i] = values[idx]
	}
	return res
}
