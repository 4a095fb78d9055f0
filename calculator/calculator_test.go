package calculator

import (
	"errors"
	"math"
	"sync"
	"testing"

	"dyno/motor"

	. "github.com/smartystreets/goconvey/convey"
	"gonum.org/v1/gonum/mat"
)

func referenceInput() Input {
	return Input{
		Spec: motor.Spec{
			Label:           "TorqueBoards 6355 190 Kv",
			Kv:              190,
			PolePairs:       7,
			PhaseResistance: 0.0177,
			PeakCurrent:     120,
		},
		Calibration: motor.Calibration{Samples: []motor.Sample{
			{Erpm: 18220, Current: 0.29},
			{Erpm: 42830, Current: 0.48},
		}},
		SupplyVoltage: 84,
		PeakDutyCycle: 0.95,
	}
}

var (
	referenceOnce   sync.Once
	referenceResult *Result
)

// 参考电机的结果较大，只算一次
func reference(t *testing.T) *Result {
	referenceOnce.Do(func() {
		res, err := Compute(referenceInput(), 4)
		if err != nil {
			t.Fatal(err)
		}
		referenceResult = res
	})
	return referenceResult
}

func TestCompute(t *testing.T) {
	res := reference(t)

	Convey("Given the reference motor at 84 V", t, func() {
		Convey("Peak values and axes follow the nameplate", func() {
			So(res.PeakRPM, ShouldEqual, 15960.0)
			So(res.PeakTorque, ShouldAlmostEqual, 6.03, 0.01)
			So(res.Kt, ShouldAlmostEqual, 0.0503, 1e-4)
			So(res.Speed, ShouldHaveLength, 1596)
			So(res.Torque, ShouldHaveLength, 603)
			So(res.Speed[0], ShouldEqual, 0.0)
			So(res.Speed[len(res.Speed)-1], ShouldEqual, res.PeakRPM)
			So(res.Torque[len(res.Torque)-1], ShouldEqual, res.PeakTorque)
		})

		Convey("Every field has the axis shape", func() {
			for _, name := range FieldNames {
				r, c := res.Field(name).Dims()
				So(r, ShouldEqual, len(res.Torque))
				So(c, ShouldEqual, len(res.Speed))
			}
		})

		Convey("The origin draws no voltage and has zero efficiency", func() {
			So(res.RequiredVoltage.At(0, 0), ShouldEqual, 0.0)
			So(res.Efficiency.At(0, 0), ShouldEqual, 0.0)
		})

		Convey("Efficiency stays within 0..100 percent", func() {
			rows, cols := res.Dims()
			ok := true
			for i := 0; i < rows && ok; i++ {
				for k := 0; k < cols; k++ {
					if total := res.TotalLoss.At(i, k) + res.OutputPower.At(i, k); total > 0 {
						if e := res.Efficiency.At(i, k); e < 0 || e > 100 {
							ok = false
							break
						}
					}
				}
			}
			So(ok, ShouldBeTrue)
		})

		Convey("Output power vanishes at zero torque and at standstill", func() {
			rows, cols := res.Dims()
			for k := 0; k < cols; k++ {
				So(res.OutputPower.At(0, k), ShouldEqual, 0.0)
			}
			for i := 0; i < rows; i++ {
				So(res.OutputPower.At(i, 0), ShouldEqual, 0.0)
			}
		})

		Convey("Motor current never decreases with torque", func() {
			rows, cols := res.Dims()
			ok := true
			for k := 0; k < cols && ok; k++ {
				for i := 1; i < rows; i++ {
					if res.MotorCurrent.At(i, k) < res.MotorCurrent.At(i-1, k) {
						ok = false
						break
					}
				}
			}
			So(ok, ShouldBeTrue)
		})

		Convey("Core loss does not depend on load", func() {
			rows, _ := res.Dims()
			So(mat.Equal(res.CoreLoss.RowView(0), res.CoreLoss.RowView(rows-1)), ShouldBeTrue)
		})

		Convey("A single cell matches the loss model", func() {
			i, k := 300, 800
			torque, rpm := res.Torque[i], res.Speed[k]
			in := res.Input
			coreTorque := res.Fit.Intercept + res.Fit.Slope*rpm
			current := (torque + coreTorque) / res.Kt
			output := torque * rpm * 2 * math.Pi / 60
			copper := 1.5 * in.Spec.PhaseResistance * current * current
			core := coreTorque * rpm * 2 * math.Pi / 60
			So(res.TotalTorque.At(i, k), ShouldAlmostEqual, torque+coreTorque, 1e-12)
			So(res.MotorCurrent.At(i, k), ShouldAlmostEqual, current, 1e-9)
			So(res.OutputPower.At(i, k), ShouldAlmostEqual, output, 1e-9)
			So(res.CopperLoss.At(i, k), ShouldAlmostEqual, copper, 1e-9)
			So(res.CoreLoss.At(i, k), ShouldAlmostEqual, core, 1e-9)
			So(res.TotalLoss.At(i, k), ShouldAlmostEqual, core+copper, 1e-9)
			So(res.Efficiency.At(i, k), ShouldAlmostEqual, 100*output/(output+core+copper), 1e-9)
			So(res.RequiredVoltage.At(i, k), ShouldAlmostEqual,
				(rpm/in.Spec.Kv+in.Spec.PhaseResistance*current)/in.PeakDutyCycle, 1e-9)
		})
	})
}

func TestComputeIdempotent(t *testing.T) {
	Convey("Computing twice with the same input gives identical grids", t, func() {
		in := referenceInput()
		in.SupplyVoltage = 20
		a, err := Compute(in, 1)
		So(err, ShouldBeNil)
		b, err := Compute(in, 7)
		So(err, ShouldBeNil)
		So(b.Speed, ShouldResemble, a.Speed)
		So(b.Torque, ShouldResemble, a.Torque)
		for _, name := range FieldNames {
			So(mat.Equal(a.Field(name), b.Field(name)), ShouldBeTrue)
		}
	})
}

func TestComputeInvalid(t *testing.T) {
	Convey("Given invalid inputs", t, func() {
		cases := []struct {
			name   string
			mutate func(in *Input)
		}{
			{"equal calibration speeds", func(in *Input) {
				in.Calibration.Samples[1].Erpm = in.Calibration.Samples[0].Erpm
			}},
			{"one calibration sample", func(in *Input) { in.Calibration.Samples = in.Calibration.Samples[:1] }},
			{"zero supply voltage", func(in *Input) { in.SupplyVoltage = 0 }},
			{"infinite supply voltage", func(in *Input) { in.SupplyVoltage = math.Inf(1) }},
			{"zero duty cycle", func(in *Input) { in.PeakDutyCycle = 0 }},
			{"duty cycle above one", func(in *Input) { in.PeakDutyCycle = 1.2 }},
			{"zero Kv", func(in *Input) { in.Spec.Kv = 0 }},
			{"zero pole pairs", func(in *Input) { in.Spec.PolePairs = 0 }},
			{"negative resistance", func(in *Input) { in.Spec.PhaseResistance = -0.1 }},
			{"zero peak current", func(in *Input) { in.Spec.PeakCurrent = 0 }},
		}
		for _, c := range cases {
			in := referenceInput()
			c.mutate(&in)
			Convey(c.name+" fails with ErrInvalidSpec", func() {
				res, err := Compute(in, 2)
				So(res, ShouldBeNil)
				So(errors.Is(err, motor.ErrInvalidSpec), ShouldBeTrue)
			})
		}
	})
}

func TestComputeDegenerate(t *testing.T) {
	Convey("Given a grid too small for a single step", t, func() {
		in := referenceInput()
		in.SupplyVoltage = 0.01 // 1.9 rpm
		in.Spec.PeakCurrent = 0.1
		res, err := Compute(in, 4)
		So(err, ShouldBeNil)

		Convey("Both axes collapse to the origin", func() {
			So(res.Speed, ShouldResemble, []float64{0})
			So(res.Torque, ShouldResemble, []float64{0})
			for _, name := range FieldNames {
				r, c := res.Field(name).Dims()
				So(r, ShouldEqual, 1)
				So(c, ShouldEqual, 1)
			}
			So(res.Efficiency.At(0, 0), ShouldEqual, 0.0)
		})
	})
}

func TestComputeNegativeIntercept(t *testing.T) {
	Convey("Given a calibration whose fitted line crosses zero above standstill", t, func() {
		in := Input{
			Spec: motor.Spec{
				Label:           "steep calibration",
				Kv:              190,
				PolePairs:       1,
				PhaseResistance: 0.0177,
				PeakCurrent:     10,
			},
			// 拟合结果 I = -0.3 + 4e-4 * rpm，750 rpm 以下为负
			Calibration: motor.Calibration{Samples: []motor.Sample{
				{Erpm: 1000, Current: 0.1},
				{Erpm: 2000, Current: 0.5},
			}},
			SupplyVoltage: 12,
			PeakDutyCycle: 0.95,
		}
		res, err := Compute(in, 3)
		So(err, ShouldBeNil)
		So(res.Fit.Intercept, ShouldAlmostEqual, -0.3, 1e-9)
		So(res.Fit.Slope, ShouldAlmostEqual, 4e-4, 1e-12)

		Convey("Core loss is never negative", func() {
			So(mat.Min(res.CoreLoss), ShouldBeGreaterThanOrEqualTo, 0.0)
			So(res.CoreLoss.At(0, 1), ShouldEqual, 0.0)
		})

		Convey("Efficiency stays within 0..100 percent", func() {
			rows, cols := res.Dims()
			ok := true
			for i := 0; i < rows && ok; i++ {
				for k := 0; k < cols; k++ {
					if total := res.TotalLoss.At(i, k) + res.OutputPower.At(i, k); total > 0 {
						if e := res.Efficiency.At(i, k); e < 0 || e > 100 {
							ok = false
							break
						}
					}
				}
			}
			So(ok, ShouldBeTrue)
		})

		Convey("Above the zero crossing the fitted line applies", func() {
			k := len(res.Speed) - 1
			rpm := res.Speed[k]
			So(rpm, ShouldBeGreaterThan, 750.0)
			So(res.TotalTorque.At(0, k), ShouldAlmostEqual, -0.3+4e-4*rpm, 1e-9)
		})
	})

	Convey("Fitted core-loss torque is clamped at zero", t, func() {
		fit := motor.CoreLossFit{Intercept: -0.3, Slope: 4e-4}
		So(coreLossTorque(fit, 0), ShouldEqual, 0.0)
		So(coreLossTorque(fit, 10), ShouldEqual, 0.0)
		So(coreLossTorque(fit, 1000), ShouldAlmostEqual, 0.1, 1e-12)
	})
}

func TestAxes(t *testing.T) {
	Convey("Axes are evenly spaced and strictly increasing", t, func() {
		speed := SpeedAxis(1000)
		So(speed, ShouldHaveLength, 100)
		So(speed[0], ShouldEqual, 0.0)
		So(speed[99], ShouldEqual, 1000.0)
		for i := 1; i < len(speed); i++ {
			So(speed[i], ShouldBeGreaterThan, speed[i-1])
		}

		torque := TorqueAxis(1.5)
		So(torque, ShouldHaveLength, 150)
		So(torque[149], ShouldEqual, 1.5)
	})

	Convey("Axes shorter than one step keep only zero", t, func() {
		So(SpeedAxis(9.9), ShouldResemble, []float64{0})
		So(TorqueAxis(0.015), ShouldResemble, []float64{0})
	})

	Convey("Grid cells are estimated without building the axes", t, func() {
		So(GridCells(1000, 1.5), ShouldEqual, float64(len(SpeedAxis(1000))*len(TorqueAxis(1.5))))
		So(GridCells(9.9, 0.015), ShouldEqual, 1.0)
		So(GridCells(1.9e11, 5), ShouldEqual, 1.9e10*500)
		So(GridCells(math.Inf(1), 1), ShouldEqual, math.Inf(1))
	})
}

func TestSplitTasks(t *testing.T) {
	Convey("Every row is dispatched exactly once", t, func() {
		for _, total := range []int{0, 1, 3, 7, 8, 100, 603} {
			for _, workers := range []int{1, 2, 3, 4, 16} {
				seen := make([]int, total)
				for _, tk := range splitTasks(total, workers) {
					So(tk.end, ShouldBeGreaterThan, tk.start)
					for i := tk.start; i < tk.end; i++ {
						seen[i]++
					}
				}
				for _, n := range seen {
					So(n, ShouldEqual, 1)
				}
			}
		}
	})

	Convey("The executor runs every task", t, func() {
		var mu sync.Mutex
		rows := 0
		newExecutor(3).dispatchTask(50, func(tk task) {
			mu.Lock()
			rows += tk.end - tk.start
			mu.Unlock()
		})
		So(rows, ShouldEqual, 50)
	})
}
