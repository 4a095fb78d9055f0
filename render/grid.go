package render

import (
	"dyno/calculator"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot/plotter"
)

// grid 把性能图适配为 plotter.GridXYZ，列为转速，行为转矩
// stride 抽样，最后一行和最后一列总是保留
type grid struct {
	z    *mat.Dense
	x, y []float64
	cols []int
	rows []int
}

func newGrid(z *mat.Dense, speed, torque []float64, stride int) *grid {
	return &grid{
		z:    z,
		x:    speed,
		y:    torque,
		cols: calculator.SampleIndex(len(speed), stride),
		rows: calculator.SampleIndex(len(torque), stride),
	}
}

func (g *grid) Dims() (c, r int)   { return len(g.cols), len(g.rows) }
func (g *grid) Z(c, r int) float64 { return g.z.At(g.rows[r], g.cols[c]) }
func (g *grid) X(c int) float64    { return g.x[g.cols[c]] }
func (g *grid) Y(r int) float64    { return g.y[g.rows[r]] }

// bounds 抽样后的最小值和最大值
func (g *grid) bounds() (lo, hi float64) {
	c, r := g.Dims()
	lo, hi = g.Z(0, 0), g.Z(0, 0)
	for i := 0; i < c; i++ {
		for j := 0; j < r; j++ {
			v := g.Z(i, j)
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	return lo, hi
}

// crossings 相邻格点之间穿过 level 的位置，线性插值
func (g *grid) crossings(level float64) plotter.XYs {
	var xys plotter.XYs
	c, r := g.Dims()
	for j := 0; j < r; j++ {
		for i := 0; i < c; i++ {
			a := g.Z(i, j)
			if i+1 < c {
				if b := g.Z(i+1, j); crosses(a, b, level) {
					t := (level - a) / (b - a)
					xys = append(xys, plotter.XY{X: g.X(i) + t*(g.X(i+1)-g.X(i)), Y: g.Y(j)})
				}
			}
			if j+1 < r {
				if b := g.Z(i, j+1); crosses(a, b, level) {
					t := (level - a) / (b - a)
					xys = append(xys, plotter.XY{X: g.X(i), Y: g.Y(j) + t*(g.Y(j+1)-g.Y(j))})
				}
			}
		}
	}
	return xys
}

func crosses(a, b, level float64) bool {
	return a != b && (a-level)*(b-level) <= 0
}
