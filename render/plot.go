package render

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"dyno/calculator"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

const (
	fillColors = 64
	// 单张图最多绘制的格点数（每个方向）
	maxCells = 400

	colorBarWidth = vg.Inch
)

// PlotRenderer 每张性能图输出一个 PNG：色块填充 + 色标 + 分级等值线 + 电压/电流等值线
type PlotRenderer struct {
	OutDir string
	Width  vg.Length
	Height vg.Length
}

func NewPlotRenderer(outDir string, widthInch, heightInch float64) *PlotRenderer {
	return &PlotRenderer{
		OutDir: outDir,
		Width:  vg.Length(widthInch) * vg.Inch,
		Height: vg.Length(heightInch) * vg.Inch,
	}
}

// Render 输出全部性能图
func (pr *PlotRenderer) Render(res *calculator.Result, levels Levels) error {
	if err := os.MkdirAll(pr.OutDir, 0o755); err != nil {
		return err
	}
	for _, panel := range Panels {
		start := time.Now()
		p, bar := pr.Plot(res, panel, levels)
		path := filepath.Join(pr.OutDir, string(panel.Field)+".png")
		if err := pr.save(p, bar, path); err != nil {
			return fmt.Errorf("save %s: %w", path, err)
		}
		log.WithFields(log.Fields{
			"panel": panel.Title,
			"path":  path,
			"cost":  time.Since(start).String(),
		}).Info("输出性能图")
	}
	return nil
}

// Plot 构建一张性能图及其色标
func (pr *PlotRenderer) Plot(res *calculator.Result, panel Panel, levels Levels) (*plot.Plot, *plot.Plot) {
	rows, cols := res.Dims()
	stride := plotStride(rows, cols)
	cm := colorMap(panel.Levels(levels))

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s - %s", panel.Title, res.Input.Spec.Label)
	p.X.Label.Text = "Speed [rpm]"
	p.Y.Label.Text = "Torque [N m]"
	p.Legend.Top = true

	g := newGrid(res.Field(panel.Field), res.Speed, res.Torque, stride)
	if rows > 1 && cols > 1 {
		p.Add(fill(g, cm))
	}
	addIso(p, g, panel.Levels(levels), draw.LineStyle{Color: color.Black, Width: vg.Points(0.5)}, "%.1f")
	p.Legend.Add(panel.Unit)

	v := newGrid(res.RequiredVoltage, res.Speed, res.Torque, stride)
	if addIso(p, v, levels.Voltages, draw.LineStyle{Color: color.White, Width: vg.Points(1)}, "%.0f [V]") {
		p.Legend.Add("Voltage [V]: "+join(levels.Voltages), thumb(color.White, nil))
	}
	dashes := []vg.Length{vg.Points(4), vg.Points(3)}
	i := newGrid(res.MotorCurrent, res.Speed, res.Torque, stride)
	if addIso(p, i, levels.Currents, draw.LineStyle{Color: color.White, Width: vg.Points(1), Dashes: dashes}, "%.0f [A]") {
		p.Legend.Add("Current [A]: "+join(levels.Currents), thumb(color.White, dashes))
	}

	bar := plot.New()
	bar.HideX()
	bar.Y.Label.Text = panel.Unit
	bar.Add(&plotter.ColorBar{ColorMap: cm, Vertical: true, Colors: fillColors})
	return p, bar
}

// save 性能图在左，色标占右侧 colorBarWidth
func (pr *PlotRenderer) save(p, bar *plot.Plot, path string) error {
	img := vgimg.New(pr.Width, pr.Height)
	dc := draw.New(img)
	w := dc.Max.X - dc.Min.X
	p.Draw(draw.Crop(dc, 0, 0, -colorBarWidth, 0))
	bar.Draw(draw.Crop(dc, w-colorBarWidth, 0, 0, 0))

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// colorMap 色块和色标共用，范围取分级两端
func colorMap(levels []float64) palette.ColorMap {
	lo, hi := 0.0, 1.0
	if len(levels) > 1 {
		lo, hi = levels[0], levels[len(levels)-1]
	}
	if hi <= lo {
		hi = lo + 1
	}
	cm := moreland.SmoothBlueRed()
	cm.SetMax(hi)
	cm.SetMin(lo)
	return cm
}

// fill 色块，分级外的值使用两端颜色
func fill(g *grid, cm palette.ColorMap) *plotter.HeatMap {
	pal := cm.Palette(fillColors)
	hm := plotter.NewHeatMap(g, pal)
	hm.Min, hm.Max = cm.Min(), cm.Max()
	colors := pal.Colors()
	hm.Underflow = colors[0]
	hm.Overflow = colors[len(colors)-1]
	return hm
}

// addIso 等值线并标注数值，数据范围内没有分级时不画
func addIso(p *plot.Plot, g *grid, levels []float64, style draw.LineStyle, format string) bool {
	c, r := g.Dims()
	if c < 2 || r < 2 {
		return false
	}
	lo, hi := g.bounds()
	iso := isoLevels(levels, lo, hi)
	if len(iso) == 0 {
		return false
	}
	contour := plotter.NewContour(g, iso, single{style.Color})
	contour.LineStyles = []draw.LineStyle{style}
	p.Add(contour)
	if labels := isoLabels(g, iso, format, style.Color); labels != nil {
		p.Add(labels)
	}
	return true
}

// isoLabels 每个分级取等值线穿过的中间一处标注
func isoLabels(g *grid, iso []float64, format string, c color.Color) *plotter.Labels {
	var xyl plotter.XYLabels
	for _, level := range iso {
		crossings := g.crossings(level)
		if len(crossings) == 0 {
			continue
		}
		xyl.XYs = append(xyl.XYs, crossings[len(crossings)/2])
		xyl.Labels = append(xyl.Labels, fmt.Sprintf(format, level))
	}
	if len(xyl.XYs) == 0 {
		return nil
	}
	labels, err := plotter.NewLabels(xyl)
	if err != nil {
		log.WithError(err).Warn("iso labels")
		return nil
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].Color = c
	}
	return labels
}

// plotStride 抽样步长，保证每个方向不超过 maxCells
func plotStride(rows, cols int) int {
	n := rows
	if cols > n {
		n = cols
	}
	s := n / maxCells
	if n%maxCells != 0 {
		s++
	}
	if s < 1 {
		s = 1
	}
	return s
}

// single 单色调色板
type single struct{ c color.Color }

func (s single) Colors() []color.Color { return []color.Color{s.c} }

// thumb 图例用的线段，不加入绘图
func thumb(c color.Color, dashes []vg.Length) plot.Thumbnailer {
	return &plotter.Line{LineStyle: draw.LineStyle{Color: c, Width: vg.Points(1), Dashes: dashes}}
}

func join(values []float64) string {
	s := make([]string, len(values))
	for i, v := range values {
		s[i] = strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strings.Join(s, " ")
}
