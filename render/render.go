package render

import (
	"dyno/calculator"
)

// Renderer 展示层，只读计算结果，不影响计算
type Renderer interface {
	Render(res *calculator.Result, levels Levels) error
}

// Panel 一张性能图
type Panel struct {
	Field  calculator.FieldName
	Title  string
	Unit   string
	Levels func(l Levels) []float64
}

// Panels 与原始性能图布局一致：效率、总损耗、铜损、铁损、输出功率
var Panels = []Panel{
	{calculator.Efficiency, "Efficiency Map", "Efficiency [%]", func(l Levels) []float64 { return l.Efficiency }},
	{calculator.TotalLoss, "Total Losses", "Losses [W]", func(l Levels) []float64 { return l.Loss }},
	{calculator.CopperLoss, "Copper Losses", "Copper Losses [W]", func(l Levels) []float64 { return l.Loss }},
	{calculator.CoreLoss, "Core Losses", "Core Losses [W]", func(l Levels) []float64 { return l.Loss }},
	{calculator.OutputPower, "Output Power", "Output Power [W]", func(l Levels) []float64 { return l.OutputPower }},
}
