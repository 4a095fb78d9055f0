package main

import (
	"flag"
	"net/http"
	"os"

	"dyno/calculator"
	"dyno/config"
	"dyno/metrics"
	"dyno/render"
	"dyno/server"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

var (
	confPath = flag.String("conf", "conf/config.ini", "配置文件路径")
	mode     = flag.String("mode", "render", "render: 输出性能图; serve: 启动推送服务")
	outDir   = flag.String("out", "", "性能图输出目录，覆盖配置文件")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*confPath)
	if err != nil {
		log.WithError(err).Fatal("读取配置失败")
	}
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.WithError(err).Warn("未知日志级别")
	}

	switch *mode {
	case "render":
		if *outDir != "" {
			cfg.Render.OutDir = *outDir
		}
		if err := renderMaps(cfg); err != nil {
			log.WithError(err).Fatal("输出性能图失败")
		}
	case "serve":
		upgrader.CheckOrigin = func(r *http.Request) bool {
			return true
		}
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
		s := server.NewServer(cfg, upgrader, metrics.NewManager(reg), reg)
		if err := s.Serve(); err != nil {
			log.WithError(err).Fatal("ListenAndServe")
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func renderMaps(cfg *config.Config) error {
	c := calculator.NewCalculator(calculator.Input{
		Spec:          cfg.Motor,
		Calibration:   cfg.Calibration,
		SupplyVoltage: cfg.Drive.SupplyVoltage,
		PeakDutyCycle: cfg.Drive.PeakDutyCycle,
	}, cfg.Calculator.Workers)
	res, err := c.Run()
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"Kt":         res.Kt,
		"Km":         res.Km,
		"peakRPM":    res.PeakRPM,
		"peakTorque": res.PeakTorque,
	}).Info("Motor Performance Maps - " + cfg.Motor.Label)

	var r render.Renderer = render.NewPlotRenderer(cfg.Render.OutDir, cfg.Render.Width, cfg.Render.Height)
	return r.Render(res, render.NewLevels(res, cfg.Render.Voltages))
}
