package config

import (
	"fmt"

	"dyno/motor"

	"gopkg.in/ini.v1"
)

// 缺省值为参考电机 TorqueBoards 6355 190 Kv，84V 供电

type Config struct {
	Motor       motor.Spec
	Calibration motor.Calibration
	Drive       Drive
	Calculator  Calculator
	Render      Render
	Server      Server
	LogLevel    string
}

// Drive 供电条件
type Drive struct {
	SupplyVoltage float64 // 供电电压 V
	PeakDutyCycle float64 // 最大占空比 (0, 1]
}

type Calculator struct {
	Workers    int // 按转矩行并行的协程数
	PushStride int // 推送给前端时的抽样步长
	MaxCells   int // 远程参数允许的最大格点数
}

type Render struct {
	OutDir   string
	Width    float64 // 单张图宽度，英寸
	Height   float64
	Voltages []float64 // 电压等值线
}

type Server struct {
	Addr string
}

var (
	defaultErpm     = []float64{18220, 42830}
	defaultCurrent  = []float64{0.29, 0.48}
	defaultVoltages = []float64{22, 37, 44, 52, 60, 67, 74}
)

// Load 读取配置文件
func Load(path string) (*Config, error) {
	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
	}
	return loadCfg(file)
}

// Default 不依赖配置文件的缺省配置
func Default() *Config {
	cfg, err := loadCfg(ini.Empty())
	if err != nil {
		// 缺省值本身不会出错
		panic(err)
	}
	return cfg
}

func loadCfg(file *ini.File) (*Config, error) {
	m := file.Section("motor")
	d := file.Section("drive")
	c := file.Section("calculator")
	r := file.Section("render")

	cfg := &Config{
		Motor: motor.Spec{
			Label:           m.Key("Label").MustString("TorqueBoards 6355 190 Kv"),
			Kv:              m.Key("Kv").MustFloat64(190),
			PolePairs:       m.Key("PolePairs").MustInt(7),
			PhaseResistance: m.Key("PhaseResistance").MustFloat64(0.0177),
			PeakCurrent:     m.Key("PeakCurrent").MustFloat64(2 * 60),
		},
		Drive: Drive{
			SupplyVoltage: d.Key("SupplyVoltage").MustFloat64(84),
			PeakDutyCycle: d.Key("PeakDutyCycle").MustFloat64(0.95),
		},
		Calculator: Calculator{
			Workers:    c.Key("Workers").MustInt(4),
			PushStride: c.Key("PushStride").MustInt(10),
			MaxCells:   c.Key("MaxCells").MustInt(4000000),
		},
		Render: Render{
			OutDir: r.Key("OutDir").MustString("out"),
			Width:  r.Key("Width").MustFloat64(9),
			Height: r.Key("Height").MustFloat64(6),
		},
		Server: Server{
			Addr: file.Section("server").Key("Addr").MustString(":9000"),
		},
		LogLevel: file.Section("log").Key("Level").MustString("info"),
	}

	erpm, err := floatList(file.Section("calibration"), "Erpm", defaultErpm)
	if err != nil {
		return nil, err
	}
	current, err := floatList(file.Section("calibration"), "Current", defaultCurrent)
	if err != nil {
		return nil, err
	}
	if len(erpm) != len(current) {
		return nil, fmt.Errorf("%w: calibration has %d speeds but %d currents", ErrInvalidConfig, len(erpm), len(current))
	}
	for i := range erpm {
		cfg.Calibration.Samples = append(cfg.Calibration.Samples, motor.Sample{Erpm: erpm[i], Current: current[i]})
	}

	if cfg.Render.Voltages, err = floatList(r, "Voltages", defaultVoltages); err != nil {
		return nil, err
	}
	if cfg.Calculator.Workers < 1 {
		return nil, fmt.Errorf("%w: calculator workers must be at least 1", ErrInvalidConfig)
	}
	if cfg.Calculator.PushStride < 1 {
		return nil, fmt.Errorf("%w: push stride must be at least 1", ErrInvalidConfig)
	}
	if cfg.Calculator.MaxCells < 1 {
		return nil, fmt.Errorf("%w: max cells must be at least 1", ErrInvalidConfig)
	}
	return cfg, nil
}

func floatList(section *ini.Section, name string, def []float64) ([]float64, error) {
	if !section.HasKey(name) {
		return append([]float64(nil), def...), nil
	}
	values, err := section.Key(name).StrictFloat64s(",")
	if err != nil {
		return nil, fmt.Errorf("%w: [%s] %s: %v", ErrInvalidConfig, section.Name(), name, err)
	}
	return values, nil
}
