package server

import (
	"encoding/json"
	"fmt"

	"dyno/calculator"
	"dyno/metrics"
	"dyno/model"
	"dyno/render"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// Hub 一个 websocket 会话，请求按顺序处理，回复由单独的协程写出
type Hub struct {
	id       string
	c        calculator.Calculator
	conn     *websocket.Conn
	stride   int
	maxCells int
	voltages []float64
	metrics  *metrics.Manager
	// request
	msg chan model.Msg
	// response
	reply    chan model.Msg
	finished chan struct{}
}

func NewHub(id string, conn *websocket.Conn, c calculator.Calculator) *Hub {
	return &Hub{
		id:       id,
		c:        c,
		conn:     conn,
		stride:   1,
		maxCells: 4000000,
		msg:      make(chan model.Msg, 10),
		reply:    make(chan model.Msg, 10),
		finished: make(chan struct{}),
	}
}

func (h *Hub) handleResponse() {
	defer close(h.finished)
	for reply := range h.reply {
		if err := h.conn.WriteJSON(&reply); err != nil {
			log.WithField("session", h.id).WithError(err).Warn("write failed")
		}
	}
}

func (h *Hub) handleRequest() {
	defer close(h.reply)
	for msg := range h.msg {
		h.reply <- h.handle(msg)
	}
}

func (h *Hub) handle(msg model.Msg) model.Msg {
	switch msg.Type {
	case model.TypeEnv:
		if err := h.setEnv(msg.Content); err != nil {
			return errorMsg(err)
		}
		return model.Msg{Type: model.TypeEnvSet, Content: "env is set"}
	case model.TypeStart:
		content, err := h.run()
		if err != nil {
			return errorMsg(err)
		}
		return model.Msg{Type: model.TypeStarted, Content: content}
	case model.TypeStop:
		return model.Msg{Type: model.TypeStopped, Content: "stopped"}
	default:
		log.WithField("session", h.id).WithField("type", msg.Type).Warn("no such type")
		return errorMsg(fmt.Errorf("no such type: %q", msg.Type))
	}
}

// setEnv 参数校验通过且网格不超过上限时才替换当前参数
func (h *Hub) setEnv(content string) error {
	var env model.Env
	if err := json.Unmarshal([]byte(content), &env); err != nil {
		return fmt.Errorf("decode env: %w", err)
	}
	input := calculator.Input{
		Spec:          env.Motor.Spec(),
		Calibration:   env.CalibrationData(),
		SupplyVoltage: env.Drive.SupplyVoltage,
		PeakDutyCycle: env.Drive.PeakDutyCycle,
	}
	if err := input.Validate(); err != nil {
		if h.metrics != nil {
			h.metrics.ObserveError(err)
		}
		return err
	}
	if err := h.checkGrid(input); err != nil {
		if h.metrics != nil {
			h.metrics.ObserveError(err)
		}
		return err
	}
	h.c.SetSpec(input.Spec)
	h.c.SetCalibration(input.Calibration)
	h.c.SetSupplyVoltage(input.SupplyVoltage)
	h.c.SetPeakDutyCycle(input.PeakDutyCycle)
	return nil
}

func (h *Hub) checkGrid(input calculator.Input) error {
	cells := calculator.GridCells(input.Spec.PeakRPM(input.SupplyVoltage), input.Spec.PeakTorque())
	if cells > float64(h.maxCells) {
		log.WithFields(log.Fields{
			"session":  h.id,
			"cells":    cells,
			"maxCells": h.maxCells,
		}).Warn("grid too large")
		return fmt.Errorf("%w: %.0f cells, limit %d", ErrGridTooLarge, cells, h.maxCells)
	}
	return nil
}

func (h *Hub) run() (string, error) {
	res, err := h.c.Run()
	if err != nil {
		if h.metrics != nil {
			h.metrics.ObserveError(err)
		}
		return "", err
	}
	if h.metrics != nil {
		rows, cols := res.Dims()
		h.metrics.ObserveRun(res.Cost, rows, cols)
	}
	data, err := h.c.BuildData(h.stride)
	if err != nil {
		return "", err
	}
	data.Voltages = h.voltages
	data.Currents = render.TargetCurrents(res.Input.Spec.PeakCurrent)
	b, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func errorMsg(err error) model.Msg {
	return model.Msg{Type: model.TypeError, Content: err.Error()}
}
