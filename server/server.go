package server

import (
	"net/http"

	"dyno/calculator"
	"dyno/config"
	"dyno/metrics"
	"dyno/model"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

type Server struct {
	addr     string
	upgrader websocket.Upgrader
	cfg      *config.Config
	metrics  *metrics.Manager
	gatherer prometheus.Gatherer
}

// NewServer gatherer 为 /metrics 的数据来源，需与 metrics 使用同一个注册表
func NewServer(cfg *config.Config, upgrader websocket.Upgrader, m *metrics.Manager, gatherer prometheus.Gatherer) *Server {
	return &Server{
		addr:     cfg.Server.Addr,
		upgrader: upgrader,
		cfg:      cfg,
		metrics:  m,
		gatherer: gatherer,
	}
}

// serveWs handles websocket requests from the peer.
func (s *Server) serveWs(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	input := calculator.Input{
		Spec:          s.cfg.Motor,
		Calibration:   s.cfg.Calibration,
		SupplyVoltage: s.cfg.Drive.SupplyVoltage,
		PeakDutyCycle: s.cfg.Drive.PeakDutyCycle,
	}
	hub := NewHub(uuid.NewString(), conn, calculator.NewCalculator(input, s.cfg.Calculator.Workers))
	hub.stride = s.cfg.Calculator.PushStride
	hub.maxCells = s.cfg.Calculator.MaxCells
	hub.voltages = s.cfg.Render.Voltages
	hub.metrics = s.metrics

	logger := log.WithField("session", hub.id)
	logger.WithField("remote", r.RemoteAddr).Info("session opened")
	s.metrics.SessionOpened()
	defer s.metrics.SessionClosed()

	go hub.handleRequest()
	go hub.handleResponse()
	for {
		var msg model.Msg
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.WithError(err).Warn("read failed")
			}
			break
		}
		hub.msg <- msg
	}
	close(hub.msg)
	<-hub.finished
	logger.Info("session closed")
}

// Handler websocket 与指标接口
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWs)
	mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return mux
}

func (s *Server) Serve() error {
	log.WithField("addr", s.addr).Info("listening")
	return http.ListenAndServe(s.addr, s.Handler())
}
