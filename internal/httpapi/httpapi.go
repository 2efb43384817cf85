// Package httpapi mounts a small chi introspection server over a running
// Bus/Scheduler/metrics Collector, modelled on walletserver/routes.Register's
// router-construction shape (a plain mux with one middleware and a handful
// of method-scoped routes) but built on chi, already a direct dependency in
// go.mod, rather than gorilla/mux (see DESIGN.md for why mux was dropped).
package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"iotcore/bus"
	"iotcore/scheduler"
)

// Server wires introspection endpoints over a bus, scheduler, and Prometheus
// registry. Fields may be nil; the corresponding endpoint reports zero
// values rather than failing.
type Server struct {
	Bus       *bus.Bus
	Scheduler *scheduler.Scheduler
	log       *logrus.Logger
}

// New builds a Server. log may be nil, in which case the standard logrus
// logger is used, matching middleware/logger.go's package-level use.
func New(b *bus.Bus, s *scheduler.Scheduler, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{Bus: b, Scheduler: s, log: log}
}

// Router builds the chi router exposing /topics, /schedules, and /metrics.
// metricsHandler is typically promhttp.HandlerFor(reg, ...); it is accepted
// as a parameter so the metrics registry stays owned by internal/metrics.
func (s *Server) Router(metricsHandler http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(requestLogger(s.log))

	r.Get("/topics", s.handleTopics)
	r.Get("/schedules", s.handleSchedules)
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	} else {
		r.Handle("/metrics", promhttp.Handler())
	}
	return r
}

func requestLogger(log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.Debugf("%s %s %s", r.Method, r.RequestURI, time.Since(start))
		})
	}
}

type topicsResponse struct {
	Topics []string `json:"topics"`
}

func (s *Server) handleTopics(w http.ResponseWriter, r *http.Request) {
	resp := topicsResponse{}
	if s.Bus != nil {
		resp.Topics = s.Bus.TopicNames()
	}
	writeJSON(w, resp)
}

type schedulesResponse struct {
	QueueDepth int `json:"queue_depth"`
	IdleCount  int `json:"idle_count"`
}

func (s *Server) handleSchedules(w http.ResponseWriter, r *http.Request) {
	resp := schedulesResponse{}
	if s.Scheduler != nil {
		resp.QueueDepth = s.Scheduler.QueueDepth()
		resp.IdleCount = s.Scheduler.IdleCount()
	}
	writeJSON(w, resp)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
