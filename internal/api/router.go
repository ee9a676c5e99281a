package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/farmwatch/farmwatch/internal/metrics"
	"github.com/farmwatch/farmwatch/internal/models"
	"github.com/farmwatch/farmwatch/internal/monitoring"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Simulation is the driver control surface exposed over HTTP
type Simulation interface {
	Start() error
	Stop()
	IsRunning() bool
}

// Server adapts the monitoring state to HTTP
type Server struct {
	monitoring *monitoring.Service
	simulation Simulation
}

// NewRouter wires every endpoint. m may be nil, in which case /metrics is not served.
func NewRouter(monitoringService *monitoring.Service, simulation Simulation, m *metrics.Metrics) *mux.Router {
	s := &Server{
		monitoring: monitoringService,
		simulation: simulation,
	}

	router := mux.NewRouter()
	router.HandleFunc("/health", s.healthCheckHandler).Methods(http.MethodGet)
	if m != nil {
		router.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	}

	router.HandleFunc("/api/detections", s.detectionsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/alerts", s.alertsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/alerts/read-all", s.markAllAlertsReadHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/alerts/{id}/read", s.markAlertReadHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/stats", s.statsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/feeds", s.feedsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/summary", s.summaryHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/simulation", s.simulationHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/simulation/start", s.startSimulationHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/simulation/stop", s.stopSimulationHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/display-mode", s.displayModeHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/display-mode/toggle", s.toggleDisplayModeHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/events", s.eventsHandler).Methods(http.MethodGet)

	return router
}

type alertsResponse struct {
	Alerts []models.Alert `json:"alerts"`
	Unread int            `json:"unread"`
}

type markAllResponse struct {
	Marked int `json:"marked"`
	Unread int `json:"unread"`
}

type simulationResponse struct {
	Running bool `json:"running"`
}

type displayModeResponse struct {
	DarkMode bool `json:"darkMode"`
}

func (s *Server) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (s *Server) detectionsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.monitoring.Detections())
}

func (s *Server) alertsHandler(w http.ResponseWriter, r *http.Request) {
	filter, err := alertFilterFromQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, alertsResponse{
		Alerts: s.monitoring.FindAlerts(filter),
		Unread: s.monitoring.UnreadAlertCount(),
	})
}

func (s *Server) markAlertReadHandler(w http.ResponseWriter, r *http.Request) {
	s.monitoring.MarkAlertRead(mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
}

// markAllAlertsReadHandler marks every alert matching the query filter as read
func (s *Server) markAllAlertsReadHandler(w http.ResponseWriter, r *http.Request) {
	filter, err := alertFilterFromQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, markAllResponse{
		Marked: s.monitoring.MarkAllAlertsRead(filter),
		Unread: s.monitoring.UnreadAlertCount(),
	})
}

func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.monitoring.Stats())
}

func (s *Server) feedsHandler(w http.ResponseWriter, r *http.Request) {
	filter, err := feedFilterFromQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, s.monitoring.FindFeedAreas(filter))
}

func (s *Server) summaryHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(s.monitoring.GetSummary()))
}

func (s *Server) simulationHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, simulationResponse{Running: s.simulation.IsRunning()})
}

func (s *Server) startSimulationHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.simulation.Start(); err != nil {
		logrus.Errorf("Failed to start simulation: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, simulationResponse{Running: s.simulation.IsRunning()})
}

func (s *Server) stopSimulationHandler(w http.ResponseWriter, r *http.Request) {
	s.simulation.Stop()
	writeJSON(w, http.StatusOK, simulationResponse{Running: s.simulation.IsRunning()})
}

func (s *Server) displayModeHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, displayModeResponse{DarkMode: s.monitoring.IsDarkMode()})
}

func (s *Server) toggleDisplayModeHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, displayModeResponse{DarkMode: s.monitoring.ToggleDarkMode()})
}

// eventsHandler streams state changes as server-sent events until the client
// goes away or the state is closed
func (s *Server) eventsHandler(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	id, events := s.monitoring.Subscribe()
	defer s.monitoring.Unsubscribe(id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, open := <-events:
			if !open {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				logrus.Errorf("Failed to encode %s event: %v", event.Type, err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logrus.Errorf("Failed to write response: %v", err)
	}
}
