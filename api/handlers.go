package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kilianp07/homemind/core/actuator"
	"github.com/kilianp07/homemind/core/devicestatus"
	"github.com/kilianp07/homemind/core/metrics"
	"github.com/kilianp07/homemind/core/model"
)

// NavigateRequest is the body of POST /api/tools/navigate.
type NavigateRequest struct {
	TargetLocation string `json:"target_location"`
}

// NavigateResponse carries the caller-facing message. HandleID is set when a
// completion watch was started.
type NavigateResponse struct {
	Message  string `json:"message"`
	Success  bool   `json:"success"`
	Stage    string `json:"stage"`
	HandleID string `json:"handle_id,omitempty"`
}

// ActuatorRequest is the body of POST /api/tools/actuators/{name}.
type ActuatorRequest struct {
	Value string `json:"value"`
}

// TankResponse carries the caller-facing message of a tank query. Report is
// set by the status query when every sensor could be read.
type TankResponse struct {
	Message string               `json:"message"`
	Report  *actuator.TankReport `json:"report,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(s.startedAt).Seconds()),
	})
}

// handleNavigate always answers 200 once the body parses: the message is
// the result, whatever the stage.
func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var req NavigateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	res := s.deps.Navigator.Navigate(r.Context(), req.TargetLocation)
	resp := NavigateResponse{
		Message: res.Outcome.Message,
		Success: res.Outcome.Success,
		Stage:   res.Stage,
	}
	if res.Handle != nil {
		resp.HandleID = res.Handle.ID
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListActuators(w http.ResponseWriter, _ *http.Request) {
	if s.deps.Actuators == nil {
		writeJSON(w, http.StatusOK, []actuator.Config{})
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Actuators.List())
}

func (s *Server) handleSetActuator(w http.ResponseWriter, r *http.Request) {
	if s.deps.Actuators == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no actuators configured"})
		return
	}
	var req ActuatorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	out := s.deps.Actuators.SetState(r.Context(), chi.URLParam(r, "name"), req.Value)
	writeJSON(w, actuatorStatus(out), out)
}

func (s *Server) handleGetActuator(w http.ResponseWriter, r *http.Request) {
	if s.deps.Actuators == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no actuators configured"})
		return
	}
	out := s.deps.Actuators.State(r.Context(), chi.URLParam(r, "name"))
	writeJSON(w, actuatorStatus(out), out)
}

func (s *Server) handleTankTemperature(w http.ResponseWriter, r *http.Request) {
	if s.deps.Tank == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no tank configured"})
		return
	}
	msg, err := s.deps.Tank.TemperatureMessage(r.Context())
	code := http.StatusOK
	if err != nil {
		code = http.StatusBadGateway
	}
	writeJSON(w, code, TankResponse{Message: msg})
}

func (s *Server) handleTankStatus(w http.ResponseWriter, r *http.Request) {
	if s.deps.Tank == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no tank configured"})
		return
	}
	report, msg, err := s.deps.Tank.StatusMessage(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadGateway, TankResponse{Message: msg})
		return
	}
	writeJSON(w, http.StatusOK, TankResponse{Message: msg, Report: &report})
}

func actuatorStatus(out model.ActuatorOutcome) int {
	switch {
	case out.Success:
		return http.StatusOK
	case errors.Is(out.Err, actuator.ErrUnknownActuator):
		return http.StatusNotFound
	case errors.Is(out.Err, actuator.ErrInvalidValue):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) handleRobotState(w http.ResponseWriter, r *http.Request) {
	state, err := s.deps.Telemetry.Read(r.Context())
	if err != nil {
		s.log.Warnf("robot state: %v", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}
	if rec, ok := s.deps.Sink.(metrics.TelemetryRecorder); ok {
		if err := rec.RecordTelemetry(metrics.TelemetryRecord{DeviceID: s.deps.Navigator.DeviceID(), State: state}); err != nil {
			s.log.Warnf("record telemetry metrics: %v", err)
		}
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleRobotStatus(w http.ResponseWriter, _ *http.Request) {
	id := s.deps.Navigator.DeviceID()
	st := devicestatus.Status{DeviceID: id, CurrentStatus: "unknown"}
	if s.deps.Store != nil {
		if got, ok := s.deps.Store.Get(id); ok {
			st = got
		}
	}
	writeJSON(w, http.StatusOK, st)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
