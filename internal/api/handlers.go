/*
Package api
File: handlers.go
Description: HTTP handlers for the planning API. Requests describe a
dive in plain JSON (cylinders, steps, gradient factors); the handlers
drive the deco engine, persist the result, and publish it on the hub.
*/

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/everforgeworks/diveplan-server/internal/deco"
	"github.com/everforgeworks/diveplan-server/internal/report"
	"github.com/everforgeworks/diveplan-server/internal/store"
)

// Server bundles the collaborators the handlers need. The hub may be
// nil, in which case no events are published.
type Server struct {
	Store *store.Store
	Hub   *Hub
}

func NewServer(st *store.Store, hub *Hub) *Server {
	return &Server{Store: st, Hub: hub}
}

// Routes registers every API endpoint on a fresh mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/plan", s.handleComputePlan)
	mux.HandleFunc("/api/plan/preview", s.handlePreviewPlan)
	mux.HandleFunc("/api/plans", s.handleGetPlans)
	mux.HandleFunc("/api/gas/optimal", s.handleOptimalGas)
	mux.HandleFunc("/api/model", s.handleGetModel)

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		if s.Hub == nil {
			http.Error(w, "Realtime feed disabled", http.StatusNotFound)
			return
		}
		ServeWS(s.Hub, w, r)
	})
	mux.Handle("/metrics", metricsHandler())

	return mux
}

// CylinderSpec describes one cylinder of the request.
type CylinderSpec struct {
	Volume          float64 `json:"volume"`
	WorkingPressure float64 `json:"working_pressure"`
	ReservePressure float64 `json:"reserve_pressure"`
	O2              float64 `json:"o2"`
	N2              float64 `json:"n2"`
	He              float64 `json:"he"`
}

// StepSpec describes one planned leg; Cylinder indexes the request's
// cylinder list.
type StepSpec struct {
	Duration   float64 `json:"duration"`
	StartDepth float64 `json:"start_depth"`
	EndDepth   float64 `json:"end_depth"`
	Cylinder   int     `json:"cylinder"`
}

// OptimalCylinderSpec asks the planner to add a best-mix deco cylinder
// for a target depth and ppO2.
type OptimalCylinderSpec struct {
	Volume          float64 `json:"volume"`
	WorkingPressure float64 `json:"working_pressure"`
	EndDepth        float64 `json:"end_depth"`
	TargetPpO2      float64 `json:"target_ppo2"`
}

// PlanRequest is the full dive description.
type PlanRequest struct {
	Name             string                `json:"name"`
	Units            string                `json:"units"` // "metric" (default) or "imperial"
	GradientFactors  *deco.GradientFactors `json:"gradient_factors"`
	Cylinders        []CylinderSpec        `json:"cylinders"`
	Steps            []StepSpec            `json:"steps"`
	OptimalCylinders []OptimalCylinderSpec `json:"optimal_cylinders"`
}

// PlanResponse carries the computed profile, its rendered report and
// the end state of every cylinder.
type PlanResponse struct {
	ID        string              `json:"id,omitempty"`
	Profile   deco.Profile        `json:"profile"`
	Report    string              `json:"report"`
	Cylinders []*deco.GasCylinder `json:"cylinders"`
}

func (s *Server) handleComputePlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	var req PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	resp, ok := s.compute(w, req)
	if !ok {
		return
	}

	if s.Store != nil {
		id, err := s.Store.SavePlan(r.Context(), req.Name, resp.Profile)
		if err != nil {
			log.Printf("save plan: %v", err)
			http.Error(w, "Failed to persist plan", http.StatusInternalServerError)
			return
		}
		resp.ID = id
	}

	if s.Hub != nil {
		s.Hub.Broadcast(Event{Type: "plan_computed", Payload: map[string]interface{}{
			"id":        resp.ID,
			"name":      req.Name,
			"max_depth": resp.Profile.MaxDepth,
			"runtime":   resp.Profile.Runtime,
			"warnings":  len(resp.Profile.Warnings),
		}})
	}

	writeJSON(w, resp)
}

func (s *Server) handlePreviewPlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	var req PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	if resp, ok := s.compute(w, req); ok {
		writeJSON(w, resp)
	}
}

// compute runs the engine for a request. On failure it writes the
// mapped HTTP error and returns ok=false.
func (s *Server) compute(w http.ResponseWriter, req PlanRequest) (*PlanResponse, bool) {
	units := report.UnitsMetric
	switch req.Units {
	case "", string(report.UnitsMetric):
	case string(report.UnitsImperial):
		units = report.UnitsImperial
	default:
		http.Error(w, fmt.Sprintf("Unknown units %q", req.Units), http.StatusBadRequest)
		return nil, false
	}

	plan, err := buildPlan(req)
	if err == nil {
		err = plan.CalculateAscent()
	}
	if err != nil {
		plansComputed.WithLabelValues(statusLabel(err)).Inc()

		var noGas *deco.NoSafeGasError
		if errors.As(err, &noGas) {
			writeJSONStatus(w, http.StatusUnprocessableEntity, map[string]interface{}{
				"error":   noGas.Error(),
				"depth":   noGas.Depth,
				"ceiling": noGas.Ceiling,
			})
			return nil, false
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}

	profile := plan.Profile()
	plansComputed.WithLabelValues("ok").Inc()
	stopsPlanned.Add(float64(countStops(profile)))

	return &PlanResponse{
		Profile:   profile,
		Report:    report.Render(profile, units),
		Cylinders: plan.Cylinders(),
	}, true
}

// buildPlan translates the request into engine entities.
func buildPlan(req PlanRequest) (*deco.DivePlan, error) {
	cylinders := make([]*deco.GasCylinder, 0, len(req.Cylinders))
	for i, spec := range req.Cylinders {
		mix, err := deco.NewTrimix(spec.O2, spec.N2, spec.He)
		if err != nil {
			return nil, fmt.Errorf("cylinder %d: %w", i, err)
		}
		cyl, err := deco.NewGasCylinder(spec.Volume, spec.WorkingPressure, mix, spec.ReservePressure)
		if err != nil {
			return nil, fmt.Errorf("cylinder %d: %w", i, err)
		}
		cylinders = append(cylinders, cyl)
	}

	steps := make([]deco.DiveStep, 0, len(req.Steps))
	for i, spec := range req.Steps {
		if spec.Cylinder < 0 || spec.Cylinder >= len(cylinders) {
			return nil, fmt.Errorf("%w: step %d references cylinder %d", deco.ErrInvalidStep, i, spec.Cylinder)
		}
		step, err := deco.NewDiveStep(spec.Duration, spec.StartDepth, spec.EndDepth, cylinders[spec.Cylinder])
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		steps = append(steps, step)
	}

	gf := deco.GradientFactors{
		Low:  deco.ActiveModelConfig().GFLowDefault,
		High: deco.ActiveModelConfig().GFHighDefault,
	}
	if req.GradientFactors != nil {
		gf = *req.GradientFactors
	}

	plan, err := deco.NewDivePlan(steps, cylinders, gf)
	if err != nil {
		return nil, err
	}
	for i, spec := range req.OptimalCylinders {
		if _, err := plan.AddOptimalGasCylinder(spec.Volume, spec.WorkingPressure, spec.EndDepth, spec.TargetPpO2); err != nil {
			return nil, fmt.Errorf("optimal cylinder %d: %w", i, err)
		}
	}
	return plan, nil
}

func (s *Server) handleGetPlans(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		http.Error(w, "Persistence disabled", http.StatusNotFound)
		return
	}

	if id := r.URL.Query().Get("id"); id != "" {
		rec, err := s.Store.GetPlan(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Plan not found", http.StatusNotFound)
			return
		}
		if err != nil {
			log.Printf("get plan: %v", err)
			http.Error(w, "Failed to load plan", http.StatusInternalServerError)
			return
		}
		writeJSON(w, rec)
		return
	}

	plans, err := s.Store.ListPlans(r.Context())
	if err != nil {
		log.Printf("list plans: %v", err)
		http.Error(w, "Failed to list plans", http.StatusInternalServerError)
		return
	}
	writeJSON(w, plans)
}

func (s *Server) handleOptimalGas(w http.ResponseWriter, r *http.Request) {
	depth, err := strconv.ParseFloat(r.URL.Query().Get("depth"), 64)
	if err != nil {
		http.Error(w, "Invalid depth", http.StatusBadRequest)
		return
	}
	ppO2, err := strconv.ParseFloat(r.URL.Query().Get("ppo2"), 64)
	if err != nil {
		http.Error(w, "Invalid ppo2", http.StatusBadRequest)
		return
	}
	diluent := deco.Diluent(r.URL.Query().Get("diluent"))
	if diluent == "" {
		diluent = deco.DiluentNitrogen
	}

	mix, err := deco.OptimalMixture(depth, ppO2, diluent)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, map[string]interface{}{
		"mix":                 mix,
		"name":                mix.Name(),
		"max_operating_depth": mix.MaxOperatingDepth(ppO2),
	})
}

func (s *Server) handleGetModel(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, deco.ActiveModelConfig())
}

func countStops(p deco.Profile) int {
	stops := 0
	for _, pt := range p.Points {
		if !pt.Planned && pt.Kind == deco.StepConstant {
			stops++
		}
	}
	return stops
}

func statusLabel(err error) string {
	var noGas *deco.NoSafeGasError
	switch {
	case errors.As(err, &noGas):
		return "no_safe_gas"
	case errors.Is(err, deco.ErrInvalidGasFraction),
		errors.Is(err, deco.ErrInvalidStep),
		errors.Is(err, deco.ErrInvalidCylinder),
		errors.Is(err, deco.ErrInvalidGradientFactors),
		errors.Is(err, deco.ErrNoCylinders):
		return "invalid"
	default:
		return "error"
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
