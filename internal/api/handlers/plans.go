package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"collection-planning-service/internal/api/dto"
	"collection-planning-service/internal/domain"
	"collection-planning-service/internal/ports"
	"collection-planning-service/internal/services"
)

// PlanHandler triggers planning runs and serves the stored plan.
type PlanHandler struct {
	Planner *services.Planner
	Lister  ports.AssignmentLister
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return false
	}
	return true
}

// PlanMonthly replans a whole month. The previous plan for that month
// is replaced in one transaction.
func (h *PlanHandler) PlanMonthly(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req dto.MonthlyPlanRequest
	if !decodeBody(w, r, &req) {
		return
	}

	now := time.Now().UTC()
	if req.Year == 0 {
		req.Year = now.Year()
	}
	if req.Month == 0 {
		req.Month = int(now.Month())
	}
	if req.Month < 1 || req.Month > 12 {
		writeError(w, r, http.StatusBadRequest, "month must be between 1 and 12")
		return
	}
	if req.Year < 2000 || req.Year > 2100 {
		writeError(w, r, http.StatusBadRequest, "year out of range")
		return
	}

	report, err := h.Planner.GenerateMonthlyPlan(r.Context(), req.Year, time.Month(req.Month))
	if err != nil {
		var ce *services.ConfigError
		if errors.As(err, &ce) {
			writeError(w, r, http.StatusUnprocessableEntity, ce.Error())
			return
		}
		log.Printf("monthly plan failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, reportResponse(report))
}

// PlanDaily replans a single date.
func (h *PlanHandler) PlanDaily(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req dto.DailyPlanRequest
	if !decodeBody(w, r, &req) {
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	report, err := h.Planner.GenerateDailyPlan(r.Context(), date)
	if err != nil {
		var ce *services.ConfigError
		if errors.As(err, &ce) {
			writeError(w, r, http.StatusUnprocessableEntity, ce.Error())
			return
		}
		log.Printf("daily plan failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, reportResponse(report))
}

// ListAssignments serves the stored plan for a date range given as
// ?from=YYYY-MM-DD&to=YYYY-MM-DD.
func (h *PlanHandler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.Lister == nil {
		writeError(w, r, http.StatusNotImplemented, "assignment store not configured")
		return
	}

	from, err := time.Parse("2006-01-02", r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "from must be YYYY-MM-DD")
		return
	}
	to, err := time.Parse("2006-01-02", r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "to must be YYYY-MM-DD")
		return
	}
	if to.Before(from) {
		writeError(w, r, http.StatusBadRequest, "to precedes from")
		return
	}

	assignments, err := h.Lister.ListAssignments(r.Context(), from, to)
	if err != nil {
		log.Printf("list assignments failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListAssignmentsResponse{
		Assignments: make([]dto.AssignmentResponse, 0, len(assignments)),
	}
	for _, a := range assignments {
		res.Assignments = append(res.Assignments, assignmentResponse(a))
	}

	writeJSON(w, r, http.StatusOK, res)
}

func reportResponse(rep domain.RunReport) dto.PlanReportResponse {
	return dto.PlanReportResponse{
		RunID:              rep.RunID,
		ClientsConsidered:  rep.ClientsConsidered,
		ClientsNoDemand:    rep.ClientsNoDemand,
		ClientsNoLocation:  rep.ClientsNoLocation,
		VisitsRequested:    rep.VisitsRequested,
		VisitsPlaced:       rep.VisitsPlaced,
		JobsRouted:         rep.JobsRouted,
		JobsUnserved:       rep.JobsUnserved,
		InfeasibleBuckets:  rep.InfeasibleBuckets,
		DistanceFallbacks:  rep.DistanceFallbacks,
		AssignmentsWritten: rep.AssignmentsWritten,
	}
}

func assignmentResponse(a domain.RouteAssignment) dto.AssignmentResponse {
	out := dto.AssignmentResponse{
		RunID:                a.RunID,
		Date:                 a.Date.Format("2006-01-02"),
		VehicleID:            a.VehicleID,
		TotalWeightKg:        a.TotalWeightKg,
		TotalDistanceMeters:  a.TotalDistanceMeters,
		TotalDurationSeconds: a.TotalDurationSeconds,
		Stops:                make([]dto.StopResponse, 0, len(a.Stops)),
	}
	for _, s := range a.Stops {
		out.Stops = append(out.Stops, dto.StopResponse{
			ClientID:          s.ClientID,
			Sequence:          s.Sequence,
			WeightKg:          s.WeightKg,
			LegDistanceMeters: s.LegDistanceMeters,
			ArriveAt:          s.ArriveAt,
			DepartAt:          s.DepartAt,
		})
	}
	return out
}
