package http

import (
	"context"
	"net/http"
	"time"

	"budgetr/internal/core"
	applog "budgetr/internal/log"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err)
			ErrorResponse(http.StatusServiceUnavailable, "not ready").Write(w)
			return
		}
	}
	NewJSONResponse().Data(map[string]string{"status": "ready"}).Write(w)
}

// serviceError logs unexpected failures and writes the mapped response.
func (s *Server) serviceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if statusFor(err) == http.StatusInternalServerError {
		fields := applog.NewFields().WithOperation(op).WithError(err)
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed", fields.ToSlice()...)
	}
	errorFor(err).Write(w)
}

// frequencyOverride reads ?frequency=. ok is false when a response has
// already been written.
func (s *Server) frequencyOverride(w http.ResponseWriter, r *http.Request) (core.Frequency, bool) {
	q := parseFrequencyQuery(r)
	if err := s.validator.Validate(q); err != nil {
		UnprocessableEntityError("invalid query", fieldErrors(err)).Write(w)
		return "", false
	}
	return core.Frequency(q.Frequency), true
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	f, ok := s.frequencyOverride(w, r)
	if !ok {
		return
	}

	sum, err := s.api.Dashboard(r.Context(), f)
	if err != nil {
		s.serviceError(w, r, applog.OpRead, err)
		return
	}
	NewJSONResponse().Data(newSummaryResponse(sum)).Write(w)
}

func (s *Server) handleListExpenditures(w http.ResponseWriter, r *http.Request) {
	override, ok := s.frequencyOverride(w, r)
	if !ok {
		return
	}

	records, f, err := s.api.DisplayExpenditures(r.Context(), override)
	if err != nil {
		s.serviceError(w, r, applog.OpList, err)
		return
	}

	out := expenditureListResponse{
		Frequency:    f.String(),
		Label:        f.Label(),
		Expenditures: make([]expenditureResponse, 0, len(records)),
	}
	for _, e := range records {
		out.Expenditures = append(out.Expenditures, newExpenditureResponse(e))
	}
	NewJSONResponse().Data(out).Write(w)
}

func (s *Server) handleCreateExpenditure(w http.ResponseWriter, r *http.Request) {
	var req createExpenditureRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := s.validator.Validate(req); err != nil {
		UnprocessableEntityError("invalid expenditure", fieldErrors(err)).Write(w)
		return
	}
	e, fields := req.toExpenditure()
	if fields != nil {
		UnprocessableEntityError("invalid expenditure", fields).Write(w)
		return
	}

	saved, err := s.api.AddExpenditure(r.Context(), e)
	if err != nil {
		s.serviceError(w, r, applog.OpCreate, err)
		return
	}

	lf := applog.NewFields().
		WithOperation(applog.OpCreate).
		WithExpenditure(saved.ID, saved.Category, core.FormatMoney(saved.Amount))
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Expenditure created", lf.ToSlice()...)

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/expenditures/"+saved.ID).
		Data(newExpenditureResponse(saved)).
		Write(w)
}

func (s *Server) handleGetExpenditure(w http.ResponseWriter, r *http.Request) {
	e, err := s.api.GetExpenditure(r.Context(), r.PathValue("id"))
	if err != nil {
		s.serviceError(w, r, applog.OpRead, err)
		return
	}
	NewJSONResponse().Data(newExpenditureResponse(e)).Write(w)
}

func (s *Server) handleDeleteExpenditure(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.api.DeleteExpenditure(r.Context(), id); err != nil {
		s.serviceError(w, r, applog.OpDelete, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	snap, err := s.api.Settings(r.Context())
	if err != nil {
		s.serviceError(w, r, applog.OpRead, err)
		return
	}
	NewJSONResponse().Data(newSettingsResponse(snap)).Write(w)
}

func (s *Server) handleUpdateSetting(w http.ResponseWriter, r *http.Request) {
	var req updateSettingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	key := r.PathValue("key")
	v, err := s.api.UpdateSetting(r.Context(), key, sanitizeInput(req.Value.String()))
	if err != nil {
		s.serviceError(w, r, applog.OpUpdate, err)
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Setting updated",
		applog.FieldOperation, applog.OpUpdate,
		applog.FieldSettingKey, key)
	NewJSONResponse().Data(settingUpdatedResponse{Key: key, Value: v}).Write(w)
}

func (s *Server) handleProjectGoal(w http.ResponseWriter, r *http.Request) {
	var req goalProjectionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := s.validator.Validate(req); err != nil {
		UnprocessableEntityError("invalid goal", fieldErrors(err)).Write(w)
		return
	}
	goal, fields := req.toGoalRequest()
	if fields != nil {
		UnprocessableEntityError("invalid goal", fields).Write(w)
		return
	}

	p, err := s.api.ProjectGoal(r.Context(), goal)
	if err != nil {
		s.serviceError(w, r, applog.OpProject, err)
		return
	}
	NewJSONResponse().Data(newProjectionResponse(p)).Write(w)
}
