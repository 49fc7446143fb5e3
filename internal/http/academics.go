package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/BIGM16/Ecole-desExcellents/internal/gateway"
)

type courseRequest struct {
	Title         *string   `json:"titre"`
	Description   *string   `json:"description"`
	SupervisorIDs *[]string `json:"encadreurs"`
	CohortIDs     *[]string `json:"promotions"`
}

func (req courseRequest) input() gateway.CourseInput {
	return gateway.CourseInput{
		Title:         req.Title,
		Description:   req.Description,
		SupervisorIDs: req.SupervisorIDs,
		CohortIDs:     req.CohortIDs,
	}
}

type scheduleRequest struct {
	Title       *string    `json:"titre"`
	Description *string    `json:"description"`
	CourseID    *string    `json:"cours"`
	StartAt     *time.Time `json:"date_debut"`
	EndAt       *time.Time `json:"date_fin"`
	Location    *string    `json:"lieu"`
	CohortID    *string    `json:"promotion"`
}

func (req scheduleRequest) input() gateway.ScheduleInput {
	return gateway.ScheduleInput{
		Title:       req.Title,
		Description: req.Description,
		CourseID:    req.CourseID,
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
		Location:    req.Location,
		CohortID:    req.CohortID,
	}
}

func (s *Server) handleListCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := s.gateways.Courses.List(r.Context(), principalFromContext(r.Context()))
	if err != nil {
		s.writeGatewayError(w, r, err)
		return
	}
	out := make([]courseView, 0, len(courses))
	for _, course := range courses {
		out = append(out, mapCourse(course))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCourse(w http.ResponseWriter, r *http.Request) {
	var req courseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	course, err := s.gateways.Courses.Create(r.Context(), principalFromContext(r.Context()), req.input())
	if err != nil {
		s.writeGatewayError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapCourse(course))
}

func (s *Server) handleGetCourse(w http.ResponseWriter, r *http.Request) {
	detail, err := s.gateways.Courses.Get(r.Context(), principalFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.writeObjectError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapCourseDetail(detail))
}

func (s *Server) handleUpdateCourse(w http.ResponseWriter, r *http.Request) {
	var req courseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	course, err := s.gateways.Courses.Update(r.Context(), principalFromContext(r.Context()), chi.URLParam(r, "id"), req.input())
	if err != nil {
		s.writeObjectError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapCourse(course))
}

func (s *Server) handleDeleteCourse(w http.ResponseWriter, r *http.Request) {
	if err := s.gateways.Courses.Delete(r.Context(), principalFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		s.writeObjectError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	schedules, err := s.gateways.Schedules.List(r.Context(), principalFromContext(r.Context()))
	if err != nil {
		s.writeGatewayError(w, r, err)
		return
	}
	out := make([]scheduleView, 0, len(schedules))
	for _, schedule := range schedules {
		out = append(out, mapSchedule(schedule))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	schedule, err := s.gateways.Schedules.Create(r.Context(), principalFromContext(r.Context()), req.input())
	if err != nil {
		s.writeGatewayError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapSchedule(schedule))
}

func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	schedule, err := s.gateways.Schedules.Get(r.Context(), principalFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.writeObjectError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSchedule(schedule))
}

func (s *Server) handleUpdateSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	schedule, err := s.gateways.Schedules.Update(r.Context(), principalFromContext(r.Context()), chi.URLParam(r, "id"), req.input())
	if err != nil {
		s.writeObjectError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSchedule(schedule))
}

func (s *Server) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	if err := s.gateways.Schedules.Delete(r.Context(), principalFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		s.writeObjectError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
