package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/BIGM16/Ecole-desExcellents/internal/gateway"
	"github.com/BIGM16/Ecole-desExcellents/internal/model"
)

type accountRequest struct {
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Telephone *string `json:"telephone"`
	Bio       *string `json:"bio"`
	Role      *string `json:"role"`
	CohortID  *string `json:"promotion"`
	Password  *string `json:"password"`
	IsActive  *bool   `json:"is_active"`
	IsStaff   *bool   `json:"is_staff"`
}

func (req accountRequest) input() gateway.AccountInput {
	return gateway.AccountInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Telephone: req.Telephone,
		Bio:       req.Bio,
		Role:      req.Role,
		CohortID:  req.CohortID,
		Password:  req.Password,
		IsActive:  req.IsActive,
		IsStaff:   req.IsStaff,
	}
}

// profileRequest accepts the read-only fields of the profile so clients
// can send back what they fetched; only the editable ones are applied.
type profileRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Telephone *string `json:"telephone"`
	Bio       *string `json:"bio"`

	ID       json.RawMessage `json:"id"`
	Email    json.RawMessage `json:"email"`
	Role     json.RawMessage `json:"role"`
	CohortID json.RawMessage `json:"promotion"`
}

func (s *Server) cohortIndex(ctx context.Context, p model.Principal) (cohortIndex, error) {
	cohorts, err := s.gateways.Cohorts.List(ctx, p)
	if err != nil {
		return nil, err
	}
	idx := make(cohortIndex, len(cohorts))
	for _, cohort := range cohorts {
		idx[cohort.ID] = cohort
	}
	return idx, nil
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	p := principalFromContext(r.Context())
	me, err := s.gateways.Accounts.Me(r.Context(), p)
	if err != nil {
		s.writeGatewayError(w, r, err)
		return
	}
	idx, err := s.cohortIndex(r.Context(), p)
	if err != nil {
		s.writeGatewayError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, idx.me(me))
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	p := principalFromContext(r.Context())
	me, err := s.gateways.Accounts.UpdateMe(r.Context(), p, gateway.ProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Telephone: req.Telephone,
		Bio:       req.Bio,
	})
	if err != nil {
		s.writeGatewayError(w, r, err)
		return
	}
	idx, err := s.cohortIndex(r.Context(), p)
	if err != nil {
		s.writeGatewayError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, idx.me(me))
}

func (s *Server) handleListAccounts(kind model.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := principalFromContext(r.Context())
		accounts, err := s.gateways.Accounts.List(r.Context(), p, kind)
		if err != nil {
			s.writeGatewayError(w, r, err)
			return
		}
		idx, err := s.cohortIndex(r.Context(), p)
		if err != nil {
			s.writeGatewayError(w, r, err)
			return
		}
		out := make([]accountView, 0, len(accounts))
		for _, account := range accounts {
			out = append(out, idx.account(account))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func (s *Server) handleCreateAccount(kind model.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req accountRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		p := principalFromContext(r.Context())
		account, err := s.gateways.Accounts.Create(r.Context(), p, kind, req.input())
		if err != nil {
			s.writeGatewayError(w, r, err)
			return
		}
		idx, err := s.cohortIndex(r.Context(), p)
		if err != nil {
			s.writeGatewayError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, idx.account(account))
	}
}

// handleGetAccount shows administrators the full record and everyone else
// the public profile.
func (s *Server) handleGetAccount(kind model.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := principalFromContext(r.Context())
		account, err := s.gateways.Accounts.Get(r.Context(), p, kind, chi.URLParam(r, "id"))
		if err != nil {
			s.writeObjectError(w, r, err)
			return
		}
		idx, err := s.cohortIndex(r.Context(), p)
		if err != nil {
			s.writeGatewayError(w, r, err)
			return
		}
		if p.Role == model.RoleAdmin {
			writeJSON(w, http.StatusOK, idx.adminAccount(account))
			return
		}
		writeJSON(w, http.StatusOK, idx.publicAccount(account))
	}
}

func (s *Server) handleUpdateAccount(kind model.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req accountRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		p := principalFromContext(r.Context())
		// Email is the login and stays fixed; Update ignores it.
		account, err := s.gateways.Accounts.Update(r.Context(), p, kind, chi.URLParam(r, "id"), req.input())
		if err != nil {
			s.writeObjectError(w, r, err)
			return
		}
		idx, err := s.cohortIndex(r.Context(), p)
		if err != nil {
			s.writeGatewayError(w, r, err)
			return
		}
		if p.Role == model.RoleAdmin {
			writeJSON(w, http.StatusOK, idx.adminAccount(account))
			return
		}
		writeJSON(w, http.StatusOK, idx.account(account))
	}
}

func (s *Server) handleDeleteAccount(kind model.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := principalFromContext(r.Context())
		if err := s.gateways.Accounts.Delete(r.Context(), p, kind, chi.URLParam(r, "id")); err != nil {
			s.writeObjectError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleListCohorts(w http.ResponseWriter, r *http.Request) {
	cohorts, err := s.gateways.Cohorts.List(r.Context(), principalFromContext(r.Context()))
	if err != nil {
		s.writeGatewayError(w, r, err)
		return
	}
	out := make([]cohortView, 0, len(cohorts))
	for _, cohort := range cohorts {
		out = append(out, mapCohort(cohort))
	}
	writeJSON(w, http.StatusOK, out)
}
