package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/BIGM16/Ecole-desExcellents/internal/auth"
	"github.com/BIGM16/Ecole-desExcellents/internal/config"
	"github.com/BIGM16/Ecole-desExcellents/internal/gateway"
	"github.com/BIGM16/Ecole-desExcellents/internal/metrics"
	"github.com/BIGM16/Ecole-desExcellents/internal/model"
)

type Server struct {
	cfg      config.Config
	gateways *gateway.Gateways
	tokens   *auth.Tokens
	cookies  auth.CookieOptions
	logger   *slog.Logger
	now      func() time.Time
}

func NewServer(cfg config.Config, gateways *gateway.Gateways, tokens *auth.Tokens, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:      cfg,
		gateways: gateways,
		tokens:   tokens,
		cookies: auth.CookieOptions{
			AccessName:  cfg.AccessCookieName,
			RefreshName: cfg.RefreshCookieName,
			Secure:      cfg.CookieSecure,
			SameSite:    cfg.CookieSameSite,
		},
		logger: logger,
		now:    time.Now,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", promhttp.Handler())

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(corsHandler.Handler)

		r.Get("/health/", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "Backend is running"})
		})
		r.Post("/login-cookie/", s.handleLogin)
		r.Post("/refresh-cookie/", s.handleRefresh)
		r.Post("/logout-cookie/", s.handleLogout)
		r.Post("/token/", s.handleObtainToken)
		r.Post("/token/refresh/", s.handleRefreshToken)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/users/me/", s.handleGetMe)
			r.Patch("/users/me/", s.handleUpdateMe)
			r.Get("/user/", s.handleListAccounts(""))
			r.Post("/user/", s.handleCreateAccount(""))
			r.Get("/users/{id}/", s.handleGetAccount(""))
			r.Patch("/users/{id}/", s.handleUpdateAccount(""))
			r.Delete("/users/{id}/", s.handleDeleteAccount(""))

			r.Route("/academique", func(r chi.Router) {
				r.Get("/promotions/", s.handleListCohorts)

				r.Get("/cours/", s.handleListCourses)
				r.Post("/cours/", s.handleCreateCourse)
				r.Get("/cours/{id}/", s.handleGetCourse)
				r.Put("/cours/{id}/", s.handleUpdateCourse)
				r.Delete("/cours/{id}/", s.handleDeleteCourse)

				r.Get("/horaires/", s.handleListSchedules)
				r.Post("/horaires/", s.handleCreateSchedule)
				r.Get("/horaires/{id}/", s.handleGetSchedule)
				r.Put("/horaires/{id}/", s.handleUpdateSchedule)
				r.Delete("/horaires/{id}/", s.handleDeleteSchedule)

				s.mountAccounts(r, "/encadreurs", model.RoleSupervisor)
				s.mountAccounts(r, "/etudiants", model.RoleStudent)
				s.mountAccounts(r, "/coordons", model.RoleCoordinator)
			})

			r.Get("/cours/{id}/documents/", s.handleListDocuments)
			r.Post("/cours/{id}/documents/", s.handleCreateDocument)
			r.Get("/documents/{id}/files/", s.handleListFiles)
			r.Post("/documents/{id}/files/", s.handleAddFile)
			r.Get("/documents/files/{id}/view/", s.handleViewFile)
		})
	})

	return r
}

func (s *Server) mountAccounts(r chi.Router, prefix string, kind model.Role) {
	r.Get(prefix+"/", s.handleListAccounts(kind))
	r.Post(prefix+"/", s.handleCreateAccount(kind))
	r.Get(prefix+"/{id}/", s.handleGetAccount(kind))
	r.Patch(prefix+"/{id}/", s.handleUpdateAccount(kind))
	r.Put(prefix+"/{id}/", s.handleUpdateAccount(kind))
	r.Delete(prefix+"/{id}/", s.handleDeleteAccount(kind))
}

// logRequests logs one line per request and counts it by route pattern.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		s.logger.InfoContext(r.Context(), "request",
			"method", r.Method,
			"route", route,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// authMiddleware resolves the request principal. A request without any
// credential and a request whose credential fails are both rejected with
// 401, with different codes.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, _ := auth.ResolveCredential(r, s.cfg.AccessCookieName)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing_token")
			return
		}

		claims, err := s.tokens.Validate(r.Context(), token)
		if err != nil {
			s.writeTokenError(w, r, err)
			return
		}

		principal, err := s.gateways.Accounts.Resolve(r.Context(), claims.UserID)
		if errors.Is(err, gateway.ErrUnauthenticated) {
			writeError(w, http.StatusUnauthorized, "user_not_found")
			return
		}
		if err != nil {
			s.serverError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), principalKey{}, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type principalKey struct{}

func principalFromContext(ctx context.Context) model.Principal {
	principal, _ := ctx.Value(principalKey{}).(model.Principal)
	return principal
}

// writeGatewayError maps gateway errors on collection routes.
func (s *Server) writeGatewayError(w http.ResponseWriter, r *http.Request, err error) {
	if verr, ok := gateway.AsValidation(err); ok {
		writeJSON(w, http.StatusBadRequest, verr.Fields)
		return
	}
	switch {
	case errors.Is(err, gateway.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found")
	case errors.Is(err, gateway.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, gateway.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "unauthenticated")
	default:
		s.serverError(w, r, err)
	}
}

// writeObjectError maps gateway errors on routes addressing one object.
// With ConcealForbidden a denial is indistinguishable from a missing id.
func (s *Server) writeObjectError(w http.ResponseWriter, r *http.Request, err error) {
	if s.cfg.ConcealForbidden && errors.Is(err, gateway.ErrForbidden) {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	s.writeGatewayError(w, r, err)
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.ErrorContext(r.Context(), "request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", middleware.GetReqID(r.Context()),
		"error", err,
	)
	writeError(w, http.StatusInternalServerError, "server_error")
}

// writeTokenError answers a rejected credential with 401 and a failing
// revocation lookup with 500.
func (s *Server) writeTokenError(w http.ResponseWriter, r *http.Request, err error) {
	if !auth.IsTokenError(err) {
		s.serverError(w, r, err)
		return
	}
	writeError(w, http.StatusUnauthorized, auth.FailureReason(err))
}

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
