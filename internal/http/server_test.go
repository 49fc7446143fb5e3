package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/BIGM16/Ecole-desExcellents/internal/auth"
	"github.com/BIGM16/Ecole-desExcellents/internal/config"
	"github.com/BIGM16/Ecole-desExcellents/internal/crypto"
	"github.com/BIGM16/Ecole-desExcellents/internal/filestore"
	"github.com/BIGM16/Ecole-desExcellents/internal/gateway"
	internalhttp "github.com/BIGM16/Ecole-desExcellents/internal/http"
	"github.com/BIGM16/Ecole-desExcellents/internal/model"
	"github.com/BIGM16/Ecole-desExcellents/internal/repository/memstore"
)

const password = "dev-password"

type app struct {
	handler http.Handler
	tokens  *auth.Tokens

	b1, b2                                model.Cohort
	admin, coordB1, supervisor            model.Principal
	studentB1, studentB2, inactiveStudent model.Principal
}

func testConfig() config.Config {
	return config.Config{
		JWTSecret:         "test-secret",
		JWTIssuer:         "ecole-test",
		AccessTokenTTL:    15 * time.Minute,
		RefreshTokenTTL:   7 * 24 * time.Hour,
		AccessCookieName:  "access_token",
		RefreshCookieName: "refresh_token",
		CookieSameSite:    http.SameSiteLaxMode,
		CORSOrigins:       []string{"http://localhost:3000"},
		MaxUploadBytes:    1 << 20,
		PublicBaseURL:     "https://ecole.test",
	}
}

func newApp(t *testing.T, cfg config.Config) *app {
	t.Helper()
	return newAppWithRevoker(t, cfg, nil)
}

func newAppWithRevoker(t *testing.T, cfg config.Config, revoker auth.Revoker) *app {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()
	blobs, err := filestore.New(t.TempDir())
	require.NoError(t, err)

	tokens, err := auth.NewTokens(auth.Options{
		Secret:     cfg.JWTSecret,
		Issuer:     cfg.JWTIssuer,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
		Revoker:    revoker,
	})
	require.NoError(t, err)

	a := &app{tokens: tokens}
	a.b1 = model.Cohort{ID: uuid.NewString(), Name: model.CohortB1, Year: 2025}
	a.b2 = model.Cohort{ID: uuid.NewString(), Name: model.CohortB2, Year: 2025}
	require.NoError(t, store.CreateCohort(ctx, a.b1))
	require.NoError(t, store.CreateCohort(ctx, a.b2))

	hash, err := crypto.HashPassword(password)
	require.NoError(t, err)
	add := func(email string, role model.Role, cohortID string, active bool) model.Principal {
		p := model.Principal{
			ID:           uuid.NewString(),
			Email:        email,
			PasswordHash: hash,
			FirstName:    strings.Split(email, "@")[0],
			LastName:     "Test",
			Role:         role,
			CohortID:     cohortID,
			IsActive:     active,
			DateJoined:   time.Now().UTC(),
		}
		require.NoError(t, store.CreatePrincipal(ctx, p))
		return p
	}
	a.admin = add("admin@ecole.test", model.RoleAdmin, "", true)
	a.coordB1 = add("coord@ecole.test", model.RoleCoordinator, a.b1.ID, true)
	a.supervisor = add("sup@ecole.test", model.RoleSupervisor, a.b1.ID, true)
	a.studentB1 = add("s1@ecole.test", model.RoleStudent, a.b1.ID, true)
	a.studentB2 = add("s2@ecole.test", model.RoleStudent, a.b2.ID, true)
	a.inactiveStudent = add("gone@ecole.test", model.RoleStudent, a.b1.ID, false)

	gateways := gateway.New(store, blobs, gateway.Options{})
	a.handler = internalhttp.NewServer(cfg, gateways, tokens, nil).Router()
	return a
}

func (a *app) token(t *testing.T, p model.Principal) string {
	t.Helper()
	pair, err := a.tokens.Issue(p.ID)
	require.NoError(t, err)
	return pair.Access
}

func (a *app) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func cookieByName(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func (a *app) createCourse(t *testing.T, cohorts ...string) string {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/academique/cours/", a.token(t, a.admin), map[string]interface{}{
		"titre":       "Anatomy",
		"description": "Human anatomy",
		"encadreurs":  []string{a.supervisor.ID},
		"promotions":  cohorts,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[map[string]interface{}](t, rec)["id"].(string)
}

func TestHealth(t *testing.T) {
	a := newApp(t, testConfig())
	rec := a.do(t, http.MethodGet, "/api/health/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, map[string]string{"status": "ok", "message": "Backend is running"}, decode[map[string]string](t, rec))
}

func TestLoginSetsSessionCookies(t *testing.T) {
	a := newApp(t, testConfig())

	rec := a.do(t, http.MethodPost, "/api/login-cookie/", "", map[string]string{"email": "Admin@Ecole.test", "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Access string `json:"access"`
		User   struct {
			ID      string `json:"id"`
			Email   string `json:"email"`
			IsStaff bool   `json:"is_staff"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Access)
	require.Equal(t, a.admin.ID, body.User.ID)

	cookies := rec.Result().Cookies()
	access := cookieByName(cookies, "access_token")
	refresh := cookieByName(cookies, "refresh_token")
	require.NotNil(t, access)
	require.NotNil(t, refresh)
	require.True(t, access.HttpOnly)
	require.Equal(t, "/", access.Path)
	require.Equal(t, 15*60, access.MaxAge)
	require.Equal(t, 7*24*60*60, refresh.MaxAge)

	// The cookie alone authenticates.
	req := httptest.NewRequest(http.MethodGet, "/api/users/me/", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: access.Value})
	me := httptest.NewRecorder()
	a.handler.ServeHTTP(me, req)
	require.Equal(t, http.StatusOK, me.Code, me.Body.String())
	require.Equal(t, "admin@ecole.test", decode[map[string]interface{}](t, me)["email"])
}

func TestLoginRejections(t *testing.T) {
	a := newApp(t, testConfig())

	rec := a.do(t, http.MethodPost, "/api/login-cookie/", "", map[string]string{"email": "admin@ecole.test"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/login-cookie/", "", map[string]string{"email": "admin@ecole.test", "password": "wrong"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "invalid_credentials", decode[map[string]string](t, rec)["error"])

	rec = a.do(t, http.MethodPost, "/api/login-cookie/", "", map[string]string{"email": "gone@ecole.test", "password": password})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCredentialFailuresAre401(t *testing.T) {
	a := newApp(t, testConfig())

	rec := a.do(t, http.MethodGet, "/api/academique/cours/", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "missing_token", decode[map[string]string](t, rec)["error"])

	rec = a.do(t, http.MethodGet, "/api/academique/cours/", "not-a-token", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "invalid_token", decode[map[string]string](t, rec)["error"])

	pair, err := a.tokens.Issue(a.studentB1.ID)
	require.NoError(t, err)
	rec = a.do(t, http.MethodGet, "/api/academique/cours/", pair.Refresh, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "wrong_token_type", decode[map[string]string](t, rec)["error"])

	rec = a.do(t, http.MethodGet, "/api/academique/cours/", a.token(t, a.inactiveStudent), nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshAndLogout(t *testing.T) {
	a := newApp(t, testConfig())
	pair, err := a.tokens.Issue(a.studentB1.ID)
	require.NoError(t, err)

	rec := a.do(t, http.MethodPost, "/api/refresh-cookie/", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/refresh-cookie/", nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: pair.Refresh})
	rec = httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	access := decode[map[string]string](t, rec)["access"]
	require.NotEmpty(t, access)
	require.NotNil(t, cookieByName(rec.Result().Cookies(), "access_token"))
	require.Nil(t, cookieByName(rec.Result().Cookies(), "refresh_token"))

	me := a.do(t, http.MethodGet, "/api/users/me/", access, nil)
	require.Equal(t, http.StatusOK, me.Code)
	require.Equal(t, a.studentB1.ID, decode[map[string]interface{}](t, me)["id"])

	req = httptest.NewRequest(http.MethodPost, "/api/refresh-cookie/", nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: pair.Access})
	rec = httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/logout-cookie/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	for _, name := range []string{"access_token", "refresh_token"} {
		cookie := cookieByName(rec.Result().Cookies(), name)
		require.NotNil(t, cookie, name)
		require.Less(t, cookie.MaxAge, 0)
	}
}

func TestTokenEndpointsForHeaderClients(t *testing.T) {
	a := newApp(t, testConfig())

	rec := a.do(t, http.MethodPost, "/api/token/", "", map[string]string{"email": "s1@ecole.test", "password": "wrong"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "invalid_credentials", decode[map[string]string](t, rec)["error"])

	rec = a.do(t, http.MethodPost, "/api/token/", "", map[string]string{"email": "s1@ecole.test", "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Empty(t, rec.Result().Cookies())
	pair := decode[map[string]string](t, rec)
	require.NotEmpty(t, pair["access"])
	require.NotEmpty(t, pair["refresh"])

	me := a.do(t, http.MethodGet, "/api/users/me/", pair["access"], nil)
	require.Equal(t, http.StatusOK, me.Code)

	rec = a.do(t, http.MethodPost, "/api/token/refresh/", "", map[string]string{"refresh": pair["refresh"]})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	access := decode[map[string]string](t, rec)["access"]
	require.NotEmpty(t, access)
	require.Empty(t, rec.Result().Cookies())
	me = a.do(t, http.MethodGet, "/api/users/me/", access, nil)
	require.Equal(t, http.StatusOK, me.Code)
	require.Equal(t, a.studentB1.ID, decode[map[string]interface{}](t, me)["id"])

	rec = a.do(t, http.MethodPost, "/api/token/refresh/", "", map[string]string{"refresh": pair["access"]})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "wrong_token_type", decode[map[string]string](t, rec)["error"])

	rec = a.do(t, http.MethodPost, "/api/token/refresh/", "", map[string]string{"refresh": ""})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

type brokenRevoker struct{}

func (brokenRevoker) Revoke(context.Context, string, time.Time) error {
	return errors.New("denylist unavailable")
}

func (brokenRevoker) Revoked(context.Context, string) (bool, error) {
	return false, errors.New("denylist unavailable")
}

func TestRevocationBackendFailureIsServerError(t *testing.T) {
	a := newAppWithRevoker(t, testConfig(), brokenRevoker{})
	pair, err := a.tokens.Issue(a.studentB1.ID)
	require.NoError(t, err)

	rec := a.do(t, http.MethodGet, "/api/users/me/", pair.Access, nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/token/refresh/", "", map[string]string{"refresh": pair.Refresh})
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/users/me/", "not-a-token", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCourseVisibilityOverHTTP(t *testing.T) {
	a := newApp(t, testConfig())
	courseID := a.createCourse(t, a.b1.ID)

	rec := a.do(t, http.MethodGet, "/api/academique/cours/", a.token(t, a.studentB1), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	courses := decode[[]map[string]interface{}](t, rec)
	require.Len(t, courses, 1)
	require.Equal(t, "Anatomy", courses[0]["titre"])

	rec = a.do(t, http.MethodGet, "/api/academique/cours/", a.token(t, a.studentB2), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, decode[[]map[string]interface{}](t, rec))

	rec = a.do(t, http.MethodGet, "/api/academique/cours/"+courseID+"/", a.token(t, a.studentB2), nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/academique/cours/"+uuid.NewString()+"/", a.token(t, a.studentB2), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/academique/cours/"+courseID+"/", a.token(t, a.studentB1), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[map[string]interface{}](t, rec)
	require.Contains(t, detail, "documents")
	require.Equal(t, []interface{}{}, detail["documents"])
	require.NotContains(t, courses[0], "documents")

	rec = a.do(t, http.MethodDelete, "/api/academique/cours/"+courseID+"/", a.token(t, a.supervisor), nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(t, http.MethodPut, "/api/academique/cours/"+courseID+"/", a.token(t, a.supervisor), map[string]string{"description": "Updated"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "Updated", decode[map[string]interface{}](t, rec)["description"])
}

func TestConcealForbidden(t *testing.T) {
	cfg := testConfig()
	cfg.ConcealForbidden = true
	a := newApp(t, cfg)
	courseID := a.createCourse(t, a.b1.ID)

	rec := a.do(t, http.MethodGet, "/api/academique/cours/"+courseID+"/", a.token(t, a.studentB2), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	// Collection routes still report the role gate.
	rec = a.do(t, http.MethodPost, "/api/academique/cours/", a.token(t, a.studentB1), map[string]string{"titre": "x", "description": "y"})
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCourseSupervisorsAllOrNothing(t *testing.T) {
	a := newApp(t, testConfig())
	rec := a.do(t, http.MethodPost, "/api/academique/cours/", a.token(t, a.admin), map[string]interface{}{
		"titre":       "Physiology",
		"description": "Intro",
		"encadreurs":  []string{a.supervisor.ID, a.studentB1.ID},
		"promotions":  []string{a.b1.ID},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, decode[map[string][]string](t, rec), "encadreurs")

	rec = a.do(t, http.MethodGet, "/api/academique/cours/", a.token(t, a.admin), nil)
	require.Empty(t, decode[[]map[string]interface{}](t, rec))
}

func TestCoordinatorAccountCreation(t *testing.T) {
	a := newApp(t, testConfig())
	coord := a.token(t, a.coordB1)

	rec := a.do(t, http.MethodPost, "/api/academique/coordons/", coord, map[string]string{
		"email":      "c2@ecole.test",
		"first_name": "Second",
		"last_name":  "Coord",
		"promotion":  a.b1.ID,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, decode[map[string][]string](t, rec), "role")

	rec = a.do(t, http.MethodPost, "/api/academique/etudiants/", coord, map[string]string{
		"email":      "new@ecole.test",
		"first_name": "New",
		"last_name":  "Student",
		"promotion":  a.b2.ID,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, decode[map[string][]string](t, rec), "promotion")

	rec = a.do(t, http.MethodPost, "/api/academique/etudiants/", coord, map[string]string{
		"email":      "new@ecole.test",
		"first_name": "New",
		"last_name":  "Student",
		"promotion":  a.b1.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[map[string]interface{}](t, rec)
	require.Equal(t, "ETUDIANT", created["role"])
	require.Equal(t, "B1", created["promotion"].(map[string]interface{})["name"])

	// Created without a password, so it cannot log in yet.
	rec = a.do(t, http.MethodPost, "/api/login-cookie/", "", map[string]string{"email": "new@ecole.test", "password": ""})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAccountReadShapes(t *testing.T) {
	a := newApp(t, testConfig())

	rec := a.do(t, http.MethodGet, "/api/users/"+a.studentB1.ID+"/", a.token(t, a.admin), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[map[string]interface{}](t, rec)
	require.Contains(t, detail, "is_staff")
	require.Contains(t, detail, "date_joined")

	rec = a.do(t, http.MethodGet, "/api/users/"+a.studentB1.ID+"/", a.token(t, a.coordB1), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	public := decode[map[string]interface{}](t, rec)
	require.NotContains(t, public, "email")
	require.NotContains(t, public, "is_staff")

	rec = a.do(t, http.MethodGet, "/api/academique/etudiants/"+a.supervisor.ID+"/", a.token(t, a.admin), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/academique/etudiants/", a.token(t, a.coordB1), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	students := decode[[]map[string]interface{}](t, rec)
	require.Len(t, students, 2)

	rec = a.do(t, http.MethodGet, "/api/user/", a.token(t, a.studentB1), nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAccountUpdateShapeFollowsEditorRole(t *testing.T) {
	a := newApp(t, testConfig())

	rec := a.do(t, http.MethodPatch, "/api/academique/etudiants/"+a.studentB1.ID+"/", a.token(t, a.coordB1), map[string]string{"bio": "Class rep"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[map[string]interface{}](t, rec)
	require.Equal(t, "Class rep", updated["bio"])
	require.NotContains(t, updated, "is_staff")
	require.NotContains(t, updated, "date_joined")

	rec = a.do(t, http.MethodPatch, "/api/users/"+a.studentB1.ID+"/", a.token(t, a.admin), map[string]string{"bio": "Checked"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated = decode[map[string]interface{}](t, rec)
	require.Contains(t, updated, "is_staff")
	require.Contains(t, updated, "date_joined")
}

func TestUpdateMe(t *testing.T) {
	a := newApp(t, testConfig())
	token := a.token(t, a.studentB1)

	rec := a.do(t, http.MethodPatch, "/api/users/me/", token, map[string]string{"bio": "Hello", "email": "ignored@ecole.test"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	me := decode[map[string]interface{}](t, rec)
	require.Equal(t, "Hello", me["bio"])
	require.Equal(t, "s1@ecole.test", me["email"])

	rec = a.do(t, http.MethodPatch, "/api/users/me/", token, map[string]string{"first_name": " "})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScheduleGates(t *testing.T) {
	a := newApp(t, testConfig())
	start := time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC)

	rec := a.do(t, http.MethodPost, "/api/academique/horaires/", a.token(t, a.studentB1), map[string]interface{}{
		"titre": "Lecture", "date_debut": start, "promotion": a.b1.ID,
	})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/academique/horaires/", a.token(t, a.coordB1), map[string]interface{}{
		"titre": "Lecture", "date_debut": start, "promotion": a.b2.ID,
	})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/academique/horaires/", a.token(t, a.coordB1), map[string]interface{}{
		"titre": "Lecture", "date_debut": start, "promotion": a.b1.ID, "lieu": "Room 1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	scheduleID := decode[map[string]interface{}](t, rec)["id"].(string)

	rec = a.do(t, http.MethodGet, "/api/academique/horaires/", a.token(t, a.studentB1), nil)
	require.Len(t, decode[[]map[string]interface{}](t, rec), 1)
	rec = a.do(t, http.MethodGet, "/api/academique/horaires/", a.token(t, a.studentB2), nil)
	require.Empty(t, decode[[]map[string]interface{}](t, rec))

	rec = a.do(t, http.MethodDelete, "/api/academique/horaires/"+scheduleID+"/", a.token(t, a.studentB1), nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	rec = a.do(t, http.MethodDelete, "/api/academique/horaires/"+scheduleID+"/", a.token(t, a.coordB1), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestDocumentFileUploadAndView(t *testing.T) {
	a := newApp(t, testConfig())
	courseID := a.createCourse(t, a.b1.ID)

	rec := a.do(t, http.MethodPost, "/api/cours/"+courseID+"/documents/", a.token(t, a.supervisor), map[string]string{"titre": "Week 1", "categorie": "resume"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	documentID := decode[map[string]interface{}](t, rec)["id"].(string)

	rec = a.do(t, http.MethodPost, "/api/cours/"+courseID+"/documents/", a.token(t, a.studentB1), map[string]string{"titre": "Mine"})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.uploadFile(t, documentID, "Slides", "text/plain; charset=utf-8", "bones and muscles")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	file := decode[map[string]interface{}](t, rec)
	fileID := file["id"].(string)
	require.Equal(t, "Slides", file["nom"])
	require.Equal(t, "https://ecole.test/api/documents/files/"+fileID+"/view/", file["view_url"])

	rec = a.do(t, http.MethodGet, "/api/documents/"+documentID+"/files/", a.token(t, a.studentB1), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[[]map[string]interface{}](t, rec), 1)

	rec = a.do(t, http.MethodGet, "/api/documents/files/"+fileID+"/view/", a.token(t, a.studentB1), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "inline", rec.Header().Get("Content-Disposition"))
	require.Equal(t, "sandbox", rec.Header().Get("Content-Security-Policy"))
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "bones and muscles", rec.Body.String())

	rec = a.do(t, http.MethodGet, "/api/documents/files/"+fileID+"/view/", a.token(t, a.studentB2), nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUploadedMarkupIsNotRenderedInline(t *testing.T) {
	a := newApp(t, testConfig())
	courseID := a.createCourse(t, a.b1.ID)
	rec := a.do(t, http.MethodPost, "/api/cours/"+courseID+"/documents/", a.token(t, a.supervisor), map[string]string{"titre": "Week 2", "categorie": "resume"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	documentID := decode[map[string]interface{}](t, rec)["id"].(string)

	for _, contentType := range []string{"text/html", "image/svg+xml", "application/octet-stream"} {
		rec = a.uploadFile(t, documentID, "page", contentType, "<script>alert(1)</script>")
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		fileID := decode[map[string]interface{}](t, rec)["id"].(string)

		rec = a.do(t, http.MethodGet, "/api/documents/files/"+fileID+"/view/", a.token(t, a.studentB1), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "attachment", rec.Header().Get("Content-Disposition"), contentType)
		require.Equal(t, "sandbox", rec.Header().Get("Content-Security-Policy"))
	}
}

func (a *app) uploadFile(t *testing.T, documentID, name, contentType, content string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	require.NoError(t, form.WriteField("nom", name))
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="fichier"; filename="upload"`)
	header.Set("Content-Type", contentType)
	part, err := form.CreatePart(header)
	require.NoError(t, err)
	_, err = io.WriteString(part, content)
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/documents/"+documentID+"/files/", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+a.token(t, a.supervisor))
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func TestMetricsEndpoint(t *testing.T) {
	a := newApp(t, testConfig())
	a.do(t, http.MethodGet, "/api/health/", "", nil)

	rec := a.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "ecole_http_requests_total")
}
