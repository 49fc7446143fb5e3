package http

import (
	"time"

	"github.com/BIGM16/Ecole-desExcellents/internal/gateway"
	"github.com/BIGM16/Ecole-desExcellents/internal/model"
)

type cohortView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Year int    `json:"annee"`
}

type cohortRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type personView struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type courseView struct {
	ID          string       `json:"id"`
	Title       string       `json:"titre"`
	Description string       `json:"description"`
	Supervisors []personView `json:"encadreurs"`
	Cohorts     []cohortView `json:"promotions"`
	CreatedAt   time.Time    `json:"created_at"`
}

// courseDetailView always carries documents, empty or not.
type courseDetailView struct {
	courseView
	Documents []documentView `json:"documents"`
}

type scheduleView struct {
	ID          string     `json:"id"`
	Title       string     `json:"titre"`
	Description string     `json:"description"`
	CourseID    *string    `json:"cours"`
	StartAt     time.Time  `json:"date_debut"`
	EndAt       *time.Time `json:"date_fin"`
	Location    string     `json:"lieu"`
	CohortID    *string    `json:"promotion"`
}

type documentView struct {
	ID       string    `json:"id"`
	Title    string    `json:"titre"`
	Category string    `json:"categorie"`
	AddedAt  time.Time `json:"date_ajout"`
}

type fileView struct {
	ID          string    `json:"id"`
	Name        string    `json:"nom"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	AddedAt     time.Time `json:"date_ajout"`
	ViewURL     string    `json:"view_url"`
}

// accountView is the list shape. The admin detail adds the flags and the
// join date.
type accountView struct {
	ID         string     `json:"id"`
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	Email      string     `json:"email"`
	Telephone  string     `json:"telephone"`
	Role       string     `json:"role"`
	Bio        string     `json:"bio"`
	Cohort     *cohortRef `json:"promotion"`
	IsActive   bool       `json:"is_active"`
	IsStaff    *bool      `json:"is_staff,omitempty"`
	DateJoined *time.Time `json:"date_joined,omitempty"`
}

type publicAccountView struct {
	ID        string     `json:"id"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Telephone string     `json:"telephone"`
	Bio       string     `json:"bio"`
	Cohort    *cohortRef `json:"promotion"`
}

type meView struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Bio       string     `json:"bio"`
	Role      string     `json:"role"`
	Cohort    *cohortRef `json:"promotion"`
	Telephone string     `json:"telephone"`
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func mapCohort(c model.Cohort) cohortView {
	return cohortView{ID: c.ID, Name: string(c.Name), Year: c.Year}
}

func mapCourse(c model.Course) courseView {
	view := courseView{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Supervisors: make([]personView, 0, len(c.Supervisors)),
		Cohorts:     make([]cohortView, 0, len(c.Cohorts)),
		CreatedAt:   c.CreatedAt,
	}
	for _, s := range c.Supervisors {
		view.Supervisors = append(view.Supervisors, personView{ID: s.ID, FirstName: s.FirstName, LastName: s.LastName})
	}
	for _, cohort := range c.Cohorts {
		view.Cohorts = append(view.Cohorts, mapCohort(cohort))
	}
	return view
}

func mapCourseDetail(detail gateway.CourseDetail) courseDetailView {
	view := courseDetailView{courseView: mapCourse(detail.Course)}
	view.Documents = make([]documentView, 0, len(detail.Documents))
	for _, d := range detail.Documents {
		view.Documents = append(view.Documents, mapDocument(d))
	}
	return view
}

func mapSchedule(s model.Schedule) scheduleView {
	return scheduleView{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		CourseID:    optional(s.CourseID),
		StartAt:     s.StartAt,
		EndAt:       s.EndAt,
		Location:    s.Location,
		CohortID:    optional(s.CohortID),
	}
}

func mapDocument(d model.Document) documentView {
	return documentView{ID: d.ID, Title: d.Title, Category: string(d.Category), AddedAt: d.AddedAt}
}

// cohortIndex resolves the cohort refs embedded in account payloads.
type cohortIndex map[string]model.Cohort

func (idx cohortIndex) ref(id string) *cohortRef {
	if id == "" {
		return nil
	}
	ref := &cohortRef{ID: id}
	if cohort, ok := idx[id]; ok {
		ref.Name = string(cohort.Name)
	}
	return ref
}

func (idx cohortIndex) account(p model.Principal) accountView {
	return accountView{
		ID:        p.ID,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Email:     p.Email,
		Telephone: p.Telephone,
		Role:      string(p.Role),
		Bio:       p.Bio,
		Cohort:    idx.ref(p.CohortID),
		IsActive:  p.IsActive,
	}
}

func (idx cohortIndex) adminAccount(p model.Principal) accountView {
	view := idx.account(p)
	isStaff := p.IsStaff
	joined := p.DateJoined
	view.IsStaff = &isStaff
	view.DateJoined = &joined
	return view
}

func (idx cohortIndex) publicAccount(p model.Principal) publicAccountView {
	return publicAccountView{
		ID:        p.ID,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Telephone: p.Telephone,
		Bio:       p.Bio,
		Cohort:    idx.ref(p.CohortID),
	}
}

func (idx cohortIndex) me(p model.Principal) meView {
	return meView{
		ID:        p.ID,
		Email:     p.Email,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Bio:       p.Bio,
		Role:      string(p.Role),
		Cohort:    idx.ref(p.CohortID),
		Telephone: p.Telephone,
	}
}
