package model

import (
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin       Role = "ADMIN"
	RoleCoordinator Role = "COORDON"
	RoleSupervisor  Role = "ENCADREUR"
	RoleStudent     Role = "ETUDIANT"
)

var Roles = []Role{RoleAdmin, RoleCoordinator, RoleSupervisor, RoleStudent}

func ParseRole(value string) (Role, bool) {
	role := Role(strings.ToUpper(strings.TrimSpace(value)))
	switch role {
	case RoleAdmin, RoleCoordinator, RoleSupervisor, RoleStudent:
		return role, true
	default:
		return "", false
	}
}

func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

// Principal is an account. CohortID is empty for principals without a cohort.
type Principal struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Telephone    string
	Bio          string
	Role         Role
	CohortID     string
	IsActive     bool
	IsStaff      bool
	DateJoined   time.Time
}

func (p Principal) HasCohort() bool {
	return p.CohortID != ""
}

func (p Principal) SameCohort(cohortID string) bool {
	return p.CohortID != "" && p.CohortID == cohortID
}

// PersonRef is the short form of a principal embedded in other resources.
type PersonRef struct {
	ID        string
	FirstName string
	LastName  string
}

type CohortName string

const (
	CohortL0 CohortName = "L0"
	CohortB1 CohortName = "B1"
	CohortB2 CohortName = "B2"
	CohortB3 CohortName = "B3"
	CohortM1 CohortName = "M1"
)

var CohortNames = []CohortName{CohortL0, CohortB1, CohortB2, CohortB3, CohortM1}

func (n CohortName) Valid() bool {
	for _, name := range CohortNames {
		if n == name {
			return true
		}
	}
	return false
}

type Cohort struct {
	ID   string
	Name CohortName
	Year int
}

type Course struct {
	ID          string
	Title       string
	Description string
	CreatedAt   time.Time
	Supervisors []PersonRef
	Cohorts     []Cohort
}

func (c Course) HasSupervisor(principalID string) bool {
	for _, supervisor := range c.Supervisors {
		if supervisor.ID == principalID {
			return true
		}
	}
	return false
}

func (c Course) HasCohort(cohortID string) bool {
	if cohortID == "" {
		return false
	}
	for _, cohort := range c.Cohorts {
		if cohort.ID == cohortID {
			return true
		}
	}
	return false
}

func (c Course) SupervisorIDs() []string {
	ids := make([]string, 0, len(c.Supervisors))
	for _, supervisor := range c.Supervisors {
		ids = append(ids, supervisor.ID)
	}
	return ids
}

func (c Course) CohortIDs() []string {
	ids := make([]string, 0, len(c.Cohorts))
	for _, cohort := range c.Cohorts {
		ids = append(ids, cohort.ID)
	}
	return ids
}

// Schedule is a timed event. CourseID and CohortID are empty once the
// referenced row is deleted.
type Schedule struct {
	ID          string
	Title       string
	Description string
	CourseID    string
	StartAt     time.Time
	EndAt       *time.Time
	Location    string
	CohortID    string
	CreatedAt   time.Time
}

type DocumentCategory string

const (
	CategoryNotes   DocumentCategory = "notes"
	CategoryItems   DocumentCategory = "items"
	CategorySummary DocumentCategory = "resume"
	CategoryOther   DocumentCategory = "autre"
)

func ParseDocumentCategory(value string) (DocumentCategory, bool) {
	category := DocumentCategory(strings.ToLower(strings.TrimSpace(value)))
	switch category {
	case CategoryNotes, CategoryItems, CategorySummary, CategoryOther:
		return category, true
	default:
		return "", false
	}
}

type Document struct {
	ID         string
	CourseID   string
	Title      string
	Category   DocumentCategory
	AddedAt    time.Time
	UploadedBy string
}

type DocumentFile struct {
	ID          string
	DocumentID  string
	BlobKey     string
	Name        string
	ContentType string
	Size        int64
	AddedAt     time.Time
	UploadedBy  string
}
