package gateway

import (
	"context"
	"io"

	"github.com/BIGM16/Ecole-desExcellents/internal/model"
	"github.com/BIGM16/Ecole-desExcellents/internal/policy"
)

// Stores return ErrNotFound for missing rows and ErrDuplicate for unique
// key conflicts. Get methods load the related rows the policy needs.

type PrincipalStore interface {
	GetPrincipal(ctx context.Context, id string) (model.Principal, error)
	GetPrincipalByEmail(ctx context.Context, email string) (model.Principal, error)
	ListPrincipals(ctx context.Context, scope policy.AccountScope) ([]model.Principal, error)
	ListPrincipalsByID(ctx context.Context, ids []string) ([]model.Principal, error)
	CreatePrincipal(ctx context.Context, principal model.Principal) error
	UpdatePrincipal(ctx context.Context, principal model.Principal) error
	DeletePrincipal(ctx context.Context, id string) error
}

type CohortStore interface {
	ListCohorts(ctx context.Context) ([]model.Cohort, error)
	GetCohort(ctx context.Context, id string) (model.Cohort, error)
	CreateCohort(ctx context.Context, cohort model.Cohort) error
}

type CourseStore interface {
	GetCourse(ctx context.Context, id string) (model.Course, error)
	ListCourses(ctx context.Context, scope policy.Scope) ([]model.Course, error)
	// CreateCourse and UpdateCourse persist the supervisor and cohort links
	// by id; names in the refs are ignored.
	CreateCourse(ctx context.Context, course model.Course) error
	UpdateCourse(ctx context.Context, course model.Course) error
	DeleteCourse(ctx context.Context, id string) error
}

type ScheduleStore interface {
	GetSchedule(ctx context.Context, id string) (model.Schedule, error)
	ListSchedules(ctx context.Context, scope policy.Scope) ([]model.Schedule, error)
	CreateSchedule(ctx context.Context, schedule model.Schedule) error
	UpdateSchedule(ctx context.Context, schedule model.Schedule) error
	DeleteSchedule(ctx context.Context, id string) error
}

type DocumentStore interface {
	GetDocument(ctx context.Context, id string) (model.Document, error)
	ListDocuments(ctx context.Context, courseID string) ([]model.Document, error)
	CreateDocument(ctx context.Context, document model.Document) error
	GetDocumentFile(ctx context.Context, id string) (model.DocumentFile, error)
	ListDocumentFiles(ctx context.Context, documentID string) ([]model.DocumentFile, error)
	CreateDocumentFile(ctx context.Context, file model.DocumentFile) error
}

type Store interface {
	PrincipalStore
	CohortStore
	CourseStore
	ScheduleStore
	DocumentStore
}

// BlobStore holds uploaded file content.
type BlobStore interface {
	Put(ctx context.Context, content io.Reader) (key string, size int64, err error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}
