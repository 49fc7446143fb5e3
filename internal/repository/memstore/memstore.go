// Package memstore is an in-memory gateway.Store for tests and local demos.
// It mirrors the PostgreSQL store's referential behavior: deleting a course
// cascades to its documents and files, and deleting an account or cohort
// clears the references to it.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/BIGM16/Ecole-desExcellents/internal/gateway"
	"github.com/BIGM16/Ecole-desExcellents/internal/model"
	"github.com/BIGM16/Ecole-desExcellents/internal/policy"
)

type courseRow struct {
	course        model.Course
	supervisorIDs []string
	cohortIDs     []string
}

type Store struct {
	mu         sync.RWMutex
	principals map[string]model.Principal
	cohorts    map[string]model.Cohort
	courses    map[string]courseRow
	schedules  map[string]model.Schedule
	documents  map[string]model.Document
	files      map[string]model.DocumentFile
}

var _ gateway.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		principals: map[string]model.Principal{},
		cohorts:    map[string]model.Cohort{},
		courses:    map[string]courseRow{},
		schedules:  map[string]model.Schedule{},
		documents:  map[string]model.Document{},
		files:      map[string]model.DocumentFile{},
	}
}

func (s *Store) GetPrincipal(_ context.Context, id string) (model.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	principal, ok := s.principals[id]
	if !ok {
		return model.Principal{}, gateway.ErrNotFound
	}
	return principal, nil
}

func (s *Store) GetPrincipalByEmail(_ context.Context, email string) (model.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, principal := range s.principals {
		if principal.Email == email {
			return principal, nil
		}
	}
	return model.Principal{}, gateway.ErrNotFound
}

func (s *Store) ListPrincipals(_ context.Context, scope policy.AccountScope) ([]model.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Principal{}
	for _, principal := range s.principals {
		if scope.Role != "" && principal.Role != scope.Role {
			continue
		}
		if !scope.All && principal.CohortID != scope.CohortID {
			continue
		}
		out = append(out, principal)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DateJoined.Equal(out[j].DateJoined) {
			return out[i].DateJoined.Before(out[j].DateJoined)
		}
		return out[i].Email < out[j].Email
	})
	return out, nil
}

func (s *Store) ListPrincipalsByID(_ context.Context, ids []string) ([]model.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Principal{}
	for _, id := range ids {
		if principal, ok := s.principals[id]; ok {
			out = append(out, principal)
		}
	}
	return out, nil
}

func (s *Store) CreatePrincipal(_ context.Context, principal model.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.principals[principal.ID]; ok {
		return gateway.ErrDuplicate
	}
	for _, existing := range s.principals {
		if existing.Email == principal.Email {
			return gateway.ErrDuplicate
		}
	}
	s.principals[principal.ID] = principal
	return nil
}

func (s *Store) UpdatePrincipal(_ context.Context, principal model.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.principals[principal.ID]; !ok {
		return gateway.ErrNotFound
	}
	s.principals[principal.ID] = principal
	return nil
}

func (s *Store) DeletePrincipal(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.principals[id]; !ok {
		return gateway.ErrNotFound
	}
	delete(s.principals, id)
	for courseID, row := range s.courses {
		row.supervisorIDs = without(row.supervisorIDs, id)
		s.courses[courseID] = row
	}
	for docID, document := range s.documents {
		if document.UploadedBy == id {
			document.UploadedBy = ""
			s.documents[docID] = document
		}
	}
	for fileID, file := range s.files {
		if file.UploadedBy == id {
			file.UploadedBy = ""
			s.files[fileID] = file
		}
	}
	return nil
}

func (s *Store) ListCohorts(_ context.Context) ([]model.Cohort, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Cohort, 0, len(s.cohorts))
	for _, cohort := range s.cohorts {
		out = append(out, cohort)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *Store) GetCohort(_ context.Context, id string) (model.Cohort, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cohort, ok := s.cohorts[id]
	if !ok {
		return model.Cohort{}, gateway.ErrNotFound
	}
	return cohort, nil
}

func (s *Store) CreateCohort(_ context.Context, cohort model.Cohort) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.cohorts {
		if existing.ID == cohort.ID || (existing.Name == cohort.Name && existing.Year == cohort.Year) {
			return gateway.ErrDuplicate
		}
	}
	s.cohorts[cohort.ID] = cohort
	return nil
}

func (s *Store) GetCourse(_ context.Context, id string) (model.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.courses[id]
	if !ok {
		return model.Course{}, gateway.ErrNotFound
	}
	return s.resolve(row), nil
}

// resolve fills the course refs from the current rows. Callers hold mu.
func (s *Store) resolve(row courseRow) model.Course {
	course := row.course
	course.Supervisors = make([]model.PersonRef, 0, len(row.supervisorIDs))
	for _, id := range row.supervisorIDs {
		if principal, ok := s.principals[id]; ok {
			course.Supervisors = append(course.Supervisors, model.PersonRef{ID: id, FirstName: principal.FirstName, LastName: principal.LastName})
		}
	}
	course.Cohorts = make([]model.Cohort, 0, len(row.cohortIDs))
	for _, id := range row.cohortIDs {
		if cohort, ok := s.cohorts[id]; ok {
			course.Cohorts = append(course.Cohorts, cohort)
		}
	}
	return course
}

func (s *Store) ListCourses(_ context.Context, scope policy.Scope) ([]model.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Course{}
	for _, row := range s.courses {
		if !scope.All && !contains(row.cohortIDs, scope.CohortID) {
			continue
		}
		out = append(out, s.resolve(row))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) CreateCourse(_ context.Context, course model.Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.courses[course.ID]; ok {
		return gateway.ErrDuplicate
	}
	s.courses[course.ID] = newCourseRow(course)
	return nil
}

func (s *Store) UpdateCourse(_ context.Context, course model.Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.courses[course.ID]; !ok {
		return gateway.ErrNotFound
	}
	s.courses[course.ID] = newCourseRow(course)
	return nil
}

func newCourseRow(course model.Course) courseRow {
	row := courseRow{
		course:        course,
		supervisorIDs: course.SupervisorIDs(),
		cohortIDs:     course.CohortIDs(),
	}
	row.course.Supervisors = nil
	row.course.Cohorts = nil
	return row
}

func (s *Store) DeleteCourse(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.courses[id]; !ok {
		return gateway.ErrNotFound
	}
	delete(s.courses, id)
	for docID, document := range s.documents {
		if document.CourseID != id {
			continue
		}
		delete(s.documents, docID)
		for fileID, file := range s.files {
			if file.DocumentID == docID {
				delete(s.files, fileID)
			}
		}
	}
	for scheduleID, schedule := range s.schedules {
		if schedule.CourseID == id {
			schedule.CourseID = ""
			s.schedules[scheduleID] = schedule
		}
	}
	return nil
}

func (s *Store) GetSchedule(_ context.Context, id string) (model.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	schedule, ok := s.schedules[id]
	if !ok {
		return model.Schedule{}, gateway.ErrNotFound
	}
	return schedule, nil
}

func (s *Store) ListSchedules(_ context.Context, scope policy.Scope) ([]model.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Schedule{}
	for _, schedule := range s.schedules {
		if !scope.All && schedule.CohortID != scope.CohortID {
			continue
		}
		out = append(out, schedule)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartAt.Equal(out[j].StartAt) {
			return out[i].StartAt.Before(out[j].StartAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) CreateSchedule(_ context.Context, schedule model.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.schedules[schedule.ID]; ok {
		return gateway.ErrDuplicate
	}
	s.schedules[schedule.ID] = schedule
	return nil
}

func (s *Store) UpdateSchedule(_ context.Context, schedule model.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.schedules[schedule.ID]; !ok {
		return gateway.ErrNotFound
	}
	s.schedules[schedule.ID] = schedule
	return nil
}

func (s *Store) DeleteSchedule(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.schedules[id]; !ok {
		return gateway.ErrNotFound
	}
	delete(s.schedules, id)
	return nil
}

func (s *Store) GetDocument(_ context.Context, id string) (model.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	document, ok := s.documents[id]
	if !ok {
		return model.Document{}, gateway.ErrNotFound
	}
	return document, nil
}

func (s *Store) ListDocuments(_ context.Context, courseID string) ([]model.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Document{}
	for _, document := range s.documents {
		if document.CourseID == courseID {
			out = append(out, document)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AddedAt.Equal(out[j].AddedAt) {
			return out[i].AddedAt.Before(out[j].AddedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) CreateDocument(_ context.Context, document model.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.courses[document.CourseID]; !ok {
		return gateway.ErrNotFound
	}
	s.documents[document.ID] = document
	return nil
}

func (s *Store) GetDocumentFile(_ context.Context, id string) (model.DocumentFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	file, ok := s.files[id]
	if !ok {
		return model.DocumentFile{}, gateway.ErrNotFound
	}
	return file, nil
}

func (s *Store) ListDocumentFiles(_ context.Context, documentID string) ([]model.DocumentFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.DocumentFile{}
	for _, file := range s.files {
		if file.DocumentID == documentID {
			out = append(out, file)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AddedAt.Equal(out[j].AddedAt) {
			return out[i].AddedAt.Before(out[j].AddedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) CreateDocumentFile(_ context.Context, file model.DocumentFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[file.DocumentID]; !ok {
		return gateway.ErrNotFound
	}
	s.files[file.ID] = file
	return nil
}

func contains(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}

func without(values []string, target string) []string {
	out := values[:0:0]
	for _, value := range values {
		if value != target {
			out = append(out, value)
		}
	}
	return out
}
