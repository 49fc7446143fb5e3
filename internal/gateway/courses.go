package gateway

import (
	"context"
	"errors"

	"github.com/BIGM16/Ecole-desExcellents/internal/model"
	"github.com/BIGM16/Ecole-desExcellents/internal/policy"
)

const msgSupervisorOnly = "Only supervisors can be assigned to a course."

// CourseInput is a course write. Nil fields are absent from the request;
// on update they keep their current value.
type CourseInput struct {
	Title         *string
	Description   *string
	SupervisorIDs *[]string
	CohortIDs     *[]string
}

// CourseDetail is a course with its documents.
type CourseDetail struct {
	model.Course
	Documents []model.Document
}

type Courses struct {
	base
}

// List returns the courses visible to p: students see the courses opened
// to their cohort, everyone else sees all of them.
func (c *Courses) List(ctx context.Context, p model.Principal) ([]model.Course, error) {
	if err := c.authorize(ctx, policy.ResourceCourse, policy.ReadList, p, policy.Course(p, policy.ReadList, nil)); err != nil {
		return nil, err
	}
	scope := policy.CourseScope(p)
	if scope.Empty() {
		return []model.Course{}, nil
	}
	return c.store.ListCourses(ctx, scope)
}

func (c *Courses) load(ctx context.Context, id string) (model.Course, error) {
	if err := checkID(id); err != nil {
		return model.Course{}, err
	}
	return c.store.GetCourse(ctx, id)
}

func (c *Courses) Get(ctx context.Context, p model.Principal, id string) (CourseDetail, error) {
	course, err := c.load(ctx, id)
	if err != nil {
		return CourseDetail{}, err
	}
	if err := c.authorize(ctx, policy.ResourceCourse, policy.ReadOne, p, policy.Course(p, policy.ReadOne, &course)); err != nil {
		return CourseDetail{}, err
	}
	documents, err := c.store.ListDocuments(ctx, course.ID)
	if err != nil {
		return CourseDetail{}, err
	}
	return CourseDetail{Course: course, Documents: documents}, nil
}

func (c *Courses) Create(ctx context.Context, p model.Principal, in CourseInput) (model.Course, error) {
	if err := c.authorize(ctx, policy.ResourceCourse, policy.Create, p, policy.Course(p, policy.Create, nil)); err != nil {
		return model.Course{}, err
	}
	course := model.Course{ID: newID(), CreatedAt: c.timestamp()}
	if err := c.apply(ctx, &course, in, true); err != nil {
		return model.Course{}, err
	}
	if err := c.store.CreateCourse(ctx, course); err != nil {
		return model.Course{}, err
	}
	return c.store.GetCourse(ctx, course.ID)
}

func (c *Courses) Update(ctx context.Context, p model.Principal, id string, in CourseInput) (model.Course, error) {
	course, err := c.load(ctx, id)
	if err != nil {
		return model.Course{}, err
	}
	if err := c.authorize(ctx, policy.ResourceCourse, policy.Update, p, policy.Course(p, policy.Update, &course)); err != nil {
		return model.Course{}, err
	}
	if err := c.apply(ctx, &course, in, false); err != nil {
		return model.Course{}, err
	}
	if err := c.store.UpdateCourse(ctx, course); err != nil {
		return model.Course{}, err
	}
	return c.store.GetCourse(ctx, course.ID)
}

func (c *Courses) Delete(ctx context.Context, p model.Principal, id string) error {
	course, err := c.load(ctx, id)
	if err != nil {
		return err
	}
	if err := c.authorize(ctx, policy.ResourceCourse, policy.Delete, p, policy.Course(p, policy.Delete, &course)); err != nil {
		return err
	}
	return c.store.DeleteCourse(ctx, course.ID)
}

// apply validates in and copies it onto course. A supervisor list with any
// member that is not a current supervisor rejects the whole write.
func (c *Courses) apply(ctx context.Context, course *model.Course, in CourseInput, create bool) error {
	verr := NewValidationError()
	text(verr, "titre", in.Title, create, false, 100)
	text(verr, "description", in.Description, create, false, 300)

	var supervisors []model.PersonRef
	if in.SupervisorIDs != nil {
		refs, err := c.supervisors(ctx, verr, dedupe(*in.SupervisorIDs))
		if err != nil {
			return err
		}
		supervisors = refs
	}
	var cohorts []model.Cohort
	if in.CohortIDs != nil {
		for _, id := range dedupe(*in.CohortIDs) {
			if checkID(id) != nil {
				verr.Add("promotions", msgMissingRef(id))
				continue
			}
			cohort, err := c.store.GetCohort(ctx, id)
			if errors.Is(err, ErrNotFound) {
				verr.Add("promotions", msgMissingRef(id))
				continue
			}
			if err != nil {
				return err
			}
			cohorts = append(cohorts, cohort)
		}
	}
	if err := verr.Err(); err != nil {
		return err
	}

	if in.Title != nil {
		course.Title = trimmed(in.Title)
	}
	if in.Description != nil {
		course.Description = trimmed(in.Description)
	}
	if in.SupervisorIDs != nil {
		course.Supervisors = supervisors
	}
	if in.CohortIDs != nil {
		course.Cohorts = cohorts
	}
	return nil
}

func (c *Courses) supervisors(ctx context.Context, verr *ValidationError, ids []string) ([]model.PersonRef, error) {
	if len(ids) == 0 {
		return []model.PersonRef{}, nil
	}
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if checkID(id) != nil {
			verr.Add("encadreurs", msgMissingRef(id))
			continue
		}
		valid = append(valid, id)
	}
	found, err := c.store.ListPrincipalsByID(ctx, valid)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]model.Principal, len(found))
	for _, principal := range found {
		byID[principal.ID] = principal
	}
	refs := make([]model.PersonRef, 0, len(valid))
	roleMismatch := false
	for _, id := range valid {
		principal, ok := byID[id]
		if !ok {
			verr.Add("encadreurs", msgMissingRef(id))
			continue
		}
		if principal.Role != model.RoleSupervisor {
			roleMismatch = true
			continue
		}
		refs = append(refs, model.PersonRef{ID: principal.ID, FirstName: principal.FirstName, LastName: principal.LastName})
	}
	if roleMismatch {
		verr.Add("encadreurs", msgSupervisorOnly)
	}
	return refs, nil
}
