package gateway

import (
	"context"
	"time"

	"github.com/BIGM16/Ecole-desExcellents/internal/model"
	"github.com/BIGM16/Ecole-desExcellents/internal/policy"
)

const msgEndBeforeStart = "The end date must not be before the start date."

// ScheduleInput is a schedule write. Nil fields are absent; an empty
// CourseID or Description clears the value.
type ScheduleInput struct {
	Title       *string
	Description *string
	CourseID    *string
	StartAt     *time.Time
	EndAt       *time.Time
	Location    *string
	CohortID    *string
}

type Schedules struct {
	base
}

// List returns the schedules visible to p. Students and supervisors only
// see their cohort, and see nothing without one.
func (s *Schedules) List(ctx context.Context, p model.Principal) ([]model.Schedule, error) {
	if err := s.authorize(ctx, policy.ResourceSchedule, policy.ReadList, p, policy.Schedule(p, policy.ReadList, nil)); err != nil {
		return nil, err
	}
	scope := policy.ScheduleScope(p)
	if scope.Empty() {
		return []model.Schedule{}, nil
	}
	return s.store.ListSchedules(ctx, scope)
}

func (s *Schedules) load(ctx context.Context, id string) (model.Schedule, error) {
	if err := checkID(id); err != nil {
		return model.Schedule{}, err
	}
	return s.store.GetSchedule(ctx, id)
}

func (s *Schedules) Get(ctx context.Context, p model.Principal, id string) (model.Schedule, error) {
	schedule, err := s.load(ctx, id)
	if err != nil {
		return model.Schedule{}, err
	}
	if err := s.authorize(ctx, policy.ResourceSchedule, policy.ReadOne, p, policy.Schedule(p, policy.ReadOne, &schedule)); err != nil {
		return model.Schedule{}, err
	}
	return schedule, nil
}

// Create checks the object rule against the proposed schedule, so
// coordinators and supervisors can only create in their own cohort.
func (s *Schedules) Create(ctx context.Context, p model.Principal, in ScheduleInput) (model.Schedule, error) {
	if !policy.Gate(policy.ResourceSchedule, p, policy.Create) {
		return model.Schedule{}, s.authorize(ctx, policy.ResourceSchedule, policy.Create, p, policy.Deny)
	}
	// A proposed cohort outside the principal's reach is refused before
	// field validation looks up any referenced course.
	if in.CohortID != nil {
		proposed := model.Schedule{CohortID: trimmed(in.CohortID)}
		if err := s.authorize(ctx, policy.ResourceSchedule, policy.Create, p, policy.Schedule(p, policy.Create, &proposed)); err != nil {
			return model.Schedule{}, err
		}
	}
	schedule := model.Schedule{ID: newID(), CreatedAt: s.timestamp()}
	if err := s.apply(ctx, &schedule, in, true); err != nil {
		return model.Schedule{}, err
	}
	if err := s.authorize(ctx, policy.ResourceSchedule, policy.Create, p, policy.Schedule(p, policy.Create, &schedule)); err != nil {
		return model.Schedule{}, err
	}
	if err := s.store.CreateSchedule(ctx, schedule); err != nil {
		return model.Schedule{}, err
	}
	return schedule, nil
}

// Update must be allowed on the schedule both before and after the change,
// which keeps a coordinator from moving a schedule out of its cohort.
func (s *Schedules) Update(ctx context.Context, p model.Principal, id string, in ScheduleInput) (model.Schedule, error) {
	schedule, err := s.load(ctx, id)
	if err != nil {
		return model.Schedule{}, err
	}
	if err := s.authorize(ctx, policy.ResourceSchedule, policy.Update, p, policy.Schedule(p, policy.Update, &schedule)); err != nil {
		return model.Schedule{}, err
	}
	updated := schedule
	if err := s.apply(ctx, &updated, in, false); err != nil {
		return model.Schedule{}, err
	}
	if updated.CohortID != schedule.CohortID {
		if err := s.authorize(ctx, policy.ResourceSchedule, policy.Update, p, policy.Schedule(p, policy.Update, &updated)); err != nil {
			return model.Schedule{}, err
		}
	}
	if err := s.store.UpdateSchedule(ctx, updated); err != nil {
		return model.Schedule{}, err
	}
	return updated, nil
}

func (s *Schedules) Delete(ctx context.Context, p model.Principal, id string) error {
	schedule, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, policy.ResourceSchedule, policy.Delete, p, policy.Schedule(p, policy.Delete, &schedule)); err != nil {
		return err
	}
	return s.store.DeleteSchedule(ctx, schedule.ID)
}

func (s *Schedules) apply(ctx context.Context, schedule *model.Schedule, in ScheduleInput, create bool) error {
	verr := NewValidationError()
	text(verr, "titre", in.Title, create, false, 200)
	text(verr, "description", in.Description, false, true, 0)
	text(verr, "lieu", in.Location, false, true, 200)
	if create && in.StartAt == nil {
		verr.Add("date_debut", msgRequired)
	}

	courseID := schedule.CourseID
	if in.CourseID != nil {
		courseID = trimmed(in.CourseID)
		if err := refExists(ctx, verr, "cours", courseID, func(ctx context.Context, id string) error {
			_, err := s.store.GetCourse(ctx, id)
			return err
		}); err != nil {
			return err
		}
	}
	cohortID := schedule.CohortID
	if in.CohortID != nil {
		cohortID = trimmed(in.CohortID)
		if err := refExists(ctx, verr, "promotion", cohortID, func(ctx context.Context, id string) error {
			_, err := s.store.GetCohort(ctx, id)
			return err
		}); err != nil {
			return err
		}
	}

	startAt := schedule.StartAt
	if in.StartAt != nil {
		startAt = in.StartAt.UTC()
	}
	endAt := schedule.EndAt
	if in.EndAt != nil {
		end := in.EndAt.UTC()
		endAt = &end
	}
	if endAt != nil && !startAt.IsZero() && endAt.Before(startAt) {
		verr.Add("date_fin", msgEndBeforeStart)
	}
	if err := verr.Err(); err != nil {
		return err
	}

	if in.Title != nil {
		schedule.Title = trimmed(in.Title)
	}
	if in.Description != nil {
		schedule.Description = trimmed(in.Description)
	}
	if in.Location != nil {
		schedule.Location = trimmed(in.Location)
	}
	schedule.CourseID = courseID
	schedule.CohortID = cohortID
	schedule.StartAt = startAt
	schedule.EndAt = endAt
	return nil
}
