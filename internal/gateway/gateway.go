package gateway

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/BIGM16/Ecole-desExcellents/internal/metrics"
	"github.com/BIGM16/Ecole-desExcellents/internal/model"
	"github.com/BIGM16/Ecole-desExcellents/internal/policy"
)

// Gateways bundles the per-resource access paths. Every object operation
// runs load, then authorize, then act, in that order.
type Gateways struct {
	Courses   *Courses
	Schedules *Schedules
	Documents *Documents
	Accounts  *Accounts
	Cohorts   *Cohorts
}

type Options struct {
	Logger *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

type base struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

func New(store Store, blobs BlobStore, opts Options) *Gateways {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	b := base{store: store, logger: opts.Logger, now: opts.Now}
	return &Gateways{
		Courses:   &Courses{base: b},
		Schedules: &Schedules{base: b},
		Documents: &Documents{base: b, blobs: blobs},
		Accounts:  &Accounts{base: b},
		Cohorts:   &Cohorts{base: b},
	}
}

// authorize records the decision and turns a denial into ErrForbidden.
func (b base) authorize(ctx context.Context, resource policy.Resource, action policy.Action, p model.Principal, decision policy.Decision) error {
	metrics.PolicyDecisions.WithLabelValues(resource.String(), action.String(), decision.String()).Inc()
	b.logger.DebugContext(ctx, "policy decision",
		"resource", resource.String(),
		"action", action.String(),
		"principal", p.ID,
		"role", string(p.Role),
		"decision", decision.String(),
	)
	if !decision.Allowed() {
		return ErrForbidden
	}
	return nil
}

func (b base) timestamp() time.Time {
	return b.now().UTC()
}

// checkID rejects identifiers that cannot name a row.
func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	return nil
}

func newID() string {
	return uuid.NewString()
}

// duplicate converts a store unique violation into a field error.
func duplicate(err error, field, message string) error {
	if errors.Is(err, ErrDuplicate) {
		verr := NewValidationError()
		verr.Add(field, message)
		return verr
	}
	return err
}

// Cohorts exposes the cohort directory to any authenticated principal.
type Cohorts struct {
	base
}

func (c *Cohorts) List(ctx context.Context, p model.Principal) ([]model.Cohort, error) {
	if !p.Role.Valid() {
		return nil, ErrForbidden
	}
	return c.store.ListCohorts(ctx)
}
