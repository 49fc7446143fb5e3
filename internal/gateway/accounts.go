package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/BIGM16/Ecole-desExcellents/internal/crypto"
	"github.com/BIGM16/Ecole-desExcellents/internal/model"
	"github.com/BIGM16/Ecole-desExcellents/internal/policy"
)

// ErrInvalidCredentials is returned by Authenticate for an unknown email, a
// wrong or unusable password, or an inactive account alike.
var ErrInvalidCredentials = errors.New("invalid credentials")

const msgEmailTaken = "user with this email already exists."

// AccountInput is an account write. Email applies to creation only.
type AccountInput struct {
	Email     *string
	FirstName *string
	LastName  *string
	Telephone *string
	Bio       *string
	Role      *string
	CohortID  *string
	Password  *string
	IsActive  *bool
	IsStaff   *bool
}

// ProfileInput is what a principal may change on its own account.
type ProfileInput struct {
	FirstName *string
	LastName  *string
	Telephone *string
	Bio       *string
}

// Accounts manages user accounts. kind, when not empty, restricts an
// operation to accounts of that role, as the role-scoped endpoints do.
type Accounts struct {
	base
}

// Authenticate checks a login. Only active accounts with a usable
// password can log in.
func (a *Accounts) Authenticate(ctx context.Context, email, password string) (model.Principal, error) {
	principal, err := a.store.GetPrincipalByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, ErrNotFound) {
		return model.Principal{}, ErrInvalidCredentials
	}
	if err != nil {
		return model.Principal{}, err
	}
	if err := crypto.CheckPassword(principal.PasswordHash, password); err != nil {
		return model.Principal{}, ErrInvalidCredentials
	}
	if !principal.IsActive {
		return model.Principal{}, ErrInvalidCredentials
	}
	return principal, nil
}

// Resolve loads the principal a validated token names. A deleted or
// deactivated account no longer authenticates.
func (a *Accounts) Resolve(ctx context.Context, id string) (model.Principal, error) {
	if checkID(id) != nil {
		return model.Principal{}, ErrUnauthenticated
	}
	principal, err := a.store.GetPrincipal(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return model.Principal{}, ErrUnauthenticated
	}
	if err != nil {
		return model.Principal{}, err
	}
	if !principal.IsActive {
		return model.Principal{}, ErrUnauthenticated
	}
	return principal, nil
}

func (a *Accounts) Me(ctx context.Context, p model.Principal) (model.Principal, error) {
	return a.store.GetPrincipal(ctx, p.ID)
}

func (a *Accounts) UpdateMe(ctx context.Context, p model.Principal, in ProfileInput) (model.Principal, error) {
	current, err := a.store.GetPrincipal(ctx, p.ID)
	if err != nil {
		return model.Principal{}, err
	}
	verr := NewValidationError()
	profileFields(verr, in.FirstName, in.LastName, in.Telephone, false)
	if err := verr.Err(); err != nil {
		return model.Principal{}, err
	}
	applyProfile(&current, in.FirstName, in.LastName, in.Telephone, in.Bio)
	if err := a.store.UpdatePrincipal(ctx, current); err != nil {
		return model.Principal{}, err
	}
	return current, nil
}

func (a *Accounts) List(ctx context.Context, p model.Principal, kind model.Role) ([]model.Principal, error) {
	scope, decision := policy.AccountListScope(p, kind)
	if err := a.authorize(ctx, policy.ResourceAccount, policy.ReadList, p, decision); err != nil {
		return nil, err
	}
	if scope.Empty() {
		return []model.Principal{}, nil
	}
	return a.store.ListPrincipals(ctx, scope)
}

func (a *Accounts) load(ctx context.Context, kind model.Role, id string) (model.Principal, error) {
	if err := checkID(id); err != nil {
		return model.Principal{}, err
	}
	target, err := a.store.GetPrincipal(ctx, id)
	if err != nil {
		return model.Principal{}, err
	}
	if kind != "" && target.Role != kind {
		return model.Principal{}, ErrNotFound
	}
	return target, nil
}

func (a *Accounts) Get(ctx context.Context, p model.Principal, kind model.Role, id string) (model.Principal, error) {
	target, err := a.load(ctx, kind, id)
	if err != nil {
		return model.Principal{}, err
	}
	if err := a.authorize(ctx, policy.ResourceAccount, policy.ReadOne, p, policy.Account(p, policy.ReadOne, &target)); err != nil {
		return model.Principal{}, err
	}
	return target, nil
}

// Create adds an account. The creator's role and cohort constraints are
// reported together with the field errors.
func (a *Accounts) Create(ctx context.Context, p model.Principal, kind model.Role, in AccountInput) (model.Principal, error) {
	if err := a.authorize(ctx, policy.ResourceAccount, policy.Create, p, policy.Account(p, policy.Create, nil)); err != nil {
		return model.Principal{}, err
	}

	verr := NewValidationError()
	email(verr, "email", in.Email)
	profileFields(verr, in.FirstName, in.LastName, in.Telephone, true)
	if verr.Fields["email"] == nil {
		_, err := a.store.GetPrincipalByEmail(ctx, normalizeEmail(*in.Email))
		switch {
		case err == nil:
			verr.Add("email", msgEmailTaken)
		case !errors.Is(err, ErrNotFound):
			return model.Principal{}, err
		}
	}

	role := kind
	if role == "" {
		role = model.RoleStudent
	}
	if in.Role != nil {
		parsed, ok := model.ParseRole(*in.Role)
		switch {
		case !ok:
			verr.Add("role", fmt.Sprintf("%q is not a valid choice.", *in.Role))
		case kind != "" && parsed != kind:
			verr.Add("role", fmt.Sprintf("This endpoint only manages %s accounts.", kind))
		default:
			role = parsed
		}
	}
	cohortID := trimmed(in.CohortID)
	if err := a.cohortRef(ctx, verr, cohortID); err != nil {
		return model.Principal{}, err
	}
	verr.Merge(policy.AccountCreation(p, role, cohortID))
	if err := verr.Err(); err != nil {
		return model.Principal{}, err
	}

	hash, err := passwordHash(in.Password)
	if err != nil {
		return model.Principal{}, err
	}
	principal := model.Principal{
		ID:           newID(),
		Email:        normalizeEmail(*in.Email),
		PasswordHash: hash,
		Role:         role,
		CohortID:     cohortID,
		IsActive:     true,
		DateJoined:   a.timestamp(),
	}
	applyProfile(&principal, in.FirstName, in.LastName, in.Telephone, in.Bio)
	if err := a.store.CreatePrincipal(ctx, principal); err != nil {
		return model.Principal{}, duplicate(err, "email", msgEmailTaken)
	}
	return principal, nil
}

func (a *Accounts) Update(ctx context.Context, p model.Principal, kind model.Role, id string, in AccountInput) (model.Principal, error) {
	target, err := a.load(ctx, kind, id)
	if err != nil {
		return model.Principal{}, err
	}
	if err := a.authorize(ctx, policy.ResourceAccount, policy.Update, p, policy.Account(p, policy.Update, &target)); err != nil {
		return model.Principal{}, err
	}

	verr := NewValidationError()
	profileFields(verr, in.FirstName, in.LastName, in.Telephone, false)
	change := policy.AccountChange{IsActive: in.IsActive, IsStaff: in.IsStaff, Password: in.Password != nil}
	if in.Role != nil {
		parsed, ok := model.ParseRole(*in.Role)
		if ok {
			change.Role = &parsed
		} else {
			verr.Add("role", fmt.Sprintf("%q is not a valid choice.", *in.Role))
		}
	}
	if in.CohortID != nil {
		cohortID := trimmed(in.CohortID)
		if err := a.cohortRef(ctx, verr, cohortID); err != nil {
			return model.Principal{}, err
		}
		change.CohortID = &cohortID
	}
	if in.Password != nil && strings.TrimSpace(*in.Password) == "" {
		verr.Add("password", msgBlank)
	}
	verr.Merge(policy.AccountUpdate(p, target, change))
	if err := verr.Err(); err != nil {
		return model.Principal{}, err
	}

	applyProfile(&target, in.FirstName, in.LastName, in.Telephone, in.Bio)
	if change.Role != nil {
		target.Role = *change.Role
	}
	if change.CohortID != nil {
		target.CohortID = *change.CohortID
	}
	if in.IsActive != nil {
		target.IsActive = *in.IsActive
	}
	if in.IsStaff != nil {
		target.IsStaff = *in.IsStaff
	}
	if in.Password != nil {
		hash, err := crypto.HashPassword(*in.Password)
		if err != nil {
			return model.Principal{}, err
		}
		target.PasswordHash = hash
	}
	if err := a.store.UpdatePrincipal(ctx, target); err != nil {
		return model.Principal{}, err
	}
	return target, nil
}

func (a *Accounts) Delete(ctx context.Context, p model.Principal, kind model.Role, id string) error {
	target, err := a.load(ctx, kind, id)
	if err != nil {
		return err
	}
	if err := a.authorize(ctx, policy.ResourceAccount, policy.Delete, p, policy.Account(p, policy.Delete, &target)); err != nil {
		return err
	}
	return a.store.DeletePrincipal(ctx, target.ID)
}

func (a *Accounts) cohortRef(ctx context.Context, verr *ValidationError, cohortID string) error {
	return refExists(ctx, verr, "promotion", cohortID, func(ctx context.Context, id string) error {
		_, err := a.store.GetCohort(ctx, id)
		return err
	})
}

func profileFields(verr *ValidationError, firstName, lastName, telephone *string, create bool) {
	text(verr, "first_name", firstName, create, false, 50)
	text(verr, "last_name", lastName, create, false, 50)
	text(verr, "telephone", telephone, false, true, 15)
}

func applyProfile(p *model.Principal, firstName, lastName, telephone, bio *string) {
	if firstName != nil {
		p.FirstName = trimmed(firstName)
	}
	if lastName != nil {
		p.LastName = trimmed(lastName)
	}
	if telephone != nil {
		p.Telephone = trimmed(telephone)
	}
	if bio != nil {
		p.Bio = strings.TrimSpace(*bio)
	}
}

// passwordHash hashes a provided password, or returns an unusable hash
// when none was given.
func passwordHash(password *string) (string, error) {
	if password == nil || *password == "" {
		return crypto.UnusablePassword()
	}
	return crypto.HashPassword(*password)
}

func normalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
