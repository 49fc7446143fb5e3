package policy

import "github.com/BIGM16/Ecole-desExcellents/internal/model"

// Violations maps a request field to the constraint messages it broke.
type Violations map[string][]string

func (v Violations) Add(field, message string) {
	v[field] = append(v[field], message)
}

const (
	msgElevatedRole      = "only administrators may create or promote coordinator and administrator accounts"
	msgCoordinatorRole   = "a coordinator may only manage student accounts"
	msgCoordinatorCohort = "a coordinator may only manage students of their own promotion"
	msgAdminFlags        = "only administrators may change this field"
)

func elevated(role model.Role) bool {
	return role == model.RoleAdmin || role == model.RoleCoordinator
}

// AccountCreation checks the role composition of a new account against its
// creator. The result is merged with field validation so the caller gets
// one combined report.
func AccountCreation(creator model.Principal, role model.Role, cohortID string) Violations {
	violations := Violations{}
	switch creator.Role {
	case model.RoleAdmin:
	case model.RoleCoordinator:
		switch {
		case elevated(role):
			violations.Add("role", msgElevatedRole)
		case role != model.RoleStudent:
			violations.Add("role", msgCoordinatorRole)
		}
		if !creator.SameCohort(cohortID) {
			violations.Add("promotion", msgCoordinatorCohort)
		}
	default:
		violations.Add("role", msgElevatedRole)
	}
	return violations
}

// AccountChange describes the fields an update would change. Nil fields are
// left untouched.
type AccountChange struct {
	Role     *model.Role
	CohortID *string
	IsActive *bool
	IsStaff  *bool
	// Password is set when the update replaces the password.
	Password bool
}

// AccountUpdate checks an update of target by editor. Coordinators keep the
// creation constraints: the account must stay a student of their cohort.
func AccountUpdate(editor, target model.Principal, change AccountChange) Violations {
	violations := Violations{}
	if editor.Role == model.RoleAdmin {
		return violations
	}
	role := target.Role
	if change.Role != nil {
		role = *change.Role
	}
	cohortID := target.CohortID
	if change.CohortID != nil {
		cohortID = *change.CohortID
	}
	switch {
	case elevated(role):
		violations.Add("role", msgElevatedRole)
	case role != model.RoleStudent:
		violations.Add("role", msgCoordinatorRole)
	}
	if !editor.SameCohort(cohortID) {
		violations.Add("promotion", msgCoordinatorCohort)
	}
	if change.IsActive != nil && *change.IsActive != target.IsActive {
		violations.Add("is_active", msgAdminFlags)
	}
	if change.IsStaff != nil && *change.IsStaff != target.IsStaff {
		violations.Add("is_staff", msgAdminFlags)
	}
	if change.Password {
		violations.Add("password", msgAdminFlags)
	}
	return violations
}
