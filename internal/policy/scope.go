package policy

import "github.com/BIGM16/Ecole-desExcellents/internal/model"

// Scope restricts a listing. With All set every row is visible; otherwise
// only rows of CohortID are, and an empty CohortID matches nothing.
type Scope struct {
	All      bool
	CohortID string
}

// Empty reports whether the scope can match no rows at all.
func (s Scope) Empty() bool {
	return !s.All && s.CohortID == ""
}

func cohortScope(p model.Principal) Scope {
	return Scope{CohortID: p.CohortID}
}

// CourseScope: students see the courses opened to their cohort, every other
// role sees all courses.
func CourseScope(p model.Principal) Scope {
	if p.Role == model.RoleStudent {
		return cohortScope(p)
	}
	return Scope{All: true}
}

// ScheduleScope: students and supervisors see their cohort's schedules.
func ScheduleScope(p model.Principal) Scope {
	switch p.Role {
	case model.RoleAdmin, model.RoleCoordinator:
		return Scope{All: true}
	default:
		return cohortScope(p)
	}
}

// AccountScope restricts an account listing. Role, when set, keeps only
// accounts with that role.
type AccountScope struct {
	Scope
	Role model.Role
}

// AccountListScope returns the accounts p may list. kind filters by role
// and is empty for the generic listing.
func AccountListScope(p model.Principal, kind model.Role) (AccountScope, Decision) {
	if !Gate(ResourceAccount, p, ReadList) {
		return AccountScope{}, Deny
	}
	switch p.Role {
	case model.RoleAdmin:
		return AccountScope{Scope: Scope{All: true}, Role: kind}, Allow
	case model.RoleCoordinator:
		switch kind {
		case "", model.RoleStudent:
			return AccountScope{Scope: cohortScope(p), Role: model.RoleStudent}, Allow
		case model.RoleSupervisor:
			// Coordinators staff courses, so they see every supervisor.
			return AccountScope{Scope: Scope{All: true}, Role: model.RoleSupervisor}, Allow
		default:
			return AccountScope{}, Deny
		}
	default:
		return AccountScope{}, Deny
	}
}
