package policy

import "github.com/BIGM16/Ecole-desExcellents/internal/model"

// Course decides access to a course. course may be nil for read-list and
// create; object-level actions on a nil course are denied.
func Course(p model.Principal, action Action, course *model.Course) Decision {
	if !Gate(ResourceCourse, p, action) {
		return Deny
	}
	switch action {
	case ReadList, Create, Delete:
		// Delete is role-gated only.
		return Allow
	case ReadOne, Update:
		if course == nil {
			return Deny
		}
		return decide(courseObject(p, action, *course))
	default:
		return Deny
	}
}

func courseObject(p model.Principal, action Action, course model.Course) bool {
	switch p.Role {
	case model.RoleAdmin, model.RoleCoordinator:
		return true
	case model.RoleSupervisor:
		return course.HasSupervisor(p.ID)
	case model.RoleStudent:
		return action.ReadOnly() && course.HasCohort(p.CohortID)
	default:
		return false
	}
}

// Schedule decides access to a schedule. For create, schedule is the
// proposed schedule so the cohort rule applies to where it would land.
func Schedule(p model.Principal, action Action, schedule *model.Schedule) Decision {
	if !Gate(ResourceSchedule, p, action) {
		return Deny
	}
	if action == ReadList {
		return Allow
	}
	if schedule == nil {
		return Deny
	}
	return decide(scheduleObject(p, action, *schedule))
}

func scheduleObject(p model.Principal, action Action, schedule model.Schedule) bool {
	switch p.Role {
	case model.RoleAdmin:
		return true
	case model.RoleCoordinator, model.RoleSupervisor:
		return p.SameCohort(schedule.CohortID)
	case model.RoleStudent:
		return action.ReadOnly() && p.SameCohort(schedule.CohortID)
	default:
		return false
	}
}

// DocumentAction maps an action on a document (or one of its files) to the
// action evaluated against the parent course.
func DocumentAction(action Action) Action {
	switch action {
	case ReadList:
		return ReadOne
	case Create:
		return Update
	default:
		return action
	}
}

// Document decides access to a document through its parent course.
// Documents carry no ACL of their own.
func Document(p model.Principal, action Action, parent *model.Course) Decision {
	return Course(p, DocumentAction(action), parent)
}

// Account decides access to a user account. target may be nil for
// read-list, create and delete.
func Account(p model.Principal, action Action, target *model.Principal) Decision {
	if !Gate(ResourceAccount, p, action) {
		return Deny
	}
	switch action {
	case ReadList, Create, Delete:
		return Allow
	case ReadOne, Update:
		if target == nil {
			return Deny
		}
		return decide(accountObject(p, action, *target))
	default:
		return Deny
	}
}

func accountObject(p model.Principal, action Action, target model.Principal) bool {
	switch p.Role {
	case model.RoleAdmin:
		return true
	case model.RoleCoordinator:
		return target.Role == model.RoleStudent && p.SameCohort(target.CohortID)
	case model.RoleStudent:
		return action.ReadOnly() && p.SameCohort(target.CohortID)
	default:
		return false
	}
}
