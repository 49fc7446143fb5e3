package policy

import "github.com/BIGM16/Ecole-desExcellents/internal/model"

// Action is what a principal attempts on a resource.
type Action int

const (
	ReadList Action = iota
	ReadOne
	Create
	Update
	Delete
)

var actionNames = map[Action]string{
	ReadList: "read-list",
	ReadOne:  "read-one",
	Create:   "create",
	Update:   "update",
	Delete:   "delete",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "unknown"
}

// ReadOnly reports whether the action has no side effects.
func (a Action) ReadOnly() bool {
	return a == ReadList || a == ReadOne
}

// Decision is the outcome of a policy check.
type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

func (d Decision) Allowed() bool {
	return d == Allow
}

func decide(ok bool) Decision {
	if ok {
		return Allow
	}
	return Deny
}

// Resource names a resource type in the gate table.
type Resource int

const (
	ResourceCourse Resource = iota
	ResourceSchedule
	ResourceDocument
	ResourceAccount
)

func (r Resource) String() string {
	switch r {
	case ResourceCourse:
		return "course"
	case ResourceSchedule:
		return "schedule"
	case ResourceDocument:
		return "document"
	case ResourceAccount:
		return "account"
	default:
		return "unknown"
	}
}

type roleSet uint8

const (
	admin roleSet = 1 << iota
	coordinator
	supervisor
	student

	anyRole = admin | coordinator | supervisor | student
)

func roleBit(role model.Role) roleSet {
	switch role {
	case model.RoleAdmin:
		return admin
	case model.RoleCoordinator:
		return coordinator
	case model.RoleSupervisor:
		return supervisor
	case model.RoleStudent:
		return student
	default:
		return 0
	}
}

func (s roleSet) has(role model.Role) bool {
	bit := roleBit(role)
	return bit != 0 && s&bit != 0
}

// gates lists, per resource and action, the roles allowed to attempt the
// action. A missing entry admits every known role.
var gates = map[Resource]map[Action]roleSet{
	ResourceCourse: {
		Create: admin | coordinator,
		Delete: admin | coordinator,
	},
	ResourceSchedule: {
		Create: admin | coordinator | supervisor,
		Update: admin | coordinator | supervisor,
		Delete: admin | coordinator,
	},
	ResourceAccount: {
		ReadList: admin | coordinator,
		Create:   admin | coordinator,
		Delete:   admin,
	},
}

// Gate reports whether the principal's role may attempt the action on the
// resource type at all. Unknown roles never pass.
func Gate(resource Resource, p model.Principal, action Action) bool {
	allowed := anyRole
	if byAction, ok := gates[resource]; ok {
		if set, ok := byAction[action]; ok {
			allowed = set
		}
	}
	return allowed.has(p.Role)
}
