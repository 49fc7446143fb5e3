// Package policy decides whether a principal may perform an action on a
// course, schedule, document or account.
//
// Every decision is a pure function of its inputs: the principal's id,
// role and cohort, the action, and the loaded resource. Nothing here
// touches storage, so callers load the resource (or, for documents, the
// parent course) before asking.
//
// Decisions are evaluated in two stages. The role gate comes first: a
// table keyed by resource and action lists the roles that may attempt the
// action at all. Only when the gate passes is the object-level predicate
// evaluated (cohort equality, supervisor affiliation, read-only
// restrictions). A principal that fails the gate never reaches the object
// check.
//
// List actions are not denied per object. Instead the package returns a
// Scope describing which rows the caller may see, and the storage layer
// shapes its query from it.
package policy
