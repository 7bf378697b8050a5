// Package activity persists the append-only plan activity log and exposes
// role-aware read helpers. Writes arrive through the ActivitySink contract,
// reads go through ActivityRepository with offset or cursor pagination.
package activity
