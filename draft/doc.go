// Package draft implements the form persistence engine behind the SSSP
// editor: it owns the in-memory working copy of a plan, reconciles the two
// field naming conventions used by the UI and the store, computes field-level
// change sets for the activity log, and coalesces rapid edits into debounced,
// rate-limited writes against the plan repository. Drafts without a persisted
// identity fall back to a best-effort local store.
package draft
