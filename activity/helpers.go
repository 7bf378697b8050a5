package activity

import (
	"strings"

	"github.com/fieldsafe/go-sssp/pkg/types"
	"github.com/google/uuid"
)

// RecordOption mutates the ActivityRecord produced by BuildRecord.
type RecordOption func(*types.ActivityRecord)

// WithChannel sets the channel/module field used for downstream filtering.
func WithChannel(channel string) RecordOption {
	return func(record *types.ActivityRecord) {
		record.Channel = strings.TrimSpace(channel)
	}
}

// WithSection tags the record with the document section it describes.
func WithSection(section string) RecordOption {
	return func(record *types.ActivityRecord) {
		record.Section = strings.TrimSpace(section)
	}
}

// WithSeverity classifies how large the underlying change was.
func WithSeverity(severity types.ChangeSeverity) RecordOption {
	return func(record *types.ActivityRecord) {
		record.Severity = severity
	}
}

// WithPlanID associates the record with a persisted plan.
func WithPlanID(planID uuid.UUID) RecordOption {
	return func(record *types.ActivityRecord) {
		record.PlanID = planID
	}
}

// BuildRecord constructs an ActivityRecord from the acting user plus
// verb/object details and optional metadata. Scope identifiers are copied onto
// the record and metadata is defensively cloned to avoid caller mutation.
func BuildRecord(actor types.ActorRef, scope types.ScopeFilter, verb, objectType, objectID string, metadata map[string]any, opts ...RecordOption) (types.ActivityRecord, error) {
	if actor.ID == uuid.Nil {
		return types.ActivityRecord{}, types.ErrActorRequired
	}

	record := types.ActivityRecord{
		ActorID:    actor.ID,
		Verb:       strings.TrimSpace(verb),
		ObjectType: strings.TrimSpace(objectType),
		ObjectID:   strings.TrimSpace(objectID),
		CompanyID:  scope.CompanyID,
		SiteID:     scope.SiteID,
		Data:       cloneMetadata(metadata),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(&record)
		}
	}

	return record, nil
}

func cloneMetadata(src map[string]any) map[string]any {
	if len(src) == 0 {
		return map[string]any{}
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
