package activity

import (
	"context"

	"github.com/fieldsafe/go-sssp/pkg/types"
	"github.com/goliatone/go-masker"
)

// SanitizedSink masks sensitive metadata before forwarding records to the
// wrapped sink. Use it when the write path receives metadata from browsers or
// third-party integrations that cannot be trusted to pre-scrub payloads.
type SanitizedSink struct {
	Sink   types.ActivitySink
	Masker *masker.Masker
}

var _ types.ActivitySink = (*SanitizedSink)(nil)

// Log sanitizes the record data and forwards it to the sink.
func (s *SanitizedSink) Log(ctx context.Context, record types.ActivityRecord) error {
	if s == nil || s.Sink == nil {
		return types.ErrMissingActivitySink
	}
	mask := s.Masker
	if mask == nil {
		mask = DefaultMasker()
	}
	return s.Sink.Log(ctx, SanitizeRecord(mask, record))
}
