package types

import "errors"

var (
	// ErrMissingSecureLinkManager occurs when securelink manager is not configured.
	ErrMissingSecureLinkManager = errors.New("sssp: missing securelink manager")
	// ErrMissingPlanTokenRepository occurs when token persistence is unavailable.
	ErrMissingPlanTokenRepository = errors.New("sssp: missing plan token repository")
)
