package command

import (
	"errors"

	"github.com/fieldsafe/go-sssp/pkg/types"
)

var (
	// ErrActorRequired indicates an actor reference was not supplied.
	ErrActorRequired = types.ErrActorRequired
	// ErrPlanIDRequired indicates a plan identifier was omitted.
	ErrPlanIDRequired = types.ErrPlanIDRequired
	// ErrPlanNotFound indicates the requested plan was not found.
	ErrPlanNotFound = errors.New("sssp: plan not found")
	// ErrFieldsRequired occurs when an update carries no field payload.
	ErrFieldsRequired = errors.New("sssp: fields payload required")
	// ErrLifecycleTargetRequired indicates the desired lifecycle state is missing.
	ErrLifecycleTargetRequired = errors.New("sssp: lifecycle transition requires target status")
	// ErrShareUserRequired occurs when share commands omit the grantee.
	ErrShareUserRequired = errors.New("sssp: share requires user id")
	// ErrInviteEmailRequired occurs when an invite omits the email address.
	ErrInviteEmailRequired = errors.New("sssp: invite requires email")
	// ErrInviteDisabled indicates the invite flow is disabled via feature gate.
	ErrInviteDisabled = errors.New("sssp: invite disabled")
	// ErrExportDisabled indicates the export flow is disabled via feature gate.
	ErrExportDisabled = errors.New("sssp: export disabled")
	// ErrActivityVerbRequired indicates an activity log entry is missing a verb.
	ErrActivityVerbRequired = errors.New("sssp: activity verb required")
	// ErrTokenRequired indicates a securelink token was missing.
	ErrTokenRequired = errors.New("sssp: token required")
	// ErrTokenNotFound indicates the token registry has no matching record.
	ErrTokenNotFound = errors.New("sssp: token not found")
	// ErrTokenExpired indicates the token has expired.
	ErrTokenExpired = errors.New("sssp: token expired")
	// ErrTokenAlreadyUsed indicates the token has already been consumed.
	ErrTokenAlreadyUsed = errors.New("sssp: token already used")
)
