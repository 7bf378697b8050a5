package activity

import (
	"github.com/fieldsafe/go-sssp/pkg/types"
	"github.com/goliatone/go-masker"
)

// ActivityAccessPolicy applies role-aware constraints and sanitization to activity feeds.
type ActivityAccessPolicy interface {
	Apply(actor types.ActorRef, scope types.ScopeFilter, role string, req types.ActivityFilter) (types.ActivityFilter, error)
	Sanitize(actor types.ActorRef, role string, records []types.ActivityRecord) []types.ActivityRecord
}

// ActivityStatsPolicy applies role-aware constraints to activity stats.
type ActivityStatsPolicy interface {
	ApplyStats(actor types.ActorRef, scope types.ScopeFilter, role string, req types.ActivityStatsFilter) (types.ActivityStatsFilter, error)
}

// AccessPolicyOption customizes the default activity access policy.
type AccessPolicyOption func(*DefaultAccessPolicy)

// DefaultAccessPolicy applies BuildFilterFromActor and sanitizes records on read.
type DefaultAccessPolicy struct {
	filterOptions     []FilterOption
	masker            *masker.Masker
	metadataExposure  MetadataExposureStrategy
	metadataSanitizer MetadataSanitizer
}

var _ ActivityAccessPolicy = (*DefaultAccessPolicy)(nil)
var _ ActivityStatsPolicy = (*DefaultAccessPolicy)(nil)

// NewDefaultAccessPolicy returns the default policy implementation.
func NewDefaultAccessPolicy(opts ...AccessPolicyOption) *DefaultAccessPolicy {
	policy := &DefaultAccessPolicy{
		masker:           DefaultMasker(),
		metadataExposure: MetadataExposeNone,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(policy)
		}
	}
	if policy.masker == nil {
		policy.masker = DefaultMasker()
	}
	return policy
}

// WithPolicyFilterOptions configures filter options applied during policy enforcement.
func WithPolicyFilterOptions(opts ...FilterOption) AccessPolicyOption {
	return func(policy *DefaultAccessPolicy) {
		if policy == nil {
			return
		}
		policy.filterOptions = append(policy.filterOptions, opts...)
	}
}

// WithPolicyMasker overrides the masker used for sanitization.
func WithPolicyMasker(masker *masker.Masker) AccessPolicyOption {
	return func(policy *DefaultAccessPolicy) {
		if policy == nil {
			return
		}
		policy.masker = masker
	}
}

// WithMetadataExposure configures how activity metadata is exposed for support roles.
func WithMetadataExposure(strategy MetadataExposureStrategy) AccessPolicyOption {
	return func(policy *DefaultAccessPolicy) {
		if policy == nil {
			return
		}
		policy.metadataExposure = strategy
	}
}

// WithMetadataSanitizer overrides the metadata sanitizer for sanitized exposure mode.
func WithMetadataSanitizer(sanitizer MetadataSanitizer) AccessPolicyOption {
	return func(policy *DefaultAccessPolicy) {
		if policy == nil {
			return
		}
		policy.metadataSanitizer = sanitizer
	}
}

// Apply enforces role-aware scope/visibility rules on the requested filter.
func (p *DefaultAccessPolicy) Apply(actor types.ActorRef, scope types.ScopeFilter, role string, req types.ActivityFilter) (types.ActivityFilter, error) {
	return BuildFilterFromActor(actor, scope, role, req, p.filterOptions...)
}

// ApplyStats enforces role-aware scope/visibility rules on stats filters.
func (p *DefaultAccessPolicy) ApplyStats(actor types.ActorRef, scope types.ScopeFilter, role string, req types.ActivityStatsFilter) (types.ActivityStatsFilter, error) {
	filter, err := BuildFilterFromActor(actor, scope, role, types.ActivityFilter{
		Actor: req.Actor,
		Scope: req.Scope,
	}, p.filterOptions...)
	if err != nil {
		return types.ActivityStatsFilter{}, err
	}
	out := req
	out.Actor = filter.Actor
	out.Scope = filter.Scope
	return out, nil
}

// Sanitize applies masking rules to activity records before they leave the
// read path. Support actors get metadata per the configured exposure strategy;
// everyone else gets the masked payload.
func (p *DefaultAccessPolicy) Sanitize(actor types.ActorRef, role string, records []types.ActivityRecord) []types.ActivityRecord {
	if len(records) == 0 {
		return records
	}
	roleName := resolveRoleName(actor, role)
	isSupport := roleMatches(roleName, []string{types.ActorRoleSupport})

	mask := p.masker
	if mask == nil {
		mask = DefaultMasker()
	}

	out := make([]types.ActivityRecord, 0, len(records))
	for _, record := range records {
		rec := record
		if isSupport {
			switch p.metadataExposure {
			case MetadataExposeAll:
				// keep metadata as-is
			case MetadataExposeSanitized:
				if p.metadataSanitizer != nil {
					rec.Data = p.metadataSanitizer(actor, role, record)
				} else {
					rec = SanitizeRecord(mask, record)
				}
			default:
				rec.Data = nil
			}
		} else {
			rec = SanitizeRecord(mask, record)
		}

		out = append(out, rec)
	}
	return out
}

func resolveRoleName(actor types.ActorRef, role string) string {
	roleName := normalizeIdentifier(role)
	if roleName != "" {
		return roleName
	}
	return actor.RoleName()
}
