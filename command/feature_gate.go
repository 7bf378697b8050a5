package command

import (
	"context"

	"github.com/fieldsafe/go-sssp/pkg/types"
	featuregate "github.com/goliatone/go-featuregate/gate"
	"github.com/google/uuid"
)

const (
	featurePlansInvite = "plans.invite"
	featurePlansExport = "plans.export"
)

func featureEnabled(ctx context.Context, gate featuregate.FeatureGate, key string, scope types.ScopeFilter, userID uuid.UUID) (bool, error) {
	if gate == nil {
		return true, nil
	}
	chain := featureScopeChain(scope, userID)
	if chain == nil {
		return gate.Enabled(ctx, key)
	}
	return gate.Enabled(ctx, key, featuregate.WithScopeChain(chain))
}

// featureScopeChain maps company/site scoping onto the gate's tenant/org
// slots, most specific first so user and site overrides beat company-wide
// ones. The chain always ends at the system scope.
func featureScopeChain(scope types.ScopeFilter, userID uuid.UUID) featuregate.ScopeChain {
	companyID := ""
	siteID := ""
	if scope.CompanyID != uuid.Nil {
		companyID = scope.CompanyID.String()
	}
	if scope.SiteID != uuid.Nil {
		siteID = scope.SiteID.String()
	}

	user := ""
	if userID != uuid.Nil {
		user = userID.String()
	}

	if companyID == "" && siteID == "" && user == "" {
		return nil
	}

	chain := featuregate.ScopeChain{}
	if user != "" {
		chain = append(chain, featuregate.ScopeRef{
			Kind:     featuregate.ScopeUser,
			ID:       user,
			TenantID: companyID,
			OrgID:    siteID,
		})
	}
	if siteID != "" {
		chain = append(chain, featuregate.ScopeRef{
			Kind:     featuregate.ScopeOrg,
			ID:       siteID,
			TenantID: companyID,
			OrgID:    siteID,
		})
	}
	if companyID != "" {
		chain = append(chain, featuregate.ScopeRef{
			Kind:     featuregate.ScopeTenant,
			ID:       companyID,
			TenantID: companyID,
		})
	}
	chain = append(chain, featuregate.ScopeRef{Kind: featuregate.ScopeSystem})
	return chain
}
