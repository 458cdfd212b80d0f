package exemption

import (
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/de-tools/governance-atlas/pkg/models/domain"
)

const (
	managementGroupType = "Microsoft.Management/managementGroups"
	subscriptionType    = "Microsoft.Resources/subscriptions"
	resourceGroupType   = "Microsoft.Resources/resourceGroups"
	tenantType          = "Microsoft.Resources/tenants"
)

// Properties are the exemption attributes a collaborator reads from the API.
type Properties struct {
	DisplayName string
	Category    string
	Coverage    domain.ExemptionCoverage
	ExpiresOn   *time.Time
	Description string
}

// FromResourceID builds an exemption record whose scope is derived from the
// exemption's own resource id. An id that cannot be parsed keeps an empty scope.
func FromResourceID(id string, props Properties) domain.ExemptionRecord {
	scopeType, scopeName := ScopeFromResourceID(id)

	category := domain.ExemptionWaiver
	if strings.EqualFold(props.Category, string(domain.ExemptionMitigated)) {
		category = domain.ExemptionMitigated
	}

	coverage := props.Coverage
	if coverage == "" {
		coverage = domain.CoverageFull
	}

	name := props.DisplayName
	if name == "" {
		name = lastSegment(id)
	}

	return domain.ExemptionRecord{
		ID:          id,
		DisplayName: name,
		Category:    category,
		ScopeType:   scopeType,
		ScopeName:   scopeName,
		Coverage:    coverage,
		ExpiresOn:   props.ExpiresOn,
		Description: props.Description,
	}
}

// ScopeFromResourceID returns the scope an exemption is attached to, i.e. the parent of the
// exemption resource: a management group, subscription, resource group or resource.
func ScopeFromResourceID(id string) (domain.ScopeType, string) {
	rid, err := arm.ParseResourceID(id)
	if err != nil || rid.Parent == nil {
		return "", ""
	}

	parent := rid.Parent
	switch t := parent.ResourceType.String(); {
	case strings.EqualFold(t, managementGroupType):
		return domain.ScopeManagementGroup, parent.Name
	case strings.EqualFold(t, subscriptionType):
		return domain.ScopeSubscription, parent.SubscriptionID
	case strings.EqualFold(t, resourceGroupType):
		return domain.ScopeResourceGroup, parent.ResourceGroupName
	case strings.EqualFold(t, tenantType):
		return "", ""
	default:
		return domain.ScopeResource, parent.Name
	}
}

// Expired reports whether the exemption has lapsed at asOf. Exemptions without expiry never lapse.
func Expired(e domain.ExemptionRecord, asOf time.Time) bool {
	return e.ExpiresOn != nil && !e.ExpiresOn.After(asOf)
}

// ExpiresWithin reports whether a still-valid exemption lapses within window of asOf.
func ExpiresWithin(e domain.ExemptionRecord, asOf time.Time, window time.Duration) bool {
	if e.ExpiresOn == nil || Expired(e, asOf) || window <= 0 {
		return false
	}
	return e.ExpiresOn.Sub(asOf) <= window
}

func lastSegment(id string) string {
	id = strings.TrimRight(id, "/")
	if i := strings.LastIndex(id, "/"); i >= 0 {
		return id[i+1:]
	}
	return id
}
