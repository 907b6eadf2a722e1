package domain

// CatalogVersion is the consent-schema version currently in effect. Cached
// decisions granted under an older version are invalid and must be
// re-requested.
const CatalogVersion = "2025-07"

// CatalogEntry holds the static prompt content for a consent type. The broker
// consumes this table to populate prompts; it never owns or mutates it.
type CatalogEntry struct {
	Purpose        string
	DataCategories []string
}

// catalog maps each optional consent type to its purpose-driven prompt copy.
// Required types carry no entry: they are never prompted for.
var catalog = map[ConsentType]CatalogEntry{
	ConsentTypeAnalytics: {
		Purpose:        "Analyze diaper usage patterns to power insights and reorder predictions",
		DataCategories: []string{"usage_patterns", "inventory_levels"},
	},
	ConsentTypeMarketing: {
		Purpose:        "Send offers and product recommendations from NestSync partners",
		DataCategories: []string{"contact_info", "purchase_history"},
	},
	ConsentTypeDataSharing: {
		Purpose:        "Share anonymized usage data with retail partners to improve stock forecasting",
		DataCategories: []string{"anonymized_usage", "region"},
	},
	ConsentTypeChildData: {
		Purpose:        "Process your child's profile to tailor size and absorbency suggestions",
		DataCategories: []string{"child_profile", "growth_measurements"},
	},
}

// Lookup returns the catalog entry for an optional consent type. The second
// return is false for required types and unknown values.
func Lookup(t ConsentType) (CatalogEntry, bool) {
	entry, ok := catalog[t]
	return entry, ok
}

// OptionalTypes lists every consent type that passes through the gate.
func OptionalTypes() []ConsentType {
	types := make([]ConsentType, 0, len(catalog))
	for t := range catalog {
		types = append(types, t)
	}
	return types
}
