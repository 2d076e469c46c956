package domain

import "strings"

// Known providers. These are the carriers the content-retrieval facility supports.
const (
	ProviderVerizon = "Verizon"
	ProviderATT     = "AT&T"
	ProviderTMobile = "T-Mobile"
)

// KnownProviders lists the supported carriers in display order.
var KnownProviders = []string{ProviderVerizon, ProviderATT, ProviderTMobile}

// CanonicalProvider maps name onto a known provider using a case-insensitive
// comparison. Unknown names are returned trimmed but otherwise unchanged.
func CanonicalProvider(name string) string {
	trimmed := strings.TrimSpace(name)
	for _, p := range KnownProviders {
		if strings.EqualFold(p, trimmed) {
			return p
		}
	}
	return trimmed
}

// IsKnownProvider reports whether name is one of KnownProviders (exact match).
func IsKnownProvider(name string) bool {
	for _, p := range KnownProviders {
		if p == name {
			return true
		}
	}
	return false
}
