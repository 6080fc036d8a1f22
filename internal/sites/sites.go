// Package sites maps a site identifier to the branding shown inside the
// mobile app after a confirm. Unknown site IDs fall back to the default entry
// so a confirm never fails over missing branding.
package sites

type Site struct {
	DisplayName string
	LogoURL     string
}

const DefaultSiteID = "nextgen_demo"

var registry = map[string]Site{
	DefaultSiteID: {
		DisplayName: "Next-Gen Auth Demo",
		LogoURL:     "/css/logo.png",
	},
}

var fallback = registry[DefaultSiteID]

func Lookup(siteID string) Site {
	if s, ok := registry[siteID]; ok {
		return s
	}
	return fallback
}
