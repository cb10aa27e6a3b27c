// internal/domain/models/site.go
package models

// Site-wide display defaults.
const (
	DefaultSiteName    = "Trinetra"
	DefaultSiteTagline = "Insights into your coding time"
	DefaultFooterText  = "Trinetra, a dashboard for your Wakapi time tracking"
)
