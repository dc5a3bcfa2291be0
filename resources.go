package mdconv

import (
	"github.com/alnah/go-mdconv/internal/dateutil"
	"github.com/alnah/go-mdconv/internal/locale"
)

// Resources looks up localized text. GetResource returns a single string,
// GetResources a list such as month names. Implementations must be safe for
// concurrent use.
type Resources interface {
	GetResource(key, locale string) string
	GetResources(key, locale string) []string
}

var _ Resources = (*locale.Bundle)(nil)

// DefaultResources returns the embedded English and German bundle.
func DefaultResources() Resources {
	return locale.Default()
}

// dateNames collects the localized names used by the date formatter.
// Missing lists fall back to English inside dateutil.Format.
func dateNames(res Resources, loc string) *dateutil.Names {
	if res == nil {
		return &dateutil.English
	}
	return &dateutil.Names{
		Months:      res.GetResources("months", loc),
		MonthsShort: res.GetResources("monthsShort", loc),
		Days:        res.GetResources("days", loc),
		DaysShort:   res.GetResources("daysShort", loc),
		Eras:        res.GetResources("eras", loc),
		AM:          res.GetResource("am", loc),
		PM:          res.GetResource("pm", loc),
	}
}
