package convert

import "fmt"

// EffectiveDPI caps the requested resolution for large documents
func EffectiveDPI(pageCount, requestedDPI int) int {
	if pageCount > MaxSafePages && requestedDPI > MaxSafeDPI {
		return MaxSafeDPI
	}
	return requestedDPI
}

// Decision records how the render resolution was chosen for a document
type Decision struct {
	Pages        PageCount
	RequestedDPI int
	EffectiveDPI int
}

// Apply decides the render resolution for a probed document
func Apply(pages PageCount, requestedDPI int) Decision {
	return Decision{
		Pages:        pages,
		RequestedDPI: requestedDPI,
		EffectiveDPI: EffectiveDPI(pages.Pages, requestedDPI),
	}
}

// Downgraded reports whether the cap changed the requested resolution
func (d Decision) Downgraded() bool {
	return d.EffectiveDPI != d.RequestedDPI
}

// Warning is shown to the user when the resolution was reduced, empty otherwise
func (d Decision) Warning() string {
	if !d.Downgraded() {
		return ""
	}
	pages := fmt.Sprintf("%d pages", d.Pages.Pages)
	if !d.Pages.Known {
		pages = fmt.Sprintf("an unreadable page count (treated as %d pages)", d.Pages.Pages)
	}
	return fmt.Sprintf("Memory Safety Triggered: Your PDF has %s. Due to server memory limits, the DPI has been reduced from %d to %d to prevent the app from crashing.",
		pages, d.RequestedDPI, d.EffectiveDPI)
}
