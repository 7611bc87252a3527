package domain

// AcquisitionMethod identifies one way of getting a source video onto
// local disk. Methods are tried in a fixed priority order.
type AcquisitionMethod string

const (
	// MethodRemoteBrowser drives a managed remote browser session. Most
	// reliable against platforms with anti-scraping measures, so it is
	// tried first whenever the service credential is configured.
	MethodRemoteBrowser AcquisitionMethod = "remote-browser"

	// MethodNativeBrowser drives a locally installed headless browser.
	MethodNativeBrowser AcquisitionMethod = "native-browser"

	// MethodYtDlp shells out to the yt-dlp binary.
	MethodYtDlp AcquisitionMethod = "yt-dlp"

	// MethodDirectFetch is a plain HTTP GET of the URL. Last resort.
	MethodDirectFetch AcquisitionMethod = "direct-fetch"
)

// MethodPriority returns the fixed fallback order. Callers must not
// reorder it; the sequence is part of the observable contract.
func MethodPriority() []AcquisitionMethod {
	return []AcquisitionMethod{
		MethodRemoteBrowser,
		MethodNativeBrowser,
		MethodYtDlp,
		MethodDirectFetch,
	}
}

// CapabilitySet maps each acquisition method to whether it is usable in
// the current environment. Computed once per probe and treated as
// read-only afterwards; concurrent jobs share the same snapshot.
type CapabilitySet map[AcquisitionMethod]bool

// Available reports whether the given method can be attempted.
// Unknown methods resolve to false.
func (c CapabilitySet) Available(m AcquisitionMethod) bool {
	return c[m]
}

// AnyAvailable reports whether at least one method is usable.
func (c CapabilitySet) AnyAvailable() bool {
	for _, ok := range c {
		if ok {
			return true
		}
	}
	return false
}
