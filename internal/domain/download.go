package domain

// DownloadResult is the outcome of one acquisition run.
//
// Invariant: Success implies FilePath and MethodUsed are set and the
// file exists with non-zero size; failure implies FilePath is empty.
type DownloadResult struct {
	Success    bool              `json:"success"`
	FilePath   string            `json:"filePath,omitempty"`
	MethodUsed AcquisitionMethod `json:"methodUsed,omitempty"`
	Error      string            `json:"error,omitempty"`

	// Attempts records every fallback decision made during the run, in
	// order. Failure aggregates are built from it, distinguishing "no
	// method was available" from "every available method failed".
	Attempts []Diagnostic `json:"attempts,omitempty"`
}
