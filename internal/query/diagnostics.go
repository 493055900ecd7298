package query

// Diagnostic is the headline condition of a query, for observability only.
type Diagnostic uint8

const (
	DiagnosticNone Diagnostic = iota
	// DiagnosticDegenerateInput: the request was normalized or rejected.
	DiagnosticDegenerateInput
	// DiagnosticNonConverged: at least one candidate hit the iteration cap
	// and was reported as a miss.
	DiagnosticNonConverged
	// DiagnosticStaleHandles: the broad-phase returned handles of bodies
	// destroyed since the last refresh.
	DiagnosticStaleHandles
	// DiagnosticPenetrationFallback: a start-overlap depth is an estimate.
	DiagnosticPenetrationFallback
)

func (d Diagnostic) String() string {
	switch d {
	case DiagnosticNone:
		return "none"
	case DiagnosticDegenerateInput:
		return "degenerate-input"
	case DiagnosticNonConverged:
		return "max-iterations-exceeded"
	case DiagnosticStaleHandles:
		return "stale-handles"
	case DiagnosticPenetrationFallback:
		return "penetration-fallback"
	}
	return "unknown"
}

// Diagnostics counts non-fatal conditions met during one query.
type Diagnostics struct {
	DegenerateInput     int
	NonConverged        int
	StaleHandles        int
	PenetrationFallback int
}

// Code returns the most significant condition recorded.
func (d Diagnostics) Code() Diagnostic {
	switch {
	case d.DegenerateInput > 0:
		return DiagnosticDegenerateInput
	case d.NonConverged > 0:
		return DiagnosticNonConverged
	case d.StaleHandles > 0:
		return DiagnosticStaleHandles
	case d.PenetrationFallback > 0:
		return DiagnosticPenetrationFallback
	}
	return DiagnosticNone
}

// Result is what a query hands back.
type Result struct {
	// Hits are the reported hits in reporting order, truncated by the
	// visitor or the hit cap.
	Hits []Hit
	// Candidates is how many handles the broad-phase produced.
	Candidates int
	// Tested is how many candidates reached the narrow-phase.
	Tested int
	// Truncated is set when the visitor or the hit cap ended reporting early.
	Truncated   bool
	Diagnostics Diagnostics
}
