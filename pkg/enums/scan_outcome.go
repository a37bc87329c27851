package enums

// ScanOutcome classifies what a single scan attempt produced.
type ScanOutcome string

const (
	// ScanOutcomeFound means the barcode matched an existing catalog product.
	ScanOutcomeFound ScanOutcome = "found"
	// ScanOutcomeCreated means a registry hit created a new catalog product.
	ScanOutcomeCreated ScanOutcome = "created"
	// ScanOutcomeNotFound means every resolver source missed.
	ScanOutcomeNotFound ScanOutcome = "not_found"
	// ScanOutcomeSuppressed means the gate debounced a rapid repeat.
	ScanOutcomeSuppressed ScanOutcome = "suppressed"
	// ScanOutcomeDropped means a scan arrived while another was in flight.
	ScanOutcomeDropped ScanOutcome = "dropped"
	// ScanOutcomeError means resolution or the cart mutation failed.
	ScanOutcomeError ScanOutcome = "error"
)
