package core

// ImportResult reports a successful import.
type ImportResult struct {
	RecordCount  int `json:"recordCount"`
	WarningCount int `json:"warningCount"`
}

// Import is the gate in front of the downstream registry. It succeeds only
// when no record is invalid and has no side effects either way.
func Import(records []Record) (ImportResult, error) {
	invalid, warning := CountIssues(records)
	if invalid > 0 {
		return ImportResult{}, &ImportBlockedError{InvalidCount: invalid}
	}
	return ImportResult{RecordCount: len(records), WarningCount: warning}, nil
}
