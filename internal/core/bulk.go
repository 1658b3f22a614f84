package core

// BulkEditResult reports the outcome of a bulk edit.
type BulkEditResult struct {
	Records []Record `json:"records"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
}

// ApplyBulkEdit sets field to value on every unlocked record in subset and
// re-validates them. Locked records pass through unchanged and are counted
// as skipped. Input order is preserved. An unknown or non-editable field
// returns the subset unchanged with zero counts.
func ApplyBulkEdit(subset []Record, field FieldKey, value string) BulkEditResult {
	col, ok := ColumnByKey(field)
	if field == "" || !ok || !col.Editable {
		return BulkEditResult{Records: subset}
	}

	out := make([]Record, len(subset))
	var res BulkEditResult
	for i, r := range subset {
		if r.IsLocked {
			out[i] = r
			res.Skipped++
			continue
		}
		r = r.clone()
		setField(&r, field, value)
		out[i] = Validate(r)
		res.Updated++
	}
	res.Records = out
	return res
}

// UnlockedCount returns how many records in rs a bulk edit would touch.
func UnlockedCount(rs []Record) int {
	n := 0
	for _, r := range rs {
		if !r.IsLocked {
			n++
		}
	}
	return n
}
