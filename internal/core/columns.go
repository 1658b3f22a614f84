package core

import "strconv"

// columns is the grid column model in display order.
var columns = []Column{
	{Key: FieldDeviceIdentifier, Label: "Device Identifier", Editable: true, Required: true, Type: FieldText, Frozen: true, Width: "200px"},
	{Key: FieldManufacturerName, Label: "Manufacturer", Editable: true, Required: true, Type: FieldText, Frozen: true, Width: "180px"},
	{Key: FieldProductName, Label: "Product", Editable: true, Required: true, Type: FieldText, Width: "180px"},
	{Key: FieldModelNumber, Label: "Model #", Editable: true, Type: FieldText, Width: "120px"},
	{Key: FieldSingleUse, Label: "Single Use", Editable: true, Type: FieldBool, Width: "100px"},
	{Key: FieldSterilized, Label: "Sterilized", Editable: true, Type: FieldBool, Width: "100px"},
	{Key: FieldContainsLatex, Label: "Contains Latex", Editable: true, Type: FieldBool, Width: "120px"},
	{Key: FieldContainsPhthalate, Label: "Contains Phthalate", Editable: true, Type: FieldBool, Width: "150px"},
	{Key: FieldProductionDate, Label: "Production Date", Editable: true, Type: FieldDate, Width: "150px"},
	{Key: FieldExpirationDate, Label: "Expiration Date", Editable: true, Type: FieldDate, Width: "150px"},
	{Key: FieldLotNumber, Label: "Lot #", Editable: true, Type: FieldText, Width: "120px"},
	{Key: FieldSerialNumber, Label: "Serial #", Editable: true, Type: FieldText, Width: "120px"},
	{Key: FieldStatus, Label: "Status", Editable: false, Type: FieldText, Width: "100px"},
}

// Columns returns the column model. In view-only mode every column is
// reported as non-editable.
func Columns(viewOnly bool) []Column {
	out := make([]Column, len(columns))
	copy(out, columns)
	if viewOnly {
		for i := range out {
			out[i].Editable = false
		}
	}
	return out
}

// FrozenColumns returns the columns anchored to the left edge of the grid.
func FrozenColumns(viewOnly bool) []Column {
	var out []Column
	for _, c := range Columns(viewOnly) {
		if c.Frozen {
			out = append(out, c)
		}
	}
	return out
}

// ScrollableColumns returns the columns rendered in the horizontally scrolling region.
func ScrollableColumns(viewOnly bool) []Column {
	var out []Column
	for _, c := range Columns(viewOnly) {
		if !c.Frozen {
			out = append(out, c)
		}
	}
	return out
}

// EditableColumns returns the columns offered for cell and bulk editing.
func EditableColumns() []Column {
	var out []Column
	for _, c := range columns {
		if c.Editable {
			out = append(out, c)
		}
	}
	return out
}

// ColumnByKey looks up a column by key.
func ColumnByKey(key FieldKey) (Column, bool) {
	for _, c := range columns {
		if c.Key == key {
			return c, true
		}
	}
	return Column{}, false
}

// FieldValue returns the string form of a record field. Booleans render as
// "true"/"false"; unknown keys render empty.
func FieldValue(r Record, key FieldKey) string {
	switch key {
	case FieldID:
		return r.ID
	case FieldDeviceIdentifier:
		return r.DeviceIdentifier
	case FieldManufacturerName:
		return r.ManufacturerName
	case FieldProductName:
		return r.ProductName
	case FieldModelNumber:
		return r.ModelNumber
	case FieldLotNumber:
		return r.LotNumber
	case FieldSerialNumber:
		return r.SerialNumber
	case FieldProductionDate:
		return r.ProductionDate
	case FieldExpirationDate:
		return r.ExpirationDate
	case FieldSingleUse:
		return strconv.FormatBool(r.SingleUse)
	case FieldSterilized:
		return strconv.FormatBool(r.Sterilized)
	case FieldContainsLatex:
		return strconv.FormatBool(r.ContainsLatex)
	case FieldContainsPhthalate:
		return strconv.FormatBool(r.ContainsPhthalate)
	case FieldStatus:
		return string(r.Status)
	case LockStatusColumn:
		return strconv.FormatBool(r.IsLocked)
	}
	return ""
}

// setField stores raw into the editable field key, coercing by column type.
// Boolean columns take true only for the exact string "true"; date and text
// columns store raw unchanged. Returns false for unknown or derived keys.
func setField(r *Record, key FieldKey, raw string) bool {
	col, ok := ColumnByKey(key)
	if !ok || !col.Editable {
		return false
	}

	if col.Type == FieldBool {
		b := raw == "true"
		switch key {
		case FieldSingleUse:
			r.SingleUse = b
		case FieldSterilized:
			r.Sterilized = b
		case FieldContainsLatex:
			r.ContainsLatex = b
		case FieldContainsPhthalate:
			r.ContainsPhthalate = b
		}
		return true
	}

	switch key {
	case FieldDeviceIdentifier:
		r.DeviceIdentifier = raw
	case FieldManufacturerName:
		r.ManufacturerName = raw
	case FieldProductName:
		r.ProductName = raw
	case FieldModelNumber:
		r.ModelNumber = raw
	case FieldLotNumber:
		r.LotNumber = raw
	case FieldSerialNumber:
		r.SerialNumber = raw
	case FieldProductionDate:
		r.ProductionDate = raw
	case FieldExpirationDate:
		r.ExpirationDate = raw
	}
	return true
}

// editValue formats a field for the edit cursor's pending value.
func editValue(r Record, col Column) string {
	return FieldValue(r, col.Key)
}
