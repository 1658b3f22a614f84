package core

import "github.com/google/uuid"

// GMDNRecord attaches a Global Medical Device Nomenclature code to a device.
// Rows start pending and become valid when saved; they are never run
// through Validate.
type GMDNRecord struct {
	ID               string `json:"id"`
	DeviceIdentifier string `json:"deviceIdentifier"`
	GMDNCode         string `json:"gmdnCode"`
	GMDNTerm         string `json:"gmdnTerm"`
	Status           Status `json:"status"`
	IsLocked         bool   `json:"isLocked"`
}

// GMDNSheet holds GMDN rows for all devices plus a single edit slot.
// It is not safe for concurrent use.
type GMDNSheet struct {
	rows    []GMDNRecord
	editing string
}

// NewGMDNSheet returns an empty sheet.
func NewGMDNSheet() *GMDNSheet {
	return &GMDNSheet{}
}

// Rows returns every row.
func (g *GMDNSheet) Rows() []GMDNRecord {
	return append([]GMDNRecord(nil), g.rows...)
}

// ForDevice returns the rows attached to deviceIdentifier.
func (g *GMDNSheet) ForDevice(deviceIdentifier string) []GMDNRecord {
	var out []GMDNRecord
	for _, r := range g.rows {
		if r.DeviceIdentifier == deviceIdentifier {
			out = append(out, r)
		}
	}
	return out
}

// Editing returns the id of the row being edited, or "".
func (g *GMDNSheet) Editing() string { return g.editing }

func (g *GMDNSheet) indexOf(id string) int {
	for i := range g.rows {
		if g.rows[i].ID == id {
			return i
		}
	}
	return -1
}

// Add appends a pending row for deviceIdentifier and starts editing it.
// An empty identifier is a no-op.
func (g *GMDNSheet) Add(deviceIdentifier string) (GMDNRecord, bool) {
	if deviceIdentifier == "" {
		return GMDNRecord{}, false
	}
	r := GMDNRecord{
		ID:               uuid.NewString(),
		DeviceIdentifier: deviceIdentifier,
		Status:           StatusPending,
	}
	g.rows = append(g.rows, r)
	g.editing = r.ID
	return r, true
}

// StartEdit selects a row for editing. Locked rows cannot be edited.
func (g *GMDNSheet) StartEdit(id string) bool {
	i := g.indexOf(id)
	if i < 0 || g.rows[i].IsLocked {
		return false
	}
	g.editing = id
	return true
}

// Save writes code and term to the row being edited and marks it valid.
func (g *GMDNSheet) Save(code, term string) (GMDNRecord, bool) {
	if g.editing == "" {
		return GMDNRecord{}, false
	}
	i := g.indexOf(g.editing)
	g.editing = ""
	if i < 0 || g.rows[i].IsLocked {
		return GMDNRecord{}, false
	}
	g.rows[i].GMDNCode = code
	g.rows[i].GMDNTerm = term
	g.rows[i].Status = StatusValid
	return g.rows[i], true
}

// Cancel leaves edit mode without changes.
func (g *GMDNSheet) Cancel() {
	g.editing = ""
}

// Delete removes a row.
func (g *GMDNSheet) Delete(id string) bool {
	i := g.indexOf(id)
	if i < 0 {
		return false
	}
	g.rows = append(g.rows[:i], g.rows[i+1:]...)
	if g.editing == id {
		g.editing = ""
	}
	return true
}

// ToggleLock flips a row's lock flag.
func (g *GMDNSheet) ToggleLock(id string) (GMDNRecord, bool) {
	i := g.indexOf(id)
	if i < 0 {
		return GMDNRecord{}, false
	}
	g.rows[i].IsLocked = !g.rows[i].IsLocked
	if g.rows[i].IsLocked && g.editing == id {
		g.editing = ""
	}
	return g.rows[i], true
}

// Reset drops every row.
func (g *GMDNSheet) Reset() {
	g.rows = nil
	g.editing = ""
}
