package core

// validation.go derives errors, warnings and status for a Record.
//
// Validation is pure: every call recomputes issues from scratch, so a
// record never carries stale issues forward. Rules run in a fixed order:
//  1. Required fields: device identifier, manufacturer, product name
//  2. Device identifier length
//  3. Date format and calendar validity
//  4. Production/expiration ordering (warning only)

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// MinDeviceIdentifierLength is the shortest accepted device identifier, in runes.
const MinDeviceIdentifierLength = 5

const dateLayout = "2006-01-02"

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

type requiredRule struct {
	field FieldKey
	name  string
	get   func(Record) string
}

var requiredRules = []requiredRule{
	{FieldDeviceIdentifier, "Device Identifier", func(r Record) string { return r.DeviceIdentifier }},
	{FieldManufacturerName, "Manufacturer Name", func(r Record) string { return r.ManufacturerName }},
	{FieldProductName, "Product Name", func(r Record) string { return r.ProductName }},
}

type dateRule struct {
	field FieldKey
	name  string
	get   func(Record) string
}

var dateRules = []dateRule{
	{FieldProductionDate, "Production date", func(r Record) string { return r.ProductionDate }},
	{FieldExpirationDate, "Expiration date", func(r Record) string { return r.ExpirationDate }},
}

// Validate returns r with Errors, Warnings and Status recomputed.
// It never fails; every input produces a record with a derived status.
func Validate(r Record) Record {
	errs, warns := []Issue{}, []Issue{}

	for _, rule := range requiredRules {
		if strings.TrimSpace(rule.get(r)) == "" {
			errs = append(errs, Issue{
				Field:   rule.field,
				Kind:    IssueRequired,
				Message: rule.name + " is required",
			})
		}
	}

	if di := strings.TrimSpace(r.DeviceIdentifier); di != "" && utf8.RuneCountInString(di) < MinDeviceIdentifierLength {
		errs = append(errs, Issue{
			Field:   FieldDeviceIdentifier,
			Kind:    IssueFormat,
			Message: "Device identifier should be at least 5 characters",
		})
	}

	var parsed [2]time.Time
	var ok [2]bool
	for i, rule := range dateRules {
		raw := rule.get(r)
		if raw == "" {
			continue
		}
		t, issue := checkDate(rule, raw)
		if issue != nil {
			errs = append(errs, *issue)
			continue
		}
		parsed[i], ok[i] = t, true
	}

	if ok[0] && ok[1] && parsed[0].After(parsed[1]) {
		warns = append(warns, Issue{
			Field:   FieldExpirationDate,
			Kind:    IssueOrdering,
			Message: "Expiration date should be after production date",
		})
	}

	r.Errors = errs
	r.Warnings = warns
	switch {
	case len(errs) > 0:
		r.Status = StatusInvalid
	case len(warns) > 0:
		r.Status = StatusWarning
	default:
		r.Status = StatusValid
	}
	return r
}

func checkDate(rule dateRule, raw string) (time.Time, *Issue) {
	if !datePattern.MatchString(raw) {
		return time.Time{}, &Issue{
			Field:   rule.field,
			Kind:    IssueFormat,
			Message: rule.name + " must be in YYYY-MM-DD format",
		}
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, &Issue{
			Field:   rule.field,
			Kind:    IssueDate,
			Message: rule.name + " is not a valid calendar date",
		}
	}
	return t, nil
}

// ValidateRecords validates each record, preserving order.
func ValidateRecords(rs []Record) []Record {
	out := make([]Record, len(rs))
	for i, r := range rs {
		out[i] = Validate(r)
	}
	return out
}

// IssuesFor returns the errors and warnings attributed to field.
func IssuesFor(r Record, field FieldKey) (errs, warns []Issue) {
	for _, is := range r.Errors {
		if is.Field == field {
			errs = append(errs, is)
		}
	}
	for _, is := range r.Warnings {
		if is.Field == field {
			warns = append(warns, is)
		}
	}
	return errs, warns
}

// CountIssues returns how many records are invalid and how many carry warnings.
func CountIssues(rs []Record) (invalid, warning int) {
	for _, r := range rs {
		switch r.Status {
		case StatusInvalid:
			invalid++
		case StatusWarning:
			warning++
		}
	}
	return invalid, warning
}
