// internal/app/system/csvutil/members.go
package csvutil

import (
	"encoding/csv"
	"html/template"
	"io"
	"strconv"
	"strings"

	"github.com/dalemusser/circlehub/internal/app/system/roster"
	"github.com/dalemusser/circlehub/internal/domain/models"
)

// MemberCSVRow is the normalized row produced by PreScanMembersCSV.
type MemberCSVRow struct {
	FullName           string
	Email              string // lower-cased
	Phone              string
	DOB                string // as given; validated parseable when present
	MaritalStatus      string // canonical lower-case, "" when blank
	NumChildren        int
	CulturalBackground string
}

// PreScanMembersCSV reads all rows from r, skips a header if present,
// validates each row, and either returns normalized rows OR a formatted
// HTML error message (template.HTML) describing the first few bad lines.
// It never writes to a DB; it's safe to call before any mutations.
//
// Expected columns, in order:
//
//	Full Name, Email, Phone, DOB, Marital Status, Children, Cultural Background
//
// Only Full Name is required. Trailing columns may be omitted.
func PreScanMembersCSV(r io.Reader) (rows []MemberCSVRow, htmlErr template.HTML, err error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	// Pull first row to check header
	first, ferr := reader.Read()
	if ferr == io.EOF {
		first = nil
	} else if ferr != nil {
		return nil, template.HTML(template.HTMLEscapeString(ferr.Error())), nil
	}
	if len(first) > 0 {
		// Strip a UTF-8 BOM so exports from spreadsheet tools match.
		first[0] = strings.TrimPrefix(first[0], "\ufeff")
	}
	var raw [][]string
	if len(first) >= 1 &&
		(strings.EqualFold(strings.TrimSpace(first[0]), "full name") ||
			strings.EqualFold(strings.TrimSpace(first[0]), "name")) {
		// header detected → skip
	} else if first != nil {
		raw = append(raw, first)
	}
	for {
		rec, e := reader.Read()
		if e == io.EOF {
			break
		}
		if e != nil || len(rec) == 0 {
			continue
		}
		raw = append(raw, rec)
		if len(raw) > MaxRows {
			return nil, template.HTML("Upload rejected: too many rows."), nil
		}
	}

	type rowErr struct{ Name, Value, Reason string }
	var errs []rowErr

	field := func(rec []string, i int) string {
		if i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}

	for _, rec := range raw {
		row := MemberCSVRow{
			FullName:           field(rec, 0),
			Email:              strings.ToLower(field(rec, 1)),
			Phone:              field(rec, 2),
			DOB:                field(rec, 3),
			MaritalStatus:      strings.ToLower(field(rec, 4)),
			CulturalBackground: field(rec, 6),
		}
		if row.FullName == "" && row.Email == "" && row.Phone == "" && row.DOB == "" {
			continue // blank line
		}
		if row.FullName == "" {
			errs = append(errs, rowErr{Name: row.FullName, Value: row.Email, Reason: "missing full name"})
		}
		if row.DOB != "" {
			if _, ok := roster.ParseDOB(row.DOB); !ok {
				errs = append(errs, rowErr{Name: row.FullName, Value: row.DOB, Reason: "unparseable date of birth"})
			}
		}
		if row.MaritalStatus != "" && !models.ValidMaritalStatus(row.MaritalStatus) {
			errs = append(errs, rowErr{Name: row.FullName, Value: row.MaritalStatus, Reason: "invalid marital status"})
		}
		if kids := field(rec, 5); kids != "" {
			n, cerr := strconv.Atoi(kids)
			if cerr != nil || n < 0 {
				errs = append(errs, rowErr{Name: row.FullName, Value: kids, Reason: "children must be a non-negative number"})
			} else {
				row.NumChildren = n
			}
		}
		rows = append(rows, row)
	}

	if len(errs) > 0 {
		var b strings.Builder
		b.WriteString("Upload rejected: one or more rows are invalid.<br>")
		b.WriteString("Columns: Full Name, Email, Phone, DOB, Marital Status, Children, Cultural Background.<br>")
		b.WriteString("Full Name is required. Marital status must be one of: single, married, widowed, divorced.<br>")

		max := 5
		if len(errs) < max {
			max = len(errs)
		}
		if max > 0 {
			b.WriteString("Examples:<br>")
			for i := 0; i < max; i++ {
				e := errs[i]
				name := e.Name
				if name == "" {
					name = "(missing)"
				}
				value := e.Value
				if value == "" {
					value = "(blank)"
				}
				b.WriteString("• ")
				b.WriteString(template.HTMLEscapeString(name))
				b.WriteString(" | ")
				b.WriteString(template.HTMLEscapeString(value))
				b.WriteString(" → ")
				b.WriteString(template.HTMLEscapeString(e.Reason))
				b.WriteString("<br>")
			}
		}
		return nil, template.HTML(b.String()), nil
	}

	return rows, "", nil
}
