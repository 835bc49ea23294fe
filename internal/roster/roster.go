// Package roster reads and writes the canonical contact roster, a
// delimited table with a header row.
package roster

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/meridianops/rostersync/internal/domain"
)

// headerFieldMap translates human-readable roster headers to internal
// field keys. Unmapped headers pass through unchanged and land in the
// record's Extra map.
var headerFieldMap = map[string]string{
	"Given Name":      "givenName",
	"Surname":         "surname",
	"Email":           "mail",
	"Mobile":          "mobilePhone",
	"Business Phone":  "businessPhones",
	"Job Title":       "jobTitle",
	"Department":      "department",
	"Office Location": "officeLocation",
}

// fieldHeader is the reverse mapping, used when writing.
var fieldHeader = func() map[string]string {
	m := make(map[string]string, len(headerFieldMap))
	for header, field := range headerFieldMap {
		m[field] = header
	}
	return m
}()

// writeOrder fixes the column order of written rosters.
var writeOrder = []string{
	"givenName", "surname", "mail", "mobilePhone",
	"businessPhones", "jobTitle", "department", "officeLocation",
}

// FieldKey maps a roster header to its internal field key. Headers that
// already use an internal key, or have no mapping, pass through.
func FieldKey(header string) string {
	if key, ok := headerFieldMap[strings.TrimSpace(header)]; ok {
		return key
	}
	return strings.TrimSpace(header)
}

// Read loads the canonical roster from a CSV file. The header row is
// mapped through FieldKey; one record is returned per data row.
func Read(path string) ([]domain.CanonicalContact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	fields := make([]string, len(rows[0]))
	for i, header := range rows[0] {
		fields[i] = FieldKey(header)
	}

	contacts := make([]domain.CanonicalContact, 0, len(rows)-1)
	for _, row := range rows[1:] {
		var c domain.CanonicalContact
		for i, value := range row {
			if i >= len(fields) {
				break
			}
			setField(&c, fields[i], value)
		}
		contacts = append(contacts, c)
	}

	return contacts, nil
}

// setField assigns a roster cell to its record field. Unknown keys go
// into Extra.
func setField(c *domain.CanonicalContact, field, value string) {
	switch field {
	case "givenName":
		c.GivenName = value
	case "surname":
		c.Surname = value
	case "mail":
		c.Mail = value
	case "mobilePhone":
		c.MobilePhone = value
	case "businessPhones":
		c.BusinessPhone = value
	case "jobTitle":
		c.JobTitle = value
	case "department":
		c.Department = value
	case "officeLocation":
		c.OfficeLocation = value
	default:
		if c.Extra == nil {
			c.Extra = make(map[string]string)
		}
		c.Extra[field] = value
	}
}

// Write saves contacts as a roster CSV with human-readable headers.
// Extra columns are appended after the fixed ones in sorted order.
func Write(path string, contacts []domain.CanonicalContact) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create roster: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	extras := extraKeys(contacts)

	header := make([]string, 0, len(writeOrder)+len(extras))
	for _, field := range writeOrder {
		header = append(header, fieldHeader[field])
	}
	header = append(header, extras...)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write roster header: %w", err)
	}

	for _, c := range contacts {
		row := []string{
			c.GivenName, c.Surname, c.Mail, c.MobilePhone,
			c.BusinessPhone, c.JobTitle, c.Department, c.OfficeLocation,
		}
		for _, key := range extras {
			row = append(row, c.Extra[key])
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write roster row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}

// extraKeys collects every Extra column present across the contacts.
func extraKeys(contacts []domain.CanonicalContact) []string {
	seen := make(map[string]bool)
	for _, c := range contacts {
		for key := range c.Extra {
			seen[key] = true
		}
	}
	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// FromRemote converts a remote contact back into the roster schema,
// used by the export command.
func FromRemote(r domain.RemoteContact) domain.CanonicalContact {
	c := domain.CanonicalContact{
		GivenName:      r.GivenName,
		Surname:        r.Surname,
		Mail:           r.Email(),
		MobilePhone:    r.MobilePhone,
		JobTitle:       r.JobTitle,
		Department:     r.Department,
		OfficeLocation: r.OfficeLocation,
	}
	for _, p := range r.BusinessPhones {
		if v := strings.TrimSpace(p); v != "" {
			c.BusinessPhone = v
			break
		}
	}
	return c
}
