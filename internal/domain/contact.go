// Package domain defines the contact records shared across rostersync.
package domain

import "strings"

// TrackedFields are the contact fields compared between the canonical
// roster and a user's remote folder. A difference in any of them marks
// the remote contact for update.
var TrackedFields = []string{
	"givenName",
	"surname",
	"mobilePhone",
	"businessPhones",
	"jobTitle",
	"department",
}

// CanonicalContact is one roster row: the target state for this contact
// in every synced user's designated folder. Keyed by email.
type CanonicalContact struct {
	GivenName      string
	Surname        string
	Mail           string
	MobilePhone    string
	BusinessPhone  string
	JobTitle       string
	Department     string
	OfficeLocation string

	// Extra holds roster columns with no fixed mapping. They pass
	// through reads and writes untouched and are never synced.
	Extra map[string]string
}

// Email returns the trimmed join key for this record.
func (c CanonicalContact) Email() string {
	return strings.TrimSpace(c.Mail)
}

// DisplayName returns the contact's full name as shown in the directory.
func (c CanonicalContact) DisplayName() string {
	return strings.TrimSpace(strings.TrimSpace(c.GivenName) + " " + strings.TrimSpace(c.Surname))
}

// Field returns the trimmed value of a tracked field.
func (c CanonicalContact) Field(name string) string {
	switch name {
	case "givenName":
		return strings.TrimSpace(c.GivenName)
	case "surname":
		return strings.TrimSpace(c.Surname)
	case "mobilePhone":
		return strings.TrimSpace(c.MobilePhone)
	case "businessPhones":
		return strings.TrimSpace(c.BusinessPhone)
	case "jobTitle":
		return strings.TrimSpace(c.JobTitle)
	case "department":
		return strings.TrimSpace(c.Department)
	default:
		return ""
	}
}

// RemoteContact is a contact as it currently exists in a user's
// designated folder in the directory service.
type RemoteContact struct {
	ID             string
	GivenName      string
	Surname        string
	Mail           string
	MobilePhone    string
	BusinessPhones []string
	JobTitle       string
	Department     string
	OfficeLocation string
}

// Email returns the trimmed join key for this record.
func (r RemoteContact) Email() string {
	return strings.TrimSpace(r.Mail)
}

// Field returns the trimmed value of a tracked field. businessPhones is
// multi-valued on the wire; the first non-empty entry is authoritative.
func (r RemoteContact) Field(name string) string {
	switch name {
	case "givenName":
		return strings.TrimSpace(r.GivenName)
	case "surname":
		return strings.TrimSpace(r.Surname)
	case "mobilePhone":
		return strings.TrimSpace(r.MobilePhone)
	case "businessPhones":
		for _, p := range r.BusinessPhones {
			if v := strings.TrimSpace(p); v != "" {
				return v
			}
		}
		return ""
	case "jobTitle":
		return strings.TrimSpace(r.JobTitle)
	case "department":
		return strings.TrimSpace(r.Department)
	default:
		return ""
	}
}

// Delta maps tracked field names to their new canonical values for one
// remote contact. An empty delta means the contact is already in sync.
type Delta map[string]string
