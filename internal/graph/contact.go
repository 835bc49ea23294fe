package graph

import (
	"strings"

	"github.com/meridianops/rostersync/internal/domain"
)

// EmailAddress is a Graph emailAddresses entry.
type EmailAddress struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`
}

// Contact is a contact resource as returned by Microsoft Graph.
type Contact struct {
	ID             string         `json:"id,omitempty"`
	GivenName      string         `json:"givenName,omitempty"`
	Surname        string         `json:"surname,omitempty"`
	EmailAddresses []EmailAddress `json:"emailAddresses,omitempty"`
	MobilePhone    string         `json:"mobilePhone,omitempty"`
	BusinessPhones []string       `json:"businessPhones,omitempty"`
	JobTitle       string         `json:"jobTitle,omitempty"`
	Department     string         `json:"department,omitempty"`
	OfficeLocation string         `json:"officeLocation,omitempty"`
}

// PrimaryEmail returns the first address carried by the contact.
func (c *Contact) PrimaryEmail() string {
	for _, e := range c.EmailAddresses {
		if addr := strings.TrimSpace(e.Address); addr != "" {
			return addr
		}
	}
	return ""
}

// ToRemote converts a wire contact into the domain record used by the
// diff engine.
func (c *Contact) ToRemote() domain.RemoteContact {
	return domain.RemoteContact{
		ID:             c.ID,
		GivenName:      c.GivenName,
		Surname:        c.Surname,
		Mail:           c.PrimaryEmail(),
		MobilePhone:    c.MobilePhone,
		BusinessPhones: c.BusinessPhones,
		JobTitle:       c.JobTitle,
		Department:     c.Department,
		OfficeLocation: c.OfficeLocation,
	}
}

// ContactFolder is a contactFolders resource.
type ContactFolder struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// User is a directory user as returned by /users.
type User struct {
	ID                string   `json:"id"`
	DisplayName       string   `json:"displayName"`
	UserPrincipalName string   `json:"userPrincipalName"`
	Mail              string   `json:"mail"`
	GivenName         string   `json:"givenName"`
	Surname           string   `json:"surname"`
	Department        string   `json:"department"`
	JobTitle          string   `json:"jobTitle"`
	OfficeLocation    string   `json:"officeLocation"`
	MobilePhone       string   `json:"mobilePhone"`
	BusinessPhones    []string `json:"businessPhones"`
}

// IsSyncable reports whether the user carries every attribute required
// to receive synced contacts: a primary email, given name, surname,
// department, job title, and office location.
func (u *User) IsSyncable() bool {
	return u.Mail != "" &&
		u.GivenName != "" &&
		u.Surname != "" &&
		u.Department != "" &&
		u.JobTitle != "" &&
		u.OfficeLocation != ""
}

// FilterSyncableUsers keeps only users eligible for contact sync.
func FilterSyncableUsers(users []User) []User {
	out := make([]User, 0, len(users))
	for _, u := range users {
		if u.IsSyncable() {
			out = append(out, u)
		}
	}
	return out
}
