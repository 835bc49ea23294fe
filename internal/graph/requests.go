package graph

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/meridianops/rostersync/internal/domain"
)

// jsonHeaders are attached to every sub-request carrying a body.
func jsonHeaders() map[string]string {
	return map[string]string{"Content-Type": "application/json"}
}

// isValidValue reports whether a roster value should be sent to Graph.
// Empty strings and the "nan" sentinel that spreadsheet exports leave in
// blank cells are treated as absent.
func isValidValue(value string) bool {
	v := strings.TrimSpace(value)
	return v != "" && !strings.EqualFold(v, "nan")
}

func contactsPath(userID, folderID string) string {
	return fmt.Sprintf("/users/%s/contactFolders/%s/contacts", userID, folderID)
}

func contactPath(userID, folderID, contactID string) string {
	return contactsPath(userID, folderID) + "/" + contactID
}

// BuildCreateContact returns a POST sub-request that creates a contact
// in the user's designated folder. Absent, empty, or "nan" values are
// omitted from the body, and the roster's single business phone is
// normalized into the list shape the API expects.
func BuildCreateContact(userID string, contact domain.CanonicalContact, folderID string) (BatchOperation, error) {
	body := make(map[string]any)

	if isValidValue(contact.GivenName) {
		body["givenName"] = strings.TrimSpace(contact.GivenName)
	}
	if isValidValue(contact.Surname) {
		body["surname"] = strings.TrimSpace(contact.Surname)
	}
	if email := contact.Email(); isValidValue(email) {
		body["emailAddresses"] = []EmailAddress{{Address: email, Name: contact.DisplayName()}}
	}
	if isValidValue(contact.MobilePhone) {
		body["mobilePhone"] = strings.TrimSpace(contact.MobilePhone)
	}
	if isValidValue(contact.BusinessPhone) {
		body["businessPhones"] = []string{strings.TrimSpace(contact.BusinessPhone)}
	}
	if isValidValue(contact.JobTitle) {
		body["jobTitle"] = strings.TrimSpace(contact.JobTitle)
	}
	if isValidValue(contact.Department) {
		body["department"] = strings.TrimSpace(contact.Department)
	}
	if isValidValue(contact.OfficeLocation) {
		body["officeLocation"] = strings.TrimSpace(contact.OfficeLocation)
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return BatchOperation{}, fmt.Errorf("encode create body: %w", err)
	}

	return BatchOperation{
		ID:      uuid.NewString(),
		Method:  http.MethodPost,
		URL:     contactsPath(userID, folderID),
		Headers: jsonHeaders(),
		Body:    raw,
	}, nil
}

// BuildUpdateContact returns a PATCH sub-request carrying only the
// changed fields from the delta, with the phone-clearing rule applied
// by PatchBody.
func BuildUpdateContact(userID string, delta domain.Delta, folderID, contactID string) (BatchOperation, error) {
	raw, err := json.Marshal(PatchBody(delta))
	if err != nil {
		return BatchOperation{}, fmt.Errorf("encode update body: %w", err)
	}

	return BatchOperation{
		ID:      uuid.NewString(),
		Method:  http.MethodPatch,
		URL:     contactPath(userID, folderID, contactID),
		Headers: jsonHeaders(),
		Body:    raw,
	}, nil
}

// PatchBody converts a tracked-field delta into a PATCH body.
//
// The two phone fields have clearing semantics: a delta that does not
// carry businessPhones sets it to an empty list, and one that does not
// carry mobilePhone sets it to an empty string. Omission from the delta
// means "clear", not "leave unchanged". Every other absent or invalid
// field is simply left out of the body.
func PatchBody(delta domain.Delta) map[string]any {
	body := make(map[string]any, len(delta)+2)

	for field, value := range delta {
		if field == "businessPhones" || field == "mobilePhone" {
			continue
		}
		if isValidValue(value) {
			body[field] = value
		}
	}

	if v := delta["businessPhones"]; isValidValue(v) {
		body["businessPhones"] = []string{v}
	} else {
		body["businessPhones"] = []string{}
	}

	if v := delta["mobilePhone"]; isValidValue(v) {
		body["mobilePhone"] = v
	} else {
		body["mobilePhone"] = ""
	}

	return body
}

// BuildDeleteContact returns a DELETE sub-request for a contact.
func BuildDeleteContact(userID, contactID, folderID string) BatchOperation {
	return BatchOperation{
		ID:     uuid.NewString(),
		Method: http.MethodDelete,
		URL:    contactPath(userID, folderID, contactID),
	}
}
