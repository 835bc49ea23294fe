// Package sync reconciles per-user contact folders against the
// canonical roster.
package sync

import "github.com/meridianops/rostersync/internal/domain"

// ContactUpdate pairs a canonical record with the remote contact it
// should overwrite and the fields that differ.
type ContactUpdate struct {
	Canonical domain.CanonicalContact
	RemoteID  string
	Delta     domain.Delta
}

// Changes is the outcome of comparing one user's remote contacts
// against the canonical roster.
type Changes struct {
	Add    []domain.CanonicalContact
	Delete []domain.RemoteContact
	Update []ContactUpdate
}

// Empty reports whether the remote folder already matches the roster.
func (c Changes) Empty() bool {
	return len(c.Add) == 0 && len(c.Delete) == 0 && len(c.Update) == 0
}

// Compare diffs a remote contact set against the canonical roster.
//
// Email is the join key. The first remote record seen for an email is
// the comparison basis; any later record with the same email is a
// duplicate and is always slated for deletion, as is any remote record
// without an email (it can never be matched). Canonical-only emails
// become adds, remote-only emails become deletes, and records present
// on both sides become updates when any tracked field differs.
//
// Compare is pure: the same two input sets produce the same three
// output sets. Add and Update follow canonical input order, Delete
// follows remote input order with duplicates appended last.
func Compare(remote []domain.RemoteContact, canonical []domain.CanonicalContact) Changes {
	firstSeen := make(map[string]domain.RemoteContact, len(remote))
	var duplicates []domain.RemoteContact

	for _, rc := range remote {
		email := rc.Email()
		if email == "" {
			duplicates = append(duplicates, rc)
			continue
		}
		if _, ok := firstSeen[email]; ok {
			duplicates = append(duplicates, rc)
			continue
		}
		firstSeen[email] = rc
	}

	canonicalEmails := make(map[string]bool, len(canonical))
	for _, cc := range canonical {
		canonicalEmails[cc.Email()] = true
	}

	var changes Changes

	processed := make(map[string]bool, len(canonical))
	for _, cc := range canonical {
		email := cc.Email()
		if processed[email] {
			continue
		}
		processed[email] = true

		rc, ok := firstSeen[email]
		if !ok {
			changes.Add = append(changes.Add, cc)
			continue
		}
		if delta := diffFields(rc, cc); len(delta) > 0 {
			changes.Update = append(changes.Update, ContactUpdate{
				Canonical: cc,
				RemoteID:  rc.ID,
				Delta:     delta,
			})
		}
	}

	for _, rc := range remote {
		email := rc.Email()
		if email == "" {
			continue
		}
		basis, ok := firstSeen[email]
		if !ok || basis.ID != rc.ID {
			continue
		}
		if !canonicalEmails[email] {
			changes.Delete = append(changes.Delete, rc)
		}
	}
	changes.Delete = append(changes.Delete, duplicates...)

	return changes
}

// diffFields computes the tracked-field delta between the remote basis
// and the canonical record. Both sides are normalized to trimmed string
// form before comparison.
func diffFields(remote domain.RemoteContact, canonical domain.CanonicalContact) domain.Delta {
	delta := make(domain.Delta)
	for _, field := range domain.TrackedFields {
		cv := canonical.Field(field)
		if remote.Field(field) != cv {
			delta[field] = cv
		}
	}
	return delta
}
