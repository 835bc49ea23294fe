package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianops/rostersync/internal/domain"
)

func canonical(email string, mutate ...func(*domain.CanonicalContact)) domain.CanonicalContact {
	c := domain.CanonicalContact{
		GivenName:  "Ada",
		Surname:    "Lovelace",
		Mail:       email,
		JobTitle:   "Engineer",
		Department: "R&D",
	}
	for _, m := range mutate {
		m(&c)
	}
	return c
}

func remote(id, email string, mutate ...func(*domain.RemoteContact)) domain.RemoteContact {
	r := domain.RemoteContact{
		ID:         id,
		GivenName:  "Ada",
		Surname:    "Lovelace",
		Mail:       email,
		JobTitle:   "Engineer",
		Department: "R&D",
	}
	for _, m := range mutate {
		m(&r)
	}
	return r
}

func TestCompare_EmptyInputs(t *testing.T) {
	changes := Compare(nil, nil)
	assert.True(t, changes.Empty())
}

func TestCompare_Idempotent(t *testing.T) {
	remotes := []domain.RemoteContact{
		remote("r1", "a@x.com"),
		remote("r2", "b@x.com", func(r *domain.RemoteContact) { r.GivenName = "Grace" }),
	}
	canonicals := []domain.CanonicalContact{
		canonical("a@x.com"),
		canonical("b@x.com", func(c *domain.CanonicalContact) { c.GivenName = "Grace" }),
	}

	changes := Compare(remotes, canonicals)

	assert.True(t, changes.Empty(), "matching sets must produce no changes")
}

func TestCompare_AddOnly(t *testing.T) {
	canonicals := []domain.CanonicalContact{
		canonical("a@x.com", func(c *domain.CanonicalContact) {
			c.GivenName = "A"
			c.Surname = "B"
			c.Department = "D1"
		}),
	}

	changes := Compare(nil, canonicals)

	require.Len(t, changes.Add, 1)
	assert.Equal(t, canonicals[0], changes.Add[0])
	assert.Empty(t, changes.Delete)
	assert.Empty(t, changes.Update)
}

func TestCompare_DeleteOnly(t *testing.T) {
	remotes := []domain.RemoteContact{remote("r1", "gone@x.com")}

	changes := Compare(remotes, nil)

	require.Len(t, changes.Delete, 1)
	assert.Equal(t, "r1", changes.Delete[0].ID)
	assert.Empty(t, changes.Add)
	assert.Empty(t, changes.Update)
}

func TestCompare_UpdateSingleField(t *testing.T) {
	remotes := []domain.RemoteContact{
		remote("r1", "a@x.com", func(r *domain.RemoteContact) { r.Department = "D1" }),
	}
	canonicals := []domain.CanonicalContact{
		canonical("a@x.com", func(c *domain.CanonicalContact) { c.Department = "D2" }),
	}

	changes := Compare(remotes, canonicals)

	assert.Empty(t, changes.Add)
	assert.Empty(t, changes.Delete)
	require.Len(t, changes.Update, 1)

	upd := changes.Update[0]
	assert.Equal(t, "r1", upd.RemoteID)
	assert.Equal(t, canonicals[0], upd.Canonical)
	assert.Equal(t, domain.Delta{"department": "D2"}, upd.Delta,
		"delta must carry exactly the changed field")
}

func TestCompare_DuplicateRemotes(t *testing.T) {
	remotes := []domain.RemoteContact{
		remote("r1", "a@x.com", func(r *domain.RemoteContact) { r.JobTitle = "Old Title" }),
		remote("r2", "a@x.com"),
	}
	canonicals := []domain.CanonicalContact{
		canonical("a@x.com", func(c *domain.CanonicalContact) { c.JobTitle = "New Title" }),
	}

	changes := Compare(remotes, canonicals)

	assert.Empty(t, changes.Add)

	require.Len(t, changes.Delete, 1, "the duplicate must be slated for deletion")
	assert.Equal(t, "r2", changes.Delete[0].ID)

	require.Len(t, changes.Update, 1, "only the first occurrence is the comparison basis")
	assert.Equal(t, "r1", changes.Update[0].RemoteID)
	assert.Equal(t, domain.Delta{"jobTitle": "New Title"}, changes.Update[0].Delta)
}

func TestCompare_RemoteWithoutEmailIsDeleted(t *testing.T) {
	remotes := []domain.RemoteContact{remote("r1", "")}
	canonicals := []domain.CanonicalContact{canonical("a@x.com")}

	changes := Compare(remotes, canonicals)

	require.Len(t, changes.Delete, 1)
	assert.Equal(t, "r1", changes.Delete[0].ID)
	require.Len(t, changes.Add, 1)
}

func TestCompare_NormalisesWhitespace(t *testing.T) {
	remotes := []domain.RemoteContact{
		remote("r1", "a@x.com", func(r *domain.RemoteContact) { r.GivenName = "  Ada " }),
	}
	canonicals := []domain.CanonicalContact{
		canonical(" a@x.com ", func(c *domain.CanonicalContact) { c.GivenName = "Ada" }),
	}

	changes := Compare(remotes, canonicals)

	assert.True(t, changes.Empty(), "trimmed-equal values must not produce a delta")
}

func TestCompare_BusinessPhoneExtraction(t *testing.T) {
	remotes := []domain.RemoteContact{
		remote("r1", "a@x.com", func(r *domain.RemoteContact) {
			r.BusinessPhones = []string{"", " 555-0100 "}
		}),
	}
	canonicals := []domain.CanonicalContact{
		canonical("a@x.com", func(c *domain.CanonicalContact) { c.BusinessPhone = "555-0100" }),
	}

	changes := Compare(remotes, canonicals)

	assert.True(t, changes.Empty(),
		"first non-empty remote phone must be the comparison value")
}

func TestCompare_OrderIndependent(t *testing.T) {
	remotes := []domain.RemoteContact{
		remote("r1", "a@x.com"),
		remote("r2", "b@x.com", func(r *domain.RemoteContact) { r.Department = "Old" }),
		remote("r3", "gone@x.com"),
	}
	canonicals := []domain.CanonicalContact{
		canonical("a@x.com"),
		canonical("b@x.com", func(c *domain.CanonicalContact) { c.Department = "New" }),
		canonical("new@x.com"),
	}

	first := Compare(remotes, canonicals)

	reversedRemotes := []domain.RemoteContact{remotes[2], remotes[1], remotes[0]}
	reversedCanonicals := []domain.CanonicalContact{canonicals[2], canonicals[1], canonicals[0]}
	second := Compare(reversedRemotes, reversedCanonicals)

	assert.ElementsMatch(t, first.Add, second.Add)
	assert.ElementsMatch(t, first.Delete, second.Delete)
	assert.ElementsMatch(t, first.Update, second.Update)

	// Same inputs in the same order produce identical output order.
	third := Compare(remotes, canonicals)
	assert.Equal(t, first, third)
}

func TestCompare_DuplicateCanonicalRowsProcessedOnce(t *testing.T) {
	canonicals := []domain.CanonicalContact{
		canonical("a@x.com"),
		canonical("a@x.com", func(c *domain.CanonicalContact) { c.JobTitle = "Other" }),
	}

	changes := Compare(nil, canonicals)

	require.Len(t, changes.Add, 1, "a repeated roster email is added once")
	assert.Equal(t, "Engineer", changes.Add[0].JobTitle)
}
