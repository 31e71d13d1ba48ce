package generator

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserGenerator(t *testing.T) *UserGenerator {
	t.Helper()
	fixtures, err := LoadUserFixtures()
	require.NoError(t, err)
	return NewUserGenerator(fixtures, WithRandSource(rand.NewSource(1)))
}

func TestLoadUserFixtures(t *testing.T) {
	f, err := LoadUserFixtures()
	require.NoError(t, err)
	require.Len(t, f.Users, 2)
	assert.Equal(t, "juanperez", f.Users[0].GetByKey("username").StringValue())
	assert.Equal(t, []string{"email", "hashPassword", "username", "numberDocument"}, f.RequiredFields)
	assert.Equal(t, "not-an-email", f.InvalidEmail)
	assert.Equal(t, "extraField", f.ExtraField.Name)
}

func TestRegistrationsAreUnique(t *testing.T) {
	g := newUserGenerator(t)
	emails := make(map[string]bool)
	usernames := make(map[string]bool)
	for i := 0; i < 30; i++ {
		u := g.Registration()
		email := u.GetByKey("email").StringValue()
		assert.False(t, emails[email], email)
		emails[email] = true
		usernames[u.GetByKey("username").StringValue()] = true

		assert.Contains(t, email, "+")
		assert.True(t, strings.HasSuffix(email, "@hotmail.com"), email)
		doc := u.GetByKey("numberDocument").StringValue()
		assert.Len(t, doc, 9)
		assert.Equal(t, strings.Trim(doc, "0123456789"), "")
		assert.Equal(t, 14, u.Count())
	}
	assert.Len(t, usernames, 30)
}

func TestRegistrationRotatesFixtures(t *testing.T) {
	g := newUserGenerator(t)
	assert.Equal(t, "Juan", g.Registration().GetByKey("firstName").StringValue())
	assert.Equal(t, "Ana", g.Registration().GetByKey("firstName").StringValue())
}

func TestUserVariants(t *testing.T) {
	g := newUserGenerator(t)

	for _, field := range g.RequiredFields() {
		u := g.WithoutField(field)
		_, found := u.TryGetByKey(field)
		assert.False(t, found, field)
		assert.Equal(t, 13, u.Count())
	}

	assert.Equal(t, "not-an-email", g.WithInvalidEmail().GetByKey("email").StringValue())

	empty := g.WithEmptyFields()
	assert.Equal(t, "", empty.GetByKey("email").StringValue())
	assert.Equal(t, "", empty.GetByKey("username").StringValue())

	assert.Equal(t, "shouldBeIgnoredOrRejected", g.WithExtraField().GetByKey("extraField").StringValue())

	dup := g.DuplicateCandidate()
	assert.True(t, strings.HasPrefix(dup.GetByKey("email").StringValue(), "duplicate+"))
}

func TestAuthenticationPayloads(t *testing.T) {
	g := newUserGenerator(t)
	u := g.Registration()

	auth := g.Authentication(u)
	assert.Equal(t, 2, auth.Count())
	assert.Equal(t, u.GetByKey("email"), auth.GetByKey("email"))
	assert.Equal(t, "password123", auth.GetByKey("hashPassword").StringValue())

	wrong := g.WrongPassword(u)
	assert.Equal(t, "wrongpass", wrong.GetByKey("hashPassword").StringValue())
	assert.Equal(t, u.GetByKey("email"), wrong.GetByKey("email"))
}

func TestWithEmailTag(t *testing.T) {
	assert.Equal(t, "ana+x1@hotmail.com", withEmailTag("ana@hotmail.com", "x1"))
	assert.Equal(t, "ana+x1", withEmailTag("ana", "x1"))
}
