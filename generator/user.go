package generator

import (
	"fmt"
	"strings"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/agroweb/integration-harness/data"
	"github.com/agroweb/integration-harness/framework/helpers"
)

// UserFixtures is the content of data/data-files/usuarios.yaml.
type UserFixtures struct {
	Users          []ldvalue.Value `json:"users"`
	DuplicateUser  ldvalue.Value   `json:"duplicateUser"`
	RequiredFields []string        `json:"requiredFields"`
	WrongPassword  string          `json:"wrongPassword"`
	InvalidEmail   string          `json:"invalidEmail"`
	ExtraField     struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"extraField"`
}

// LoadUserFixtures reads the embedded user fixtures.
func LoadUserFixtures() (UserFixtures, error) {
	var f UserFixtures
	if err := data.LoadSingle("usuarios.yaml", &f); err != nil {
		return UserFixtures{}, err
	}
	if len(f.Users) == 0 {
		return UserFixtures{}, fmt.Errorf("usuarios.yaml has no users")
	}
	return f, nil
}

// UserGenerator produces registration and authentication bodies for the usuarios service.
//
// The usuarios service rejects a second registration with the same email or document, and it
// keeps its data between runs, so every registration this generator returns is made unique.
type UserGenerator struct {
	fixtures  UserFixtures
	config    generatorConfig
	counter   int
	usedEmail map[string]struct{}
}

// NewUserGenerator creates a generator based on the fixture users.
func NewUserGenerator(fixtures UserFixtures, options ...GeneratorOption) *UserGenerator {
	return &UserGenerator{
		fixtures:  fixtures,
		config:    makeGeneratorConfig(options),
		usedEmail: make(map[string]struct{}),
	}
}

// Fixtures returns the fixtures the generator was built with.
func (g *UserGenerator) Fixtures() UserFixtures { return g.fixtures }

// Registration returns a unique copy of one of the fixture users, chosen in rotation.
func (g *UserGenerator) Registration() ldvalue.Value {
	base := g.fixtures.Users[g.counter%len(g.fixtures.Users)]
	return g.makeUnique(base)
}

// DuplicateCandidate returns a unique copy of the duplicate-registration fixture. Registering it
// twice should fail the second time.
func (g *UserGenerator) DuplicateCandidate() ldvalue.Value {
	return g.makeUnique(g.fixtures.DuplicateUser)
}

func (g *UserGenerator) makeUnique(base ldvalue.Value) ldvalue.Value {
	var email, suffix string
	for {
		g.counter++
		suffix = fmt.Sprintf("%d%s", g.counter, strings.ToLower(g.config.newUniqueID()))
		email = withEmailTag(base.GetByKey("email").StringValue(), suffix)
		if _, used := g.usedEmail[email]; !used {
			break
		}
	}
	g.usedEmail[email] = struct{}{}

	// the document has to stay numeric
	document := fmt.Sprintf("%d%05d", 1000+g.config.rand.Intn(9000), g.counter%100000)

	user := helpers.ObjectWith(base, "email", ldvalue.String(email))
	user = helpers.ObjectWith(user, "username", ldvalue.String(base.GetByKey("username").StringValue()+"_"+suffix))
	return helpers.ObjectWith(user, "numberDocument", ldvalue.String(document))
}

// withEmailTag turns "ana@hotmail.com" into "ana+tag@hotmail.com".
func withEmailTag(email, tag string) string {
	local, domain, found := strings.Cut(email, "@")
	if !found {
		return email + "+" + tag
	}
	return local + "+" + tag + "@" + domain
}

// RequiredFields are the registration fields the service must insist on.
func (g *UserGenerator) RequiredFields() []string {
	return helpers.CopyOf(g.fixtures.RequiredFields)
}

// WithoutField is a fresh registration missing one field.
func (g *UserGenerator) WithoutField(field string) ldvalue.Value {
	return helpers.ObjectWithout(g.Registration(), field)
}

// WithInvalidEmail is a fresh registration whose email is not an address.
func (g *UserGenerator) WithInvalidEmail() ldvalue.Value {
	return helpers.ObjectWith(g.Registration(), "email", ldvalue.String(g.fixtures.InvalidEmail))
}

// WithEmptyFields is a fresh registration with an empty email and username.
func (g *UserGenerator) WithEmptyFields() ldvalue.Value {
	user := helpers.ObjectWith(g.Registration(), "email", ldvalue.String(""))
	return helpers.ObjectWith(user, "username", ldvalue.String(""))
}

// WithExtraField is a fresh registration with a property the service does not know about.
func (g *UserGenerator) WithExtraField() ldvalue.Value {
	extra := g.fixtures.ExtraField
	return helpers.ObjectWith(g.Registration(), extra.Name, ldvalue.String(extra.Value))
}

// Authentication is the login body for a registered user.
func (g *UserGenerator) Authentication(user ldvalue.Value) ldvalue.Value {
	return ldvalue.ObjectBuild().
		Set("email", user.GetByKey("email")).
		Set("hashPassword", user.GetByKey("hashPassword")).
		Build()
}

// WrongPassword is the login body for a registered user with the wrong password.
func (g *UserGenerator) WrongPassword(user ldvalue.Value) ldvalue.Value {
	return helpers.ObjectWith(g.Authentication(user), "hashPassword", ldvalue.String(g.fixtures.WrongPassword))
}
