// Package generator builds request payloads for the AgroWeb services: valid products with
// realistic values, deliberately broken products for error tests, cart operations and user
// registrations.
//
// Generators keep track of the names they have produced so that payloads from one instance do
// not collide. They are not safe for concurrent use.
package generator

import (
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agroweb/integration-harness/framework/helpers"
)

type generatorConfig struct {
	rand        *rand.Rand
	newUniqueID func() string
}

// GeneratorOption configures any of the generators.
type GeneratorOption = helpers.ConfigOptionFunc[generatorConfig]

// WithRandSource makes every random choice come from src, so that a fixed seed reproduces the
// same payloads. Product IDs are derived from the same source unless WithUniqueIDSource is used,
// whichever order the two options are given in.
func WithRandSource(src rand.Source) GeneratorOption {
	return func(c *generatorConfig) error {
		c.rand = rand.New(src) //nolint:gosec
		return nil
	}
}

// WithSeed is like WithRandSource, but every generator built with the option gets its own source
// seeded with seed. Unlike a shared rand.Source, this is safe to put in a long-lived option list.
func WithSeed(seed int64) GeneratorOption {
	return func(c *generatorConfig) error {
		c.rand = rand.New(rand.NewSource(seed)) //nolint:gosec
		return nil
	}
}

// WithUniqueIDSource replaces the UUID-based source of unique 8-character identifiers that is
// used for product IDs and user suffixes.
func WithUniqueIDSource(fn func() string) GeneratorOption {
	return func(c *generatorConfig) error {
		c.newUniqueID = fn
		return nil
	}
}

func makeGeneratorConfig(options []GeneratorOption) generatorConfig {
	var c generatorConfig
	_ = helpers.ApplyOptions(&c, options...)
	if c.rand == nil {
		c.rand = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec
	}
	if c.newUniqueID == nil {
		r := c.rand
		c.newUniqueID = func() string {
			id, err := uuid.NewRandomFromReader(r)
			if err != nil {
				id = uuid.New()
			}
			return strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
		}
	}
	return c
}

func pick[V any](r *rand.Rand, choices []V) V {
	return choices[r.Intn(len(choices))]
}
