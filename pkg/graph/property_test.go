package graph

import (
	"fmt"
	"sort"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/registryintel/shellnet/pkg/entity"
	"github.com/registryintel/shellnet/pkg/logging"
)

// edgeFingerprint flattens the typed edge set into a sorted, comparable form.
func edgeFingerprint(g *Graph) []string {
	edges := g.Edges()
	out := make([]string, 0, len(edges))
	for _, e := range edges {
		out = append(out, fmt.Sprintf("%s|%s|%s|%.3f", e.A, e.B, e.Type, e.Strength))
	}
	sort.Strings(out)
	return out
}

func equalFingerprints(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// bundlesFromSeed derives a deterministic bundle set from generator input.
// Directors and addresses are drawn from small pools so collisions, and
// therefore edges, actually occur.
func bundlesFromSeed(companyCount int, directorPicks, addressPicks []int) []entity.Bundle {
	bundles := make([]entity.Bundle, 0, companyCount)
	for i := 0; i < companyCount; i++ {
		b := entity.Bundle{
			Profile: &entity.Profile{
				CompanyNumber: fmt.Sprintf("%08d", i+1),
				CompanyStatus: "active",
			},
		}
		if len(directorPicks) > 0 {
			pick := directorPicks[i%len(directorPicks)] % 4
			b.Officers = []entity.Officer{{
				Name:        fmt.Sprintf("Director %d", pick),
				DateOfBirth: &entity.DateOfBirth{Month: 1 + pick, Year: 1970 + pick},
			}}
		}
		if len(addressPicks) > 0 {
			pick := addressPicks[i%len(addressPicks)] % 3
			b.Profile.RegisteredOffice = &entity.RegisteredOffice{
				AddressLine1: fmt.Sprintf("%d High Street", pick+1),
				PostalCode:   "SW1A 1AA",
			}
		}
		bundles = append(bundles, b)
	}
	return bundles
}

// TestBuilderInvariants verifies properties that must hold for any bundle
// input, whatever the attribute collisions turn out to be.
func TestBuilderInvariants(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping property-based test in short mode")
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	builder := NewBuilder(BuilderOptions{Logger: logging.NewNopLogger()})

	// Property 1: the edge set is a pure function of the bundle set, not
	// of bundle order
	properties.Property("edge set independent of bundle order", prop.ForAll(
		func(companyCount int, directorPicks, addressPicks []int) bool {
			bundles := bundlesFromSeed(companyCount, directorPicks, addressPicks)
			forward := builder.Build(bundles)

			reversed := make([]entity.Bundle, len(bundles))
			for i := range bundles {
				reversed[len(bundles)-1-i] = bundles[i]
			}
			backward := builder.Build(reversed)

			return equalFingerprints(edgeFingerprint(forward), edgeFingerprint(backward))
		},
		gen.IntRange(0, 20),
		gen.SliceOf(gen.IntRange(0, 100)),
		gen.SliceOf(gen.IntRange(0, 100)),
	))

	// Property 2: building twice from the same input yields the same graph
	properties.Property("build is deterministic", prop.ForAll(
		func(companyCount int, directorPicks []int) bool {
			bundles := bundlesFromSeed(companyCount, directorPicks, nil)
			first := builder.Build(bundles)
			second := builder.Build(bundles)
			if first.NodeCount() != second.NodeCount() {
				return false
			}
			return equalFingerprints(edgeFingerprint(first), edgeFingerprint(second))
		},
		gen.IntRange(0, 20),
		gen.SliceOf(gen.IntRange(0, 100)),
	))

	// Property 3: no self edges and every endpoint is a known node
	properties.Property("edges connect distinct known nodes", prop.ForAll(
		func(companyCount int, directorPicks, addressPicks []int) bool {
			g := builder.Build(bundlesFromSeed(companyCount, directorPicks, addressPicks))
			for _, e := range g.Edges() {
				if e.A == e.B || !g.HasNode(e.A) || !g.HasNode(e.B) {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 20),
		gen.SliceOf(gen.IntRange(0, 100)),
		gen.SliceOf(gen.IntRange(0, 100)),
	))

	// Property 4: strengths always carry the fixed per-rule constants
	properties.Property("edge strengths are rule constants", prop.ForAll(
		func(companyCount int, directorPicks, addressPicks []int) bool {
			g := builder.Build(bundlesFromSeed(companyCount, directorPicks, addressPicks))
			for _, e := range g.Edges() {
				switch e.Type {
				case SharedDirector:
					if e.Strength != StrengthSharedDirector {
						return false
					}
				case SharedAddress:
					if e.Strength != StrengthSharedAddress {
						return false
					}
				case SharedPSC:
					if e.Strength != StrengthSharedPSC {
						return false
					}
				}
			}
			return true
		},
		gen.IntRange(0, 20),
		gen.SliceOf(gen.IntRange(0, 100)),
		gen.SliceOf(gen.IntRange(0, 100)),
	))

	properties.TestingRun(t)
}
