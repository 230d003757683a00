package graph

import (
	"sort"

	"github.com/registryintel/shellnet/pkg/entity"
	"github.com/registryintel/shellnet/pkg/logging"
)

// Fixed strengths per inference rule. These are constants of the model, not
// computed from the data.
const (
	StrengthSharedDirector = 0.7
	StrengthSharedAddress  = 0.6
	StrengthSharedPSC      = 0.8
)

// DefaultMaxGroupSize caps how many entities a single shared-attribute group
// may contribute pairwise edges for. A registered office shared by thousands
// of companies would otherwise add millions of edges.
const DefaultMaxGroupSize = 200

// BuilderOptions configures relationship inference.
type BuilderOptions struct {
	// MaxGroupSize bounds pairwise edge expansion per attribute group.
	// Groups beyond the cap are truncated to the first MaxGroupSize members
	// in entity ID order and logged. Zero means DefaultMaxGroupSize.
	MaxGroupSize int
	Logger       logging.Logger
}

// Builder turns entity bundles into a single relationship graph. One node
// per bundle with a present profile; edges from the shared-director,
// shared-address and shared-corporate-PSC inference rules.
type Builder struct {
	maxGroupSize int
	logger       logging.Logger
}

// NewBuilder creates a builder with the given options.
func NewBuilder(opts BuilderOptions) *Builder {
	maxGroup := opts.MaxGroupSize
	if maxGroup <= 0 {
		maxGroup = DefaultMaxGroupSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Builder{maxGroupSize: maxGroup, logger: logger}
}

// Build constructs the relationship graph. Bundles without a profile are
// skipped silently (not an error). The edge set is independent of bundle
// order; node iteration order follows bundle order.
func (b *Builder) Build(bundles []entity.Bundle) *Graph {
	g := New()

	for i := range bundles {
		bundle := &bundles[i]
		profile := bundle.Profile
		if profile == nil || profile.CompanyNumber == "" {
			continue
		}
		g.AddNode(&Node{
			ID:                profile.CompanyNumber,
			IncorporationDate: profile.DateOfCreation,
			CompanyType:       profile.Type,
			CompanyStatus:     profile.CompanyStatus,
			SICCodes:          profile.SICCodes,
			RegisteredOffice:  profile.RegisteredOffice,
			Directors:         bundle.Officers,
			PSC:               bundle.PSC,
			FilingHistory:     bundle.FilingHistory,
		})
	}

	b.addDirectorEdges(g, bundles)
	b.addAddressEdges(g, bundles)
	b.addPSCEdges(g, bundles)

	return g
}

// addDirectorEdges connects companies sharing a director identified by
// (name, birth month, birth year).
func (b *Builder) addDirectorEdges(g *Graph, bundles []entity.Bundle) {
	groups := make(map[entity.DirectorKey][]string)
	for i := range bundles {
		bundle := &bundles[i]
		id := bundle.CompanyNumber()
		if id == "" {
			continue
		}
		seen := make(map[entity.DirectorKey]bool)
		for j := range bundle.Officers {
			key := bundle.Officers[j].Key()
			if key.Name == "" || seen[key] {
				continue
			}
			seen[key] = true
			groups[key] = append(groups[key], id)
		}
	}
	for key, members := range groups {
		b.connectGroup(g, members, SharedDirector, StrengthSharedDirector, "director", key.Name)
	}
}

// addAddressEdges connects companies registered at the same office,
// keyed by (address line 1, postal code).
func (b *Builder) addAddressEdges(g *Graph, bundles []entity.Bundle) {
	groups := make(map[string][]string)
	for i := range bundles {
		bundle := &bundles[i]
		id := bundle.CompanyNumber()
		if id == "" {
			continue
		}
		key := bundle.Profile.RegisteredOffice.Key()
		if key == "" {
			continue
		}
		groups[key] = append(groups[key], id)
	}
	for key, members := range groups {
		b.connectGroup(g, members, SharedAddress, StrengthSharedAddress, "address", key)
	}
}

// addPSCEdges connects companies controlled by the same corporate PSC,
// keyed by PSC name. Natural-person PSCs do not participate.
func (b *Builder) addPSCEdges(g *Graph, bundles []entity.Bundle) {
	groups := make(map[string][]string)
	for i := range bundles {
		bundle := &bundles[i]
		id := bundle.CompanyNumber()
		if id == "" {
			continue
		}
		seen := make(map[string]bool)
		for j := range bundle.PSC {
			psc := &bundle.PSC[j]
			if !psc.IsCorporate() || psc.Name == "" || seen[psc.Name] {
				continue
			}
			seen[psc.Name] = true
			groups[psc.Name] = append(groups[psc.Name], id)
		}
	}
	for key, members := range groups {
		b.connectGroup(g, members, SharedPSC, StrengthSharedPSC, "psc", key)
	}
}

// connectGroup adds pairwise edges between every pair in an attribute group.
// Duplicated member IDs are collapsed first; oversized groups are truncated
// at maxGroupSize with a warning rather than exploding quadratically.
func (b *Builder) connectGroup(g *Graph, members []string, relType RelationshipType, strength float64, rule, key string) {
	unique := dedupeByCanonical(g, members)
	if len(unique) < 2 {
		return
	}
	if len(unique) > b.maxGroupSize {
		b.logger.Warn("attribute group truncated",
			logging.Field{Key: "rule", Value: rule},
			logging.Field{Key: "key", Value: key},
			logging.Field{Key: "group_size", Value: len(unique)},
			logging.Field{Key: "cap", Value: b.maxGroupSize},
		)
		unique = unique[:b.maxGroupSize]
	}
	for i := 0; i < len(unique); i++ {
		for j := i + 1; j < len(unique); j++ {
			// endpoints are known nodes, strength is a model constant
			_ = g.AddEdge(unique[i], unique[j], relType, strength)
		}
	}
}

// dedupeByCanonical removes duplicates and sorts members by entity ID so a
// truncated group keeps the same entities regardless of bundle input order.
func dedupeByCanonical(g *Graph, members []string) []string {
	seen := make(map[string]bool, len(members))
	out := make([]string, 0, len(members))
	for _, id := range members {
		if seen[id] || !g.HasNode(id) {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
