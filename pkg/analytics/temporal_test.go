package analytics

import (
	"fmt"
	"testing"

	"github.com/registryintel/shellnet/pkg/config"
	"github.com/registryintel/shellnet/pkg/entity"
	"github.com/registryintel/shellnet/pkg/graph"
	"github.com/registryintel/shellnet/pkg/patterns"
)

func temporalNode(id, date, director, addressLine string) *graph.Node {
	node := &graph.Node{ID: id, IncorporationDate: date}
	if director != "" {
		node.Directors = []entity.Officer{{
			Name:        director,
			DateOfBirth: &entity.DateOfBirth{Month: 1, Year: 1980},
		}}
	}
	if addressLine != "" {
		node.RegisteredOffice = &entity.RegisteredOffice{
			AddressLine1: addressLine,
			PostalCode:   "N1 7GU",
		}
	}
	return node
}

func computeTemporal(t *testing.T, nodes ...*graph.Node) []patterns.Pattern {
	t.Helper()
	g := graph.New()
	for _, n := range nodes {
		g.AddNode(n)
	}
	return NewTemporalEngine(g, config.Default()).Compute()
}

func TestTemporal_SharedDateAndDirector(t *testing.T) {
	found := computeTemporal(t,
		temporalNode("11111111", "2024-03-15", "Jane Smith", ""),
		temporalNode("22222222", "2024-03-15", "Jane Smith", ""),
		temporalNode("33333333", "2024-03-15", "Someone Else", ""),
	)

	if len(found) != 1 {
		t.Fatalf("patterns = %v, want one bulk_incorporation", found)
	}
	p := found[0]
	if p.Type != "bulk_incorporation" {
		t.Errorf("Type = %q", p.Type)
	}
	if p.Date != "2024-03-15" {
		t.Errorf("Date = %q, want 2024-03-15", p.Date)
	}
	if len(p.Entities) != 3 {
		t.Errorf("Entities = %v, want all three same-day companies", p.Entities)
	}
	if len(p.SharedAttributes) != 1 || p.SharedAttributes[0] != "director:jane smith" {
		t.Errorf("SharedAttributes = %v, want [director:jane smith]", p.SharedAttributes)
	}
}

func TestTemporal_SharedDateAloneIsNotEnough(t *testing.T) {
	found := computeTemporal(t,
		temporalNode("11111111", "2024-03-15", "Alice One", "1 First Street"),
		temporalNode("22222222", "2024-03-15", "Bob Two", "2 Second Street"),
		temporalNode("33333333", "2024-03-15", "Carol Three", "3 Third Street"),
	)
	if len(found) != 0 {
		t.Errorf("same date without shared attributes should not flag, got %v", found)
	}
}

func TestTemporal_SharedAddressAttribute(t *testing.T) {
	found := computeTemporal(t,
		temporalNode("11111111", "2024-03-15", "", "20 Wenlock Road"),
		temporalNode("22222222", "2024-03-15", "", "20 Wenlock Road"),
		temporalNode("33333333", "2024-03-15", "", "99 Other Road"),
	)

	if len(found) != 1 {
		t.Fatalf("patterns = %v, want one", found)
	}
	if len(found[0].SharedAttributes) != 1 || found[0].SharedAttributes[0] != "address:20 wenlock road|n1 7gu" {
		t.Errorf("SharedAttributes = %v", found[0].SharedAttributes)
	}
}

func TestTemporal_RequiresThreeMembers(t *testing.T) {
	found := computeTemporal(t,
		temporalNode("11111111", "2024-03-15", "Jane Smith", ""),
		temporalNode("22222222", "2024-03-15", "Jane Smith", ""),
	)
	if len(found) != 0 {
		t.Errorf("two same-day companies should not flag, got %v", found)
	}
}

func TestTemporal_MissingDatesIgnored(t *testing.T) {
	found := computeTemporal(t,
		temporalNode("11111111", "", "Jane Smith", ""),
		temporalNode("22222222", "", "Jane Smith", ""),
		temporalNode("33333333", "", "Jane Smith", ""),
	)
	if len(found) != 0 {
		t.Errorf("companies without incorporation dates should not group, got %v", found)
	}
}

func TestTemporal_ResultsInDateOrder(t *testing.T) {
	var nodes []*graph.Node
	for _, date := range []string{"2024-06-01", "2024-01-01"} {
		for i := 0; i < 3; i++ {
			id := fmt.Sprintf("%s%07d", map[string]string{"2024-06-01": "2", "2024-01-01": "1"}[date], i)
			nodes = append(nodes, temporalNode(id, date, "Jane Smith", ""))
		}
	}
	found := computeTemporal(t, nodes...)

	if len(found) != 2 {
		t.Fatalf("patterns = %d, want 2", len(found))
	}
	if found[0].Date != "2024-01-01" || found[1].Date != "2024-06-01" {
		t.Errorf("dates = [%s, %s], want ascending order", found[0].Date, found[1].Date)
	}
}
