package patterns

import (
	"sort"
	"time"

	"github.com/registryintel/shellnet/pkg/graph"
)

// The shell-company heuristics below are intentionally simple first-pass
// detectors. They share the Detector contract so the aggregation layer stays
// decoupled from whatever each of them ends up doing internally.

// NomineeDirectorDetector flags directors who sit on an implausible number
// of boards at once. MinCompanies defaults to 5.
type NomineeDirectorDetector struct {
	MinCompanies int
}

func (d *NomineeDirectorDetector) Name() string { return "nominee_director" }

func (d *NomineeDirectorDetector) Detect(g *graph.Graph) []Pattern {
	minCompanies := d.MinCompanies
	if minCompanies <= 0 {
		minCompanies = 5
	}

	byDirector := make(map[string][]string)
	for _, id := range g.Nodes() {
		node := g.Node(id)
		seen := make(map[string]bool)
		for i := range node.Directors {
			key := node.Directors[i].Key()
			if key.Name == "" || seen[key.Name] {
				continue
			}
			seen[key.Name] = true
			byDirector[key.Name] = append(byDirector[key.Name], id)
		}
	}

	names := make([]string, 0, len(byDirector))
	for name := range byDirector {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []Pattern
	for _, name := range names {
		companies := byDirector[name]
		if len(companies) < minCompanies {
			continue
		}
		sort.Strings(companies)
		out = append(out, Pattern{
			Type:             "nominee_director",
			Entities:         companies,
			RiskLevel:        RiskMedium,
			SharedAttributes: []string{"director:" + name},
		})
	}
	return out
}

// DormantNetworkDetector flags connected clusters where most members are
// dormant. A live company wired into a dormant cluster is the usual conduit
// shape. MinClusterSize defaults to 3.
type DormantNetworkDetector struct {
	MinClusterSize int
}

func (d *DormantNetworkDetector) Name() string { return "dormant_network" }

func (d *DormantNetworkDetector) Detect(g *graph.Graph) []Pattern {
	minSize := d.MinClusterSize
	if minSize <= 0 {
		minSize = 3
	}

	var out []Pattern
	visited := make(map[string]bool)
	for _, start := range g.Nodes() {
		if visited[start] {
			continue
		}
		component := collectComponent(g, start, visited)
		if len(component) < minSize {
			continue
		}
		dormant := 0
		for _, id := range component {
			if g.Node(id).CompanyStatus == "dormant" {
				dormant++
			}
		}
		if dormant*2 > len(component) {
			out = append(out, Pattern{
				Type:      "dormant_network",
				Entities:  component,
				RiskLevel: RiskMedium,
			})
		}
	}
	return out
}

// RapidTransactionDetector flags companies with a burst of filings inside a
// window, which tracks the rapid-transaction shell signature. WindowDays
// defaults to 90, MinFilings to 10.
type RapidTransactionDetector struct {
	WindowDays int
	MinFilings int
}

func (d *RapidTransactionDetector) Name() string { return "rapid_transaction" }

func (d *RapidTransactionDetector) Detect(g *graph.Graph) []Pattern {
	windowDays := d.WindowDays
	if windowDays <= 0 {
		windowDays = 90
	}
	minFilings := d.MinFilings
	if minFilings <= 0 {
		minFilings = 10
	}
	window := time.Duration(windowDays) * 24 * time.Hour

	var out []Pattern
	for _, id := range g.Nodes() {
		node := g.Node(id)
		dates := make([]time.Time, 0, len(node.FilingHistory))
		for i := range node.FilingHistory {
			t, err := time.Parse("2006-01-02", node.FilingHistory[i].Date)
			if err != nil {
				continue
			}
			dates = append(dates, t)
		}
		sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

		for lo := 0; lo+minFilings-1 < len(dates); lo++ {
			hi := lo + minFilings - 1
			if dates[hi].Sub(dates[lo]) <= window {
				out = append(out, Pattern{
					Type:      "rapid_transaction",
					Entities:  []string{id},
					RiskLevel: RiskMedium,
					Date:      dates[lo].Format("2006-01-02"),
				})
				break
			}
		}
	}
	return out
}

// AddressClusterDetector flags registered offices shared by an unusually
// large number of companies. MinCompanies defaults to 10.
type AddressClusterDetector struct {
	MinCompanies int
}

func (d *AddressClusterDetector) Name() string { return "address_cluster" }

func (d *AddressClusterDetector) Detect(g *graph.Graph) []Pattern {
	minCompanies := d.MinCompanies
	if minCompanies <= 0 {
		minCompanies = 10
	}

	byAddress := make(map[string][]string)
	for _, id := range g.Nodes() {
		key := g.Node(id).RegisteredOffice.Key()
		if key == "" {
			continue
		}
		byAddress[key] = append(byAddress[key], id)
	}

	keys := make([]string, 0, len(byAddress))
	for key := range byAddress {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var out []Pattern
	for _, key := range keys {
		companies := byAddress[key]
		if len(companies) < minCompanies {
			continue
		}
		sort.Strings(companies)
		out = append(out, Pattern{
			Type:             "address_cluster",
			Entities:         companies,
			RiskLevel:        RiskMedium,
			SharedAttributes: []string{"address:" + key},
		})
	}
	return out
}

// FormationPatternDetector flags agent-style formation runs: several
// companies of the same type incorporated on consecutive days at one
// address. MinRunLength defaults to 3.
type FormationPatternDetector struct {
	MinRunLength int
}

func (d *FormationPatternDetector) Name() string { return "formation_pattern" }

func (d *FormationPatternDetector) Detect(g *graph.Graph) []Pattern {
	minRun := d.MinRunLength
	if minRun <= 0 {
		minRun = 3
	}

	type formation struct {
		id   string
		date time.Time
	}
	byAddress := make(map[string][]formation)
	for _, id := range g.Nodes() {
		node := g.Node(id)
		key := node.RegisteredOffice.Key()
		if key == "" || node.IncorporationDate == "" {
			continue
		}
		t, err := time.Parse("2006-01-02", node.IncorporationDate)
		if err != nil {
			continue
		}
		byAddress[key] = append(byAddress[key], formation{id: id, date: t})
	}

	keys := make([]string, 0, len(byAddress))
	for key := range byAddress {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var out []Pattern
	for _, key := range keys {
		forms := byAddress[key]
		if len(forms) < minRun {
			continue
		}
		sort.Slice(forms, func(i, j int) bool {
			if forms[i].date.Equal(forms[j].date) {
				return forms[i].id < forms[j].id
			}
			return forms[i].date.Before(forms[j].date)
		})

		runStart := 0
		for i := 1; i <= len(forms); i++ {
			if i < len(forms) && forms[i].date.Sub(forms[i-1].date) <= 24*time.Hour {
				continue
			}
			if i-runStart >= minRun {
				entities := make([]string, 0, i-runStart)
				for _, f := range forms[runStart:i] {
					entities = append(entities, f.id)
				}
				out = append(out, Pattern{
					Type:             "formation_pattern",
					Entities:         entities,
					RiskLevel:        RiskMedium,
					Date:             forms[runStart].date.Format("2006-01-02"),
					SharedAttributes: []string{"address:" + key},
				})
			}
			runStart = i
		}
	}
	return out
}

// DefaultShellDetectors returns the standard heuristic set in a fixed order.
func DefaultShellDetectors() []Detector {
	return []Detector{
		&NomineeDirectorDetector{},
		&DormantNetworkDetector{},
		&RapidTransactionDetector{},
		&AddressClusterDetector{},
		&FormationPatternDetector{},
	}
}

// collectComponent gathers the connected component containing start,
// marking everything it visits.
func collectComponent(g *graph.Graph, start string, visited map[string]bool) []string {
	var component []string
	queue := []string{start}
	visited[start] = true
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		component = append(component, id)
		for _, next := range g.Neighbors(id) {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	sort.Strings(component)
	return component
}
