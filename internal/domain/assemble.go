package domain

import (
	"fmt"
	"time"
)

// SimulationResult is the response payload handed verbatim to the
// presentation layer. Its shape is part of the programmatic contract with
// that layer and must remain stable.
type SimulationResult struct {
	Asteroid    AsteroidParameters `json:"asteroid"`
	Site        SiteContext        `json:"site"`
	Effects     EffectsReport      `json:"effects"`
	Notes       []string           `json:"notes"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// AssembleResult merges parameters, site context, and the effects report into
// the response payload and generates the advisory notes: one per degraded
// provider lookup, one per output omitted for a missing input, plus the
// standing caveats about the model itself. No further computation happens here.
func AssembleResult(params AsteroidParameters, site SiteContext, report EffectsReport, degraded []Degradation) SimulationResult {
	notes := make([]string, 0, len(degraded)+4)

	for _, d := range degraded {
		notes = append(notes, fmt.Sprintf("%s lookup degraded (%s); fallback values were used", d.Provider, d.Reason))
	}

	if site.Terrain == TerrainOcean && report.TsunamiHeightM == nil {
		notes = append(notes, "water depth unknown for this ocean site; tsunami height omitted rather than estimated")
	}
	if report.AffectedPopulation == nil {
		notes = append(notes, "population density unknown; affected-population exposure could not be estimated")
	}

	notes = append(notes,
		"effects derived from Earth Impact Effects Program scaling laws (Collins, Melosh & Marcus 2005)",
		"global survival probability is a bounded heuristic of impact energy, not a scientific extinction model",
	)

	return SimulationResult{
		Asteroid:    params,
		Site:        site,
		Effects:     report,
		Notes:       notes,
		GeneratedAt: clock.Now().UTC(),
	}
}
