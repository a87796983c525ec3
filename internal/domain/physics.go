package domain

import (
	"math"
	"strings"
)

// Physical constants and calibration values. Formula citations are in the
// package doc.
const (
	earthGravity = 9.80665 // m/s²
	earthRadiusM = 6371000.0

	rockDensity  = 2700.0 // kg/m³, average continental crust
	waterDensity = 1025.0 // kg/m³, mean seawater
	iceDensity   = 917.0

	joulesPerMegaton = 4.184e15

	thermalEfficiency    = 3e-3  // fraction of kinetic energy radiated
	thermalFluxThreshold = 15e3  // J/m², severe-burn threshold
	thermalReferenceKm   = 100.0 // fixed flux reference distance for display

	// Transient ocean cavities slump and refill; the lost crater volume is
	// what drives the tsunami term.
	oceanCraterCollapse = 0.65

	tsunamiReferenceKm = 50.0
	tsunamiMaxHeightM  = 80.0

	// Survival calibration: the half-probability energy sits at
	// Chicxulub-class scale (~5e23 J), far above any catalogued NEO, so
	// realistic objects leave the probability at ≈1.
	survivalHalfEnergyJ = 5e23
	survivalSteepness   = 1.3

	globalPopulation  = 8.1e9
	globalLandAreaKm2 = 1.4894e8
)

// ComputeEffects derives the full effects report from resolved parameters and
// site context. Pure and deterministic: no I/O, no failure on valid inputs.
// Outputs that depend on an absent input stay nil.
func ComputeEffects(p AsteroidParameters, site SiteContext) EffectsReport {
	mass := massKg(p.DiameterM, p.DensityKgm3)
	energy := kineticEnergyJ(mass, p.VelocityKms)

	ocean := site.Terrain == TerrainOcean
	gravity := gravityAtElevation(site.ElevationM)
	targetDensity := surfaceDensity(site)

	report := EffectsReport{
		EnergyJoules:          energy,
		EnergyMegatons:        energy / joulesPerMegaton,
		MassKg:                mass,
		CraterDiameterKm:      craterDiameterKm(p, ocean, gravity, site.SlopeDeg),
		ShockRadiusKm:         shockRadiusKm(energy, targetDensity/rockDensity),
		ThermalRadiusKm:       thermalRadiusKm(energy),
		ThermalFluxAt100KmJm2: thermalFluxJm2(energy, thermalReferenceKm),
		SeismicMagnitude:      seismicMagnitude(energy),
		SurvivalProbability:   survivalProbability(energy),
	}

	if ocean && site.WaterDepthM != nil {
		h := tsunamiHeightM(energy, *site.WaterDepthM)
		report.TsunamiHeightM = &h
	}

	if site.PopulationDensity != nil {
		n := affectedPopulation(*site.PopulationDensity, report.ShockRadiusKm, report.ThermalRadiusKm)
		report.AffectedPopulation = &n
	}

	return report
}

// massKg is the spherical mass approximation from diameter and bulk density.
func massKg(diameterM, densityKgm3 float64) float64 {
	radius := diameterM / 2.0
	volume := (4.0 / 3.0) * math.Pi * radius * radius * radius
	return densityKgm3 * volume
}

// kineticEnergyJ is ½·m·v² with velocity converted from km/s.
func kineticEnergyJ(massKg, velocityKms float64) float64 {
	v := velocityKms * 1000.0
	return 0.5 * massKg * v * v
}

// gravityAtElevation applies the inverse-square altitude correction. The
// radius is floored well inside the geoid so ocean-trench elevations cannot
// blow the term up.
func gravityAtElevation(elevationM float64) float64 {
	radius := earthRadiusM + elevationM
	if radius < earthRadiusM*0.9 {
		radius = earthRadiusM * 0.9
	}
	ratio := earthRadiusM / radius
	return earthGravity * ratio * ratio
}

// surfaceDensity estimates the target material density from terrain,
// landform, and elevation. Used for the shock coupling factor.
func surfaceDensity(site SiteContext) float64 {
	if site.Terrain == TerrainOcean {
		return waterDensity
	}
	switch classifyLandform(site.Landform) {
	case landformIce:
		return iceDensity
	case landformUrban:
		return 2400.0
	case landformDesert:
		return 2000.0
	case landformForest:
		return 2200.0
	}
	if site.ElevationM > 2500 {
		return 2600.0
	}
	if site.ElevationM < -100 {
		return waterDensity
	}
	return rockDensity
}

// craterDiameterKm evaluates the pi-group crater scaling law. sin^(1/3) of
// the entry angle is the coupling-efficiency factor: shallow angles couple
// less energy into the target. Steep local slopes also reduce the effective
// transient crater. Ocean strikes collapse the transient cavity against the
// seafloor, so they apply a fixed reduction; a grazing impact (angle 0)
// yields no crater.
func craterDiameterKm(p AsteroidParameters, ocean bool, gravityMs2, slopeDeg float64) float64 {
	velocityMs := p.VelocityKms * 1000.0

	targetDensity := rockDensity // ocean craters form in the seafloor
	densityTerm := math.Cbrt(p.DensityKgm3 / targetDensity)
	diameterTerm := math.Pow(p.DiameterM, 0.78)
	velocityTerm := math.Pow(velocityMs, 0.44)
	gravityTerm := math.Pow(gravityMs2, -0.22)
	angleTerm := math.Cbrt(math.Sin(p.AngleDeg * math.Pi / 180.0))

	slope := math.Abs(slopeDeg)
	if slope > 75 {
		slope = 75
	}
	slopeFactor := math.Cos(slope * math.Pi / 180.0)
	if slopeFactor < 0.5 {
		slopeFactor = 0.5
	}

	craterM := 1.161 * densityTerm * diameterTerm * velocityTerm * gravityTerm * angleTerm * slopeFactor
	if ocean {
		craterM *= oceanCraterCollapse
	}
	return craterM / 1000.0
}

// shockRadiusKm is the cube-root blast scaling of the ~1 psi overpressure
// radius. Softer targets (density factor < 1) couple a slightly wider shock.
func shockRadiusKm(energyJ, densityFactor float64) float64 {
	if energyJ <= 0 {
		return 0
	}
	if densityFactor < 0.5 {
		densityFactor = 0.5
	}
	return 1.8 * math.Cbrt(energyJ/joulesPerMegaton) * math.Pow(densityFactor, -0.1)
}

// thermalRadiusKm solves η·E / (2π·r²) = Φ for r, the distance at which the
// radiated flux drops to the severe-burn threshold.
func thermalRadiusKm(energyJ float64) float64 {
	if energyJ <= 0 {
		return 0
	}
	radiusM := math.Sqrt((thermalEfficiency * energyJ) / (2.0 * math.Pi * thermalFluxThreshold))
	return radiusM / 1000.0
}

// thermalFluxJm2 is the radiated energy per unit area at the given distance.
func thermalFluxJm2(energyJ, distanceKm float64) float64 {
	if energyJ <= 0 || distanceKm <= 0 {
		return 0
	}
	distanceM := distanceKm * 1000.0
	return (thermalEfficiency * energyJ) / (2.0 * math.Pi * distanceM * distanceM)
}

// tsunamiHeightM estimates the wave height at the reference coastal distance.
// Shallow water caps the displaceable column, deep water saturates at the
// 4 km factor. Sub-megaton splashes bottom out at half a meter.
func tsunamiHeightM(energyJ, waterDepthM float64) float64 {
	if energyJ <= 0 {
		return 0
	}
	energyMt := energyJ / joulesPerMegaton
	if energyMt < 1 {
		return 0.5
	}
	depthFactor := waterDepthM / 4000.0
	if depthFactor > 1 {
		depthFactor = 1
	}
	if depthFactor < 0.35 {
		depthFactor = 0.35
	}
	h := 0.12 * math.Sqrt(energyMt) * depthFactor
	if h > tsunamiMaxHeightM {
		return tsunamiMaxHeightM
	}
	return h
}

// seismicMagnitude is the empirical energy-to-magnitude relation.
func seismicMagnitude(energyJ float64) float64 {
	if energyJ <= 0 {
		return 0
	}
	return 0.67*math.Log10(energyJ) - 5.87
}

// affectedPopulation sweeps the union of the shock and thermal discs — they
// are concentric, so the union is the larger disc — against the local
// density, capped by the planet's land area and total population.
func affectedPopulation(densityPerKm2, shockRadiusKm, thermalRadiusKm float64) int64 {
	radius := math.Max(shockRadiusKm, thermalRadiusKm)
	areaKm2 := math.Pi * radius * radius
	if areaKm2 > globalLandAreaKm2 {
		areaKm2 = globalLandAreaKm2
	}
	if densityPerKm2 < 0 {
		densityPerKm2 = 0
	}
	people := areaKm2 * densityPerKm2
	if people > globalPopulation {
		people = globalPopulation
	}
	return int64(people)
}

// survivalProbability is a bounded heuristic, not an extinction model: a
// logistic-like curve of energy, strictly decreasing, pinned to ≈1 below
// civilization-ending energies and to ½ at the Chicxulub-class calibration
// point.
func survivalProbability(energyJ float64) float64 {
	if energyJ <= 0 {
		return 1
	}
	return 1.0 / (1.0 + math.Pow(energyJ/survivalHalfEnergyJ, survivalSteepness))
}

type landformClass int

const (
	landformOther landformClass = iota
	landformIce
	landformUrban
	landformDesert
	landformForest
)

// classifyLandform buckets a reverse-geocoded landform label into the target
// material classes the density table knows about.
func classifyLandform(landform string) landformClass {
	lf := strings.ToLower(landform)
	switch {
	case lf == "":
		return landformOther
	case containsAny(lf, "ice", "glacier"):
		return landformIce
	case containsAny(lf, "urban", "city", "town", "residential"):
		return landformUrban
	case containsAny(lf, "desert", "sand"):
		return landformDesert
	case containsAny(lf, "forest", "wood"):
		return landformForest
	default:
		return landformOther
	}
}

func containsAny(s string, tokens ...string) bool {
	for _, tok := range tokens {
		if strings.Contains(s, tok) {
			return true
		}
	}
	return false
}
