package domain

// EffectsReport is the structured set of derived physical consequences for
// one simulation. Pointer fields are outputs that depend on an optional
// input: nil means "not computed", never "zero effect".
type EffectsReport struct {
	EnergyJoules   float64 `json:"kinetic_energy_j"`
	EnergyMegatons float64 `json:"energy_megatons"`
	MassKg         float64 `json:"asteroid_mass_kg"`

	CraterDiameterKm      float64 `json:"crater_diameter_km"`
	ShockRadiusKm         float64 `json:"shock_radius_km"`
	ThermalRadiusKm       float64 `json:"thermal_radius_km"`
	ThermalFluxAt100KmJm2 float64 `json:"thermal_flux_at_100km_jm2"`

	// TsunamiHeightM is set for ocean strikes with a known water depth.
	TsunamiHeightM *float64 `json:"tsunami_height_m,omitempty"`

	SeismicMagnitude float64 `json:"seismic_magnitude"`

	// AffectedPopulation is set when the site's population density is known.
	AffectedPopulation *int64 `json:"est_affected_people,omitempty"`

	SurvivalProbability float64 `json:"global_survival_prob"`
}
