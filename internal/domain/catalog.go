package domain

// CatalogSummary is one row of the hazardous-object summary list. Immutable
// once fetched; the whole list is refreshed wholesale on cache expiry.
// Catalogued estimates are frequently absent for faint objects, hence the
// pointer fields.
type CatalogSummary struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	ImpactProbability *float64 `json:"impact_probability,omitempty"`
	PalermoScale      *float64 `json:"palermo_scale,omitempty"`
	TorinoScale       *float64 `json:"torino_scale,omitempty"`
	DiameterKm        *float64 `json:"diameter_km,omitempty"`
	DensityGcm3       *float64 `json:"density_gcm3,omitempty"`
	AbsoluteMagnitude *float64 `json:"absolute_magnitude_h,omitempty"`
	Hazardous         bool     `json:"hazardous"`
}

// OrbitalElements are the static Keplerian elements of a catalogued object.
type OrbitalElements struct {
	SemiMajorAxisAU  float64 `json:"semi_major_axis_au"`
	Eccentricity     float64 `json:"eccentricity"`
	InclinationDeg   float64 `json:"inclination_deg"`
	AscendingNodeDeg float64 `json:"ascending_node_deg"`
	ArgPeriapsisDeg  float64 `json:"arg_periapsis_deg"`
}

// CatalogDetail extends a summary with SI physical defaults derived from the
// catalogued estimates and, when published, the object's orbital elements.
// One detail record per identifier, fetched lazily and cached indefinitely:
// the orbital and physical baseline of a numbered object is effectively static.
type CatalogDetail struct {
	CatalogSummary

	DiameterM   *float64         `json:"diameter_m,omitempty"`
	DensityKgm3 *float64         `json:"density_kgm3,omitempty"`
	VelocityKms *float64         `json:"velocity_kms,omitempty"`
	AngleDeg    float64          `json:"angle_deg"`
	Orbit       *OrbitalElements `json:"orbit,omitempty"`
}
