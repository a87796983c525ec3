package domain

import "fmt"

// Nominal defaults applied when neither the catalog nor the caller supplies a
// value. Density and velocity follow the standard rocky-body assumptions used
// by the catalog's own impact-energy estimates.
const (
	DefaultDiameterM   = 100.0
	DefaultDensityKgm3 = 3000.0
	DefaultVelocityKms = 20.0
	DefaultAngleDeg    = 45.0
)

// AsteroidParameters is the normalized physical-parameter set the effects
// calculator runs on. All fields are SI-adjacent display units; see the
// package doc for the unit conventions.
type AsteroidParameters struct {
	DiameterM   float64 `json:"diameter_m"`
	DensityKgm3 float64 `json:"density_kgm3"`
	VelocityKms float64 `json:"velocity_kms"`
	AngleDeg    float64 `json:"angle_deg"`
}

// Overrides carries caller-supplied parameter values. A nil field means
// "keep the seeded value".
type Overrides struct {
	DiameterM   *float64 `json:"diameter_m,omitempty"`
	DensityKgm3 *float64 `json:"density_kgm3,omitempty"`
	VelocityKms *float64 `json:"velocity_kms,omitempty"`
	AngleDeg    *float64 `json:"angle_deg,omitempty"`
}

// ResolveParameters merges catalogued defaults and caller overrides into a
// validated parameter set. detail may be nil for fully user-specified runs.
// Seeding order: nominal defaults, then catalogued estimates (already unit
// normalized on the detail record), then overrides.
func ResolveParameters(detail *CatalogDetail, ov Overrides) (AsteroidParameters, error) {
	p := AsteroidParameters{
		DiameterM:   DefaultDiameterM,
		DensityKgm3: DefaultDensityKgm3,
		VelocityKms: DefaultVelocityKms,
		AngleDeg:    DefaultAngleDeg,
	}

	if detail != nil {
		if detail.DiameterM != nil && *detail.DiameterM > 0 {
			p.DiameterM = *detail.DiameterM
		} else if detail.DiameterKm != nil && *detail.DiameterKm > 0 {
			p.DiameterM = *detail.DiameterKm * 1000.0
		}
		if detail.DensityKgm3 != nil && *detail.DensityKgm3 > 0 {
			p.DensityKgm3 = *detail.DensityKgm3
		} else if detail.DensityGcm3 != nil && *detail.DensityGcm3 > 0 {
			p.DensityKgm3 = *detail.DensityGcm3 * 1000.0
		}
		if detail.VelocityKms != nil && *detail.VelocityKms > 0 {
			p.VelocityKms = *detail.VelocityKms
		}
		if detail.AngleDeg > 0 {
			p.AngleDeg = detail.AngleDeg
		}
	}

	if ov.DiameterM != nil {
		p.DiameterM = *ov.DiameterM
	}
	if ov.DensityKgm3 != nil {
		p.DensityKgm3 = *ov.DensityKgm3
	}
	if ov.VelocityKms != nil {
		p.VelocityKms = *ov.VelocityKms
	}
	if ov.AngleDeg != nil {
		p.AngleDeg = *ov.AngleDeg
	}

	if err := p.Validate(); err != nil {
		return AsteroidParameters{}, err
	}
	return p, nil
}

// Validate enforces the calculator's input invariant: diameter, density, and
// velocity strictly positive, entry angle within [0, 90] degrees.
func (p AsteroidParameters) Validate() error {
	if p.DiameterM <= 0 {
		return fmt.Errorf("%w: diameter %.6g m must be positive", ErrInvalidParameters, p.DiameterM)
	}
	if p.DensityKgm3 <= 0 {
		return fmt.Errorf("%w: density %.6g kg/m³ must be positive", ErrInvalidParameters, p.DensityKgm3)
	}
	if p.VelocityKms <= 0 {
		return fmt.Errorf("%w: velocity %.6g km/s must be positive", ErrInvalidParameters, p.VelocityKms)
	}
	if p.AngleDeg < 0 || p.AngleDeg > 90 {
		return fmt.Errorf("%w: entry angle %.6g° must be within [0, 90]", ErrInvalidParameters, p.AngleDeg)
	}
	return nil
}
