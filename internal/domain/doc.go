// Package domain models asteroid impact simulations: catalogued small-body
// records, resolved physical parameters, impact-site context, and the derived
// effects report.
//
// # Data Sources
//
// Catalogued objects come from the JPL Small-Body Database (SBDB) query and
// lookup APIs, filtered to the potentially-hazardous-asteroid (PHA) group.
// Site context is aggregated from OpenTopoData (etopo1 elevation), OpenStreetMap
// Nominatim (reverse geocoding) and the World Bank EN.POP.DNST population
// density indicator. Each external source is optional at runtime: a provider
// failure degrades the context and is surfaced as an advisory note, never as
// a request error.
//
// # Unit Conventions
//
// All physics is evaluated in SI units. Catalogued estimates arrive in the
// units the catalog publishes (diameter in km, bulk density in g/cm³, impact
// velocity in km/s) and are normalized during parameter resolution:
//
//	diameter:  km → m   (×1000)
//	density:   g/cm³ → kg/m³ (×1000)
//	velocity:  km/s, converted to m/s only inside the energy term
//
// The effects report converts back to display units (km, megatons TNT) as its
// final step. One megaton TNT = 4.184e15 J.
//
// # Effects Formulas
//
// Closed-form empirical scaling laws evaluated once per request, adapted from
// the Earth Impact Effects Program (Collins, Melosh & Marcus 2005) and
// Holsapple pi-group crater scaling:
//
//	crater:   D = 1.161 · (ρi/ρt)^(1/3) · L^0.78 · v^0.44 · g^-0.22 · sin^(1/3)θ
//	blast:    R = 1.8 · E_Mt^(1/3) km (1 psi class overpressure)
//	thermal:  R = sqrt(η·E / 2π·Φ), η = 3e-3, Φ = 15 kJ/m² (severe burns)
//	seismic:  M = 0.67·log10(E) − 5.87 (Schultz & Gault energy-magnitude form)
//	tsunami:  H = 0.12·√E_Mt scaled by water-depth and distance decay, ≤ 80 m
//
// Ocean strikes apply a fixed collapse factor to the crater term (transient
// cavities in a water column slump and refill), which is where the energy
// driving the tsunami term goes; an ocean crater is therefore never larger
// than the land crater for the same energy and angle.
//
// # Absent vs Zero
//
// Derived quantities that depend on an unavailable input (water depth,
// population density) are carried as nil pointers, never as sentinel zeros,
// so "not computed" stays distinguishable from "no effect" all the way to the
// response payload.
package domain
