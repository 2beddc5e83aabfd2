// Package units provides dimensioned scalar types for weather observations.
//
// Each physical family is its own Go type, so a speed can never be added to a
// pressure or passed where a distance is expected. Proportional families
// (speed, pressure, distance, precipitation amount, fraction, specific energy)
// share the generic [Quantity] type, parameterized by a unit enum whose values
// carry a fixed coefficient relative to the family's reference unit:
//
//	value_in_target = value * source.Coefficient() / target.Coefficient()
//
// Temperature is affine and converts through Kelvin. [Direction] is not a
// quantity at all: it stores compass degrees quantized to 10 degree steps.
//
// All quantities serialize to JSON as {"value": v, "unit": "symbol"}; unit
// symbols accept the common aliases found in upstream feeds (kt, mbar, F, ...).
package units
