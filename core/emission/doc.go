// Package emission implements the emission factor registry and the carbon
// calculation engine.
//
// An estimate is a multiplicative composition of a base rate (kg CO2/km for
// the mode and fuel) with distance and traffic, environment and vehicle
// multipliers. Missing context falls back to neutral factors; only negative
// distances and empty modes are rejected.
package emission
