// Package scenario holds the named parameter bundles that condition the
// 2024-2030 forecasts: policy levers such as the US tariff rate and EV
// subsidy, macro assumptions such as GDP growth, and commodity multipliers.
//
// A Table keeps scenarios in a fixed order. Accessors return deep copies so
// that editing one scenario can never leak into another.
package scenario
