// Package normalisers holds implementations of driven.PlanNormaliser.
// Each normaliser turns loosely typed plan records into canonical plans.
package normalisers
