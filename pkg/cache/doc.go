// Package cache provides the tiered result cache: a bounded in-process
// tier (L1), an optional distributed tier (L2), and a disk tier for
// precomputed results (L3).
//
// Lookups check L1, then L2, then L3, and promote hits into the faster
// tiers so repeated reads get cheaper. Regular stores write L1 and L2;
// precomputed results are written to L3 explicitly. The Tiered facade
// absorbs tier failures: a broken tier degrades hit rate, never
// correctness.
package cache
