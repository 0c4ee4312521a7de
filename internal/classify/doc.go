// Package classify labels URL candidates as internal, external, or
// whitelisted using an ordered rule table built from the run
// configuration. Classification is a pure function of the candidate
// and the table: given identical inputs it always produces identical
// results, which the verification pass depends on.
package classify
