// Package model defines core types used throughout factorec.
//
// # Identity Types
//
//   - ItemID: stable 64-bit identity of a catalog item
//
// # Data Types
//
//   - Candidate: scored item produced by a scoring pass
package model
