// Package detect enumerates attached instruments and turns raw USB
// identities into device descriptors.
//
// # Pipeline
//
//	enumerate (gousb) → match identity table → deduplicate → probe unknowns
//
// Enumeration yields one raw record per logical port. A physical device
// exposing N ports (a Tigard has two FTDI channels, a Bus Pirate a binary
// and a terminal port) collapses to exactly one descriptor listing all N
// ports, keyed by (vendor id, product id, serial number), never by port
// path, since paths are unstable across replug.
//
// Identities with no table match are tagged unknown. Boards that share the
// generic RP2040 identity are tagged rp2040-unknown and may be
// disambiguated by sending a benign probe to their first port and matching
// the reply against known signatures.
//
// An empty detection result is valid, not an error.
package detect
