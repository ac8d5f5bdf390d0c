// Package session owns the two ends of a MAVLink link.
//
// Ownership boundary:
// - Sender: sequence numbering, signing timestamps, packet writes
// - Receiver: descriptor, checksum and signature checks over the pump
// - per-stream replay protection for signed traffic
//
// Frame sync and packet layout live in the protocol packages; key
// handling lives in auth.
package session
