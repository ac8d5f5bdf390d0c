// Package protocol owns the MAVLink packet codec and packet pump.
//
// Ownership boundary:
// - v1/v2 packet encoding and structural decoding
// - checksum and signature generation/validation
// - the resynchronizing packet reader
//
// Framing lives in protocol/frame, the checksum register in protocol/crc,
// message descriptors in protocol/schema. Decoding never validates; callers
// check ValidateCRC/ValidateSignature and call Reader.Drop on failure.
package protocol
