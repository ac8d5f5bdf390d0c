// Package frame finds MAVLink frame boundaries in an unreliable byte stream.
//
// Framing is separated from validation: the synchronizer trusts the marker
// and declared length only, so a corrupted stream is recovered by stepping
// one byte at a time. An all-garbage stream costs one drop cycle per byte.
package frame
