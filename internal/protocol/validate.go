package protocol

import "crypto/subtle"

// ValidateCRC reports whether the embedded checksum matches the one
// recomputed from the raw bytes with crcExtra.
func (p *Packet) ValidateCRC(crcExtra byte) bool {
	sum, err := GenerateCRC(p.raw, crcExtra)
	return err == nil && sum == p.checksum
}

// ValidateSignature recomputes the signature from the raw bytes, the
// embedded link id and timestamp, and key. Unsigned packets never validate.
func (p *Packet) ValidateSignature(key []byte) bool {
	linkID, ok := p.SignatureLinkID()
	if !ok {
		return false
	}
	timestamp, _ := p.SignatureTimestamp()
	sig, err := GenerateSignature(p.raw, linkID, timestamp, key)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(sig, p.signature) == 1
}
