package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

const (
	HeaderSnapshotDigest    = "X-Snapshot-Digest"
	HeaderSnapshotSignature = "X-Snapshot-Signature"
)

func ComputeBodyHash(body []byte) string {
	sum := sha256.Sum256(body)
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// SignSnapshot returns the HMAC of an exported snapshot's digest.
func SignSnapshot(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ComputeBodyHash(body)))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func ValidSnapshotSignature(secret string, body []byte, signature string) bool {
	expected := SignSnapshot(secret, body)
	return hmac.Equal([]byte(signature), []byte(expected))
}
