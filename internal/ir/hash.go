package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainCapture = "assume/capture/v1"
)

// hashWithDomain computes SHA-256 with domain separation:
// SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// CaptureID computes the content-addressed ID of a captured stack trace.
// The same thread, error, frames and seq always produce the same ID, so a
// capture recorded twice is stored once.
func CaptureID(threadID, errMsg string, frames []FrameRecord, seq int64) (string, error) {
	frameList := make(IRArray, len(frames))
	for i, f := range frames {
		frameList[i] = f.ToIR()
	}

	obj := IRObject{
		"thread_id": IRString(threadID),
		"error":     IRString(errMsg),
		"frames":    frameList,
		"seq":       IRInt(seq),
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("CaptureID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainCapture, canonical), nil
}

// MustCaptureID is like CaptureID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustCaptureID(threadID, errMsg string, frames []FrameRecord, seq int64) string {
	id, err := CaptureID(threadID, errMsg, frames, seq)
	if err != nil {
		panic(err)
	}
	return id
}
