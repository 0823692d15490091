// Package identity maps a visitor's registration attributes to a stable
// opaque key and keeps the registered record behind it. Registration is
// idempotent: the same five attributes always derive the same key and never
// create a second record.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"playpass/pkg/domainerrors"
)

// Attributes are the registration inputs. All five are required; the
// guardian pair identifies the adult, the child pair the visitor the session
// belongs to.
type Attributes struct {
	GuardianName  string `json:"guardianName"`
	GuardianID    string `json:"guardianId"`
	ContactNumber string `json:"contactNumber"`
	ChildName     string `json:"childName"`
	ChildID       string `json:"childId"`
}

// Validate rejects blank attributes before any key is derived.
func (a Attributes) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"guardianName", a.GuardianName},
		{"guardianId", a.GuardianID},
		{"contactNumber", a.ContactNumber},
		{"childName", a.ChildName},
		{"childId", a.ChildID},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return domainerrors.New(domainerrors.CodeValidation, f.name+" is required")
		}
	}
	return nil
}

// DeriveKey computes the stable opaque key for the attribute tuple. Fields
// are trimmed and joined with a record separator so "a"+"bc" and "ab"+"c"
// cannot collide, then hashed. 16 hex chars keep the QR payload dense.
func DeriveKey(a Attributes) string {
	parts := []string{
		strings.TrimSpace(a.GuardianName),
		strings.TrimSpace(a.GuardianID),
		strings.TrimSpace(a.ContactNumber),
		strings.TrimSpace(a.ChildName),
		strings.TrimSpace(a.ChildID),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1e")))
	return hex.EncodeToString(sum[:])[:16]
}

// Record is the persisted identity. DisplayName is the child's name, the
// value kiosks and dashboards render next to a session.
type Record struct {
	Key           string    `json:"key"`
	DisplayName   string    `json:"displayName"`
	GuardianName  string    `json:"guardianName"`
	ContactNumber string    `json:"contactNumber"`
	RegisteredAt  time.Time `json:"registeredAt"`
}
