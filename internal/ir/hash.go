package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Hash domain separators. A change in the canonical form of a hashed
// structure bumps its version suffix.
const (
	HashDomainTable   = "trycatch/table/v1"
	HashDomainPayload = "trycatch/payload/v1"
)

// hashWithDomain returns hex(SHA-256(domain || 0x00 || data)).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// TableHash computes the content address of a table.
//
// Labels are part of the hash: they appear in journal records, so relabeling
// an arm is a table change.
func TableHash(spec TableSpec) (string, error) {
	data, err := MarshalCanonical(spec.Canonical())
	if err != nil {
		return "", fmt.Errorf("table %q: %w", spec.Name, err)
	}
	return hashWithDomain(HashDomainTable, data), nil
}

// PayloadHash identifies a journaled payload by its type name and value.
func PayloadHash(typeName string, value IRValue) (string, error) {
	data, err := MarshalCanonical(IRObject{
		"type":  IRString(typeName),
		"value": orNull(value),
	})
	if err != nil {
		return "", fmt.Errorf("payload %s: %w", typeName, err)
	}
	return hashWithDomain(HashDomainPayload, data), nil
}

// MustTableHash is TableHash for validated specs. Panics on error.
func MustTableHash(spec TableSpec) string {
	h, err := TableHash(spec)
	if err != nil {
		panic(err)
	}
	return h
}

func orNull(v IRValue) IRValue {
	if v == nil {
		return IRNull{}
	}
	return v
}
