// Package registry mirrors the externally managed form-field table into an
// immutable, atomically swapped snapshot used to validate listing payloads.
package registry

import (
	"context"
	"fmt"
	"strings"
)

// FieldDefinition is the cached projection of one admin-defined form field.
type FieldDefinition struct {
	ID          uint   `json:"id"`
	Shortname   string `json:"shortname"`
	Label       string `json:"label"`
	Association string `json:"association"`
	FieldType   string `json:"field_type"`
	Validators  string `json:"validators"`
}

// Field types with special payload handling.
const (
	FieldTypeURL = "url"
)

// FieldStore is the external source of truth for field definitions.
type FieldStore interface {
	ListFields(ctx context.Context, associations []string) ([]FieldDefinition, error)
}

// SnapshotSlot is the durable key-value slot the snapshot is persisted to.
// LoadFields reports found=false when nothing was ever saved.
type SnapshotSlot interface {
	LoadFields(ctx context.Context) (fields []FieldDefinition, found bool, err error)
	SaveFields(ctx context.Context, fields []FieldDefinition) error
}

// MetaKey is the storage-engine meta key holding the value of field id.
func MetaKey(id uint) string {
	return fmt.Sprintf("_wpbdp[fields][%d]", id)
}

// sanitizeKey lowercases s and drops everything outside [a-z0-9_-].
func sanitizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
