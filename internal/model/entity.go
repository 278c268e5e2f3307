package model

import (
	"fmt"
	"strconv"
)

// EntityType identifies what kind of object an ignore list belongs to.
type EntityType string

const (
	// EntityPost is a post, page or custom post type.
	EntityPost EntityType = "post"

	// EntityTaxonomy is a taxonomy term (category, tag, ...).
	EntityTaxonomy EntityType = "taxonomy"
)

// ParseEntityType validates a raw entity type.
func ParseEntityType(raw string) (EntityType, error) {
	switch EntityType(raw) {
	case EntityPost, EntityTaxonomy:
		return EntityType(raw), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownEntityType, raw)
	}
}

// EntityKey is the immutable identity of an ignore list.
type EntityKey struct {
	ID   int64
	Type EntityType
}

// String returns "type:id", used as a cache and singleflight key.
func (k EntityKey) String() string {
	return string(k.Type) + ":" + strconv.FormatInt(k.ID, 10)
}
