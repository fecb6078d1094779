// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// TagCategory is the fixed set of tag groupings used by the board.
type TagCategory string

const (
	CategoryGeneral   TagCategory = "general"
	CategorySpecies   TagCategory = "species"
	CategoryCharacter TagCategory = "character"
	CategoryArtist    TagCategory = "artist"
	CategoryInvalid   TagCategory = "invalid"
	CategoryLore      TagCategory = "lore"
	CategoryMeta      TagCategory = "meta"
)

var allTagCategories = []TagCategory{
	CategoryGeneral,
	CategorySpecies,
	CategoryCharacter,
	CategoryArtist,
	CategoryInvalid,
	CategoryLore,
	CategoryMeta,
}

// AllTagCategories returns every known category in display order.
func AllTagCategories() []TagCategory {
	out := make([]TagCategory, len(allTagCategories))
	copy(out, allTagCategories)
	return out
}

// Valid reports whether c is one of the known categories.
func (c TagCategory) Valid() bool {
	for _, known := range allTagCategories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseTagCategory parses a category name case-insensitively.
func ParseTagCategory(s string) (TagCategory, error) {
	c := TagCategory(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
	return c, nil
}

// exportCategoryCodes maps the integer codes used by the board's tag
// export to categories. Codes without an entry (copyright, contributor)
// are not tracked.
var exportCategoryCodes = map[int]TagCategory{
	0: CategoryGeneral,
	1: CategoryArtist,
	4: CategoryCharacter,
	5: CategorySpecies,
	6: CategoryInvalid,
	7: CategoryMeta,
	8: CategoryLore,
}

// CategoryFromExportCode maps an export category code. ok is false for
// codes that are not tracked.
func CategoryFromExportCode(code int) (TagCategory, bool) {
	c, ok := exportCategoryCodes[code]
	return c, ok
}

// TagKey is the natural identity of a tag.
type TagKey struct {
	Name     string      `json:"name"`
	Category TagCategory `json:"category"`
}

func (k TagKey) String() string {
	return string(k.Category) + ":" + k.Name
}

// Tag is a persisted (name, category) pair with its surrogate id.
type Tag struct {
	ID        int64       `json:"id"`
	Name      string      `json:"name"`
	Category  TagCategory `json:"category"`
	CreatedAt time.Time   `json:"created_at"`
}

// Key returns the tag's natural identity.
func (t Tag) Key() TagKey {
	return TagKey{Name: t.Name, Category: t.Category}
}

// TagSet is a set of tag keys. A nil TagSet on a record means the source
// carried no tag information; an empty non-nil set means "no tags".
type TagSet map[TagKey]struct{}

// NewTagSet builds a non-nil set from keys.
func NewTagSet(keys ...TagKey) TagSet {
	s := make(TagSet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Add inserts k.
func (s TagSet) Add(k TagKey) {
	s[k] = struct{}{}
}

// Has reports whether k is in the set.
func (s TagSet) Has(k TagKey) bool {
	_, ok := s[k]
	return ok
}

// Keys returns the members sorted by category, then name.
func (s TagSet) Keys() []TagKey {
	keys := make([]TagKey, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sortTagKeys(keys)
	return keys
}

// Diff compares s (incoming) against stored and returns the keys to add
// and to remove. Keys present in both are in neither list.
func (s TagSet) Diff(stored TagSet) (add, remove []TagKey) {
	for k := range s {
		if !stored.Has(k) {
			add = append(add, k)
		}
	}
	for k := range stored {
		if !s.Has(k) {
			remove = append(remove, k)
		}
	}
	sortTagKeys(add)
	sortTagKeys(remove)
	return add, remove
}

func sortTagKeys(keys []TagKey) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Category != keys[j].Category {
			return keys[i].Category < keys[j].Category
		}
		return keys[i].Name < keys[j].Name
	})
}
