package model

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
)

// CatalogueEntry holds the reference installation data for one canonical
// product key. Entries are replaced wholesale on refresh, never mutated.
type CatalogueEntry struct {
	InstallTimeHours float64 `yaml:"install_time_hours"`
	WasteVolumeM3    float64 `yaml:"waste_volume_m3"`
	IsHeavy          bool    `yaml:"is_heavy"`
}

// Catalogue maps canonical keys to their reference entries.
type Catalogue map[string]CatalogueEntry

// KeyHash returns a content hash of the catalogue's key set, used to detect
// whether the lookup index needs rebuilding.
func (c Catalogue) KeyHash() string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	hash := sha256.Sum256([]byte(strings.Join(keys, "\x00")))
	return fmt.Sprintf("%x", hash)
}

// SortedKeys returns the canonical keys in a stable order. Matching
// tie-breaks depend on this order being deterministic.
func (c Catalogue) SortedKeys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
