// Package catalogue builds and caches the normalized lookup index over the
// product reference catalogue.
package catalogue

import (
	"strings"
	"sync"
	"sync/atomic"

	"quotewright/internal/model"
)

// Normalize reduces a product code to its matching form: uppercase with all
// punctuation and whitespace stripped.
func Normalize(code string) string {
	var b strings.Builder
	b.Grow(len(code))
	for _, r := range strings.ToUpper(code) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Tokenize splits a code or description on separator characters for
// overlap matching. Tokens are normalized individually.
func Tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToUpper(s), func(r rune) bool {
		switch r {
		case ' ', '\t', '-', '_', '/', '.', ',', '(', ')':
			return true
		}
		return false
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if t := Normalize(f); t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// snapshot is one immutable build of the lookup structure. Readers always
// see a complete snapshot; rebuilds swap the whole thing.
type snapshot struct {
	entries    model.Catalogue
	normalized map[string]string
	keyHash    string
	normKeys   []string
}

// Index maps normalized product codes to canonical catalogue keys. The
// index is rebuilt only when the key set's content hash changes, never on
// lookup.
type Index struct {
	current   atomic.Pointer[snapshot]
	refreshMu sync.Mutex
}

// NewIndex builds an index over the given catalogue.
func NewIndex(cat model.Catalogue) *Index {
	idx := &Index{}
	idx.current.Store(build(cat))
	return idx
}

func build(cat model.Catalogue) *snapshot {
	snap := &snapshot{
		entries:    cat,
		normalized: make(map[string]string, len(cat)),
		keyHash:    cat.KeyHash(),
	}
	for _, key := range cat.SortedKeys() {
		norm := Normalize(key)
		if _, exists := snap.normalized[norm]; !exists {
			snap.normalized[norm] = key
			snap.normKeys = append(snap.normKeys, norm)
		}
	}
	return snap
}

// Refresh replaces the catalogue, rebuilding the lookup structure only if
// the key set actually changed. Returns true when a rebuild happened.
func (i *Index) Refresh(cat model.Catalogue) bool {
	i.refreshMu.Lock()
	defer i.refreshMu.Unlock()

	if i.current.Load().keyHash == cat.KeyHash() {
		return false
	}
	i.current.Store(build(cat))
	return true
}

// Lookup finds the canonical key and entry for an already-normalized code.
func (i *Index) Lookup(normalizedCode string) (string, model.CatalogueEntry, bool) {
	snap := i.current.Load()
	key, ok := snap.normalized[normalizedCode]
	if !ok {
		return "", model.CatalogueEntry{}, false
	}
	return key, snap.entries[key], true
}

// Entry returns the catalogue entry for a canonical key.
func (i *Index) Entry(canonicalKey string) (model.CatalogueEntry, bool) {
	entry, ok := i.current.Load().entries[canonicalKey]
	return entry, ok
}

// NormalizedKeys returns every normalized key in stable (sorted canonical)
// order. Fuzzy matching tie-breaks depend on this order.
func (i *Index) NormalizedKeys() []string {
	return i.current.Load().normKeys
}

// CanonicalFor maps a normalized key back to its canonical form.
func (i *Index) CanonicalFor(normalizedKey string) (string, bool) {
	key, ok := i.current.Load().normalized[normalizedKey]
	return key, ok
}

// Len reports the number of indexed keys.
func (i *Index) Len() int {
	return len(i.current.Load().normKeys)
}
