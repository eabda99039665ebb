// Package resolver matches raw extracted products against manual overrides,
// learned entries and the catalogue, in strict precedence order.
package resolver

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"

	"quotewright/internal/catalogue"
	"quotewright/internal/common"
	"quotewright/internal/model"
	"quotewright/internal/service"
)

// Overrides is the per-quote set of manual entries, keyed by normalized
// product code. Overrides always win over every other source.
type Overrides map[string]overrideEntry

type overrideEntry struct {
	key   string
	entry model.CatalogueEntry
}

// NewOverrides builds an override set from raw code to entry pairs.
func NewOverrides(raw map[string]model.CatalogueEntry) Overrides {
	o := make(Overrides, len(raw))
	for code, entry := range raw {
		o[catalogue.Normalize(code)] = overrideEntry{key: code, entry: entry}
	}
	return o
}

// Resolver resolves raw products to catalogue entries. It is stateless
// apart from the read-mostly index and safe for concurrent use.
type Resolver struct {
	index   *catalogue.Index
	storage service.Storage
	logger  *slog.Logger
}

// New creates a resolver. Storage supplies learned matches and may be nil,
// in which case the learned source is skipped.
func New(index *catalogue.Index, storage service.Storage, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{index: index, storage: storage, logger: logger}
}

// Resolve matches one raw product. Malformed products and failed matches
// come back unresolved; they are a first-class state, not an error, and the
// resolver never invents an entry for them.
func (r *Resolver) Resolve(ctx context.Context, raw model.RawProduct, overrides Overrides) model.ResolvedProduct {
	if err := raw.Validate(); err != nil {
		r.logger.Warn("rejecting malformed product", "line", raw.LineNumber, "error", err)
		return model.Unresolved(raw)
	}

	matchText := raw.ProductCode
	if strings.TrimSpace(matchText) == "" {
		matchText = raw.CleanDescription
	}
	norm := catalogue.Normalize(matchText)

	if o, ok := overrides[norm]; ok {
		return model.NewResolvedProduct(raw, o.key, o.entry, model.SourceUserInputted)
	}

	if p, ok := r.resolveLearned(ctx, raw, norm); ok {
		return p
	}

	if key, entry, ok := r.matchCatalogue(norm, matchText); ok {
		return model.NewResolvedProduct(raw, key, entry, model.SourceCatalogue)
	}

	r.logger.Debug("product unresolved", "line", raw.LineNumber, "code", raw.ProductCode)
	return model.Unresolved(raw)
}

// ResolveAll resolves a batch in input order.
func (r *Resolver) ResolveAll(ctx context.Context, raws []model.RawProduct, overrides Overrides) []model.ResolvedProduct {
	resolved := make([]model.ResolvedProduct, len(raws))
	for i, raw := range raws {
		resolved[i] = r.Resolve(ctx, raw, overrides)
	}
	return resolved
}

// ApplyDefault is the explicit caller policy for unresolved products: fill
// in the configured default constants and mark the provenance as such.
// Resolved products pass through untouched.
func ApplyDefault(p model.ResolvedProduct, installTimeHours, wastePerUnitM3 float64) model.ResolvedProduct {
	if p.Resolved {
		return p
	}
	defaulted := model.NewResolvedProduct(p.RawProduct, "", model.CatalogueEntry{
		InstallTimeHours: installTimeHours,
		WasteVolumeM3:    wastePerUnitM3,
	}, model.SourceDefault)
	return defaulted
}

func (r *Resolver) resolveLearned(ctx context.Context, raw model.RawProduct, norm string) (model.ResolvedProduct, bool) {
	if r.storage == nil || norm == "" {
		return model.ResolvedProduct{}, false
	}

	match, err := r.storage.GetLearnedMatch(ctx, norm)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			r.logger.Warn("learned match lookup failed", "code", raw.ProductCode, "error", err)
		}
		return model.ResolvedProduct{}, false
	}

	entry, ok := r.index.Entry(match.CanonicalKey)
	if !ok {
		// Learned against a key the catalogue no longer carries.
		r.logger.Warn("learned match points at missing catalogue key",
			"code", raw.ProductCode, "key", match.CanonicalKey)
		return model.ResolvedProduct{}, false
	}

	if err := r.storage.TouchLearnedMatch(ctx, norm); err != nil {
		r.logger.Warn("failed to touch learned match", "code", raw.ProductCode, "error", err)
	}

	return model.NewResolvedProduct(raw, match.CanonicalKey, entry, model.SourceLearned), true
}

// matchCatalogue applies the fuzzy matching stages in order, first hit wins:
// exact, parametric, substring containment, token overlap.
func (r *Resolver) matchCatalogue(norm, matchText string) (string, model.CatalogueEntry, bool) {
	if norm == "" {
		return "", model.CatalogueEntry{}, false
	}

	if key, entry, ok := r.index.Lookup(norm); ok {
		return key, entry, true
	}

	if key, entry, ok := r.matchParametric(matchText); ok {
		return key, entry, true
	}

	if key, entry, ok := r.matchSubstring(norm); ok {
		return key, entry, true
	}

	return r.matchTokenOverlap(matchText)
}

var (
	personTokenRe = regexp.MustCompile(`^\d{1,2}P$`)
	sizeTokenRe   = regexp.MustCompile(`^[LWH]?\d{3,4}$`)
)

// matchParametric handles compound codes that embed a person-count and an
// optional size token, such as "FLX-COWORK-4P-L2400". The specific-size
// variant is tried before the generic one.
func (r *Resolver) matchParametric(matchText string) (string, model.CatalogueEntry, bool) {
	tokens := catalogue.Tokenize(matchText)

	var person, size string
	var families []string
	for _, tok := range tokens {
		switch {
		case person == "" && personTokenRe.MatchString(tok):
			person = tok
		case size == "" && sizeTokenRe.MatchString(tok):
			size = tok
		default:
			families = append(families, tok)
		}
	}

	if person == "" || len(families) == 0 {
		return "", model.CatalogueEntry{}, false
	}

	for _, family := range families {
		if size != "" {
			for _, candidate := range []string{family + person + size, family + size + person} {
				if key, entry, ok := r.index.Lookup(candidate); ok {
					return key, entry, true
				}
			}
		}
		for _, candidate := range []string{family + person, person + family} {
			if key, entry, ok := r.index.Lookup(candidate); ok {
				return key, entry, true
			}
		}
	}

	return "", model.CatalogueEntry{}, false
}

// matchSubstring looks for containment in either direction. Among all
// containment hits the longest matched substring wins; ties go to the first
// key in the index's stable iteration order.
func (r *Resolver) matchSubstring(norm string) (string, model.CatalogueEntry, bool) {
	bestLen := 0
	bestKey := ""

	for _, normKey := range r.index.NormalizedKeys() {
		matched := 0
		if strings.Contains(norm, normKey) {
			matched = len(normKey)
		} else if strings.Contains(normKey, norm) {
			matched = len(norm)
		}
		if matched > bestLen {
			bestLen = matched
			bestKey = normKey
		}
	}

	if bestKey == "" {
		return "", model.CatalogueEntry{}, false
	}

	key, ok := r.index.CanonicalFor(bestKey)
	if !ok {
		return "", model.CatalogueEntry{}, false
	}
	entry, _ := r.index.Entry(key)
	return key, entry, true
}

// matchTokenOverlap is the last-resort stage: split both sides on
// separators and count overlapping tokens. The floor of min(2, input token
// count) stops single-token coincidences like "TABLE" from matching.
func (r *Resolver) matchTokenOverlap(matchText string) (string, model.CatalogueEntry, bool) {
	inputTokens := catalogue.Tokenize(matchText)
	if len(inputTokens) == 0 {
		return "", model.CatalogueEntry{}, false
	}

	inputSet := make(map[string]struct{}, len(inputTokens))
	for _, tok := range inputTokens {
		inputSet[tok] = struct{}{}
	}

	floor := 2
	if len(inputTokens) < floor {
		floor = len(inputTokens)
	}

	bestOverlap := 0
	bestKey := ""

	for _, normKey := range r.index.NormalizedKeys() {
		canonical, ok := r.index.CanonicalFor(normKey)
		if !ok {
			continue
		}

		overlap := 0
		seen := make(map[string]struct{})
		for _, tok := range catalogue.Tokenize(canonical) {
			if _, dup := seen[tok]; dup {
				continue
			}
			seen[tok] = struct{}{}
			if _, ok := inputSet[tok]; ok {
				overlap++
			}
		}

		if overlap >= floor && overlap > bestOverlap {
			bestOverlap = overlap
			bestKey = canonical
		}
	}

	if bestKey == "" {
		return "", model.CatalogueEntry{}, false
	}
	entry, _ := r.index.Entry(bestKey)
	return bestKey, entry, true
}
