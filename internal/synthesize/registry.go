// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesize

import (
	"regexp"

	"github.com/pdiddy/crosscheck/pkg/types"
)

// Category is one semantic bucket used to detect agreement between
// providers. Patterns match English and Korean keywords, case-insensitively.
type Category struct {
	Name    string
	Label   string
	Pattern *regexp.Regexp
}

// Registry holds the compiled patterns a Synthesizer matches against.
// It is immutable after construction and safe to share.
type Registry struct {
	categories []Category
	positive   *regexp.Regexp
	negative   *regexp.Regexp
	negator    *regexp.Regexp
	numeric    *regexp.Regexp
	providers  []types.Provider
}

// defaultCategories is the ordered category list. Order determines the order
// of category consensus lines.
var defaultCategories = []Category{
	{
		Name:    "recommendation",
		Label:   "recommendation",
		Pattern: regexp.MustCompile(`(?i)recommend|suggest|advis|추천|권장|제안`),
	},
	{
		Name:    "improvement",
		Label:   "improvement",
		Pattern: regexp.MustCompile(`(?i)improv|enhanc|optimi|refactor|개선|향상|최적화`),
	},
	{
		Name:    "issue",
		Label:   "issue",
		Pattern: regexp.MustCompile(`(?i)issue|problem|bug|defect|문제|이슈|버그|결함`),
	},
	{
		Name:    "performance",
		Label:   "performance",
		Pattern: regexp.MustCompile(`(?i)performance|latency|throughput|speed|성능|속도|지연`),
	},
	{
		Name:    "architecture",
		Label:   "architecture",
		Pattern: regexp.MustCompile(`(?i)architect|design|structur|아키텍처|설계|구조`),
	},
	{
		Name:    "testing",
		Label:   "testing",
		Pattern: regexp.MustCompile(`(?i)test|coverage|verif|테스트|검증`),
	},
}

var (
	positivePattern = regexp.MustCompile(`(?i)recommend|good|great|excellent|solid|approve|좋|추천|훌륭|적합|찬성`)
	negativePattern = regexp.MustCompile(`(?i)bad|poor|avoid|wrong|incorrect|disagree|risky|harmful|나쁘|위험|반대`)

	// negatorSuffix matches a negation that ends right before a keyword
	// match, e.g. "do not " in "do not recommend" or "비" in "비추천". Up to
	// two plain words may sit between an English negator and the keyword
	// ("not a good idea", "not strongly recommend"); punctuation ends the
	// negation's reach.
	negatorSuffix = regexp.MustCompile(`(?i)(?:\b(?:not|never|don't|doesn't|won't|cannot|can't)\s+(?:[\p{L}\p{N}']+\s+){0,2}|비|부|안\s+)$`)

	// numericPattern matches a standalone number followed by a percent,
	// multiplier, point, or count unit. "x" must end the token so hex
	// literals such as 0x1F do not match.
	numericPattern = regexp.MustCompile(`\b\d+(?:%|x\b|배|점|개)`)
)

// DefaultRegistry returns the registry used by crosscheck unless a caller
// injects its own.
func DefaultRegistry() *Registry {
	return NewRegistry(defaultCategories, types.KnownProviders)
}

// NewRegistry builds a registry from categories in match order and the
// providers that should appear in every conflict's view map.
func NewRegistry(categories []Category, providers []types.Provider) *Registry {
	cats := make([]Category, len(categories))
	copy(cats, categories)
	provs := make([]types.Provider, len(providers))
	copy(provs, providers)
	return &Registry{
		categories: cats,
		positive:   positivePattern,
		negative:   negativePattern,
		negator:    negatorSuffix,
		numeric:    numericPattern,
		providers:  provs,
	}
}

// Categories returns a copy of the registry's categories in match order.
func (r *Registry) Categories() []Category {
	out := make([]Category, len(r.categories))
	copy(out, r.categories)
	return out
}

// Providers returns a copy of the registry's known providers.
func (r *Registry) Providers() []types.Provider {
	out := make([]types.Provider, len(r.providers))
	copy(out, r.providers)
	return out
}
