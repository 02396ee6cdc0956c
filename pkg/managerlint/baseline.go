// SPDX-License-Identifier: MPL-2.0

package managerlint

import (
	"cmp"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Baseline holds accepted findings loaded from a baseline TOML file.
// Findings present in the baseline are suppressed, so only new regressions
// are reported.
type Baseline struct {
	ReturnTypeMismatch BaselineCategory `toml:"return-type-mismatch"`
	MissingObjectType  BaselineCategory `toml:"missing-object-type"`

	// lookupByID is an O(1) index keyed by category → finding ID.
	lookupByID map[string]map[string]bool
}

// BaselineCategory holds accepted findings for one category.
type BaselineCategory struct {
	Entries []BaselineFinding `toml:"entries"`
}

// BaselineFinding holds a single accepted finding. ID is the stable
// identity; Message is kept for readers of the file.
type BaselineFinding struct {
	ID      string `toml:"id"`
	Message string `toml:"message"`
}

// LoadBaseline reads and parses a baseline TOML file.
//
// It returns an empty baseline (matches nothing) if path is empty or the
// file does not exist, so a project can reference a baseline before it has
// written one.
func LoadBaseline(path string) (*Baseline, error) {
	if path == "" {
		return emptyBaseline(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return emptyBaseline(), nil
		}
		return nil, fmt.Errorf("reading baseline: %w", err)
	}

	var b Baseline
	if err := toml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parsing baseline TOML: %w", err)
	}

	b.buildLookup()

	return &b, nil
}

// Contains reports whether f is accepted by the baseline. Findings of
// always-visible categories are never contained.
func (b *Baseline) Contains(f Finding) bool {
	if b == nil || b.lookupByID == nil || !IsSuppressible(f.Category) {
		return false
	}
	return b.lookupByID[f.Category][f.ID]
}

// Filter splits findings into the ones to report and the number suppressed.
func (b *Baseline) Filter(findings []Finding) ([]Finding, int) {
	kept := make([]Finding, 0, len(findings))
	for _, f := range findings {
		if !b.Contains(f) {
			kept = append(kept, f)
		}
	}
	return kept, len(findings) - len(kept)
}

// Count returns the total number of baseline entries across all categories.
func (b *Baseline) Count() int {
	if b == nil {
		return 0
	}
	total := 0
	for _, cat := range BaselinedCategoryNames() {
		total += len(b.categoryForName(cat).Entries)
	}
	return total
}

// buildLookup populates the lookup index from the parsed TOML data.
func (b *Baseline) buildLookup() {
	cats := BaselinedCategoryNames()
	b.lookupByID = make(map[string]map[string]bool, len(cats))
	for _, cat := range cats {
		ids := make(map[string]bool)
		for _, e := range b.categoryForName(cat).Entries {
			if e.ID != "" {
				ids[e.ID] = true
			}
		}
		b.lookupByID[cat] = ids
	}
}

func (b *Baseline) categoryForName(name string) BaselineCategory {
	switch name {
	case CategoryReturnTypeMismatch:
		return b.ReturnTypeMismatch
	case CategoryMissingObjectType:
		return b.MissingObjectType
	default:
		return BaselineCategory{}
	}
}

// WriteBaseline writes a baseline TOML file accepting findings. Findings of
// categories that cannot be baselined are dropped and empty categories are
// omitted. It returns the number of entries written.
func WriteBaseline(path string, findings []Finding) (int, error) {
	byCategory := make(map[string][]BaselineFinding)
	for _, f := range findings {
		if !IsSuppressible(f.Category) {
			continue
		}
		byCategory[f.Category] = append(byCategory[f.Category], BaselineFinding{ID: f.ID, Message: f.Summary})
	}

	var sb strings.Builder
	sb.WriteString("# managerlint baseline: accepted manager conformance findings\n")
	fmt.Fprintf(&sb, "# Generated: %s\n", time.Now().UTC().Format("2006-01-02"))
	sb.WriteString("# Regenerate: managerlint baseline write\n")

	total := 0
	for _, cat := range suppressibleCategorySpecs() {
		entries := normalizeBaselineFindings(byCategory[cat.Name])
		if len(entries) == 0 {
			continue
		}
		total += len(entries)

		fmt.Fprintf(&sb, "\n# %s\n", cat.BaselineLabel)
		fmt.Fprintf(&sb, "[%s]\n", cat.Name)
		sb.WriteString("entries = [\n")
		for _, e := range entries {
			fmt.Fprintf(&sb, "    { id = %s, message = %s },\n", quote(e.ID), quote(e.Message))
		}
		sb.WriteString("]\n")
	}

	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return 0, fmt.Errorf("writing baseline: %w", err)
	}
	return total, nil
}

func emptyBaseline() *Baseline {
	b := &Baseline{}
	b.buildLookup()
	return b
}

// normalizeBaselineFindings sorts entries by ID and drops duplicates.
func normalizeBaselineFindings(in []BaselineFinding) []BaselineFinding {
	out := slices.Clone(in)
	slices.SortFunc(out, func(a, b BaselineFinding) int {
		return cmp.Or(cmp.Compare(a.ID, b.ID), cmp.Compare(a.Message, b.Message))
	})
	return slices.CompactFunc(out, func(a, b BaselineFinding) bool { return a.ID == b.ID })
}

// quote produces a TOML basic string.
func quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
