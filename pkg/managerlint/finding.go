// SPDX-License-Identifier: MPL-2.0

package managerlint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/invowk/managerlint/pkg/introspect"
)

const (
	// findingIDVersion is part of the canonical ID preimage. Bump only
	// for intentional, incompatible ID schema changes.
	findingIDVersion = "1"

	// DiagnosticURLPrefix is the prefix used in analysis.Diagnostic.URL to
	// encode stable finding IDs in -json output.
	DiagnosticURLPrefix = "managerlint://finding/"
)

// Finding is the stable, serializable form of a failed outcome. It backs
// diagnostics, JSON reports and baselines alike.
type Finding struct {
	ID         string `json:"id"`
	Category   string `json:"category"`
	Manager    string `json:"manager"`
	Capability string `json:"capability"`
	Position   string `json:"position,omitempty"`
	Expected   string `json:"expected,omitempty"`
	Declared   string `json:"declared,omitempty"`
	// Summary is the first line of Message.
	Summary string `json:"summary"`
	Message string `json:"message"`
}

// StableFindingID returns a deterministic ID for a semantic finding identity.
// The ID is derived from category + semantic parts, not human message text.
func StableFindingID(category string, parts ...string) string {
	preimageParts := make([]string, 0, 2+len(parts))
	preimageParts = append(preimageParts, findingIDVersion, category)
	preimageParts = append(preimageParts, parts...)
	preimage := strings.Join(preimageParts, "\x1f")

	sum := sha256.Sum256([]byte(preimage))
	return "mgl" + findingIDVersion + "_" + hex.EncodeToString(sum[:])
}

// NewFinding describes a failed outcome. The ID depends on the manager and
// capability only, so a baselined finding stays suppressed while its
// declared type changes.
func NewFinding(o introspect.Outcome) Finding {
	category := CategoryOf(o)
	key := o.Record.Key().String()
	f := Finding{
		ID:         StableFindingID(category, key, o.Capability),
		Category:   category,
		Manager:    key,
		Capability: o.Capability,
		Message:    o.Message,
		Summary:    o.Message,
	}
	if o.Record.Position.IsValid() {
		f.Position = o.Record.Position.String()
	}
	if o.Status == introspect.StatusFailed {
		f.Expected = o.ExpectedString()
		f.Declared = o.DeclaredString()
	}
	if i := strings.IndexByte(f.Summary, '\n'); i >= 0 {
		f.Summary = f.Summary[:i]
	}
	return f
}

// Findings converts the failed outcomes of a report.
func Findings(r introspect.Report) []Finding {
	failed := r.Failed()
	out := make([]Finding, 0, len(failed))
	for _, o := range failed {
		out = append(out, NewFinding(o))
	}
	return out
}

// DiagnosticURLForFinding formats a finding ID for analysis.Diagnostic.URL.
func DiagnosticURLForFinding(id string) string {
	if id == "" {
		return ""
	}
	return DiagnosticURLPrefix + id
}

// FindingIDFromDiagnosticURL extracts a finding ID from analysis JSON URL
// values. Returns empty string when the URL is not a managerlint finding URL.
func FindingIDFromDiagnosticURL(raw string) string {
	if !strings.HasPrefix(raw, DiagnosticURLPrefix) {
		return ""
	}
	return strings.TrimPrefix(raw, DiagnosticURLPrefix)
}
