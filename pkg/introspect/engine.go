// SPDX-License-Identifier: MPL-2.0

package introspect

import (
	"context"
	"runtime"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

type (
	// Engine runs the discover → classify → verify pipeline over a namespace.
	Engine struct {
		Discoverer   *Discoverer
		Classifier   *Classifier
		Verifier     *Verifier
		Capabilities []Capability
		// Jobs bounds the number of concurrent checks. Zero means GOMAXPROCS.
		Jobs   int
		Logger *log.Logger
	}

	// Report holds the sorted records of one pass and one outcome per
	// (record, capability) pair, ordered by record key then capability order.
	Report struct {
		Records  []Record
		Outcomes []Outcome
	}

	// Counts tallies outcomes by status.
	Counts struct {
		Skipped int
		Passed  int
		Failed  int
		Errored int
	}
)

// NewEngine returns an engine with default discovery, classification and
// the built-in capabilities. The verifier has no optional wrapper, which is
// fine as long as no capability allows absent results.
func NewEngine() *Engine {
	return &Engine{
		Discoverer:   NewDiscoverer(nil),
		Classifier:   NewClassifier(),
		Verifier:     &Verifier{},
		Capabilities: DefaultCapabilities(),
	}
}

// Run discovers the managers of ns and checks each of them against every
// capability. Each pair is checked on its own, so one failing record never
// hides another. The only error returned is the context error when ctx is
// canceled before all checks ran.
func (e *Engine) Run(ctx context.Context, ns Namespace) (Report, error) {
	records := e.Discoverer.Discover(ns).Sorted()
	return e.Check(ctx, records)
}

// Check verifies the given records. It is Run without discovery.
func (e *Engine) Check(ctx context.Context, records []Record) (Report, error) {
	caps := e.Capabilities
	report := Report{
		Records:  records,
		Outcomes: make([]Outcome, len(records)*len(caps)),
	}
	if len(report.Outcomes) == 0 {
		return report, ctx.Err()
	}

	jobs := e.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, rec := range records {
		for j, capb := range caps {
			if gctx.Err() != nil {
				break
			}
			idx := i*len(caps) + j
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				report.Outcomes[idx] = e.checkOne(rec, capb)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return report, err
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}

	c := report.Counts()
	e.logger().Debug("check complete",
		"records", len(records), "passed", c.Passed, "failed", c.Failed, "errors", c.Errored, "skipped", c.Skipped)
	return report, nil
}

func (e *Engine) checkOne(rec Record, capb Capability) Outcome {
	exp, err := e.Classifier.Classify(rec, capb)
	if err != nil {
		return Outcome{
			Record:     rec,
			Capability: capb.Name,
			Status:     StatusError,
			Message:    err.Error(),
			Err:        err,
		}
	}
	out := e.Verifier.Verify(rec, exp, capb)
	if out.Status != StatusSkipped {
		e.logger().Debug("verified", "key", rec.Key().String(), "capability", capb.Name, "status", out.Status.String())
	}
	return out
}

func (e *Engine) logger() *log.Logger {
	return orDiscard(e.Logger)
}

// Failed returns the failed and errored outcomes in report order.
func (r Report) Failed() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Failed() {
			out = append(out, o)
		}
	}
	return out
}

// Applicable returns the names of the capabilities that apply to the record
// with key k, in capability order.
func (r Report) Applicable(k Key) []string {
	var names []string
	for _, o := range r.Outcomes {
		if o.Record.Key() == k && o.Status != StatusSkipped {
			names = append(names, o.Capability)
		}
	}
	return names
}

// Counts tallies the outcomes by status.
func (r Report) Counts() Counts {
	var c Counts
	for _, o := range r.Outcomes {
		switch o.Status {
		case StatusSkipped:
			c.Skipped++
		case StatusPassed:
			c.Passed++
		case StatusFailed:
			c.Failed++
		case StatusError:
			c.Errored++
		}
	}
	return c
}
