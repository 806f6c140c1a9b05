// Command validate runs a saved USGS GeoJSON feed through the normalizer
// offline and reports which earthquakes would be kept or dropped, and why.
// It exits non-zero when the file cannot be read, nothing is usable, or a kept
// row would violate the earthquakes table constraints.
//
// Usage:
//
//	go run ./cmd/validate -feed data/mock/usgs_all_hour.geojson
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/quake-alert-etl/internal/adapter/usgs"
	"github.com/couchcryptid/quake-alert-etl/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	feedPath := flag.String("feed", "", "path to a saved GeoJSON feed file")
	flag.Parse()

	if *feedPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*feedPath, os.Stdout); code != 0 {
		os.Exit(code)
	}
}

func run(feedPath string, out io.Writer) int {
	fmt.Fprintln(out, "=== Earthquake Feed Validation ===")
	fmt.Fprintln(out)

	f, err := os.Open(feedPath)
	if err != nil {
		fmt.Fprintf(out, "FATAL: open feed: %v\n", err)
		return 1
	}
	defer f.Close()

	// Decoding skips events without a time; the recorder keeps the log line.
	decodeLog := &causeRecorder{}
	raws, err := usgs.DecodeFeed(f, slog.New(decodeLog))
	if err != nil {
		fmt.Fprintf(out, "FATAL: %v\n", err)
		return 1
	}

	reports := normalizeAll(raws)
	phases := []*phase{
		validateNormalization(reports),
		validateRowIntegrity(reports),
	}

	fmt.Fprintf(out, "Features: %d decoded, %d skipped without time\n", len(raws), len(decodeLog.causes))
	fmt.Fprintln(out)
	for _, r := range reports {
		status := "kept"
		if !r.event.IsUsable() {
			status = "dropped"
		}
		fmt.Fprintf(out, "  %-14s %-8s", r.label, status)
		if len(r.causes) > 0 {
			fmt.Fprintf(out, " %s", strings.Join(r.causes, "; "))
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintln(out)
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

// eventReport is one feature's normalized form and the causes logged while
// producing it.
type eventReport struct {
	label  string
	event  domain.NormalizedEvent
	causes []string
}

func normalizeAll(raws []domain.RawEvent) []eventReport {
	reports := make([]eventReport, 0, len(raws))
	for i, raw := range raws {
		rec := &causeRecorder{}
		event := domain.Normalize(slog.New(rec), raw)

		label := event.ID()
		if label == "" {
			label = "feature " + strconv.Itoa(i)
		}
		reports = append(reports, eventReport{label: label, event: event, causes: rec.causes})
	}
	return reports
}

// ── Phase 1: Normalization ──
// At least one event must survive normalization.

func validateNormalization(reports []eventReport) *phase {
	p := &phase{name: "Phase 1: Normalization"}
	usable := 0
	for _, r := range reports {
		if r.event.IsUsable() {
			usable++
		}
	}
	if usable == 0 {
		p.errorf("no usable earthquakes in %d decoded features", len(reports))
	}
	return p
}

// ── Phase 2: Row integrity ──
// Kept events must satisfy the earthquakes table: a unique id, a parseable
// time and coordinates on the globe.

func validateRowIntegrity(reports []eventReport) *phase {
	p := &phase{name: "Phase 2: Row integrity (earthquakes table)"}
	seen := make(map[string]bool)
	for _, r := range reports {
		ev := r.event
		if !ev.IsUsable() {
			continue
		}

		if ev.EarthquakeID == nil {
			p.errorf("%s: missing earthquake_id", r.label)
		} else if seen[*ev.EarthquakeID] {
			p.errorf("%s: duplicate earthquake_id", r.label)
		} else {
			seen[*ev.EarthquakeID] = true
		}

		if ev.Time != nil {
			if _, err := time.Parse(domain.TimeLayout, *ev.Time); err != nil {
				p.errorf("%s: time %q does not match %s", r.label, *ev.Time, domain.TimeLayout)
			}
		}

		loc, _ := ev.Location()
		if _, err := domain.DistanceKM(loc, domain.Coordinate{}); err != nil {
			p.errorf("%s: %v", r.label, err)
		}
	}
	return p
}

// causeRecorder is a slog.Handler that keeps warning messages with their
// field, property or axis.
type causeRecorder struct {
	causes []string
}

func (c *causeRecorder) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelWarn
}

func (c *causeRecorder) Handle(_ context.Context, r slog.Record) error {
	cause := r.Message
	r.Attrs(func(a slog.Attr) bool {
		switch a.Key {
		case "field", "property", "axis":
			cause += " (" + a.Value.String() + ")"
			return false
		}
		return true
	})
	c.causes = append(c.causes, cause)
	return nil
}

func (c *causeRecorder) WithAttrs([]slog.Attr) slog.Handler { return c }

func (c *causeRecorder) WithGroup(string) slog.Handler { return c }
