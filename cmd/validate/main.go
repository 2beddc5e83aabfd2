// Command validate performs end-to-end integrity checks across the mock
// observation fixtures: the source CSV, the wire JSON and, optionally, the
// projected JSON written by genmock. It verifies row counts, field parity,
// projection reproducibility and unit consistency.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -csv internal/pipeline/testdata/observations.csv \
//	  -wire-json internal/pipeline/testdata/observations.json \
//	  -projected-json data/mock/projected_observations.json
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/wx-observation-etl/internal/comfort"
	"github.com/couchcryptid/wx-observation-etl/internal/domain"
	"github.com/couchcryptid/wx-observation-etl/internal/observation"
	"github.com/couchcryptid/wx-observation-etl/internal/projection"
	"github.com/couchcryptid/wx-observation-etl/internal/units"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name    string
	skipped bool
	errors  []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	csvPath := flag.String("csv", "", "station observation CSV")
	wirePath := flag.String("wire-json", "", "wire JSON fixture")
	projectedPath := flag.String("projected-json", "", "optional projected JSON fixture")
	flag.Parse()

	if *csvPath == "" || *wirePath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*csvPath, *wirePath, *projectedPath); code != 0 {
		os.Exit(code)
	}
}

func run(csvPath, wirePath, projectedPath string) int {
	// Same fixed clock as genmock so processed_at matches.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2024, time.December, 1, 6, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	fmt.Println("=== Observation Fixture Validation ===")
	fmt.Println()

	rows, err := loadCSV(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load CSV: %v\n", err)
		return 1
	}

	var wire []json.RawMessage
	if err := loadJSON(wirePath, &wire); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load wire JSON: %v\n", err)
		return 1
	}

	var projected map[string]json.RawMessage
	if projectedPath != "" {
		if err := loadJSON(projectedPath, &projected); err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load projected JSON: %v\n", err)
			return 1
		}
	}

	processed := make([]domain.ProcessedObservation, 0, len(wire))
	decode := &phase{name: "Phase 1: Wire Decoding"}
	for i, raw := range wire {
		p, err := domain.ProcessRawEvent(domain.RawEvent{Value: raw}, projection.DefaultPreferences())
		if err != nil {
			decode.errorf("wire record %d: %v", i, err)
			continue
		}
		processed = append(processed, p)
	}

	phases := []*phase{
		decode,
		validateWireParity(rows, processed),
		validateProjections(processed, projected, projectedPath == ""),
		validateUnits(processed, projection.DefaultPreferences()),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		switch {
		case p.skipped:
			status = "\033[33mSKIP\033[0m"
		case !p.passed():
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d CSV, %d wire JSON, %d projected JSON\n", len(rows), len(wire), len(projected))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Data loading ──

// csvRow is a parsed CSV row with field values keyed by header name.
type csvRow struct {
	lineNum int
	fields  map[string]string
}

func (r csvRow) key() string {
	return r.fields["station"] + "|" + r.fields["date_time"]
}

func loadCSV(path string) ([]csvRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	all, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(all) < 2 {
		return nil, fmt.Errorf("no data rows in %s", path)
	}

	header := all[0]
	rows := make([]csvRow, 0, len(all)-1)
	for i, row := range all[1:] {
		fields := make(map[string]string, len(header))
		for j, h := range header {
			if j < len(row) {
				fields[h] = strings.TrimSpace(row[j])
			}
		}
		rows = append(rows, csvRow{lineNum: i + 2, fields: fields})
	}
	return rows, nil
}

func loadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// ── Phase 2: Wire Parity ──
// Validates wire records against the CSV they were generated from.

func validateWireParity(rows []csvRow, processed []domain.ProcessedObservation) *phase {
	p := &phase{name: "Phase 2: Wire Parity (JSON vs CSV)"}

	if len(rows) != len(processed) {
		p.errorf("count: CSV has %d rows, wire has %d records", len(rows), len(processed))
	}

	byKey := make(map[string]observation.Observation, len(processed))
	for _, e := range processed {
		byKey[e.Key()] = e.Observation
	}

	for _, row := range rows {
		o, ok := byKey[row.key()]
		if !ok {
			p.errorf("line %d: CSV row not found in wire JSON (key=%s)", row.lineNum, row.key())
			continue
		}
		checkSurface(p, row, o)
		if want, ok := parseFloat(row.fields["altim_inhg"]); ok {
			if a := o.Altimeter(); a == nil || !floatEq(a.In(units.InchesMercury), want) {
				p.errorf("line %d: altimeter: expected %g inHg, got %v", row.lineNum, want, a)
			}
		}
		if want := row.fields["metar"]; want != o.RawReport() {
			p.errorf("line %d: raw report: expected %q, got %q", row.lineNum, want, o.RawReport())
		}
	}
	return p
}

func checkSurface(p *phase, row csvRow, o observation.Observation) {
	l, ok := observation.Surface(o)
	if !ok {
		p.errorf("line %d: no near-surface layer", row.lineNum)
		return
	}
	if want, ok := parseFloat(row.fields["temp_c"]); ok {
		if t := l.Temperature(); t == nil || !floatEq(t.In(units.Celsius), want) {
			p.errorf("line %d: temperature: expected %g °C, got %v", row.lineNum, want, t)
		}
	}
	if want, ok := parseFloat(row.fields["wind_kts"]); ok {
		if w := l.Wind(); w == nil || !floatEq(w.Speed.In(units.Knots), want) {
			p.errorf("line %d: wind speed: expected %g kts, got %v", row.lineNum, want, w)
		}
	}
}

// ── Phase 3: Projection Reproducibility ──
// Re-projects every wire record and compares with the projected fixture.

func validateProjections(processed []domain.ProcessedObservation, projected map[string]json.RawMessage, skip bool) *phase {
	p := &phase{name: "Phase 3: Projection Reproducibility", skipped: skip}
	if skip {
		return p
	}

	if len(projected) != len(processed) {
		p.errorf("count: projected has %d records, wire has %d", len(projected), len(processed))
	}

	for _, e := range processed {
		fixture, ok := projected[e.Key()]
		if !ok {
			p.errorf("%s: missing from projected JSON", e.Key())
			continue
		}
		fresh, err := json.Marshal(e.Projection)
		if err != nil {
			p.errorf("%s: marshal: %v", e.Key(), err)
			continue
		}
		var want, got any
		if err := json.Unmarshal(fixture, &want); err != nil {
			p.errorf("%s: decode fixture: %v", e.Key(), err)
			continue
		}
		if err := json.Unmarshal(fresh, &got); err != nil {
			p.errorf("%s: decode projection: %v", e.Key(), err)
			continue
		}
		if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
			p.errorf("%s: projection mismatch (-fixture +fresh):\n%s", e.Key(), diff)
		}
	}
	return p
}

// ── Phase 4: Unit Consistency ──
// Validates that every projected value is expressed in the preferred unit.

func validateUnits(processed []domain.ProcessedObservation, prefs projection.UnitPreferences) *phase {
	p := &phase{name: "Phase 4: Unit Consistency"}
	for _, e := range processed {
		proj := e.Projection
		pf := func(format string, args ...any) {
			p.errorf("%s: "+format, append([]any{e.Key()}, args...)...)
		}
		for _, l := range proj.Layers() {
			pl, _ := proj.ProjectedLayer(l)
			if t := pl.Temperature(); t != nil && t.Unit() != prefs.Temperature {
				pf("%s temperature in %s, want %s", l, t.Unit(), prefs.Temperature)
			}
			if t := pl.ThetaE(); t != nil && t.Unit() != prefs.ThetaE {
				pf("%s theta-e in %s, want %s", l, t.Unit(), prefs.ThetaE)
			}
			if pr := pl.Pressure(); pr != nil && pr.Unit() != prefs.Pressure {
				pf("%s pressure in %s, want %s", l, pr.Unit(), prefs.Pressure)
			}
			if v := pl.Visibility(); v != nil && v.Unit() != prefs.Distance {
				pf("%s visibility in %s, want %s", l, v.Unit(), prefs.Distance)
			}
			if w := pl.Wind(); w != nil && w.Speed.Unit() != prefs.Speed {
				pf("%s wind in %s, want %s", l, w.Speed.Unit(), prefs.Speed)
			}
			if rh := pl.RelativeHumidity(); rh != nil && rh.Unit() != units.Percent {
				pf("%s relative humidity in %s, want %%", l, rh.Unit())
			}
		}
		if slp := proj.BestSLP(); slp != nil && slp.Unit() != prefs.Pressure {
			pf("best SLP in %s, want %s", slp.Unit(), prefs.Pressure)
		}
		if c := proj.Comfort(); c != nil && c.Value > comfort.MaxScore {
			pf("comfort index %d above %d", c.Value, comfort.MaxScore)
		}
		if got, want := proj.LocalTime().Location().String(), proj.Station().Location().String(); got != want {
			pf("local time zone %s, want %s", got, want)
		}
	}
	return p
}

// ── Helpers ──

func parseFloat(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
