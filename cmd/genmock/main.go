// Command genmock reads the station observation CSV and generates the wire
// JSON fixture consumed by the pipeline and integration tests. It builds each
// observation through the observation package and, optionally, runs the real
// projection so the projected fixture matches pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -csv internal/pipeline/testdata/observations.csv \
//	  -wire-out internal/pipeline/testdata/observations.json \
//	  -projected-out data/mock/projected_observations.json
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/wx-observation-etl/internal/domain"
	"github.com/couchcryptid/wx-observation-etl/internal/observation"
	"github.com/couchcryptid/wx-observation-etl/internal/projection"
	"github.com/couchcryptid/wx-observation-etl/internal/units"
)

// processedAt is the fixed processing time stamped on projected fixtures.
var processedAt = time.Date(2024, time.December, 1, 6, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	csvPath := flag.String("csv", "internal/pipeline/testdata/observations.csv", "station observation CSV")
	wireOut := flag.String("wire-out", "", "output path for the wire JSON fixture")
	projectedOut := flag.String("projected-out", "", "optional output path for projected observations")
	flag.Parse()

	if *wireOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -wire-out")
	}

	domain.SetClock(clockwork.NewFakeClockAt(processedAt))
	defer domain.SetClock(nil)

	records, err := readRecords(*csvPath)
	if err != nil {
		return fmt.Errorf("processing %s: %w", *csvPath, err)
	}
	log.Printf("%s: %d observations", filepath.Base(*csvPath), len(records))

	wire := make([]json.RawMessage, 0, len(records))
	processed := make([]domain.ProcessedObservation, 0, len(records))
	for _, r := range records {
		data, err := observation.EncodeWire(r)
		if err != nil {
			return fmt.Errorf("encode %s: %w", r.Station().Name(), err)
		}
		wire = append(wire, data)

		p, err := domain.ProcessRawEvent(domain.RawEvent{Value: data}, projection.DefaultPreferences())
		if err != nil {
			return fmt.Errorf("project %s: %w", r.Station().Name(), err)
		}
		processed = append(processed, p)
	}

	if err := writeJSON(*wireOut, wire); err != nil {
		return fmt.Errorf("writing wire fixture: %w", err)
	}
	log.Printf("wrote wire fixture: %s", *wireOut)

	if *projectedOut != "" {
		doc := make(map[string]*projection.Projection, len(processed))
		for _, p := range processed {
			doc[p.Key()] = p.Projection
		}
		if err := writeJSON(*projectedOut, doc); err != nil {
			return fmt.Errorf("writing projected fixture: %w", err)
		}
		log.Printf("wrote projected fixture: %s", *projectedOut)
	}

	printStats(processed)
	return nil
}

func readRecords(path string) ([]*observation.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("no data rows")
	}

	colIdx := map[string]int{}
	for i, h := range rows[0] {
		colIdx[h] = i
	}

	records := make([]*observation.Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		r, err := buildRecord(csvRow{row: row, idx: colIdx})
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+2, err)
		}
		records = append(records, r)
	}
	return records, nil
}

type csvRow struct {
	row []string
	idx map[string]int
}

func (r csvRow) get(col string) string {
	i, ok := r.idx[col]
	if !ok || i >= len(r.row) {
		return ""
	}
	return strings.TrimSpace(r.row[i])
}

// float parses an optional numeric column. ok is false for empty cells.
func (r csvRow) float(col string) (v float64, ok bool, err error) {
	s := r.get(col)
	if s == "" {
		return 0, false, nil
	}
	v, err = strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", col, err)
	}
	return v, true, nil
}

func buildRecord(r csvRow) (*observation.Record, error) {
	at, err := time.Parse(time.RFC3339, r.get("date_time"))
	if err != nil {
		return nil, fmt.Errorf("date_time: %w", err)
	}
	loc, err := time.LoadLocation(r.get("time_zone"))
	if err != nil {
		return nil, fmt.Errorf("time_zone: %w", err)
	}

	nums := map[string]float64{}
	for _, col := range []string{"lat", "lon", "elev_m", "temp_c", "dewpoint_c", "rh_pct", "wind_dir", "wind_kts", "vis_mi", "slp_hpa", "altim_inhg", "rain_in", "cape_jkg"} {
		v, ok, err := r.float(col)
		if err != nil {
			return nil, err
		}
		if ok {
			nums[col] = v
		}
	}

	st := observation.NewStation(r.get("station"), units.New(nums["elev_m"], units.Meter),
		observation.Coords{Latitude: nums["lat"], Longitude: nums["lon"]}, loc)

	var lf observation.LayerFields
	if v, ok := nums["temp_c"]; ok {
		t := units.NewTemperature(v, units.Celsius)
		lf.Temperature = &t
	}
	if v, ok := nums["dewpoint_c"]; ok {
		t := units.NewTemperature(v, units.Celsius)
		lf.Dewpoint = &t
	}
	if v, ok := nums["rh_pct"]; ok {
		rh := units.New(v, units.Percent)
		lf.RelativeHumidity = &rh
	}
	if v, ok := nums["vis_mi"]; ok {
		vis := units.New(v, units.Mile)
		lf.Visibility = &vis
	}
	if v, ok := nums["wind_kts"]; ok {
		w := &observation.Wind{Speed: units.New(v, units.Knots)}
		if deg, ok := nums["wind_dir"]; ok {
			d, err := units.NewDirection(deg)
			if err != nil {
				return nil, fmt.Errorf("wind_dir: %w", err)
			}
			w.Direction = &d
		}
		lf.Wind = w
	}
	layers := []*observation.LayerRecord{observation.NewLayerRecord(observation.NearSurface, st, lf)}
	if v, ok := nums["slp_hpa"]; ok {
		p := units.New(v, units.Hectopascal)
		layers = append(layers, observation.NewLayerRecord(observation.SeaLevel, st, observation.LayerFields{Pressure: &p}))
	}

	rf := observation.RecordFields{RawReport: r.get("metar")}
	if sky := r.get("sky"); sky != "" {
		sc, err := parseSky(sky)
		if err != nil {
			return nil, err
		}
		rf.SkyCover = &sc
	}
	if wx := r.get("wx"); wx != "" {
		rf.WxCodes = strings.Fields(wx)
	}
	if v, ok := nums["rain_in"]; ok {
		rf.Precip = &observation.Precip{
			Unknown: units.New(0, units.Inch),
			Rain:    units.New(v, units.Inch),
			Snow:    units.New(0, units.Inch),
		}
	}
	if v, ok := nums["altim_inhg"]; ok {
		a := units.New(v, units.InchesMercury)
		rf.Altimeter = &a
	}
	if v, ok := nums["cape_jkg"]; ok {
		c := units.New(v, units.JoulesPerKilogram)
		rf.CAPE = &c
	}

	return observation.NewRecord(at, st, layers, rf)
}

// parseSky splits METAR sky groups such as "SCT040 BKN250" into codes and
// heights in feet.
func parseSky(s string) (observation.SkyCover, error) {
	var codes []string
	var heights []uint32
	for _, group := range strings.Fields(s) {
		if len(group) < 3 {
			return observation.SkyCover{}, fmt.Errorf("sky: malformed group %q", group)
		}
		var h uint64
		if len(group) > 3 {
			var err error
			h, err = strconv.ParseUint(group[3:], 10, 32)
			if err != nil {
				return observation.SkyCover{}, fmt.Errorf("sky: group %q: %w", group, err)
			}
		}
		codes = append(codes, group[:3])
		heights = append(heights, uint32(h*100))
	}
	return observation.SkyCoverFromReports(codes, heights)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(events []domain.ProcessedObservation) {
	sort.Slice(events, func(i, j int) bool { return events[i].Key() < events[j].Key() })

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Total: %d\n", len(events))
	for _, e := range events {
		p := e.Projection
		fmt.Printf("\n%s\n", e.Key())
		if l, ok := p.ProjectedLayer(observation.NearSurface); ok {
			if t := l.Temperature(); t != nil {
				fmt.Printf("  Temperature: %s\n", t)
			}
			if t := l.ApparentTemp(); t != nil {
				fmt.Printf("  Apparent:    %s\n", t)
			}
			if rh := l.RelativeHumidity(); rh != nil {
				fmt.Printf("  RH:          %s\n", rh)
			}
			fmt.Printf("  WindChill valid=%s  HeatIndex valid=%s\n", tri(l.WindChillValid()), tri(l.HeatIndexValid()))
		}
		if slp := p.BestSLP(); slp != nil {
			fmt.Printf("  Best SLP:    %s\n", slp)
		}
		if w := p.Wx(); w != nil {
			fmt.Printf("  Wx:          %+v\n", *w)
		}
		if c := p.Comfort(); c != nil {
			fmt.Printf("  Comfort:     %d (%s)\n", c.Value, c.Factor)
		}
	}
}

func tri(b *bool) string {
	if b == nil {
		return "unknown"
	}
	return strconv.FormatBool(*b)
}
