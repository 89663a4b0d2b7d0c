package weather

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phuslu/log"
)

// Pipeline runs the extract, transform, load and teardown stages for a fixed
// list of cities.
type Pipeline struct {
	cities   []string
	geocoder Geocoder
	provider Provider
	connect  Connector
}

// NewPipeline creates a new Pipeline.
func NewPipeline(cities []string, geocoder Geocoder, provider Provider, connect Connector) *Pipeline {
	return &Pipeline{
		cities:   cities,
		geocoder: geocoder,
		provider: provider,
		connect:  connect,
	}
}

// Run executes one pass over the city list. Per-city failures are recorded in
// the report and never abort the run; connection, load and close failures are
// returned. The sink is closed on every path once it has been opened.
func (p *Pipeline) Run(ctx context.Context) (report *Report, err error) {
	report = &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Cities:    len(p.cities),
	}
	defer func() {
		report.FinishedAt = time.Now().UTC()
	}()

	sink, err := p.connect(ctx)
	if err != nil {
		return report, fmt.Errorf("connect to warehouse: %w", err)
	}
	defer func() {
		log.Info().Str("run_id", report.RunID).Msg("Disposing of warehouse connection")
		if cerr := sink.Close(); cerr != nil {
			log.Error().Err(cerr).Str("run_id", report.RunID).Msg("failed to close warehouse connection")
			if err == nil {
				err = fmt.Errorf("close warehouse connection: %w", cerr)
			}
		}
	}()

	log.Info().Str("run_id", report.RunID).Msg("Extracting...")
	records := p.extract(ctx, report)

	log.Info().Str("run_id", report.RunID).Msg("Transforming...")
	records = Transform(records)
	report.Records = records

	log.Info().Str("run_id", report.RunID).Msg("Loading...")
	n, err := sink.Load(ctx, records)
	if err != nil {
		return report, fmt.Errorf("load records: %w", err)
	}
	report.Loaded = n

	return report, nil
}

// extract geocodes every city, then fetches weather for every geocoded city.
// Both passes are sequential.
func (p *Pipeline) extract(ctx context.Context, report *Report) []Record {
	locations := make([]Location, 0, len(p.cities))
	for _, city := range p.cities {
		log.Info().Str("city", city).Msg("Geocoding city")

		loc, err := p.geocoder.Geocode(ctx, city)
		if err != nil {
			log.Error().Err(err).Str("city", city).Msg("failed to geocode")
			report.recordError(StageExtract, city, err)
			continue
		}
		locations = append(locations, loc)
	}

	records := make([]Record, 0, len(locations))
	for _, loc := range locations {
		log.Info().Str("location", loc.Key()).Str("provider", p.provider.Name()).Msg("Fetching weather")

		r, err := p.provider.Fetch(ctx, loc)
		if err != nil {
			log.Error().Err(err).Str("city", loc.City).Msg("failed to fetch weather data")
			report.recordError(StageExtract, loc.City, err)
			continue
		}
		records = append(records, newRecord(loc, r))
	}

	log.Info().Int("results", len(records)).Msg("results found")
	log.Info().Int("errors", len(report.Errors)).Msg("total errors")
	return records
}

func (r *Report) recordError(stage Stage, subject string, err error) {
	r.Errors = append(r.Errors, ErrorRecord{
		Stage:   stage,
		Subject: subject,
		Message: err.Error(),
	})
}

func newRecord(loc Location, r Reading) Record {
	return Record{
		Timestamp: r.Timestamp.UTC().Truncate(time.Second),
		Temp:      r.Temp,
		TempHigh:  r.TempHigh,
		TempLow:   r.TempLow,
		Country:   loc.Country,
		State:     loc.State,
		City:      loc.City,
		Lat:       loc.Lat,
		Lon:       loc.Lon,
	}
}
