package weather

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGeocoder struct {
	known map[string]Location
	calls []string
}

func (g *fakeGeocoder) Geocode(_ context.Context, city string) (Location, error) {
	g.calls = append(g.calls, city)
	loc, ok := g.known[city]
	if !ok {
		return Location{}, errors.New("Status Code: 200. Could not geolocate.")
	}
	return loc, nil
}

type fakeProvider struct {
	failing map[string]bool
	calls   []string
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Fetch(_ context.Context, loc Location) (Reading, error) {
	p.calls = append(p.calls, loc.City)
	if p.failing[loc.City] {
		return Reading{}, errors.New("Status Code: 500. Could not get weather.")
	}
	return Reading{
		ProviderName: "fake",
		Timestamp:    time.Unix(1700000000, 0),
		Temp:         280,
		TempHigh:     282,
		TempLow:      278,
	}, nil
}

type fakeSink struct {
	loadErr  error
	closeErr error
	loaded   [][]Record
	closed   int
}

func (s *fakeSink) Load(_ context.Context, records []Record) (int, error) {
	if s.loadErr != nil {
		return 0, s.loadErr
	}
	s.loaded = append(s.loaded, records)
	return len(records), nil
}

func (s *fakeSink) Close() error {
	s.closed++
	return s.closeErr
}

func connectTo(sink *fakeSink) Connector {
	return func(context.Context) (Sink, error) { return sink, nil }
}

var (
	montreal = Location{Country: "CA", State: "Quebec", City: "Montreal", Lat: 45.50, Lon: -73.56}
	newYork  = Location{Country: "US", State: "New York", City: "New York", Lat: 40.71, Lon: -74.00}
	chicago  = Location{Country: "US", State: "Illinois", City: "Chicago", Lat: 41.87, Lon: -87.62}
)

func TestRunDropsUngeocodedCity(t *testing.T) {
	geo := &fakeGeocoder{known: map[string]Location{"Montreal": montreal}}
	prov := &fakeProvider{}
	sink := &fakeSink{}

	report, err := NewPipeline([]string{"Montreal", "Nowhere123"}, geo, prov, connectTo(sink)).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Records, 1)
	assert.Equal(t, "Montreal", report.Records[0].City)
	assert.Equal(t, []ErrorRecord{{
		Stage:   StageExtract,
		Subject: "Nowhere123",
		Message: "Status Code: 200. Could not geolocate.",
	}}, report.Errors)

	assert.Equal(t, []string{"Montreal"}, prov.calls, "failed geocode must not reach the weather client")
	require.Len(t, sink.loaded, 1)
	assert.Len(t, sink.loaded[0], 1)
	assert.Equal(t, 1, report.Loaded)
	assert.Equal(t, 1, sink.closed)
}

func TestRunWeatherFailureIsIsolated(t *testing.T) {
	geo := &fakeGeocoder{known: map[string]Location{"Montreal": montreal, "New York": newYork, "Chicago": chicago}}
	prov := &fakeProvider{failing: map[string]bool{"New York": true}}
	sink := &fakeSink{}

	report, err := NewPipeline([]string{"Montreal", "New York", "Chicago"}, geo, prov, connectTo(sink)).Run(context.Background())
	require.NoError(t, err)

	cities := make([]string, 0, len(report.Records))
	for _, r := range report.Records {
		cities = append(cities, r.City)
	}
	assert.Equal(t, []string{"Montreal", "Chicago"}, cities)

	require.Len(t, report.Errors, 1)
	assert.Equal(t, StageExtract, report.Errors[0].Stage)
	assert.Equal(t, "New York", report.Errors[0].Subject)
	assert.Equal(t, []string{"Montreal", "New York", "Chicago"}, prov.calls)
}

func TestRunAssemblesRecord(t *testing.T) {
	geo := &fakeGeocoder{known: map[string]Location{"Chicago": chicago}}
	sink := &fakeSink{}

	report, err := NewPipeline([]string{"Chicago"}, geo, &fakeProvider{}, connectTo(sink)).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Records, 1)

	r := report.Records[0]
	assert.Equal(t, "2023-11-14 22:13:20", r.DateTime())
	assert.Equal(t, time.UTC, r.Timestamp.Location())
	assert.Equal(t, 280.0, r.Temp)
	assert.Equal(t, 282.0, r.TempHigh)
	assert.Equal(t, 278.0, r.TempLow)
	assert.Equal(t, "US", r.Country)
	assert.Equal(t, "Illinois", r.State)
	assert.Equal(t, 41.87, r.Lat)
	assert.Equal(t, -87.62, r.Lon)
}

func TestRunLoadsEvenWhenEverythingFails(t *testing.T) {
	geo := &fakeGeocoder{known: map[string]Location{}}
	sink := &fakeSink{}

	report, err := NewPipeline([]string{"A", "B"}, geo, &fakeProvider{}, connectTo(sink)).Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, report.Errors, 2)
	require.Len(t, sink.loaded, 1)
	assert.Empty(t, sink.loaded[0])
	assert.Equal(t, 0, report.Loaded)
	assert.Equal(t, 1, sink.closed)
}

func TestRunClosesSinkWhenLoadFails(t *testing.T) {
	geo := &fakeGeocoder{known: map[string]Location{"Montreal": montreal}}
	loadErr := errors.New("schema mismatch")
	sink := &fakeSink{loadErr: loadErr}

	report, err := NewPipeline([]string{"Montreal"}, geo, &fakeProvider{}, connectTo(sink)).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, loadErr)
	assert.Equal(t, 1, sink.closed)
	assert.False(t, report.FinishedAt.IsZero())
}

func TestRunReportsCloseError(t *testing.T) {
	closeErr := errors.New("session expired")
	sink := &fakeSink{closeErr: closeErr}

	_, err := NewPipeline(nil, &fakeGeocoder{}, &fakeProvider{}, connectTo(sink)).Run(context.Background())
	assert.ErrorIs(t, err, closeErr)
}

func TestRunLoadErrorWinsOverCloseError(t *testing.T) {
	loadErr := errors.New("bad connection")
	sink := &fakeSink{loadErr: loadErr, closeErr: errors.New("close failed")}

	_, err := NewPipeline(nil, &fakeGeocoder{}, &fakeProvider{}, connectTo(sink)).Run(context.Background())
	assert.ErrorIs(t, err, loadErr)
}

func TestRunConnectFailureSkipsExtract(t *testing.T) {
	geo := &fakeGeocoder{known: map[string]Location{"Montreal": montreal}}
	connErr := errors.New("auth failed")
	connect := func(context.Context) (Sink, error) { return nil, connErr }

	report, err := NewPipeline([]string{"Montreal"}, geo, &fakeProvider{}, connect).Run(context.Background())
	assert.ErrorIs(t, err, connErr)
	assert.Empty(t, geo.calls)
	assert.NotEmpty(t, report.RunID)
}

func TestReportSummary(t *testing.T) {
	report := &Report{
		RunID:   "run-1",
		Cities:  3,
		Records: []Record{{City: "Montreal"}, {City: "Chicago"}},
		Errors:  []ErrorRecord{{Stage: StageExtract, Subject: "New York"}},
		Loaded:  2,
	}

	s := report.Summary(nil)
	assert.Equal(t, 3, s.Cities)
	assert.Equal(t, 2, s.Records)
	assert.Equal(t, 2, s.Loaded)
	assert.Equal(t, 1, s.Errors)
	assert.False(t, s.Failed)

	s = report.Summary(errors.New("load records: boom"))
	assert.True(t, s.Failed)
	assert.Equal(t, "load records: boom", s.Message)
}

func TestTransformIsIdentity(t *testing.T) {
	in := []Record{{City: "Montreal", Temp: 271.15}}
	assert.Equal(t, in, Transform(in))
}
