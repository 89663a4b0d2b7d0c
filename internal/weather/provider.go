package weather

import (
	"context"
	"time"
)

// Reading is a single provider observation for a location.
type Reading struct {
	ProviderName string
	Timestamp    time.Time

	Temp     float64
	TempHigh float64
	TempLow  float64
}

// Geocoder resolves a city name to a Location.
type Geocoder interface {
	Geocode(ctx context.Context, city string) (Location, error)
}

// Provider abstracts a current-weather data source.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, loc Location) (Reading, error)
}

// Sink is the destination of a run. It owns the warehouse connection and is
// closed exactly once when the run ends.
type Sink interface {
	Load(ctx context.Context, records []Record) (int, error)
	Close() error
}

// Connector opens a Sink for one run.
type Connector func(ctx context.Context) (Sink, error)

// Store is the contract the in-memory run store (and any future persistent store) must satisfy.
type Store interface {
	SaveRun(summary RunSummary)
	GetLatest() (RunSummary, error)
	GetRange(from, to time.Time) ([]RunSummary, error)
}
