// Package influx implements the durable time-series writer and the read
// passthrough on InfluxDB 2.x.
package influx

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/moniflow/moniflow/internal/core/domain"
	"github.com/moniflow/moniflow/pkg/timeutil"
)

// Store implements port.TimeSeriesWriter and port.TimeSeriesReader on one
// shared client. Writes are synchronous per batch; batching happens in
// the ingest flushers above this layer.
type Store struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	queryAPI api.QueryAPI
	bucket   string
	logger   *slog.Logger
}

// NewStore creates a new time-series store
func NewStore(url, token, org, bucket string, logger *slog.Logger) *Store {
	client := influxdb2.NewClient(url, token)
	return &Store{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		queryAPI: client.QueryAPI(org),
		bucket:   bucket,
		logger:   logger,
	}
}

// Close releases the underlying HTTP client.
func (s *Store) Close() {
	s.client.Close()
}

// Ping verifies the store is reachable. Called once at startup.
func (s *Store) Ping(ctx context.Context) error {
	ok, err := s.client.Ping(ctx)
	if err != nil {
		return fmt.Errorf("influxdb ping: %w", err)
	}
	if !ok {
		return fmt.Errorf("influxdb ping: not ready")
	}
	return nil
}

// WriteSamples writes one flushed metric batch as line-protocol points.
func (s *Store) WriteSamples(ctx context.Context, samples []domain.Sample) error {
	points := make([]*write.Point, 0, len(samples))
	for _, sample := range samples {
		ts, err := sampleTime(sample.Timestamp)
		if err != nil {
			return err
		}

		fields := make(map[string]any, len(sample.Fields))
		for k, v := range sample.Fields {
			fields[k] = v
		}
		points = append(points, influxdb2.NewPoint(sample.Measurement, sample.Tags, fields, ts))
	}

	if err := s.writeAPI.WritePoint(ctx, points...); err != nil {
		return fmt.Errorf("%w: write samples: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

// WriteLogs writes one flushed log batch under the "logs" measurement,
// with the level as a tag and the message as the field value.
func (s *Store) WriteLogs(ctx context.Context, events []domain.LogEvent) error {
	points := make([]*write.Point, 0, len(events))
	for _, event := range events {
		ts, err := sampleTime(event.Timestamp)
		if err != nil {
			return err
		}

		tags := make(map[string]string, len(event.Tags)+1)
		for k, v := range event.Tags {
			tags[k] = v
		}
		tags["level"] = string(event.Level)

		points = append(points, influxdb2.NewPoint("logs", tags,
			map[string]any{"message": event.Message}, ts))
	}

	if err := s.writeAPI.WritePoint(ctx, points...); err != nil {
		return fmt.Errorf("%w: write logs: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

// QueryMetrics builds and runs the metric Flux query, returning the query
// text alongside parsed records. Query failures yield an empty result;
// the caller still gets the query text for the response envelope.
func (s *Store) QueryMetrics(ctx context.Context, q domain.MetricReadQuery) (string, []map[string]any, error) {
	query := BuildMetricQuery(s.bucket, q)

	result, err := s.queryAPI.Query(ctx, query)
	if err != nil {
		s.logger.Error("metric query failed", "query", query, "error", err)
		return query, []map[string]any{}, nil
	}

	var records []map[string]any
	for result.Next() {
		record := result.Record()
		row := map[string]any{
			"time":        record.Time().Format(time.RFC3339),
			"measurement": record.Measurement(),
			"value":       record.Value(),
		}
		for key, value := range record.Values() {
			switch key {
			case "_time", "_measurement", "_value":
			default:
				row[key] = value
			}
		}
		records = append(records, row)
	}
	if result.Err() != nil {
		s.logger.Error("metric query iteration failed", "error", result.Err())
	}
	if records == nil {
		records = []map[string]any{}
	}
	return query, records, nil
}

// QueryLogs builds and runs the log Flux query. Records missing a message
// value get a placeholder rather than a null.
func (s *Store) QueryLogs(ctx context.Context, q domain.LogReadQuery) ([]map[string]any, error) {
	query := BuildLogQuery(s.bucket, q)

	result, err := s.queryAPI.Query(ctx, query)
	if err != nil {
		s.logger.Error("log query failed", "query", query, "error", err)
		return []map[string]any{}, nil
	}

	var records []map[string]any
	for result.Next() {
		record := result.Record()

		message := "No message provided"
		if v := record.Value(); v != nil {
			if s, ok := v.(string); ok {
				message = s
			} else {
				message = fmt.Sprint(v)
			}
		}

		records = append(records, map[string]any{
			"time":    record.Time().Format(time.RFC3339),
			"service": record.ValueByKey("service"),
			"level":   record.ValueByKey("level"),
			"message": message,
		})
	}
	if result.Err() != nil {
		s.logger.Error("log query iteration failed", "error", result.Err())
	}
	if records == nil {
		records = []map[string]any{}
	}
	return records, nil
}

// sampleTime resolves an optional wire timestamp to a point time.
func sampleTime(ts string) (time.Time, error) {
	if ts == "" {
		return time.Now().UTC(), nil
	}
	sec, err := timeutil.ParseTimestamp(ts)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(sec, 0).UTC(), nil
}
