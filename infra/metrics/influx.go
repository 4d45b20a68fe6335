package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/homemind/core/metrics"
	"github.com/kilianp07/homemind/infra/logger"
)

// InfluxSink writes dispatch activity to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

var _ coremetrics.MetricsSink = (*InfluxSink)(nil)

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

func (s *InfluxSink) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordDispatch writes a navigation_request point.
func (s *InfluxSink) RecordDispatch(rec coremetrics.DispatchRecord) error {
	p := write.NewPointWithMeasurement("navigation_request").
		AddTag("device_id", rec.DeviceID).
		AddTag("stage", rec.Stage).
		AddTag("success", strconv.FormatBool(rec.Success))
	if rec.Destination.ID != "" {
		p = p.AddTag("destination", rec.Destination.ID).
			AddTag("kind", rec.Destination.Kind.String())
	}
	p = p.AddField("input", rec.Input).
		AddField("status_code", rec.StatusCode).
		AddField("latency_ms", round3(float64(rec.Latency.Microseconds())/1000)).
		SetTime(rec.Time)
	return s.write(p)
}

// RecordMonitor writes a monitor_outcome point.
func (s *InfluxSink) RecordMonitor(rec coremetrics.MonitorRecord) error {
	p := write.NewPointWithMeasurement("monitor_outcome").
		AddTag("device_id", rec.DeviceID).
		AddTag("destination", rec.Destination.ID).
		AddTag("state", rec.State).
		AddField("handle_id", rec.HandleID).
		AddField("last_status", rec.LastStatus.String()).
		AddField("polls", rec.Polls).
		AddField("elapsed_s", round3(rec.Elapsed.Seconds())).
		SetTime(rec.Time)
	return s.write(p)
}

// RecordTelemetry writes a robot_state point.
func (s *InfluxSink) RecordTelemetry(rec coremetrics.TelemetryRecord) error {
	p := write.NewPointWithMeasurement("robot_state").
		AddTag("device_id", rec.DeviceID).
		AddField("battery", rec.State.Battery).
		AddField("status", rec.State.Status.String()).
		AddField("raw_status", rec.State.RawStatus).
		SetTime(rec.State.ReadAt)
	return s.write(p)
}

// RecordActuator writes an actuator_command point.
func (s *InfluxSink) RecordActuator(rec coremetrics.ActuatorRecord) error {
	p := write.NewPointWithMeasurement("actuator_command").
		AddTag("name", rec.Name).
		AddTag("kind", rec.Kind).
		AddTag("success", strconv.FormatBool(rec.Success)).
		AddField("entity", rec.Entity).
		AddField("value", rec.Value).
		AddField("status_code", rec.StatusCode).
		SetTime(rec.Time)
	return s.write(p)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
