package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"pidcore/internal/core"
)

// telemetry holds the recorder and tracer shared by the services a command
// builds, and writes the collected metrics once the command is done.
type telemetry struct {
	metrics core.MetricsRecorder
	tracer  core.Tracer
	flush   func() error
}

func newTelemetry(cfg core.Config, traceOut io.Writer) *telemetry {
	t := &telemetry{flush: func() error { return nil }}
	if cfg.Trace {
		t.tracer = core.NewJSONTracer(traceOut)
	}
	path := cfg.MetricsFile
	switch {
	case path == "":
	case strings.EqualFold(filepath.Ext(path), ".json"):
		rec := core.NewExpvarMetricsRecorder("")
		t.metrics = rec
		t.flush = func() error {
			data, err := json.MarshalIndent(rec.Snapshot(), "", "  ")
			if err != nil {
				return err
			}
			return os.WriteFile(path, append(data, '\n'), 0o600)
		}
	default:
		reg := prometheus.NewRegistry()
		t.metrics = core.NewPrometheusRecorder(reg)
		t.flush = func() error {
			return prometheus.WriteToTextfile(path, reg)
		}
	}
	return t
}

func (t *telemetry) options() []core.ServiceOption {
	return []core.ServiceOption{core.WithMetrics(t.metrics), core.WithTracer(t.tracer)}
}

func (t *telemetry) write() error {
	if err := t.flush(); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
