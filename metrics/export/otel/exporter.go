package otel

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/staffguard"
	"github.com/MrEthical07/staffguard/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

// Source is satisfied by *staffguard.Engine.
type Source interface {
	MetricsSnapshot() staffguard.MetricsSnapshot
	AuditDropped() uint64
}

// view is one collection's worth of engine state.
type view struct {
	snap       staffguard.MetricsSnapshot
	dropped    uint64
	cumulative map[staffguard.MetricID][internaldefs.BucketCount]uint64
}

func (v *view) buckets(id staffguard.MetricID) [internaldefs.BucketCount]uint64 {
	if c, ok := v.cumulative[id]; ok {
		return c
	}
	c := internaldefs.Cumulative(v.snap.Histograms[id])
	v.cumulative[id] = c
	return c
}

// reading ties an instrument to the value it reports.
type reading struct {
	instrument metric.Int64Observable
	value      func(*view) uint64
}

// Exporter keeps the callback registration alive until Close.
type Exporter struct {
	source       Source
	readings     []reading
	registration metric.Registration
}

// New registers the engine instruments on meter.
func New(meter metric.Meter, source Source) (*Exporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &Exporter{source: source}
	counter := func(name, help string, value func(*view) uint64) error {
		ins, err := meter.Int64ObservableCounter(name, metric.WithDescription(help))
		if err != nil {
			return fmt.Errorf("create observable counter %s: %w", name, err)
		}
		e.readings = append(e.readings, reading{instrument: ins, value: value})
		return nil
	}
	gauge := func(name, help string, value func(*view) uint64) error {
		ins, err := meter.Int64ObservableGauge(name, metric.WithDescription(help))
		if err != nil {
			return fmt.Errorf("create observable gauge %s: %w", name, err)
		}
		e.readings = append(e.readings, reading{instrument: ins, value: value})
		return nil
	}

	for _, def := range internaldefs.CounterDefs {
		id := def.ID
		if err := counter(def.Name, def.Help, func(v *view) uint64 { return v.snap.Counters[id] }); err != nil {
			return nil, err
		}
	}

	// Histograms are flattened into one cumulative gauge per bucket.
	for _, def := range internaldefs.HistogramDefs {
		id := def.ID
		for i, b := range internaldefs.Buckets {
			i := i
			err := gauge(def.Name+"_bucket_le_"+b.Suffix, "Cumulative histogram bucket count.",
				func(v *view) uint64 { return v.buckets(id)[i] })
			if err != nil {
				return nil, err
			}
		}
		err := gauge(def.Name+"_count", def.Help+" Sample count.",
			func(v *view) uint64 { return v.buckets(id)[internaldefs.BucketCount-1] })
		if err != nil {
			return nil, err
		}
	}

	err := counter(internaldefs.AuditDroppedName, "Audit events dropped because the dispatcher buffer was full.",
		func(v *view) uint64 { return v.dropped })
	if err != nil {
		return nil, err
	}

	observables := make([]metric.Observable, len(e.readings))
	for i, r := range e.readings {
		observables[i] = r.instrument
	}
	e.registration, err = meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	return e, nil
}

func (e *Exporter) observe(_ context.Context, observer metric.Observer) error {
	v := &view{
		snap:       e.source.MetricsSnapshot(),
		dropped:    e.source.AuditDropped(),
		cumulative: make(map[staffguard.MetricID][internaldefs.BucketCount]uint64, len(internaldefs.HistogramDefs)),
	}
	for _, r := range e.readings {
		observer.ObserveInt64(r.instrument, int64(r.value(v)))
	}
	return nil
}

// Close unregisters the callback.
func (e *Exporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
