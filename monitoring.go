package mapx

import (
	"sort"
	"sync"
	"time"
)

// MetricsCollector defines the interface for collecting and reporting metrics
type MetricsCollector interface {
	// Counters
	IncrementCounter(name string, tags map[string]string)
	IncrementCounterBy(name string, value int64, tags map[string]string)

	// Timing
	RecordTiming(name string, duration time.Duration, tags map[string]string)

	// Flush any buffered metrics
	Flush() error
}

// ObservabilityHook defines hooks for monitoring mapping calls
type ObservabilityHook interface {
	// Called before a marshal or serialize call starts
	OnMapStart(operation, schema string)

	// Called after the call completes (success or failure)
	OnMapComplete(operation, schema string, duration time.Duration, err error)

	// Called once per failed field path of an aggregate error
	OnFieldError(operation, schema, path string, err error)
}

// NoOpMetricsCollector is a no-op implementation of MetricsCollector
type NoOpMetricsCollector struct{}

func (n *NoOpMetricsCollector) IncrementCounter(name string, tags map[string]string)                 {}
func (n *NoOpMetricsCollector) IncrementCounterBy(name string, value int64, tags map[string]string) {}
func (n *NoOpMetricsCollector) RecordTiming(name string, duration time.Duration, tags map[string]string) {
}
func (n *NoOpMetricsCollector) Flush() error { return nil }

// NoOpObservabilityHook is a no-op implementation of ObservabilityHook
type NoOpObservabilityHook struct{}

func (n *NoOpObservabilityHook) OnMapStart(operation, schema string) {}
func (n *NoOpObservabilityHook) OnMapComplete(operation, schema string, duration time.Duration, err error) {
}
func (n *NoOpObservabilityHook) OnFieldError(operation, schema, path string, err error) {}

// InMemoryMetricsCollector is a simple in-memory implementation for testing and development
type InMemoryMetricsCollector struct {
	mu       sync.Mutex
	counters map[string]int64
	timings  []TimingMetric
}

type TimingMetric struct {
	Name     string
	Duration time.Duration
	Tags     map[string]string
	Time     time.Time
}

// NewInMemoryMetricsCollector creates a new in-memory metrics collector
func NewInMemoryMetricsCollector() *InMemoryMetricsCollector {
	return &InMemoryMetricsCollector{
		counters: make(map[string]int64),
		timings:  make([]TimingMetric, 0),
	}
}

func (m *InMemoryMetricsCollector) IncrementCounter(name string, tags map[string]string) {
	m.IncrementCounterBy(name, 1, tags)
}

func (m *InMemoryMetricsCollector) IncrementCounterBy(name string, value int64, tags map[string]string) {
	key := buildKey(name, tags)
	m.mu.Lock()
	m.counters[key] += value
	m.mu.Unlock()
}

func (m *InMemoryMetricsCollector) RecordTiming(name string, duration time.Duration, tags map[string]string) {
	metric := TimingMetric{
		Name:     name,
		Duration: duration,
		Tags:     copyTags(tags),
		Time:     time.Now(),
	}
	m.mu.Lock()
	m.timings = append(m.timings, metric)
	m.mu.Unlock()
}

func (m *InMemoryMetricsCollector) Flush() error {
	return nil
}

// GetCounterValue returns the current value of a counter
func (m *InMemoryMetricsCollector) GetCounterValue(name string, tags map[string]string) int64 {
	return m.GetCounterValueByKey(buildKey(name, tags))
}

// GetCounterValueByKey returns the counter value for a full key
func (m *InMemoryMetricsCollector) GetCounterValueByKey(key string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[key]
}

// GetAllCounterKeys returns all counter keys in sorted order
func (m *InMemoryMetricsCollector) GetAllCounterKeys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.counters))
	for key := range m.counters {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// GetTimings returns all recorded timing metrics
func (m *InMemoryMetricsCollector) GetTimings() []TimingMetric {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]TimingMetric(nil), m.timings...)
}

func buildKey(name string, tags map[string]string) string {
	if len(tags) == 0 {
		return name
	}

	// Sort tags to ensure deterministic key generation
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	key := name
	for _, k := range keys {
		key += "," + k + ":" + tags[k]
	}
	return key
}

func copyTags(tags map[string]string) map[string]string {
	if tags == nil {
		return nil
	}
	copied := make(map[string]string, len(tags))
	for k, v := range tags {
		copied[k] = v
	}
	return copied
}

// StandardObservabilityHook reports mapping calls to a MetricsCollector
type StandardObservabilityHook struct {
	metrics MetricsCollector
}

// NewStandardObservabilityHook creates a new standard observability hook
func NewStandardObservabilityHook(metrics MetricsCollector) *StandardObservabilityHook {
	if metrics == nil {
		metrics = &NoOpMetricsCollector{}
	}
	return &StandardObservabilityHook{metrics: metrics}
}

func (h *StandardObservabilityHook) OnMapStart(operation, schema string) {
	h.metrics.IncrementCounter("mapx."+operation+".started", map[string]string{"schema": schema})
}

func (h *StandardObservabilityHook) OnMapComplete(operation, schema string, duration time.Duration, err error) {
	tags := map[string]string{"schema": schema}
	if err != nil {
		tags["status"] = "error"
		tags["error_type"] = getErrorType(err)
		h.metrics.IncrementCounter("mapx."+operation+".failed", tags)
	} else {
		tags["status"] = "success"
		h.metrics.IncrementCounter("mapx."+operation+".completed", tags)
	}
	h.metrics.RecordTiming("mapx."+operation+".duration", duration, tags)
}

func (h *StandardObservabilityHook) OnFieldError(operation, schema, path string, err error) {
	h.metrics.IncrementCounter("mapx.field.errors", map[string]string{
		"operation": operation,
		"schema":    schema,
	})
}

func getErrorType(err error) string {
	switch {
	case err == nil:
		return "none"
	case IsInvalidValueError(err):
		return "invalid_value"
	case IsConfigurationError(err):
		return "configuration"
	case IsDefinitionError(err):
		return "definition"
	case IsConstructionError(err):
		return "construction"
	default:
		return "general_error"
	}
}
