package models

import (
	"math"
	"strconv"
)

// NA is the text written for a metric that does not apply.
const NA = "NA"

// Metric is one named scalar of a MetricTable.
type Metric struct {
	Name  string
	Value float64

	// NA marks the metric as not applicable; Value is ignored.
	NA bool
}

// Format renders the value like printf %g, with "NA" for inapplicable
// metrics and inf/-inf/nan for non-finite values.
func (m Metric) Format() string {
	switch {
	case m.NA:
		return NA
	case math.IsNaN(m.Value):
		return "nan"
	case math.IsInf(m.Value, 1):
		return "inf"
	case math.IsInf(m.Value, -1):
		return "-inf"
	}
	return strconv.FormatFloat(m.Value, 'g', 6, 64)
}

// MetricTable is an insertion-ordered map from metric name to value.
type MetricTable struct {
	metrics []Metric
	index   map[string]int
}

// NewMetricTable creates an empty table.
func NewMetricTable() *MetricTable {
	return &MetricTable{index: make(map[string]int)}
}

func (t *MetricTable) put(m Metric) {
	if i, ok := t.index[m.Name]; ok {
		t.metrics[i] = m
		return
	}
	t.index[m.Name] = len(t.metrics)
	t.metrics = append(t.metrics, m)
}

// Set stores a value, keeping the position of an existing name.
func (t *MetricTable) Set(name string, value float64) {
	t.put(Metric{Name: name, Value: value})
}

// SetNA marks name as not applicable.
func (t *MetricTable) SetNA(name string) {
	t.put(Metric{Name: name, NA: true})
}

// Get looks up a metric by name.
func (t *MetricTable) Get(name string) (Metric, bool) {
	i, ok := t.index[name]
	if !ok {
		return Metric{}, false
	}
	return t.metrics[i], true
}

// Metrics returns the metrics in insertion order.
func (t *MetricTable) Metrics() []Metric {
	out := make([]Metric, len(t.metrics))
	copy(out, t.metrics)
	return out
}

// Names returns the metric names in insertion order.
func (t *MetricTable) Names() []string {
	names := make([]string, len(t.metrics))
	for i, m := range t.metrics {
		names[i] = m.Name
	}
	return names
}

// Len is the number of metrics.
func (t *MetricTable) Len() int { return len(t.metrics) }

// AllNA reports whether every metric is not applicable.
func (t *MetricTable) AllNA() bool {
	for _, m := range t.metrics {
		if !m.NA {
			return false
		}
	}
	return true
}
