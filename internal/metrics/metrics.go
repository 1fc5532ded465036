// Package metrics provides Prometheus counters for parsing and citation scans.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the lectern counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	DocumentsParsedTotal   *prometheus.CounterVec
	NodesParsedTotal       *prometheus.CounterVec
	CitationMatchesTotal   prometheus.Counter
	PatternWarningsTotal   prometheus.Counter
	AliasCacheLookupsTotal *prometheus.CounterVec
}

// New creates the counters and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		DocumentsParsedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lectern_documents_parsed_total",
				Help: "Total number of documents parsed",
			},
			[]string{"source_type"},
		),
		NodesParsedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lectern_nodes_parsed_total",
				Help: "Total number of nodes emitted by the parser",
			},
			[]string{"kind"},
		),
		CitationMatchesTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "lectern_citation_matches_total",
				Help: "Total number of accepted citation matches",
			},
		),
		PatternWarningsTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "lectern_alias_pattern_warnings_total",
				Help: "Total number of alias patterns skipped during scans",
			},
		),
		AliasCacheLookupsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lectern_alias_cache_total",
				Help: "Alias cache lookups by result",
			},
			[]string{"result"},
		),
	}
}

// RecordParse records one parse of a document.
func (m *Metrics) RecordParse(sourceType string, structural, citable int) {
	if m == nil {
		return
	}
	m.DocumentsParsedTotal.WithLabelValues(sourceType).Inc()
	m.NodesParsedTotal.WithLabelValues("structural").Add(float64(structural))
	m.NodesParsedTotal.WithLabelValues("citable").Add(float64(citable))
}

// RecordScan records the outcome of one citation scan.
func (m *Metrics) RecordScan(matches, warnings int) {
	if m == nil {
		return
	}
	m.CitationMatchesTotal.Add(float64(matches))
	m.PatternWarningsTotal.Add(float64(warnings))
}

// RecordCache records an alias cache hit or miss.
func (m *Metrics) RecordCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.AliasCacheLookupsTotal.WithLabelValues(result).Inc()
}
