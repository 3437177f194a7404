package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	BuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "fieldline", Name: "documents_built_total", Help: "Number of documents successfully built, by model."},
		[]string{"model"},
	)
	BuildFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "fieldline", Name: "build_failures_total", Help: "Number of builds rejected by field validation, by model."},
		[]string{"model"},
	)
	PopulateFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "fieldline", Name: "populate_fetches_total", Help: "Number of single-document fetches issued during populate resolution, by model."},
		[]string{"model"},
	)
	VirtualQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "fieldline", Name: "virtual_queries_total", Help: "Number of reverse-relationship queries issued during virtual resolution, by model."},
		[]string{"model"},
	)
	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "fieldline", Name: "document_cache_hits_total", Help: "Number of document cache hits, by model."},
		[]string{"model"},
	)
	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "fieldline", Name: "document_cache_misses_total", Help: "Number of document cache misses, by model."},
		[]string{"model"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(BuildsTotal)
	reg.MustRegister(BuildFailures)
	reg.MustRegister(PopulateFetches)
	reg.MustRegister(VirtualQueries)
	reg.MustRegister(CacheHits)
	reg.MustRegister(CacheMisses)
}
