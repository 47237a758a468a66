// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package metrics declares the Prometheus collectors exported by callvault.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CrawlRecords counts metadata records kept by object-store crawls.
	CrawlRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "callvault_crawl_records_total",
		Help: "Metadata records kept by object-store crawls",
	}, []string{"opco"})

	// CrawlObjects counts metadata objects visited, by outcome.
	CrawlObjects = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "callvault_crawl_objects_total",
		Help: "Metadata objects fetched during crawls",
	}, []string{"opco", "result"})

	crawlDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "callvault_crawl_duration_seconds",
		Help:    "Duration of object-store crawls",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms to ~100s
	}, []string{"opco", "outcome"})

	cacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "callvault_session_cache_requests_total",
		Help: "Session cache lookups by tier and result",
	}, []string{"tier", "result"})

	cacheEvictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "callvault_session_cache_evictions_total",
		Help: "Session cache entries removed, by tier and reason",
	}, []string{"tier", "reason"})

	// SessionRecordsHeld reports raw records currently held by cached crawls.
	SessionRecordsHeld = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "callvault_session_records_held",
		Help: "Raw metadata records currently held in the session cache",
	})

	transcodeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "callvault_transcode_duration_seconds",
		Help:    "Duration of WAV to MP3 transcodes",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	}, []string{"outcome"})

	// TranscodeInFlight reports transcodes currently holding a slot.
	TranscodeInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "callvault_transcode_in_flight",
		Help: "Transcodes currently running",
	})

	transcodeBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "callvault_transcode_bytes_total",
		Help: "Bytes read and produced by the transcoder",
	}, []string{"direction"})

	archiveItems = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "callvault_archive_items_total",
		Help: "Archive entries by outcome",
	}, []string{"outcome"})

	objectStoreOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "callvault_objectstore_operations_total",
		Help: "Object store operations by operation and result",
	}, []string{"op", "result"})

	objectStoreLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "callvault_objectstore_operation_duration_seconds",
		Help:    "Object store operation latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	procTerminate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "callvault_proc_terminate_total",
		Help: "Signals sent to encoder process groups",
	}, []string{"signal", "result"})

	procWait = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "callvault_proc_wait_total",
		Help: "Encoder process exits observed after termination",
	}, []string{"result"})
)

// ObserveCrawl records a completed crawl.
func ObserveCrawl(opco, outcome string, d time.Duration) {
	crawlDuration.WithLabelValues(opco, outcome).Observe(d.Seconds())
}

// IncCacheLookup records a session cache lookup.
func IncCacheLookup(tier string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheRequests.WithLabelValues(tier, result).Inc()
}

// IncCacheEviction records an entry leaving a session cache tier.
func IncCacheEviction(tier, reason string) {
	cacheEvictions.WithLabelValues(tier, reason).Inc()
}

// ObserveTranscode records a transcode with its input and output sizes.
func ObserveTranscode(outcome string, d time.Duration, in, out int) {
	transcodeDuration.WithLabelValues(outcome).Observe(d.Seconds())
	transcodeBytes.WithLabelValues("input").Add(float64(in))
	transcodeBytes.WithLabelValues("output").Add(float64(out))
}

// IncArchiveItem records one archive entry outcome.
func IncArchiveItem(outcome string) {
	archiveItems.WithLabelValues(outcome).Inc()
}

// ObserveObjectStore records one object-store call.
func ObserveObjectStore(op string, err error, d time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	objectStoreOps.WithLabelValues(op, result).Inc()
	objectStoreLatency.WithLabelValues(op).Observe(d.Seconds())
}

// IncProcTerminate records a signal sent to a process group.
func IncProcTerminate(signal, result string) {
	procTerminate.WithLabelValues(signal, result).Inc()
}

// IncProcWait records how a terminated process exited.
func IncProcWait(result string) {
	procWait.WithLabelValues(result).Inc()
}
