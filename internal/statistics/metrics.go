package statistics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/cactus/go-statsd-client/v5/statsd"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	dto "github.com/prometheus/client_model/go"
	"github.com/wal-g/tracelog"
)

type metrics struct {
	ListingPassesTotal  prometheus.Counter
	ListedKeysTotal     prometheus.Counter
	DeletedKeysTotal    prometheus.Counter
	FailedKeysTotal     prometheus.Counter
	BatchesTotal        prometheus.Counter
	FailedBatchesTotal  prometheus.Counter
	ThrottledBatchTotal prometheus.Counter

	S3Codes prometheus.GaugeVec
}

var (
	MetricsPrefix = "s3rm_"

	Metrics = metrics{
		ListingPassesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricsPrefix + "listing_passes_total",
				Help: "Number of listing passes.",
			},
		),
		ListedKeysTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricsPrefix + "listed_keys_total",
				Help: "Number of keys returned by listing passes.",
			},
		),
		DeletedKeysTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricsPrefix + "deleted_keys_total",
				Help: "Number of deleted keys.",
			},
		),
		FailedKeysTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricsPrefix + "failed_keys_total",
				Help: "Number of keys the store refused to delete.",
			},
		),
		BatchesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricsPrefix + "batches_total",
				Help: "Number of processed deletion batches.",
			},
		),
		FailedBatchesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricsPrefix + "failed_batches_total",
				Help: "Number of deletion batches whose request failed.",
			},
		),
		ThrottledBatchTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricsPrefix + "throttled_requests_total",
				Help: "Number of delete requests rejected by the store with a slow down response.",
			},
		),
		S3Codes: *prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: MetricsPrefix + "s3_response",
				Help: "S3 response codes.",
			},
			[]string{"code"},
		),
	}
)

func init() {
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prometheus.Unregister(collectors.NewGoCollector())

	prometheus.MustRegister(Metrics.ListingPassesTotal)
	prometheus.MustRegister(Metrics.ListedKeysTotal)
	prometheus.MustRegister(Metrics.DeletedKeysTotal)
	prometheus.MustRegister(Metrics.FailedKeysTotal)
	prometheus.MustRegister(Metrics.BatchesTotal)
	prometheus.MustRegister(Metrics.FailedBatchesTotal)
	prometheus.MustRegister(Metrics.ThrottledBatchTotal)
	prometheus.MustRegister(Metrics.S3Codes)
}

// PushMetrics sends every registered metric to the statsd daemon at address.
// An empty address disables the push.
func PushMetrics(address string, extraTags map[string]string) {
	if address == "" {
		return
	}

	err := pushMetrics(address, extraTags)
	if err != nil {
		tracelog.WarningLogger.Printf("Pushing metrics failed: %v", err)
	}
}

func WriteStatusCodeMetric(code int) {
	Metrics.S3Codes.WithLabelValues(strconv.Itoa(code)).Inc()
}

func pushMetrics(address string, extraTags map[string]string) error {
	config := &statsd.ClientConfig{
		Address:       address,
		UseBuffered:   true,
		FlushInterval: 10 * time.Second,
		TagFormat:     statsd.InfixComma,
	}

	client, err := statsd.NewClientWithConfig(config)
	if err != nil {
		return err
	}
	defer client.Close()

	tracelog.DebugLogger.Printf("Sending metrics to statsd at %s", address)

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return err
	}
	for _, family := range families {
		if err := writeMetricFamilyToStatsd(client, family, extraTags); err != nil {
			return err
		}
	}

	return nil
}

func writeMetricFamilyToStatsd(client statsd.Statter, in *dto.MetricFamily, extraTags map[string]string) error {
	name := in.GetName()

	for _, metric := range in.Metric {
		tags := make([]statsd.Tag, 0, len(metric.Label)+len(extraTags))
		for _, label := range metric.Label {
			tags = append(tags, statsd.Tag{label.GetName(), label.GetValue()})
		}
		for k, v := range extraTags {
			tags = append(tags, statsd.Tag{k, v})
		}

		switch in.GetType() {
		case dto.MetricType_COUNTER:
			if metric.Counter == nil {
				return fmt.Errorf("expected counter in metric %s %s", name, metric)
			}
			if err := client.Inc(name, int64(metric.Counter.GetValue()), 1.0, tags...); err != nil {
				return err
			}
		case dto.MetricType_GAUGE:
			if metric.Gauge == nil {
				return fmt.Errorf("expected gauge in metric %s %s", name, metric)
			}
			if err := client.Gauge(name, int64(metric.Gauge.GetValue()), 1.0, tags...); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unsupported type %s of metric %s", in.GetType(), name)
		}
	}

	return nil
}
