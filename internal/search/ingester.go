package search

import (
	"context"
	"errors"
	"time"

	stdprometheus "github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/imagematch/match-api/internal/index"
	"github.com/imagematch/match-api/internal/metrics"
)

// ErrQueueFull is returned by Ingest when the buffered channel cannot take
// another record.
var ErrQueueFull = errors.New("channel overload")

// Ingester is a component which indexes signature records in the background,
// decoupling HTTP adds from Elasticsearch round-trips.
type Ingester struct {
	store            *index.Store
	data             chan index.Record
	done             chan struct{}
	metricQueueGauge *stdprometheus.Gauge
	running          bool
}

var (
	_ingesterQueueGauge    = _newRegisteredGauge()
	_ingesterIndexedImages = _newRegisteredCounter()
)

func _newRegisteredGauge() *stdprometheus.Gauge {
	var gauge = stdprometheus.NewGauge(stdprometheus.GaugeOpts{
		Namespace:   metrics.MetricNamespace,
		ConstLabels: metrics.MetricPrometheusLabels,
		Name:        "ingester_queue",
		Help:        "number of signature records waiting to be indexed",
	})

	// Register metrics
	stdprometheus.MustRegister(gauge)
	gauge.Set(0)

	return &gauge
}

func _newRegisteredCounter() stdprometheus.Counter {
	counter := stdprometheus.NewCounter(stdprometheus.CounterOpts{
		Namespace:   metrics.MetricNamespace,
		ConstLabels: metrics.MetricPrometheusLabels,
		Name:        "ingester_indexed_images_total",
		Help:        "number of images indexed through the background ingester",
	})
	stdprometheus.MustRegister(counter)
	return counter
}

// NewIngester returns a pointer to a new Ingester instance.
func NewIngester(store *index.Store) *Ingester {
	return &Ingester{
		store:            store,
		data:             make(chan index.Record, viper.GetInt("INGESTER_QUEUE_BUFFER_SIZE")),
		done:             make(chan struct{}),
		metricQueueGauge: _ingesterQueueGauge,
	}
}

// Run is the main routine of an Ingester instance.
func (i *Ingester) Run() {
	zap.L().Info("Starting Ingester")

	for record := range i.data {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		_, err := i.store.Add(ctx, record)
		cancel()
		if err != nil {
			zap.L().Error("Ingester: could not index record", zap.String("path", record.Path), zap.Error(err))
		} else {
			_ingesterIndexedImages.Inc()
		}

		// Update queue gauge
		(*i.metricQueueGauge).Set(float64(len(i.data)))
	}

	close(i.done)
}

// Ingest queues a signature record for background indexing.
func (i *Ingester) Ingest(record index.Record) error {
	dataLen := len(i.data)

	// Start ingester if not running
	if !i.running {
		go i.Run()
		i.running = true
	}

	// Check for channel overloading
	if dataLen+1 >= cap(i.data) {
		zap.L().Debug("Buffered channel would be overloaded with incoming record")
		(*i.metricQueueGauge).Set(float64(dataLen))
		return ErrQueueFull
	}

	i.data <- record
	return nil
}

// Stop closes the intake and waits for queued records to be flushed.
func (i *Ingester) Stop() {
	close(i.data)
	if i.running {
		<-i.done
	}
}
