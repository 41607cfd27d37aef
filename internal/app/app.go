package app

import (
	"os"

	"github.com/imagematch/match-api/internal/metrics"
)

// Init initialize all the app configuration and components
func Init() {
	hostname, err := os.Hostname()
	if err == nil {
		metrics.InitMetricLabels(hostname)
	}

	initElasticsearch()
	initRepositories()
	initServices()
}

// Stop clean everything up before stopping the app
func Stop() {
	stopServices()
}
