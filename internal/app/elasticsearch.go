package app

import (
	"context"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/imagematch/match-api/pkg/elasticsearch"
)

// initElasticsearch waits for the search engine to accept connections, then
// installs the global client. The wait is bounded: after the startup timeout
// the client is installed anyway and requests fail until the engine recovers,
// which is the behavior supervisors restarting both processes expect.
func initElasticsearch() {
	urls := viper.GetStringSlice("ELASTICSEARCH_URLS")
	timeout := viper.GetDuration("ELASTICSEARCH_STARTUP_TIMEOUT")

	if err := elasticsearch.WaitForReachable(context.Background(), urls, timeout); err != nil {
		zap.L().Warn("Elasticsearch still unreachable, starting anyway", zap.Strings("urls", urls), zap.Error(err))
	}

	_, err := elasticsearch.ReplaceGlobals(elasticsearch.Config{
		URLs: urls,
		Auth: elasticsearch.Credentials{
			Username: viper.GetString("ELASTICSEARCH_USERNAME"),
			Password: viper.GetString("ELASTICSEARCH_PASSWORD"),
		},
	})
	if err != nil {
		zap.L().Fatal("Could not init elasticsearch client", zap.Strings("urls", urls), zap.Error(err))
	}
}
