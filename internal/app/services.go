package app

import (
	"context"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/imagematch/match-api/internal/index"
	"github.com/imagematch/match-api/internal/search"
)

// initRepositories installs the global signature store and makes sure its
// index exists. A failed index creation is logged but not fatal: the engine
// may still be starting and the index will be created by the first add.
func initRepositories() {
	store := index.NewStore(viper.GetString("ELASTICSEARCH_INDEX"))
	index.ReplaceGlobals(store)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := store.EnsureIndex(ctx); err != nil {
		zap.L().Warn("Could not ensure signature index", zap.String("index", store.Index), zap.Error(err))
	}
}

func initServices() {
	var ingester *search.Ingester
	if viper.GetBool("INGESTER_ENABLED") {
		ingester = search.NewIngester(index.S())
	}

	downloader := search.NewDownloader(
		viper.GetDuration("DOWNLOAD_TIMEOUT"),
		viper.GetInt64("DOWNLOAD_MAX_BYTES"),
	)

	search.ReplaceGlobals(search.NewService(index.S(), ingester, downloader))
}

func stopServices() {
	search.S().Stop()
}
