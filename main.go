package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/imagematch/match-api/internal/app"
	"github.com/imagematch/match-api/internal/router"
)

var (
	// Version is the binary version (tag) + build number (CI pipeline)
	Version string
	// BuildDate is the date of build
	BuildDate string
)

func main() {
	app.InitConfiguration()
	app.InitLogger(viper.GetBool("LOGGER_PRODUCTION"))

	zap.L().Info("Starting match-api", zap.String("version", Version), zap.String("build_date", BuildDate))
	app.Init()
	defer app.Stop()

	serverPort := viper.GetInt("HTTP_SERVER_PORT")
	apiEnableCORS := viper.GetBool("HTTP_SERVER_API_ENABLE_CORS")
	authToken := viper.GetString("AUTH_TOKEN")

	if authToken == "" {
		zap.L().Info("Warning: API starting in unsecured mode, be sure to set AUTH_TOKEN in production")
	}

	r := router.NewChiRouter(router.Config{
		AuthToken:  authToken,
		EnableCORS: apiEnableCORS,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", serverPort),
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("Server listen", zap.Error(err))
		}
	}()
	zap.L().Info("Server Started", zap.String("addr", srv.Addr))

	<-done

	ctxShutDown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutDown); err != nil {
		zap.L().Fatal("Server shutdown failed", zap.Error(err))
	}
	zap.L().Info("Server shutdown")
}
