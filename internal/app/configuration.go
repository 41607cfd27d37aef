package app

import (
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// ConfigPath is the toml configuration file path
var ConfigPath = "config"

// ConfigName is the toml configuration file name
var ConfigName = "match-api"

// EnvPrefix is the standard environment variable prefix
var EnvPrefix = "MATCH"

// ConfigKeyType distinguishes flag styles in the allowed key table.
type ConfigKeyType int

const (
	// StringFlag is a key configurable by file, environment or flag
	StringFlag ConfigKeyType = iota
	// StringSliceFlag is a key holding a comma-separated list of values
	StringSliceFlag
)

// ConfigKey represents a single configuration key with its default value
type ConfigKey struct {
	Type         ConfigKeyType
	Name         string
	DefaultValue interface{}
	Description  string
}

// AllowedConfigKey list every allowed configuration key
var AllowedConfigKey = [][]ConfigKey{
	{
		{Type: StringFlag, Name: "LOGGER_PRODUCTION", DefaultValue: "true", Description: "Enable or disable JSON production logging"},
		{Type: StringFlag, Name: "HTTP_SERVER_PORT", DefaultValue: "8888", Description: "HTTP server binding port"},
		{Type: StringFlag, Name: "HTTP_SERVER_API_ENABLE_CORS", DefaultValue: "false", Description: "Run the API with CORS enabled"},
		{Type: StringFlag, Name: "HTTP_SERVER_API_ENABLE_VERBOSE_ERROR", DefaultValue: "false", Description: "Run the API with verbose error"},
	},
	// Elasticsearch configuration
	{
		{Type: StringSliceFlag, Name: "ELASTICSEARCH_URLS", DefaultValue: []string{"http://localhost:9200"}, Description: "Elasticsearch URLs"},
		{Type: StringFlag, Name: "ELASTICSEARCH_INDEX", DefaultValue: "images", Description: "Elasticsearch index storing image signatures"},
		{Type: StringFlag, Name: "ELASTICSEARCH_USERNAME", DefaultValue: "", Description: "Elasticsearch basic auth username"},
		{Type: StringFlag, Name: "ELASTICSEARCH_PASSWORD", DefaultValue: "", Description: "Elasticsearch basic auth password"},
		{Type: StringFlag, Name: "ELASTICSEARCH_STARTUP_TIMEOUT", DefaultValue: "60s", Description: "How long to wait for Elasticsearch to accept connections before starting anyway"},
	},
	// Match configuration
	{
		{Type: StringFlag, Name: "AUTH_TOKEN", DefaultValue: "", Description: "Shared access token required on every route when set"},
		{Type: StringFlag, Name: "DEFAULT_MIN_SCORE", DefaultValue: "90", Description: "Default minimum similarity score for searches, in percent"},
		{Type: StringFlag, Name: "ALL_ORIENTATIONS", DefaultValue: "true", Description: "Search all 8 image orientations by default"},
		{Type: StringFlag, Name: "DOWNLOAD_TIMEOUT", DefaultValue: "30s", Description: "Timeout for fetching images by URL"},
		{Type: StringFlag, Name: "DOWNLOAD_MAX_BYTES", DefaultValue: "33554432", Description: "Maximum size of an image fetched by URL"},
		{Type: StringFlag, Name: "INGESTER_ENABLED", DefaultValue: "false", Description: "Index added images asynchronously through the background ingester"},
		{Type: StringFlag, Name: "INGESTER_QUEUE_BUFFER_SIZE", DefaultValue: "1000", Description: "Background ingester queue size"},
	},
}

// InitConfiguration loads the allowed keys from defaults, the optional toml
// configuration file and the environment, in increasing priority.
func InitConfiguration() {
	for _, group := range AllowedConfigKey {
		for _, key := range group {
			viper.SetDefault(key.Name, key.DefaultValue)
		}
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName(ConfigName)
	viper.AddConfigPath(ConfigPath)
	if err := viper.ReadInConfig(); err != nil {
		zap.L().Info("No configuration file found, using defaults and environment", zap.Error(err))
	}
}
