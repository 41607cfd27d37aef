package app

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestInitConfigurationDefaults(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	InitConfiguration()

	assert.Equal(t, 8888, viper.GetInt("HTTP_SERVER_PORT"))
	assert.Equal(t, []string{"http://localhost:9200"}, viper.GetStringSlice("ELASTICSEARCH_URLS"))
	assert.Equal(t, "images", viper.GetString("ELASTICSEARCH_INDEX"))
	assert.Equal(t, 60*time.Second, viper.GetDuration("ELASTICSEARCH_STARTUP_TIMEOUT"))
	assert.Equal(t, 90.0, viper.GetFloat64("DEFAULT_MIN_SCORE"))
	assert.True(t, viper.GetBool("ALL_ORIENTATIONS"))
	assert.False(t, viper.GetBool("INGESTER_ENABLED"))
	assert.Equal(t, "", viper.GetString("AUTH_TOKEN"))
}

func TestInitConfigurationEnvOverride(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	t.Setenv("MATCH_HTTP_SERVER_PORT", "9999")
	t.Setenv("MATCH_AUTH_TOKEN", "secret")

	InitConfiguration()

	assert.Equal(t, 9999, viper.GetInt("HTTP_SERVER_PORT"))
	assert.Equal(t, "secret", viper.GetString("AUTH_TOKEN"))
}
