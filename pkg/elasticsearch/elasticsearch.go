package elasticsearch

import (
	"sync"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
)

var (
	_globalMu sync.RWMutex
	_globalC  *elasticsearch.TypedClient
)

// Credentials carries the optional basic auth pair of an Elasticsearch cluster.
type Credentials struct {
	Username string
	Password string
}

// Config wraps the connection settings of the global Elasticsearch client.
type Config struct {
	URLs []string
	Auth Credentials
}

// C returns the global Elasticsearch client previously installed with ReplaceGlobals.
func C() *elasticsearch.TypedClient {
	_globalMu.RLock()
	defer _globalMu.RUnlock()
	return _globalC
}

// ReplaceGlobals builds a typed client from the given configuration and installs
// it as the global client, returning a function to restore the previous one.
func ReplaceGlobals(config Config) (func(), error) {
	client, err := elasticsearch.NewTypedClient(elasticsearch.Config{
		Addresses:     config.URLs,
		Username:      config.Auth.Username,
		Password:      config.Auth.Password,
		MaxRetries:    10,
		RetryOnStatus: []int{502, 503, 504, 429},
		RetryBackoff: func(i int) time.Duration {
			return time.Duration(i) * 100 * time.Millisecond
		},
	})
	if err != nil {
		return nil, err
	}

	_globalMu.Lock()
	defer _globalMu.Unlock()
	prev := _globalC
	_globalC = client
	return func() { ReplaceClient(prev) }, nil
}

// ReplaceClient installs an already built client as the global client.
// It is mainly used by tests to inject a client backed by a fake transport.
func ReplaceClient(client *elasticsearch.TypedClient) func() {
	_globalMu.Lock()
	defer _globalMu.Unlock()
	prev := _globalC
	_globalC = client
	return func() { ReplaceClient(prev) }
}
