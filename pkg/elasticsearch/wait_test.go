package elasticsearch

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitForReachable(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	url := fmt.Sprintf("http://%s", listener.Addr().String())
	err = WaitForReachable(context.Background(), []string{url}, 5*time.Second)
	assert.NoError(t, err)
}

func TestWaitForReachableTimesOut(t *testing.T) {
	// reserve a port and close it so nothing listens there
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	url := fmt.Sprintf("http://%s", listener.Addr().String())
	listener.Close()

	start := time.Now()
	err = WaitForReachable(context.Background(), []string{url}, 1500*time.Millisecond)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestWaitForReachableNoURLs(t *testing.T) {
	err := WaitForReachable(context.Background(), nil, time.Second)
	assert.Error(t, err)
}

func TestHostPort(t *testing.T) {
	addr, err := hostPort("http://elasticsearch:9200")
	require.NoError(t, err)
	assert.Equal(t, "elasticsearch:9200", addr)

	addr, err = hostPort("https://search.example.com")
	require.NoError(t, err)
	assert.Equal(t, "search.example.com:9200", addr)

	_, err = hostPort("not a url")
	assert.Error(t, err)
}
