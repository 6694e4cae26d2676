package server

import (
	"context"
	"testing"
	"time"

	"QuantPanel/pkg/config"
	xhttp "QuantPanel/pkg/http"

	"github.com/stretchr/testify/require"
)

func TestRunStopsOnContextCancel(t *testing.T) {
	cfg, err := config.Parse(nil)
	require.NoError(t, err)

	srv := xhttp.NewServer(nil, xhttp.WithHost("127.0.0.1"), xhttp.WithPort(0), xhttp.WithMetricsPath(""))
	app := New(cfg, nil, srv, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}
