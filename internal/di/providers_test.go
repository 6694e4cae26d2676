package di

import (
	"testing"

	"QuantPanel/internal/service/cache"
	"QuantPanel/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, doc string) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(doc))
	require.NoError(t, err)
	return cfg
}

func TestInitializeAppDefaults(t *testing.T) {
	cfg := testConfig(t, "logging:\n  output: stderr\n")

	app, cleanup, err := InitializeApp(cfg)
	require.NoError(t, err)
	require.NotNil(t, app)
	cleanup()
}

func TestOptionalInfrastructureIsNil(t *testing.T) {
	cfg := testConfig(t, "")

	producer, cleanup, err := ProvideKafkaProducer(cfg)
	require.NoError(t, err)
	assert.Nil(t, producer)
	cleanup()

	ch, cleanup, err := ProvideClickHouseClient(cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, ch)
	cleanup()

	r, cleanup, err := ProvideRedisCache(cfg)
	require.NoError(t, err)
	assert.Nil(t, r)
	cleanup()

	assert.Nil(t, ProvideSnapshotPublisher(cfg, nil))

	consumer, err := ProvideKafkaConsumer(cfg, nil, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, consumer)
}

func TestProvidePriceLoaderWrapsCache(t *testing.T) {
	cfg := testConfig(t, "")
	loader, err := ProvidePriceLoader(cfg, nil, nil, nil, nil)
	require.NoError(t, err)
	_, cached := loader.(*cache.CachedLoader)
	assert.True(t, cached)
	assert.Equal(t, "yahoo", loader.Name())

	cfg = testConfig(t, "cache:\n  enabled: false\n")
	loader, err = ProvidePriceLoader(cfg, nil, nil, nil, nil)
	require.NoError(t, err)
	_, cached = loader.(*cache.CachedLoader)
	assert.False(t, cached)
}

func TestProvidePriceLoaderClickHouseNeedsClient(t *testing.T) {
	cfg := testConfig(t, "loader:\n  source: clickhouse\nclickhouse:\n  host: ch\n")
	_, err := ProvidePriceLoader(cfg, nil, nil, nil, nil)
	assert.Error(t, err)
}

func TestProvideRateLimiter(t *testing.T) {
	assert.NotNil(t, ProvideRateLimiter(testConfig(t, "")))
	assert.Nil(t, ProvideRateLimiter(testConfig(t, "rate_limit:\n  capacity: 0\n")))
}
