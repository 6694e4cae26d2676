package repository

import (
	"context"
	"testing"

	"QuantPanel/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProducer struct {
	topic  string
	key    []byte
	value  interface{}
	closed bool
}

func (f *fakeProducer) Publish(_ context.Context, topic string, key []byte, value interface{}) error {
	f.topic, f.key, f.value = topic, key, value
	return nil
}

func (f *fakeProducer) Close() error {
	f.closed = true
	return nil
}

func TestKafkaSnapshotPublisher(t *testing.T) {
	fp := &fakeProducer{}
	p := NewKafkaSnapshotPublisher(fp, "indicator.snapshots")

	snap := models.Snapshot{Symbol: "AAPL", State: models.StateOK, Rows: 10}
	require.NoError(t, p.PublishSnapshot(context.Background(), snap))
	assert.Equal(t, "indicator.snapshots", fp.topic)
	assert.Equal(t, []byte("AAPL"), fp.key)
	assert.Equal(t, snap, fp.value)

	require.NoError(t, p.Close())
	assert.True(t, fp.closed)
}
