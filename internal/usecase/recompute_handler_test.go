package usecase

import (
	"context"
	"errors"
	"testing"

	"QuantPanel/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecomputeHandlerRunsAndPublishes(t *testing.T) {
	loader := &fakeLoader{n: 400}
	uc, m, p := newUseCase(loader)
	h := NewRecomputeHandler("indicator.recompute", uc, m)
	assert.Equal(t, "indicator.recompute", h.Topic())

	err := h.Handle(context.Background(), []byte(`{"symbol":"AAPL","tf":"1d","period":"2y","windows":"20,50","z":60,"k":14}`))
	require.NoError(t, err)
	require.Len(t, p.snaps, 1)
	assert.Equal(t, "AAPL", p.snaps[0].Symbol)
	assert.Equal(t, models.StateOK, p.snaps[0].State)
	assert.Equal(t, models.Period2y, loader.calls[0].Range.Period)
}

func TestRecomputeHandlerAppliesDefaults(t *testing.T) {
	loader := &fakeLoader{n: 600}
	uc, m, _ := newUseCase(loader)
	h := NewRecomputeHandler("t", uc, m)

	require.NoError(t, h.Handle(context.Background(), []byte(`{"symbol":"AAPL"}`)))
	require.Len(t, loader.calls, 1)
	assert.Equal(t, models.TF1d, loader.calls[0].Timeframe)
	assert.Equal(t, models.Period5y, loader.calls[0].Range.Period)
}

func TestRecomputeHandlerDropsInvalid(t *testing.T) {
	loader := &fakeLoader{n: 400}
	uc, m, p := newUseCase(loader)
	h := NewRecomputeHandler("t", uc, m)

	assert.Error(t, h.Handle(context.Background(), []byte(`{not json`)))
	assert.NoError(t, h.Handle(context.Background(), []byte(`{"tf":"1d"}`)), "missing symbol is dropped")
	assert.NoError(t, h.Handle(context.Background(), []byte(`{"symbol":"AAPL","tf":"2h"}`)))
	assert.Empty(t, loader.calls)
	assert.Empty(t, p.snaps)
	assert.Contains(t, m.errors, "consumer_unmarshal")
	assert.Contains(t, m.errors, "consumer_invalid")
}

func TestRecomputeHandlerRetriesLoadFailures(t *testing.T) {
	uc, m, _ := newUseCase(&fakeLoader{err: errors.New("timeout")})
	h := NewRecomputeHandler("t", uc, m)

	err := h.Handle(context.Background(), []byte(`{"symbol":"AAPL"}`))
	assert.Error(t, err)
}
