package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"QuantPanel/internal/domain/models"
	domrepo "QuantPanel/internal/domain/repository"
	pkghttp "QuantPanel/pkg/http"
	pkgkafka "QuantPanel/pkg/kafka"
)

// RecomputeHandler consumes recompute requests and runs the indicator use
// case for each one. The use case publishes the resulting snapshot.
type RecomputeHandler struct {
	topic   string
	uc      *IndicatorUseCase
	metrics domrepo.Metrics
}

func NewRecomputeHandler(topic string, uc *IndicatorUseCase, metrics domrepo.Metrics) *RecomputeHandler {
	return &RecomputeHandler{topic: topic, uc: uc, metrics: metrics}
}

func (h *RecomputeHandler) Topic() string { return h.topic }

// incoming message schema mirrors the query parameters of GET /api/indicator:
// {symbol, tf, period, start, end, windows, z, k}
func (h *RecomputeHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Symbol  string `json:"symbol"`
		TF      string `json:"tf"`
		Period  string `json:"period"`
		Start   string `json:"start"`
		End     string `json:"end"`
		Windows string `json:"windows"`
		Z       int    `json:"z"`
		K       int    `json:"k"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}

	req := models.IndicatorRequest{
		Symbol:    m.Symbol,
		TF:        m.TF,
		Period:    m.Period,
		Start:     m.Start,
		End:       m.End,
		Windows:   m.Windows,
		ZLookback: m.Z,
		KLookback: m.K,
	}
	// invalid requests are not retryable, drop them
	if verrs := pkghttp.DefaultAndValidate(ctx, &req); verrs != nil {
		h.metrics.RecordError("consumer_invalid")
		return nil
	}
	params, err := ParamsFromRequest(req)
	if err != nil {
		h.metrics.RecordError("consumer_invalid")
		return nil
	}
	out, err := h.uc.Run(ctx, params)
	if err != nil {
		return err
	}
	if out.State == models.StateLoadFailure {
		return fmt.Errorf("recompute %s: %s", out.Config.Symbol, out.Message)
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*RecomputeHandler)(nil)
