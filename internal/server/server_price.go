package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"price_simulator/internal/domain/entity"
	"price_simulator/pkg/httpx/reply"
	"price_simulator/pkg/httpx/req"
)

type priceService interface {
	LatestAll(ctx context.Context) ([]entity.PriceSample, error)
	Latest(ctx context.Context, key string) (entity.PriceSample, error)
	History(ctx context.Context, key string, q entity.HistoryQuery) ([]entity.PriceSample, error)
}

type PriceServer struct {
	priceService priceService
}

func NewPriceServer(priceService priceService) PriceServer {
	return PriceServer{
		priceService: priceService,
	}
}

type historyParams struct {
	Limit int `validate:"gte=0"`
}

func (s PriceServer) getV1LatestPrices(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	samples, err := s.priceService.LatestAll(ctx)
	if err != nil {
		return fmt.Errorf("priceService.LatestAll: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTPriceSamples(samples))

	return nil
}

func (s PriceServer) getV1LatestPrice(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	sample, err := s.priceService.Latest(ctx, chi.URLParam(r, "key"))
	if err != nil {
		return fmt.Errorf("priceService.Latest: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTPriceSample(sample))

	return nil
}

func (s PriceServer) getV1PriceHistory(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	start, err := req.QueryTime(r, "start")
	if err != nil {
		return fmt.Errorf("req.QueryTime: %w", err)
	}

	end, err := req.QueryTime(r, "end")
	if err != nil {
		return fmt.Errorf("req.QueryTime: %w", err)
	}

	limit, err := req.QueryInt(r, "limit", 0)
	if err != nil {
		return fmt.Errorf("req.QueryInt: %w", err)
	}

	if err := req.Validate(ctx, historyParams{Limit: limit}); err != nil {
		return fmt.Errorf("req.Validate: %w", err)
	}

	samples, err := s.priceService.History(ctx, chi.URLParam(r, "key"), entity.HistoryQuery{
		Start: start,
		End:   end,
		Limit: limit,
	})
	if err != nil {
		return fmt.Errorf("priceService.History: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTPriceSamples(samples))

	return nil
}
