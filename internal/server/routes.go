package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"price_simulator/pkg/httpx/reply"
	"price_simulator/pkg/logx"
	"price_simulator/pkg/middlewarex"
)

// NewRouter wires the API routes behind the logging and recovery middleware.
func NewRouter(s Server, masker logx.SensitiveDataMaskerInterface, logFieldMaxLen int) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middlewarex.TraceID,
		middlewarex.Logger,
		middlewarex.RequestLogging(masker, logFieldMaxLen),
		middlewarex.ResponseLogging(masker, logFieldMaxLen),
		middlewarex.Recovery,
	)

	s.RegisterRoutes(r)

	return r
}

func (s Server) RegisterRoutes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Route("/prices", func(r chi.Router) {
			r.Get("/latest", handler(s.getV1LatestPrices))
			r.Get("/{key}/latest", handler(s.getV1LatestPrice))
			r.Get("/{key}/history", handler(s.getV1PriceHistory))
		})

		r.Route("/simulator", func(r chi.Router) {
			r.Get("/", handler(s.getV1Simulator))
			r.Post("/start", handler(s.postV1SimulatorStart))
			r.Post("/stop", handler(s.postV1SimulatorStop))
		})
	})
}

func handler(f func(http.ResponseWriter, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := f(w, r); err != nil {
			reply.Error(r.Context(), w, err)
		}
	}
}
