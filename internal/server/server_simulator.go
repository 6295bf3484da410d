package server

import (
	"context"
	"fmt"
	"net/http"

	"price_simulator/internal/worker"
	"price_simulator/pkg/httpx/reply"
)

type simulator interface {
	Start(ctx context.Context) error
	Stop()
	State() worker.State
	Ticks() uint64
}

type SimulatorServer struct {
	simulator simulator
}

func NewSimulatorServer(simulator simulator) SimulatorServer {
	return SimulatorServer{
		simulator: simulator,
	}
}

func (s SimulatorServer) getV1Simulator(w http.ResponseWriter, r *http.Request) error {
	reply.JSON(r.Context(), w, http.StatusOK, newRESTSimulatorStatus(s.simulator))

	return nil
}

func (s SimulatorServer) postV1SimulatorStart(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	if err := s.simulator.Start(ctx); err != nil {
		return fmt.Errorf("simulator.Start: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTSimulatorStatus(s.simulator))

	return nil
}

func (s SimulatorServer) postV1SimulatorStop(w http.ResponseWriter, r *http.Request) error {
	s.simulator.Stop()

	reply.JSON(r.Context(), w, http.StatusOK, newRESTSimulatorStatus(s.simulator))

	return nil
}
