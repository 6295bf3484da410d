package server

import (
	"github.com/samber/lo"

	"price_simulator/internal/domain/entity"
	"price_simulator/internal/worker"
	"price_simulator/pkg/rest"
)

func newRESTPriceSample(sample entity.PriceSample) rest.PriceSample {
	return rest.PriceSample{
		Name:  sample.Key.String(),
		Time:  sample.Timestamp.UTC(),
		Value: sample.Value,
	}
}

func newRESTPriceSamples(samples []entity.PriceSample) []rest.PriceSample {
	return lo.Map(samples, func(sample entity.PriceSample, _ int) rest.PriceSample {
		return newRESTPriceSample(sample)
	})
}

func newRESTSimulatorStatus(s simulator) rest.SimulatorStatus {
	state := s.State()

	return rest.SimulatorStatus{
		State:   state.String(),
		Running: state == worker.StateRunning,
		Ticks:   s.Ticks(),
	}
}
