package server

// Server groups the HTTP handlers of each resource.
type Server struct {
	PriceServer
	SimulatorServer
}

func NewServer(
	priceServer PriceServer,
	simulatorServer SimulatorServer,
) Server {
	return Server{
		PriceServer:     priceServer,
		SimulatorServer: simulatorServer,
	}
}
