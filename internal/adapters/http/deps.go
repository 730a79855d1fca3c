package http

import (
	"github.com/nats-io/nats.go"

	"github.com/routepulse/routepulse/internal/adapters/excel"
	"github.com/routepulse/routepulse/internal/adapters/valkey"
	"github.com/routepulse/routepulse/internal/core/domain"
	"github.com/routepulse/routepulse/internal/core/ports"
	"github.com/routepulse/routepulse/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Simulator *usecases.SimulationService
	Analyzer  *usecases.AnalysisService
	Geocoder  ports.Geocoder
	Workbooks *excel.Processor
	Events    ports.EventPublisher
	NATS      *nats.Conn
	Cache     *valkey.Cache

	// Thresholds are the analyzer defaults from config, overridable per
	// request.
	Thresholds domain.Thresholds
}
