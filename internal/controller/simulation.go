package controller

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/nvoss/persona-pilot/internal/api"
	"github.com/nvoss/persona-pilot/internal/resource"
)

// simulationClient is the subset of the api client the simulation controller
// uses. The orchestrator reaches the service only through this controller's
// Run primitive.
type simulationClient interface {
	RunSimulation(ctx context.Context, simulationType string, req api.SimulationRequest) (api.SimulationResponse, error)
	GetSimulationStatus(ctx context.Context, simulationID string) (api.SimulationStatus, error)
	StopSimulation(ctx context.Context, simulationID string) (api.SimulationStatus, error)
	WaitForSimulation(ctx context.Context, simulationID string, schedule api.PollSchedule) (api.SimulationStatus, error)
}

// Compile-time check that the real client satisfies the interface.
var _ simulationClient = (*api.Client)(nil)

// SimulationController tracks simulation runs issued through it.
type SimulationController struct {
	logger zerolog.Logger
	client simulationClient
	runs   *resource.Collection[api.SimulationResponse]
}

// NewSimulationController constructs a controller over the given client.
func NewSimulationController(logger zerolog.Logger, client simulationClient) *SimulationController {
	return &SimulationController{
		logger: logger,
		client: client,
		runs:   resource.NewCollection(func(r api.SimulationResponse) string { return r.SimulationID }),
	}
}

// Store exposes the run collection for subscription.
func (c *SimulationController) Store() *resource.Collection[api.SimulationResponse] {
	return c.runs
}

// Run executes one simulation and appends the confirmed run to the local
// collection. On failure the error message lands in store state and the error
// is returned to the caller.
func (c *SimulationController) Run(ctx context.Context, simulationType string, req api.SimulationRequest) (api.SimulationResponse, error) {
	token := c.runs.Begin()
	resp, err := c.client.RunSimulation(ctx, simulationType, req)
	if err != nil {
		c.runs.Fail(token, errorMessage(err))
		return api.SimulationResponse{}, err
	}
	c.runs.ResolveAppend(token, resp)

	c.logger.Debug().
		Str("simulation_id", resp.SimulationID).
		Str("type", simulationType).
		Str("status", resp.Status).
		Msg("simulation started")

	return resp, nil
}

// Status polls the remote status and patches only the status field of the
// matching local record.
func (c *SimulationController) Status(ctx context.Context, simulationID string) (api.SimulationStatus, error) {
	status, err := c.client.GetSimulationStatus(ctx, simulationID)
	if err != nil {
		return api.SimulationStatus{}, err
	}
	c.runs.Patch(simulationID, func(r *api.SimulationResponse) {
		r.Status = status.Status
	})
	return status, nil
}

// Stop asks the service to stop a run, then patches the local record. The
// local record is only touched after the remote call succeeds.
func (c *SimulationController) Stop(ctx context.Context, simulationID string) (api.SimulationStatus, error) {
	status, err := c.client.StopSimulation(ctx, simulationID)
	if err != nil {
		return api.SimulationStatus{}, err
	}
	c.runs.Patch(simulationID, func(r *api.SimulationResponse) {
		r.Status = status.Status
	})
	return status, nil
}

// Wait blocks until the run reaches a terminal state, then patches the local
// record with the final status.
func (c *SimulationController) Wait(ctx context.Context, simulationID string, schedule api.PollSchedule) (api.SimulationStatus, error) {
	status, err := c.client.WaitForSimulation(ctx, simulationID, schedule)
	if err != nil {
		return status, err
	}
	c.runs.Patch(simulationID, func(r *api.SimulationResponse) {
		r.Status = status.Status
	})
	return status, nil
}
