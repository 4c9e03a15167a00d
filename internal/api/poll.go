package api

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// PollSchedule controls the interval between status polls.
type PollSchedule struct {
	Initial    time.Duration
	Max        time.Duration
	MaxElapsed time.Duration // zero means poll until the context ends
}

// DefaultPollSchedule is used when WaitForSimulation is given a zero schedule.
var DefaultPollSchedule = PollSchedule{
	Initial: 2 * time.Second,
	Max:     15 * time.Second,
}

// WaitForSimulation polls a simulation's status until it reaches a terminal
// state. Poll intervals grow exponentially up to the schedule's Max. Errors
// from the status endpoint are returned immediately; polling cadence is not a
// failure-retry mechanism.
func (c *Client) WaitForSimulation(ctx context.Context, simulationID string, schedule PollSchedule) (SimulationStatus, error) {
	if schedule.Initial <= 0 {
		schedule = DefaultPollSchedule
	}

	wait := backoff.NewExponentialBackOff()
	wait.InitialInterval = schedule.Initial
	wait.MaxInterval = schedule.Max
	wait.MaxElapsedTime = schedule.MaxElapsed
	wait.Reset()

	for {
		status, err := c.GetSimulationStatus(ctx, simulationID)
		if err != nil {
			return SimulationStatus{}, err
		}

		switch status.Status {
		case SimulationCompleted, SimulationFailed, SimulationStopped:
			return status, nil
		}

		c.logger.Debug().
			Str("simulation_id", simulationID).
			Str("status", status.Status).
			Float64("progress", status.Progress).
			Msg("simulation still running")

		next := wait.NextBackOff()
		if next == backoff.Stop {
			return status, fmt.Errorf("simulation %s did not finish within %s", simulationID, schedule.MaxElapsed)
		}

		timer := time.NewTimer(next)
		select {
		case <-ctx.Done():
			timer.Stop()
			return status, ctx.Err()
		case <-timer.C:
		}
	}
}
