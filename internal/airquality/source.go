package airquality

import "context"

// SensorSource abstracts where sensor readings come from (the in-process
// store or a remote sensor server).
type SensorSource interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}

// PopulationSource supplies population-density grids.
type PopulationSource interface {
	// Sample returns an n x n grid and the id of the dataset it was drawn from.
	Sample(ctx context.Context, n int) (Grid, string, error)
}
