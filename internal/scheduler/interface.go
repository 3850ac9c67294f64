package scheduler

import "context"

//go:generate mockgen -destination=mocks/mock_runner.go -package=mocks github.com/mattjoyce/mosaic/internal/scheduler Runner

// Runner executes widget work on behalf of the scheduler. The dashboard
// implements it over live catalog instances.
type Runner interface {
	Update(ctx context.Context, name string) error
	Render(ctx context.Context, name string) (string, error)
}
