package ports

import "context"

// HealthChecker verifies connectivity to a dependency.
type HealthChecker interface {
	Ping(ctx context.Context) error
	Name() string
}
