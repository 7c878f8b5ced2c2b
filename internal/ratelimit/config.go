package ratelimit

// Config holds rate limiting configuration.
type Config struct {
	Enabled    bool             `mapstructure:"enabled"`
	Global     LimitConfig      `mapstructure:"global"`
	Operations []OperationLimit `mapstructure:"operations"`
}

// LimitConfig defines rate limit parameters
type LimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	BurstSize         int     `mapstructure:"burst_size"`
}

// OperationLimit defines a rate limit scoped to one repository operation
// category (as routed by routeToOperation), on top of the global limit.
type OperationLimit struct {
	Name              string  `mapstructure:"name"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	BurstSize         int     `mapstructure:"burst_size"`
}

// DefaultConfig returns the default rate limiting configuration. The
// per-operation limits are scoped to the operation categories the HTTP API
// actually routes requests into (see routeToOperation in internal/api):
// analysis and lineage traversal recurse over the whole graph so they get
// the tightest limits, vector search is cheaper but still CPU-bound, and
// writes/relationship edits are point operations so they get the most
// headroom.
func DefaultConfig() *Config {
	return &Config{
		Enabled: true,
		Global: LimitConfig{
			RequestsPerSecond: 100,
			BurstSize:         200,
		},
		Operations: []OperationLimit{
			{
				Name:              "analysis",
				RequestsPerSecond: 5,
				BurstSize:         10,
			},
			{
				Name:              "search",
				RequestsPerSecond: 20,
				BurstSize:         40,
			},
			{
				Name:              "trace",
				RequestsPerSecond: 2,
				BurstSize:         4,
			},
			{
				Name:              "store_memory",
				RequestsPerSecond: 30,
				BurstSize:         60,
			},
			{
				Name:              "relationships",
				RequestsPerSecond: 20,
				BurstSize:         40,
			},
		},
	}
}

// GetOperationLimit returns the limit configuration for a specific
// operation category. Returns nil if no specific limit is configured for it.
func (c *Config) GetOperationLimit(operation string) *OperationLimit {
	for _, op := range c.Operations {
		if op.Name == operation {
			return &op
		}
	}
	return nil
}
