package ping

import (
	"time"

	"github.com/docker/docker/api/types/container"
)

// Style selects how metric values are delimited in the rendered message.
type Style string

const (
	StyleMarkdown Style = "markdown"
	StyleHTML     Style = "html"
)

// Fixture carries documents that were already fetched or recorded. When set,
// no request is made to the runtime.
type Fixture struct {
	Inspect *container.InspectResponse
	Stats   *container.StatsResponse
}

// Usage holds the numeric values derived from one inspect/stats pair.
type Usage struct {
	StartedAt  time.Time
	Uptime     time.Duration
	CPUPercent float64
	Memory     uint64
	NetworkRx  uint64
	NetworkTx  uint64
	BlockRead  uint64
	BlockWrite uint64
	// false when no entry of that kind was reported
	HasBlockRead  bool
	HasBlockWrite bool
}

// Metrics is Usage formatted for display.
type Metrics struct {
	Uptime    string
	StartedAt string
	CPU       string
	Memory    string
	NetworkRx string
	NetworkTx string
	IORead    string
	IOWrite   string
}

// collection is the outcome of the fetch and derive stage. Exactly one of
// metrics or err is meaningful.
type collection struct {
	metrics Metrics
	usage   Usage
	stats   *container.StatsResponse
	err     error
}

func (c collection) ok() bool {
	return c.err == nil
}
