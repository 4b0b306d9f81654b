package ping

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/pkg/errors"
)

const (
	kb = 1024.0
	mb = kb * 1024
	gb = mb * 1024
	tb = gb * 1024

	// docker reports nanoseconds, only microseconds are kept
	startedAtLen      = len("2006-01-02T15:04:05.000000")
	startedAtLayout   = "2006-01-02T15:04:05"
	startedAtDisplay  = "2006-01-02 15:04:05 -0700"
	noBlockIOReported = "0B"
)

func derive(inspect *container.InspectResponse, stats *container.StatsResponse, cfg Config, now time.Time) (Usage, Metrics, error) {
	if inspect == nil || inspect.ContainerJSONBase == nil || inspect.State == nil {
		return Usage{}, Metrics{}, &FetchError{Op: "inspect", Err: errors.New("inspect document has no state")}
	}
	if stats == nil {
		return Usage{}, Metrics{}, &FetchError{Op: "stats", Err: errors.New("stats document is empty")}
	}

	start, err := parseStartedAt(inspect.State.StartedAt)
	if err != nil {
		return Usage{}, Metrics{}, &FetchError{Op: "inspect", Err: err}
	}

	rx, tx, err := networkBytes(stats.Networks, cfg.Interface)
	if err != nil {
		return Usage{}, Metrics{}, err
	}

	u := Usage{
		StartedAt:  start,
		Uptime:     now.UTC().Sub(start),
		CPUPercent: cpuPercent(stats),
		Memory:     stats.MemoryStats.Usage,
		NetworkRx:  rx,
		NetworkTx:  tx,
	}
	u.BlockRead, u.BlockWrite, u.HasBlockRead, u.HasBlockWrite = blockIO(stats.BlkioStats.IoServiceBytesRecursive)

	m := Metrics{
		Uptime:    formatElapsed(u.Uptime),
		StartedAt: formatStartedAt(start, cfg.OffsetHours, cfg.Location),
		CPU:       formatPercent(u.CPUPercent),
		Memory:    humanize(u.Memory),
		NetworkRx: humanize(rx),
		NetworkTx: humanize(tx),
		IORead:    noBlockIOReported,
		IOWrite:   noBlockIOReported,
	}
	if u.HasBlockRead {
		m.IORead = humanize(u.BlockRead)
	}
	if u.HasBlockWrite {
		m.IOWrite = humanize(u.BlockWrite)
	}

	return u, m, nil
}

// parseStartedAt reads docker's RFC 3339 nanosecond timestamp as a naive UTC
// time truncated to microseconds.
func parseStartedAt(raw string) (time.Time, error) {
	s := strings.TrimSuffix(raw, "Z")
	if len(s) > startedAtLen {
		s = s[:startedAtLen]
	}

	t, err := time.ParseInLocation(startedAtLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "can't parse start time %q", raw)
	}
	// docker reports 0001-01-01T00:00:00Z for containers that never started
	if t.Year() <= 1 {
		return time.Time{}, errors.Errorf("container has not been started (start time %q)", raw)
	}
	return t, nil
}

// formatElapsed renders d as [N day[s], ]H:MM:SS, dropping the sub-second
// part. Negative durations borrow a whole day, as in -1 day, 23:59:50.
func formatElapsed(d time.Duration) string {
	secs := int64(math.Floor(d.Seconds()))

	days := secs / 86400
	rem := secs % 86400
	if rem < 0 {
		days--
		rem += 86400
	}

	clock := fmt.Sprintf("%d:%02d:%02d", rem/3600, rem%3600/60, rem%60)
	switch days {
	case 0:
		return clock
	case 1, -1:
		return fmt.Sprintf("%d day, %s", days, clock)
	default:
		return fmt.Sprintf("%d days, %s", days, clock)
	}
}

// formatStartedAt shifts start by a fixed number of hours and labels the
// resulting wall clock with loc's offset at that moment.
func formatStartedAt(start time.Time, offsetHours int, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	s := start.Add(time.Duration(offsetHours) * time.Hour)
	wall := time.Date(s.Year(), s.Month(), s.Day(), s.Hour(), s.Minute(), s.Second(), s.Nanosecond(), loc)
	return wall.Format(startedAtDisplay)
}

// cpuPercent follows the docker CLI: the container's share of the system
// delta scaled by the online CPU count. Counter resets give 0.
func cpuPercent(stats *container.StatsResponse) float64 {
	cpuDelta := float64(stats.CPUStats.CPUUsage.TotalUsage) - float64(stats.PreCPUStats.CPUUsage.TotalUsage)
	systemDelta := float64(stats.CPUStats.SystemUsage) - float64(stats.PreCPUStats.SystemUsage)

	onlineCPUs := stats.CPUStats.OnlineCPUs
	if onlineCPUs == 0 {
		onlineCPUs = 1
	}

	if systemDelta <= 0.0 || cpuDelta <= 0.0 {
		return 0.0
	}
	return cpuDelta / systemDelta * 100.0 * float64(onlineCPUs)
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

func blockIO(entries []container.BlkioStatEntry) (read, write uint64, hasRead, hasWrite bool) {
	for _, b := range entries {
		if strings.EqualFold(b.Op, "read") {
			read += b.Value
			hasRead = true
		}
		if strings.EqualFold(b.Op, "write") {
			write += b.Value
			hasWrite = true
		}
	}
	return
}

func networkBytes(networks map[string]container.NetworkStats, iface string) (rx, tx uint64, err error) {
	n, ok := networks[iface]
	if !ok {
		return 0, 0, &FetchError{Op: "stats", Err: errors.Errorf("network interface %s not found", iface)}
	}
	return n.RxBytes, n.TxBytes, nil
}

// humanize scales b by powers of 1024. Below one kilobyte the plain count is
// kept, with zero spelled out as 0Bytes.
func humanize(b uint64) string {
	v := float64(b)

	switch {
	case b == 0:
		return "0Bytes"
	case v < kb:
		return strconv.FormatUint(b, 10) + "B"
	case v < mb:
		return fmt.Sprintf("%.2fKB", v/kb)
	case v < gb:
		return fmt.Sprintf("%.2fMB", v/mb)
	case v < tb:
		return fmt.Sprintf("%.2fGB", v/gb)
	default:
		return fmt.Sprintf("%.2fTB", v/tb)
	}
}
