package ping

import (
	"context"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var labelCname = []string{"container_name"}

// Collector exports the derived usage of a fixed list of containers. Every
// scrape fetches fresh documents; nothing is kept between scrapes.
type Collector struct {
	pinger     *Pinger
	containers []string
	failures   *prometheus.CounterVec
}

func NewCollector(p *Pinger, containers []string) *Collector {
	return &Collector{
		pinger:     p,
		containers: containers,
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ping_fetch_failures_total",
			Help: "Number of scrapes where runtime information was not available",
		}, labelCname),
	}
}

func (c *Collector) Describe(_ chan<- *prometheus.Desc) {

}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	var wg sync.WaitGroup

	for _, name := range c.containers {
		wg.Add(1)

		go c.processContainer(name, ch, &wg)
	}
	wg.Wait()

	c.failures.Collect(ch)
}

func (c *Collector) processContainer(name string, ch chan<- prometheus.Metric, wg *sync.WaitGroup) {
	defer wg.Done()

	res := c.pinger.collect(context.Background(), name)
	if !res.ok() {
		slog.Error("can't collect container", "container", name, "error", res.err)
		c.failures.WithLabelValues(name).Inc()
		return
	}

	c.cpuMetrics(ch, res.usage, name)

	c.memoryMetrics(ch, res.usage, name)

	c.networkMetrics(ch, res.usage, name)

	c.blockIoMetrics(ch, res.usage, name)

	c.uptimeMetrics(ch, res.usage, name)
}

func (c *Collector) cpuMetrics(ch chan<- prometheus.Metric, u Usage, name string) {
	ch <- prometheus.MustNewConstMetric(prometheus.NewDesc(
		"ping_cpu_utilization_percent",
		"CPU utilization in percent",
		labelCname,
		nil,
	), prometheus.GaugeValue, u.CPUPercent, name)
}

func (c *Collector) memoryMetrics(ch chan<- prometheus.Metric, u Usage, name string) {
	ch <- prometheus.MustNewConstMetric(prometheus.NewDesc(
		"ping_memory_usage_bytes",
		"Memory usage bytes as reported by the runtime",
		labelCname,
		nil,
	), prometheus.GaugeValue, float64(u.Memory), name)
}

func (c *Collector) networkMetrics(ch chan<- prometheus.Metric, u Usage, name string) {
	ch <- prometheus.MustNewConstMetric(prometheus.NewDesc(
		"ping_network_rx_bytes_total",
		"Network received bytes total",
		labelCname,
		nil,
	), prometheus.CounterValue, float64(u.NetworkRx), name)
	ch <- prometheus.MustNewConstMetric(prometheus.NewDesc(
		"ping_network_tx_bytes_total",
		"Network sent bytes total",
		labelCname,
		nil,
	), prometheus.CounterValue, float64(u.NetworkTx), name)
}

func (c *Collector) blockIoMetrics(ch chan<- prometheus.Metric, u Usage, name string) {
	ch <- prometheus.MustNewConstMetric(prometheus.NewDesc(
		"ping_block_io_read_bytes_total",
		"Block I/O read bytes",
		labelCname,
		nil,
	), prometheus.CounterValue, float64(u.BlockRead), name)

	ch <- prometheus.MustNewConstMetric(prometheus.NewDesc(
		"ping_block_io_write_bytes_total",
		"Block I/O write bytes",
		labelCname,
		nil,
	), prometheus.CounterValue, float64(u.BlockWrite), name)
}

func (c *Collector) uptimeMetrics(ch chan<- prometheus.Metric, u Usage, name string) {
	ch <- prometheus.MustNewConstMetric(prometheus.NewDesc(
		"ping_uptime_seconds",
		"Seconds since the container was started",
		labelCname,
		nil,
	), prometheus.GaugeValue, u.Uptime.Seconds(), name)
}
