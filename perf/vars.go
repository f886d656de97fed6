package perf

import (
	"expvar"
	"net/http"

	"github.com/encodeous/metric"
)

var (
	DaemonLatency        = metric.NewHistogram("1m1s")
	Airtime              = metric.NewHistogram("1m1s")
	SentPacketPerSecond  = metric.NewCounter("10s1s")
	RecvPacketPerSecond  = metric.NewCounter("10s1s")
	SentBytesPerSecond   = metric.NewCounter("10s1s")
	RecvBytesPerSecond   = metric.NewCounter("10s1s")
	AdvertsPerSecond     = metric.NewCounter("10s1s")
	DroppedPerSecond     = metric.NewCounter("10s1s")
	DeliveredPerSecond   = metric.NewCounter("10s1s")
	RadioErrorsPerSecond = metric.NewCounter("10s1s")
)

func init() {
	http.Handle("/debug/metrics", metric.Handler(metric.Exposed))
	expvar.Publish("ll2:SentPacket/s", SentPacketPerSecond)
	expvar.Publish("ll2:RecvPacket/s", RecvPacketPerSecond)
	expvar.Publish("ll2:SentBytes/s", SentBytesPerSecond)
	expvar.Publish("ll2:RecvBytes/s", RecvBytesPerSecond)
	expvar.Publish("ll2:Adverts/s", AdvertsPerSecond)
	expvar.Publish("ll2:Dropped/s", DroppedPerSecond)
	expvar.Publish("ll2:Delivered/s", DeliveredPerSecond)
	expvar.Publish("ll2:RadioErrors/s", RadioErrorsPerSecond)
	expvar.Publish("ll2:DaemonLatency (µs)", DaemonLatency)
	expvar.Publish("ll2:Airtime (ms)", Airtime)
}
