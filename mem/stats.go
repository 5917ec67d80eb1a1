// Copyright 2024 The Erigon Authors
// (modifications)
// This file is part of Erigon.
//
// Erigon is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Erigon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Erigon. If not, see <http://www.gnu.org/licenses/>.

package mem

import "github.com/prometheus/client_golang/prometheus"

// Stats is the spec's plain-struct snapshot (§6.3): readable, not live --
// callers get a copy of the counters as of the call to Allocator.Stats().
type Stats struct {
	BytesBackend  uint64 // bytes handed out via the fallback allocator
	BytesFrontend uint64 // bytes handed out via pools
	Pools         int
	Entries       int
}

// promStats registers Stats as a small family of prometheus gauges, the
// same pattern buildbarn-bb-storage's partitioning_block_allocator.go uses
// for its own allocation counters. Only built when Config.PrometheusStats
// is set; a nil *promStats is always safe to call methods on.
type promStats struct {
	bytesBackend  prometheus.Gauge
	bytesFrontend prometheus.Gauge
	pools         prometheus.Gauge
	entries       prometheus.Gauge
}

func newPromStats() *promStats {
	ps := &promStats{
		bytesBackend: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "memblock", Subsystem: "allocator", Name: "bytes_backend",
			Help: "Bytes currently allocated via the fallback (non-pooled) backend.",
		}),
		bytesFrontend: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "memblock", Subsystem: "allocator", Name: "bytes_frontend",
			Help: "Bytes currently allocated via pools.",
		}),
		pools: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "memblock", Subsystem: "allocator", Name: "pools",
			Help: "Number of backing pools currently chained.",
		}),
		entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "memblock", Subsystem: "allocator", Name: "entries",
			Help: "Number of live entries across all pools and the fallback backend.",
		}),
	}
	prometheus.MustRegister(ps.bytesBackend, ps.bytesFrontend, ps.pools, ps.entries)
	return ps
}

func (ps *promStats) update(s Stats) {
	if ps == nil {
		return
	}
	ps.bytesBackend.Set(float64(s.BytesBackend))
	ps.bytesFrontend.Set(float64(s.BytesFrontend))
	ps.pools.Set(float64(s.Pools))
	ps.entries.Set(float64(s.Entries))
}
