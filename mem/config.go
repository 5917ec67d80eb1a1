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

import (
	"github.com/pbnjay/memory"
	"github.com/spf13/pflag"

	"github.com/erigontech/memblock/internal/xlog"
	"github.com/erigontech/memblock/internal/xmath"
)

const (
	minDefaultPoolSize = 1 << 20 // 1 MiB floor, per spec's DEFAULT_POOL_SIZE
	defaultAlign       = 16
)

// Config carries the allocator's compile-time-in-spirit, boot-time-in-fact
// knobs (spec §6.2). It is deliberately flag-bindable (see BindFlags) even
// though this module ships no CLI of its own -- CLI wiring is an explicit
// out-of-scope collaborator, but a host binary can bind these without
// touching this package.
type Config struct {
	// Align is the allocation alignment; must be a power of two.
	Align uint64
	// DefaultPoolSize is the minimum backing size for a freshly created
	// pool. Zero means "derive from host RAM", see DefaultPoolSize().
	DefaultPoolSize uint64
	// MinAllocation is the smallest poolable allocation. Zero means
	// "derive from entry header + Align".
	MinAllocation uint64

	// ManagedMemory enables pooling; when false, every allocation goes
	// straight to the fallback backend (still tracked by Entry/refcount,
	// just without sub-allocation).
	ManagedMemory bool
	// Stats enables the allocator's bytes/pools/entries snapshot and, if
	// PrometheusStats is also true, registers them as metrics.
	Stats bool
	// PrometheusStats additionally exports Stats as registered
	// prometheus.Gauge values under the memblock_ namespace.
	PrometheusStats bool
	// Backend selects the Pool page provider. Defaults to HeapBackend().
	Backend Backend

	Logger *xlog.Logger
}

// Option mutates a Config being built by NewConfig.
type Option func(*Config)

func WithAlign(align uint64) Option       { return func(c *Config) { c.Align = align } }
func WithDefaultPoolSize(n uint64) Option { return func(c *Config) { c.DefaultPoolSize = n } }
func WithMinAllocation(n uint64) Option   { return func(c *Config) { c.MinAllocation = n } }
func WithManagedMemory(on bool) Option    { return func(c *Config) { c.ManagedMemory = on } }
func WithStats(on bool) Option            { return func(c *Config) { c.Stats = on } }
func WithPrometheusStats(on bool) Option  { return func(c *Config) { c.PrometheusStats = on } }
func WithBackend(b Backend) Option        { return func(c *Config) { c.Backend = b } }
func WithLogger(l *xlog.Logger) Option    { return func(c *Config) { c.Logger = l } }

// NewConfig builds a Config with spec defaults (ALIGN=16, managed_memory
// on, heap backend) and applies opts in order.
func NewConfig(opts ...Option) Config {
	c := Config{
		Align:         defaultAlign,
		ManagedMemory: true,
		Backend:       HeapBackend(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	if c.Align == 0 {
		c.Align = defaultAlign
	}
	if !xmath.IsPow2(c.Align) {
		c.Align = xmath.NextPow2(c.Align)
	}
	if c.DefaultPoolSize == 0 {
		c.DefaultPoolSize = DefaultPoolSize()
	}
	if c.MinAllocation == 0 {
		c.MinAllocation = xmath.NextPow2(entryHeaderBytes + c.Align)
	}
	if c.Backend == nil {
		c.Backend = HeapBackend()
	}
	return c
}

// DefaultPoolSize scales the floor pool size off host RAM, the same
// "size defaults off available memory" idea erigon-lib applies to its mdbx
// map-size defaults: 1/1024th of total RAM, never below the 1 MiB spec
// floor and capped at 64 MiB so a single lazily-created pool never
// dominates a small host.
func DefaultPoolSize() uint64 {
	total := memory.TotalMemory()
	candidate := total / 1024
	if candidate < minDefaultPoolSize {
		return minDefaultPoolSize
	}
	const cap_ = 64 << 20
	if candidate > cap_ {
		return cap_
	}
	return xmath.NextPow2(candidate)
}

// BindFlags registers this Config's tunables on fs, so a host binary's CLI
// layer (out of scope for this module) can expose them without
// reimplementing the defaulting logic in NewConfig.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.Uint64Var(&c.Align, "memblock.align", defaultAlign, "allocation alignment (power of two)")
	fs.Uint64Var(&c.DefaultPoolSize, "memblock.default-pool-size", 0, "minimum backing size for a new pool (0 = derive from host RAM)")
	fs.Uint64Var(&c.MinAllocation, "memblock.min-allocation", 0, "smallest poolable allocation (0 = derive from alignment)")
	fs.BoolVar(&c.ManagedMemory, "memblock.managed-memory", true, "enable pool-backed sub-allocation")
	fs.BoolVar(&c.Stats, "memblock.stats", false, "track allocator byte/pool/entry statistics")
	fs.BoolVar(&c.PrometheusStats, "memblock.prometheus-stats", false, "export allocator statistics as prometheus metrics")
}
