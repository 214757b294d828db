package engine

import (
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// CPUConfig holds the CPU budget the translation pool is sized against.
type CPUConfig struct {
	// Logical CPUs visible to the process
	NumCPU int

	// CPU quota from cgroups (0 if not limited)
	CPUQuota float64

	// Memory limit from cgroups (0 if not limited)
	MemoryLimit int64
}

// DetectCPUConfig reads the CPU count and any cgroup limits (Kubernetes/Docker).
func DetectCPUConfig() *CPUConfig {
	cfg := &CPUConfig{
		NumCPU:      runtime.NumCPU(),
		CPUQuota:    detectCPUQuota(),
		MemoryLimit: detectMemoryLimit(),
	}
	slog.Debug("cpu config detected",
		"num_cpu", cfg.NumCPU,
		"cpu_quota", cfg.CPUQuota,
		"memory_limit_mb", cfg.MemoryLimit/(1024*1024))
	return cfg
}

// Cores is the usable core count: the cgroup quota (rounded) when it is
// tighter than NumCPU, otherwise NumCPU.
func (c *CPUConfig) Cores() int {
	cores := c.NumCPU
	if c.CPUQuota > 0 {
		quotaCores := int(c.CPUQuota + 0.5)
		if quotaCores > 0 && quotaCores < cores {
			cores = quotaCores
		}
	}
	if cores < 1 {
		cores = 1
	}
	return cores
}

// OptimalWorkerCount returns the worker count for a translation pool.
// Inference is CPU bound; leave 1-2 cores for the Go runtime on larger hosts.
func (c *CPUConfig) OptimalWorkerCount() int {
	workers := c.Cores()
	if workers > 8 {
		workers -= 2
	} else if workers > 4 {
		workers--
	}
	return workers
}

// WorkerCount resolves a configured worker count: positive values are kept,
// zero or negative means auto-detect.
func WorkerCount(requested int) int {
	if requested > 0 {
		return requested
	}
	workers := DetectCPUConfig().OptimalWorkerCount()
	slog.Info("worker count auto-detected", "workers", workers)
	return workers
}

func detectCPUQuota() float64 {
	if data, err := os.ReadFile("/sys/fs/cgroup/cpu.max"); err == nil {
		if quota := parseCPUMax(string(data)); quota > 0 {
			return quota
		}
	}

	quotaData, err := os.ReadFile("/sys/fs/cgroup/cpu/cpu.cfs_quota_us")
	if err != nil {
		return 0
	}
	periodData, err := os.ReadFile("/sys/fs/cgroup/cpu/cpu.cfs_period_us")
	if err != nil {
		return 0
	}
	return parseCFSQuota(string(quotaData), string(periodData))
}

// parseCPUMax parses cgroups v2 cpu.max ("<quota> <period>" or "max <period>").
func parseCPUMax(data string) float64 {
	parts := strings.Fields(data)
	if len(parts) < 2 || parts[0] == "max" {
		return 0
	}
	quota, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0
	}
	period, err := strconv.ParseFloat(parts[1], 64)
	if err != nil || period == 0 {
		return 0
	}
	return quota / period
}

// parseCFSQuota parses the cgroups v1 pair; a quota of -1 means unlimited.
func parseCFSQuota(quotaData, periodData string) float64 {
	quota, err := strconv.ParseFloat(strings.TrimSpace(quotaData), 64)
	if err != nil || quota < 0 {
		return 0
	}
	period, err := strconv.ParseFloat(strings.TrimSpace(periodData), 64)
	if err != nil || period == 0 {
		return 0
	}
	return quota / period
}

func detectMemoryLimit() int64 {
	if data, err := os.ReadFile("/sys/fs/cgroup/memory.max"); err == nil {
		if limit := parseMemoryLimit(string(data)); limit > 0 {
			return limit
		}
	}
	data, err := os.ReadFile("/sys/fs/cgroup/memory/memory.limit_in_bytes")
	if err != nil {
		return 0
	}
	return parseMemoryLimit(string(data))
}

func parseMemoryLimit(data string) int64 {
	limit := strings.TrimSpace(data)
	if limit == "max" {
		return 0
	}
	value, err := strconv.ParseInt(limit, 10, 64)
	if err != nil {
		return 0
	}
	// cgroups v1 reports "unlimited" as a huge number
	if value > 1<<50 {
		return 0
	}
	return value
}
