// Package k8sworker sizes the go runtime to the container it runs in.
package k8sworker

import (
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"

	"github.com/KimMachineGun/automemlimit/memlimit"
	"go.uber.org/automaxprocs/maxprocs"
)

const memLimitRatio = 0.9

// Config is the resulting go runtime configuration, logged at startup.
type Config struct {
	GoMaxProcs int
	GoMemLimit int64
	GoVersion  string
}

func (c Config) String() string {
	return fmt.Sprintf("GOMAXPROCS=%d GOMEMLIMIT=%d %s", c.GoMaxProcs, c.GoMemLimit, c.GoVersion)
}

// Configure sets GOMEMLIMIT to 90% of the cgroup memory limit and GOMAXPROCS
// to the cgroup cpu quota. GOMAXPROCS larger than the quota causes gc stalls
// on cores the container cannot use. The returned func restores GOMAXPROCS.
//
// If GOMEMLIMIT is already set or AUTOMEMLIMIT=off the memory limit is left
// alone.
func Configure(logf func(string, ...any)) (*Config, func(), error) {
	memOpts := []memlimit.Option{
		memlimit.WithRatio(memLimitRatio),
		memlimit.WithProvider(memlimit.FromCgroup),
	}
	if logf != nil {
		memOpts = append(memOpts, memlimit.WithLogger(slog.Default()))
	}
	if _, err := memlimit.SetGoMemLimitWithOpts(memOpts...); err != nil {
		return nil, nil, fmt.Errorf("set GOMEMLIMIT: %w", err)
	}

	var procOpts []maxprocs.Option
	if logf != nil {
		procOpts = append(procOpts, maxprocs.Logger(logf))
	}
	undo, err := maxprocs.Set(procOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("set GOMAXPROCS: %w", err)
	}

	return &Config{
		GoMaxProcs: runtime.GOMAXPROCS(-1),
		GoMemLimit: debug.SetMemoryLimit(-1),
		GoVersion:  runtime.Version(),
	}, undo, nil
}
