package cmd

import (
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/driver"
	"github.com/sarchlab/cachesim/memory/trace"
	"github.com/sarchlab/cachesim/monitoring"
	"github.com/sarchlab/cachesim/sim/hooking"
	"github.com/sarchlab/cachesim/sim/id"
)

// An app wires a session together with the tracers and the monitor the
// flags ask for.
type app struct {
	session  *driver.Session
	monitor  *monitoring.Monitor
	tracker  *monitoring.ProgressTracker
	recorder datarecording.DataRecorder
}

func newApp(o options) (*app, error) {
	a := &app{}

	var hooks []hooking.Hook

	if o.logTrace {
		hooks = append(hooks, trace.NewTracer(log.New(os.Stderr, "", 0)))
	}

	if o.record != "" {
		a.recorder = datarecording.New(o.record)
		hooks = append(hooks,
			trace.NewDBTracer(a.recorder, id.NewGlobalIDGenerator()))

		atexit.Register(a.close)
	}

	var counter *trace.CountTracer
	if o.monitor {
		a.tracker = &monitoring.ProgressTracker{}
		counter = trace.NewCountTracer()
		hooks = append(hooks, a.tracker, counter)
	}

	a.session = driver.NewSession(newRand(o.seed), hooks...)

	if o.monitor {
		a.monitor = monitoring.NewMonitor(a.session)
		a.monitor.RegisterCounter(counter)
		if o.monitorPort != 0 {
			a.monitor.WithPortNumber(o.monitorPort)
		}

		if err := a.monitor.StartServer(); err != nil {
			return nil, err
		}

		if o.openBrowser {
			if err := a.monitor.OpenBrowser(); err != nil {
				log.Printf("Failed to open browser: %v", err)
			}
		}
	}

	return a, nil
}

// close writes out the recording, if any. The monitor keeps serving until
// the process exits.
func (a *app) close() {
	if a.recorder == nil {
		return
	}

	if err := a.recorder.Close(); err != nil {
		log.Printf("Failed to close the recording: %v", err)
	}
}

// configure applies the cache configuration of the flags.
func (a *app) configure(o options) error {
	config, err := o.config()
	if err != nil {
		return err
	}

	return a.session.Configure(config)
}

// withProgress shows a progress bar on the monitor while f runs.
func (a *app) withProgress(name string, total uint64, f func() error) error {
	if a.monitor == nil {
		return f()
	}

	bar := a.monitor.CreateProgressBar(name, total)
	a.tracker.Track(bar)

	defer func() {
		a.tracker.Track(nil)
		a.monitor.CompleteProgressBar(bar)
	}()

	return f()
}

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return rand.New(rand.NewSource(seed))
}
