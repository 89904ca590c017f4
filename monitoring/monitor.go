// Package monitoring turns a cache simulator session into a web server, so
// that the cache can be inspected while workloads run.
package monitoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/sarchlab/cachesim/driver"
	"github.com/sarchlab/cachesim/memory"
	"github.com/sarchlab/cachesim/memory/cache"
	"github.com/sarchlab/cachesim/memory/trace"
	"github.com/sarchlab/cachesim/monitoring/web"
	"github.com/sarchlab/cachesim/sim/id"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"
)

// Monitor serves the state of a session over HTTP.
type Monitor struct {
	session    *driver.Session
	portNumber int
	idGen      id.IDGenerator
	counter    *trace.CountTracer

	listener net.Listener

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
}

// NewMonitor creates a new Monitor that watches the session.
func NewMonitor(session *driver.Session) *Monitor {
	return &Monitor{
		session: session,
		idGen:   id.NewIDGenerator(),
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterCounter sets the tracer whose counts are served. The tracer must
// be attached to the caches of the session.
func (m *Monitor) RegisterCounter(counter *trace.CountTracer) {
	m.counter = counter
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        m.idGen.Generate(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// Router returns the handler of all the monitor routes.
func (m *Monitor) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/config", m.config)
	r.HandleFunc("/api/stats", m.stats)
	r.HandleFunc("/api/sets", m.listSets)
	r.HandleFunc("/api/set/{index}", m.setDetails)
	r.HandleFunc("/api/events", m.listEventCounts)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.PathPrefix("/").Handler(http.FileServer(web.GetAssets()))

	return r
}

// StartServer starts the monitor as a web server in the background.
func (m *Monitor) StartServer() error {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	if err != nil {
		return err
	}

	m.listener = listener

	fmt.Fprintf(os.Stderr, "Monitoring cache simulator with %s\n", m.URL())

	go func() {
		err := http.Serve(listener, m.Router())
		if err != nil && !errors.Is(err, net.ErrClosed) {
			log.Panic(err)
		}
	}()

	return nil
}

// URL returns the address of the running server, or an empty string if the
// server is not started.
func (m *Monitor) URL() string {
	if m.listener == nil {
		return ""
	}

	port := m.listener.Addr().(*net.TCPAddr).Port

	return fmt.Sprintf("http://localhost:%d", port)
}

// OpenBrowser opens the dashboard in the default browser.
func (m *Monitor) OpenBrowser() error {
	if m.listener == nil {
		return errors.New("monitor server is not started")
	}

	return browser.OpenURL(m.URL())
}

// StopServer closes the listener of the server.
func (m *Monitor) StopServer() error {
	if m.listener == nil {
		return nil
	}

	err := m.listener.Close()
	m.listener = nil

	return err
}

type configRsp struct {
	CacheSize     uint64 `json:"cache_size"`
	BlockSize     uint64 `json:"block_size"`
	Associativity uint64 `json:"associativity"`
	Policy        string `json:"policy"`
	AddressBits   uint   `json:"address_bits"`
	NumSets       uint64 `json:"num_sets"`
}

func (m *Monitor) config(w http.ResponseWriter, _ *http.Request) {
	config, err := m.session.Config()
	if err != nil {
		writeSessionErr(w, err)
		return
	}

	writeJSON(w, configRsp{
		CacheSize:     config.CacheSize,
		BlockSize:     config.BlockSize,
		Associativity: config.Associativity,
		Policy:        string(config.Policy),
		AddressBits:   config.AddressBits,
		NumSets:       config.NumSets(),
	})
}

type statsRsp struct {
	cache.Statistics

	Misses       uint64  `json:"misses"`
	HitRate      float64 `json:"hit_rate"`
	ReadHitRate  float64 `json:"read_hit_rate"`
	WriteHitRate float64 `json:"write_hit_rate"`
	Time         uint64  `json:"time"`
	MemoryAccess uint64  `json:"memory_accesses"`
}

func (m *Monitor) stats(w http.ResponseWriter, _ *http.Request) {
	var rsp statsRsp

	err := m.session.Do(func(c *cache.Cache, storage *memory.Storage) error {
		stats := c.Stats()

		rsp = statsRsp{
			Statistics:   stats,
			Misses:       stats.Misses(),
			HitRate:      stats.HitRate(),
			ReadHitRate:  stats.ReadHitRate(),
			WriteHitRate: stats.WriteHitRate(),
			Time:         c.Time(),
			MemoryAccess: storage.AccessCount(),
		}

		return nil
	})
	if err != nil {
		writeSessionErr(w, err)
		return
	}

	writeJSON(w, rsp)
}

type blockRsp struct {
	Tag         uint64 `json:"tag"`
	Valid       bool   `json:"valid"`
	Dirty       bool   `json:"dirty"`
	BaseAddress uint64 `json:"base_address"`
	LoadTime    uint64 `json:"load_time"`
	LastTime    uint64 `json:"last_time"`
}

type setRsp struct {
	Index  int        `json:"index"`
	Blocks []blockRsp `json:"blocks"`
}

func (m *Monitor) listSets(w http.ResponseWriter, _ *http.Request) {
	var rsp []setRsp

	err := m.session.Do(func(c *cache.Cache, _ *memory.Storage) error {
		for i, set := range c.Directory().Sets() {
			s := setRsp{Index: i, Blocks: []blockRsp{}}

			for _, b := range set.Blocks() {
				s.Blocks = append(s.Blocks, blockRsp{
					Tag:         b.Tag,
					Valid:       b.IsValid,
					Dirty:       b.IsDirty,
					BaseAddress: b.BaseAddress,
					LoadTime:    b.LoadTime,
					LastTime:    b.LastTime,
				})
			}

			rsp = append(rsp, s)
		}

		return nil
	})
	if err != nil {
		writeSessionErr(w, err)
		return
	}

	writeJSON(w, rsp)
}

func (m *Monitor) setDetails(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.ParseUint(mux.Vars(r)["index"], 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)
		return
	}

	err = m.session.Do(func(c *cache.Cache, _ *memory.Storage) error {
		if index >= c.Directory().NumSets() {
			w.WriteHeader(http.StatusNotFound)
			_, err := w.Write([]byte("Set not found"))
			return err
		}

		serializer := goseth.NewSerializer()
		serializer.SetRoot(c.Directory().GetSet(index))
		serializer.SetMaxDepth(2)

		return serializer.Serialize(w)
	})
	if errors.Is(err, driver.ErrNotConfigured) {
		writeSessionErr(w, err)
		return
	}

	dieOnErr(err)
}

func (m *Monitor) listEventCounts(w http.ResponseWriter, _ *http.Request) {
	if m.counter == nil {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, "No event counter registered")
		return
	}

	writeJSON(w, m.counter.Counts())
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	rsp := make([]progressBarRsp, 0, len(m.progressBars))
	for _, bar := range m.progressBars {
		rsp = append(rsp, bar.snapshot())
	}
	m.progressBarsLock.Unlock()

	writeJSON(w, rsp)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprintf(w, "Error: %s", err)
		return
	}

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeSessionErr(w http.ResponseWriter, err error) {
	w.WriteHeader(http.StatusServiceUnavailable)
	fmt.Fprintf(w, "Error: %s", err)
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
