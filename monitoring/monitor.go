package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/xid"
	"github.com/sarchlab/nodetopo/sim"
	"github.com/shirou/gopsutil/process"
	"github.com/sirupsen/logrus"
	"github.com/syifan/goseth"
)

// Topology is the read side of a component registry.
type Topology interface {
	Components() []sim.Component
	Subsystems() []sim.Component
	Links() []sim.Link
	GetComponentByName(name string) (sim.Component, bool)
	GetLinkByName(name string) (sim.Link, bool)
}

// Monitor serves a topology over HTTP while it is being built.
type Monitor struct {
	topology   Topology
	portNumber int
	registry   *prometheus.Registry
	metrics    *MetricsHook
	url        string

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	reg := prometheus.NewRegistry()

	return &Monitor{
		registry: reg,
		metrics:  NewMetricsHook(reg),
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		logrus.Warnf("Port number %d is assigned to the monitoring server, "+
			"which is not allowed. Using a random port instead.", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterTopology sets the registry that the monitor reports on.
func (m *Monitor) RegisterTopology(t Topology) {
	m.topology = t
}

// MetricsHook returns the hook that feeds the /metrics endpoint.
func (m *Monitor) MetricsHook() *MetricsHook {
	return m.metrics
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		id:        xid.New().String(),
		name:      name,
		startTime: time.Now(),
		total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar from the progress list.
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

// Handler returns the router with all the monitoring endpoints.
func (m *Monitor) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/list_components", m.listComponents)
	r.HandleFunc("/api/component/{name}", m.listComponentDetails)
	r.HandleFunc("/api/list_links", m.listLinks)
	r.HandleFunc("/api/link/{name}", m.listLinkDetails)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	return r
}

// StartServer starts the monitor as a web server and returns its URL.
func (m *Monitor) StartServer() string {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	m.url = fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)

	logrus.Infof("Monitoring topology with %s", m.url)

	go func() {
		err := http.Serve(listener, m.Handler())
		dieOnErr(err)
	}()

	return m.url
}

// OpenInBrowser opens the component list of a started server.
func (m *Monitor) OpenInBrowser() error {
	if m.url == "" {
		return fmt.Errorf("monitoring server is not started")
	}

	return browser.OpenURL(m.url + "/api/list_components")
}

func (m *Monitor) allComponents() []sim.Component {
	comps := append(m.topology.Components(), m.topology.Subsystems()...)
	sort.Slice(comps, func(i, j int) bool {
		return comps[i].Name() < comps[j].Name()
	})

	return comps
}

func (m *Monitor) listComponents(w http.ResponseWriter, _ *http.Request) {
	names := []string{}
	for _, c := range m.allComponents() {
		names = append(names, c.Name())
	}

	writeJSON(w, names)
}

func (m *Monitor) listComponentDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	component, found := m.topology.GetComponentByName(name)
	if !found {
		notFound(w, "Component not found")
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(m.snapshot(component))
	serializer.SetMaxDepth(2)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

// componentSnapshot is a copy of a component taken through its locked
// accessors, so that it can be serialized while the topology grows.
type componentSnapshot struct {
	Name       string
	TypeTag    string
	Parent     string
	Parameters sim.Params
	Ports      map[string]string
	Subsystems []string
}

type parented interface {
	Parent() sim.Component
}

func (m *Monitor) snapshot(c sim.Component) componentSnapshot {
	snap := componentSnapshot{
		Name:       c.Name(),
		TypeTag:    string(c.TypeTag()),
		Parameters: c.Parameters(),
		Ports:      make(map[string]string),
		Subsystems: []string{},
	}

	if p, ok := c.(parented); ok && p.Parent() != nil {
		snap.Parent = p.Parent().Name()
	}

	for _, port := range c.Ports() {
		if l := c.LinkAt(port); l != nil {
			snap.Ports[port] = l.Name()
		}
	}

	for _, sub := range m.topology.Subsystems() {
		p, ok := sub.(parented)
		if ok && p.Parent() != nil && p.Parent().Name() == c.Name() {
			snap.Subsystems = append(snap.Subsystems, sub.Name())
		}
	}

	sort.Strings(snap.Subsystems)

	return snap
}

type endpointRsp struct {
	Component string `json:"component"`
	Port      string `json:"port"`
	Latency   string `json:"latency"`
}

type linkRsp struct {
	Name       string        `json:"name"`
	Uncuttable bool          `json:"uncuttable"`
	Endpoints  []endpointRsp `json:"endpoints"`
}

func (m *Monitor) listLinks(w http.ResponseWriter, _ *http.Request) {
	names := []string{}
	for _, l := range m.topology.Links() {
		names = append(names, l.Name())
	}

	sort.Strings(names)

	writeJSON(w, names)
}

func (m *Monitor) listLinkDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	l, found := m.topology.GetLinkByName(name)
	if !found {
		notFound(w, "Link not found")
		return
	}

	rsp := linkRsp{
		Name:       l.Name(),
		Uncuttable: l.Uncuttable(),
		Endpoints:  []endpointRsp{},
	}

	for _, e := range l.Endpoints() {
		rsp.Endpoints = append(rsp.Endpoints, endpointRsp{
			Component: e.Component.Name(),
			Port:      e.Port,
			Latency:   e.Latency.String(),
		})
	}

	writeJSON(w, rsp)
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	snapshots := make([]ProgressSnapshot, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		snapshots = append(snapshots, b.Snapshot())
	}
	m.progressBarsLock.Unlock()

	writeJSON(w, snapshots)
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
	dieOnErr(err)

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(bytes)
	dieOnErr(err)
}

func notFound(w http.ResponseWriter, msg string) {
	w.WriteHeader(http.StatusNotFound)
	_, err := w.Write([]byte(msg))
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		logrus.Panic(err)
	}
}
