package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"time"

	// Enable profiling
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/memscope/mem"
	"github.com/sarchlab/memscope/sim"
)

// Monitor turns a session into a server and allows external monitoring and
// controlling of the simulation.
type Monitor struct {
	engine  sim.Engine
	session sim.Session

	accessors map[string]*mem.Accessor
	sinks     map[string]*WindowSink

	portNumber  int
	openBrowser bool
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{
		accessors: make(map[string]*mem.Accessor),
		sinks:     make(map[string]*WindowSink),
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n",
			portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithBrowser makes StartServer open the dashboard in a browser.
func (m *Monitor) WithBrowser() *Monitor {
	m.openBrowser = true
	return m
}

// RegisterEngine registers the engine that drives the simulation.
func (m *Monitor) RegisterEngine(e sim.Engine) {
	m.engine = e
}

// RegisterSession registers the session being observed.
func (m *Monitor) RegisterSession(s sim.Session) {
	m.session = s
}

// RegisterAccessor registers a device accessor for state inspection.
func (m *Monitor) RegisterAccessor(name string, a *mem.Accessor) {
	m.accessors[name] = a
}

// RegisterSink registers a window sink whose rows the server exposes.
func (m *Monitor) RegisterSink(s *WindowSink) {
	m.sinks[s.Name()] = s
}

// StartServer starts the monitor as a web server.
func (m *Monitor) StartServer() {
	r := mux.NewRouter()

	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/pause", m.pauseEngine)
	r.HandleFunc("/api/continue", m.continueEngine)
	r.HandleFunc("/api/run", m.run)
	r.HandleFunc("/api/halt", m.halt)
	r.HandleFunc("/api/sinks", m.listSinks)
	r.HandleFunc("/api/sink/{name}", m.sinkRows)
	r.HandleFunc("/api/accessors", m.listAccessors)
	r.HandleFunc("/api/accessor/{name}", m.accessorDetails)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.HandleFunc("/", m.index)
	http.Handle("/", r)

	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring session with %s\n", url)

	go func() {
		err = http.Serve(listener, nil)
		dieOnErr(err)
	}()

	if m.openBrowser {
		if err := browser.OpenURL(url); err != nil {
			log.Printf("opening browser: %v", err)
		}
	}
}

const indexPage = `<html><body>
<h1>memscope monitor</h1>
<p>Endpoints: /api/now /api/pause /api/continue /api/run /api/halt
/api/sinks /api/sink/{name} /api/accessors /api/accessor/{name}
/api/resource /api/profile</p>
</body></html>`

func (m *Monitor) index(w http.ResponseWriter, _ *http.Request) {
	_, err := w.Write([]byte(indexPage))
	dieOnErr(err)
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprintf(w, "{\"now_us\":%d}", m.engine.CurrentTime())
}

func (m *Monitor) pauseEngine(w http.ResponseWriter, _ *http.Request) {
	m.engine.Pause()
	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) continueEngine(w http.ResponseWriter, _ *http.Request) {
	m.engine.Continue()
	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) run(_ http.ResponseWriter, _ *http.Request) {
	go func() {
		err := m.engine.Run()
		if err != nil {
			panic(err)
		}
	}()
}

func (m *Monitor) halt(w http.ResponseWriter, _ *http.Request) {
	m.session.RequestHalt()
	_, err := w.Write(nil)
	dieOnErr(err)
}

type sinkRsp struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Active  bool     `json:"active"`
}

func (m *Monitor) listSinks(w http.ResponseWriter, _ *http.Request) {
	rsp := make([]sinkRsp, 0, len(m.sinks))
	for _, s := range m.sinks {
		rsp = append(rsp, sinkRsp{
			Name:    s.Name(),
			Columns: s.Columns(),
			Active:  s.Active(),
		})
	}

	writeJSON(w, rsp)
}

func (m *Monitor) sinkRows(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	s, ok := m.sinks[name]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("Sink not found"))
		dieOnErr(err)
		return
	}

	writeJSON(w, s.Rows())
}

func (m *Monitor) listAccessors(w http.ResponseWriter, _ *http.Request) {
	names := make([]string, 0, len(m.accessors))
	for n := range m.accessors {
		names = append(names, n)
	}

	writeJSON(w, names)
}

func (m *Monitor) accessorDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	a, ok := m.accessors[name]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("Accessor not found"))
		dieOnErr(err)
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(a)
	serializer.SetMaxDepth(1)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	proc, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := proc.CPUPercent()
	dieOnErr(err)

	memorySize, err := proc.MemoryInfo()
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

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
