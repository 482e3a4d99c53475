package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sarchlab/memscope/mem"
	"github.com/sarchlab/memscope/react"
	"github.com/sarchlab/memscope/recording"
	"github.com/sarchlab/memscope/rules"
	"github.com/sarchlab/memscope/sim"
	"github.com/sarchlab/memscope/simulation"
)

var runFlags struct {
	image    string
	symbols  string
	trace    string
	watch    []string
	out      string
	sep      string
	timeCol  string
	sqlite   string
	nonzero  []string
	monitor  bool
	port     int
	wordSize int
	capacity uint64
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Replay a write trace against watches and assertions.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReplay()
	},
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.image, "image", "", "initial memory image file")
	f.StringVar(&runFlags.symbols, "symbols", "",
		"symbol table CSV (name, address, type)")
	f.StringVar(&runFlags.trace, "trace", "",
		"write trace CSV (time_us, address, hex bytes)")
	f.StringSliceVar(&runFlags.watch, "watch", nil,
		"variable names logged as columns")
	f.StringVar(&runFlags.out, "out",
		envDefault("MEMSCOPE_LOG", "memscope_log.tsv"), "log file path")
	f.StringVar(&runFlags.sep, "sep", "\t", "log field separator")
	f.StringVar(&runFlags.timeCol, "time-column", "Time",
		"time column name, empty disables the time column")
	f.StringVar(&runFlags.sqlite, "sqlite", "",
		"also record rows into this SQLite database path")
	f.StringSliceVar(&runFlags.nonzero, "assert-nonzero", nil,
		"int32 variables that must stay non-zero; zero halts the run")
	f.BoolVar(&runFlags.monitor, "monitor", false, "start the web monitor")
	f.IntVar(&runFlags.port, "monitor-port", monitorPortDefault(),
		"monitor port, 0 picks a random port")
	f.IntVar(&runFlags.wordSize, "word-size", 4,
		"native integer width of the device in bytes")
	f.Uint64Var(&runFlags.capacity, "capacity", 1<<20,
		"memory capacity in bytes")

	cobra.CheckErr(runCmd.MarkFlagRequired("symbols"))
	cobra.CheckErr(runCmd.MarkFlagRequired("trace"))

	rootCmd.AddCommand(runCmd)
}

func monitorPortDefault() int {
	if v := os.Getenv("MEMSCOPE_MONITOR_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			return p
		}
	}
	return 0
}

// replayer applies trace writes to the device storage.
type replayer struct {
	storage *mem.Storage
}

type writeEvent struct {
	*sim.EventBase
	addr uint64
	data []byte
}

func (r *replayer) Handle(e sim.Event) error {
	evt := e.(*writeEvent)
	return r.storage.Write(evt.addr, evt.data)
}

func runReplay() error {
	symbols, err := parseSymbols(runFlags.symbols)
	if err != nil {
		return err
	}

	writes, err := parseTrace(runFlags.trace)
	if err != nil {
		return err
	}

	storage := mem.NewStorage(runFlags.capacity)
	if err := loadImage(storage); err != nil {
		return err
	}

	device := mem.NewDeviceMemory(storage, runFlags.wordSize, symbols)

	factory, err := mem.NewPollingFactory(device)
	if err != nil {
		return err
	}
	accessor := mem.NewAccessor(device, factory)

	b := simulation.MakeBuilder()
	if runFlags.monitor {
		b = b.WithMonitoring()
		if runFlags.port > 0 {
			b = b.WithMonitorPort(runFlags.port)
		}
	}
	s := b.Build()
	defer s.Terminate()

	s.RegisterPublisher(factory)
	if m := s.GetMonitor(); m != nil {
		m.RegisterAccessor("device", accessor)
	}

	if err := attachRules(s, accessor, symbols); err != nil {
		return err
	}

	r := &replayer{storage: storage}
	for _, w := range writes {
		s.GetEngine().Schedule(&writeEvent{
			EventBase: sim.NewEventBase(w.time, r),
			addr:      w.addr,
			data:      w.data,
		})
	}

	if err := s.Run(); err != nil {
		return err
	}

	log.Printf("replayed %d writes up to %d us",
		len(writes), s.CurrentTime())

	return nil
}

func loadImage(storage *mem.Storage) error {
	if runFlags.image == "" {
		return nil
	}

	data, err := os.ReadFile(runFlags.image)
	if err != nil {
		return err
	}

	return storage.Write(0, data)
}

func attachRules(
	s *simulation.Simulation,
	accessor *mem.Accessor,
	symbols []mem.Symbol,
) error {
	types := make(map[string]mem.ValueType)
	for _, sym := range symbols {
		types[sym.Name] = sym.Type
	}

	if len(runFlags.watch) > 0 {
		columns := make([]react.AnySignal, 0, len(runFlags.watch))
		for _, name := range runFlags.watch {
			vt, ok := types[name]
			if !ok {
				return fmt.Errorf("unknown watch variable %q", name)
			}

			v, err := accessor.VariableByName(name, vt)
			if err != nil {
				return err
			}
			columns = append(columns, v)
		}

		sink := recording.MakeFileSinkBuilder().
			WithSession(s).
			WithPath(runFlags.out).
			WithColumns(runFlags.watch...).
			WithTimeColumn(runFlags.timeCol).
			WithSeparator(runFlags.sep).
			Build()
		rules.NewLogRule(s.GetRegistry(), sink, s, columns...)

		if runFlags.sqlite != "" {
			db := recording.MakeSQLiteSinkBuilder().
				WithSession(s).
				WithPath(runFlags.sqlite).
				WithColumns(runFlags.watch...).
				Build()
			rules.NewLogRule(s.GetRegistry(), db, s, columns...)
		}
	}

	for _, name := range runFlags.nonzero {
		addr, ok := accessor.Address(name)
		if !ok {
			return fmt.Errorf("unknown assert variable %q", name)
		}

		v := accessor.Int32Variable(addr)
		cond := react.Map(v.Value(), func(x int32) bool { return x != 0 })
		rules.NewAssertion(s.GetRegistry(), cond, name+" != 0", s)
	}

	return nil
}
