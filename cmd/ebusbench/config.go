package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/saylorsolutions/busx/assert"
	"github.com/saylorsolutions/busx/ebus"
	"github.com/saylorsolutions/busx/env"
	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const (
	phaseDispatch = "dispatch"
	phaseQueue    = "queue"
	phaseThrash   = "thrash"
)

var (
	ErrConfig = errors.New("invalid configuration")

	allPhases    = []string{phaseDispatch, phaseQueue, phaseThrash}
	lockPolicies = map[string]ebus.LockPolicy{
		"none":     ebus.NoLocking,
		"locked":   ebus.Locked,
		"lockless": ebus.Lockless,
	}
	logLevels = []string{"debug", "info", "warn", "error"}
)

// config is populated from, in increasing priority: defaults, EBUSBENCH_* variables, the scenario file, and explicit flags.
type config struct {
	Handlers    int      `yaml:"handlers"`
	IDs         int      `yaml:"ids"`
	Events      int      `yaml:"events"`
	Goroutines  int      `yaml:"goroutines"`
	Locking     string   `yaml:"locking"`
	Phases      []string `yaml:"phases"`
	LogLevel    string   `yaml:"log_level"`
	JSON        bool     `yaml:"json"`
	MetricsAddr string   `yaml:"metrics_addr"`
}

func (c config) lockPolicy() ebus.LockPolicy {
	return lockPolicies[c.Locking]
}

func (c config) validate() error {
	errs := assert.CollectErrors("; ")
	positive := func(name string, val int) {
		if val <= 0 {
			errs.AddString("%s must be greater than zero, got %d", name, val)
		}
	}
	positive("handlers", c.Handlers)
	positive("ids", c.IDs)
	positive("events", c.Events)
	positive("goroutines", c.Goroutines)
	if _, ok := lockPolicies[c.Locking]; !ok {
		errs.AddString("unknown locking policy '%s'", c.Locking)
	}
	if !slices.Contains(logLevels, c.LogLevel) {
		errs.AddString("unknown log level '%s'", c.LogLevel)
	}
	if len(c.Phases) == 0 {
		errs.AddString("at least one phase is required")
	}
	for _, phase := range c.Phases {
		if !slices.Contains(allPhases, phase) {
			errs.AddString("unknown phase '%s'", phase)
		}
	}
	return errs.Wrap(ErrConfig)
}

func parseConfig(args []string, usageOut io.Writer) (config, error) {
	var (
		vars     = env.Prefixed("EBUSBENCH")
		conf     config
		scenario string
		fs       = flag.NewFlagSet("ebusbench", flag.ContinueOnError)
		locking  = make([]string, 0, len(lockPolicies))
	)
	for name := range lockPolicies {
		locking = append(locking, name)
	}
	slices.Sort(locking)

	fs.SetOutput(usageOut)
	fs.StringVar(&scenario, "scenario", vars.Val("scenario", ""), "YAML scenario file with defaults for the other flags")
	fs.IntVar(&conf.Handlers, "handlers", vars.Int("handlers", 64), "Number of handlers to connect")
	fs.IntVar(&conf.IDs, "ids", vars.Int("ids", 16), "Number of addresses to spread handlers across")
	fs.IntVar(&conf.Events, "events", vars.Int("events", 100_000), "Number of events to dispatch per phase")
	fs.IntVar(&conf.Goroutines, "goroutines", vars.Int("goroutines", 4), "Number of dispatching goroutines in the thrash phase")
	fs.StringVar(&conf.Locking, "locking", vars.Choice("locking", "locked", locking...), "Bus locking policy: "+strings.Join(locking, ", "))
	fs.StringSliceVar(&conf.Phases, "phases", strings.Split(vars.Val("phases", strings.Join(allPhases, ",")), ","), "Phases to run: "+strings.Join(allPhases, ", "))
	fs.StringVar(&conf.LogLevel, "log-level", vars.Choice("log-level", "info", logLevels...), "Log level: "+strings.Join(logLevels, ", "))
	fs.BoolVar(&conf.JSON, "json", vars.Bool("json", false), "Write logs and the report as JSON")
	fs.StringVar(&conf.MetricsAddr, "metrics-addr", vars.Val("metrics-addr", ""), "Serve Prometheus metrics on this address while running, like ':9090'")
	fs.Usage = func() {
		_, _ = fmt.Fprintf(usageOut, "ebusbench exercises event buses and reports how long each phase took.\n\nUSAGE:\nebusbench [FLAGS]\n\nFLAGS\n%s", fs.FlagUsages())
	}
	if err := fs.Parse(args); err != nil {
		return conf, err
	}
	if fs.NArg() > 0 {
		return conf, fmt.Errorf("%w: unexpected arguments %v", ErrConfig, fs.Args())
	}

	if len(scenario) > 0 {
		fromFile, err := loadScenario(scenario, conf)
		if err != nil {
			return conf, err
		}
		// Flags given on the command line override the scenario.
		conf = mergeChanged(fs, fromFile, conf)
	}
	conf.Locking = strings.ToLower(conf.Locking)
	conf.LogLevel = strings.ToLower(conf.LogLevel)
	return conf, conf.validate()
}

// loadScenario reads a scenario file over the given base config.
func loadScenario(path string, base config) (config, error) {
	f, err := os.Open(path)
	if err != nil {
		return base, fmt.Errorf("%w: failed to open scenario: %w", ErrConfig, err)
	}
	defer func() {
		_ = f.Close()
	}()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&base); err != nil && !errors.Is(err, io.EOF) {
		return base, fmt.Errorf("%w: failed to read scenario '%s': %w", ErrConfig, path, err)
	}
	return base, nil
}

// mergeChanged copies fields set by explicit flags in fs from flagged into scenario.
func mergeChanged(fs *flag.FlagSet, scenario, flagged config) config {
	overrides := map[string]func(){
		"handlers":     func() { scenario.Handlers = flagged.Handlers },
		"ids":          func() { scenario.IDs = flagged.IDs },
		"events":       func() { scenario.Events = flagged.Events },
		"goroutines":   func() { scenario.Goroutines = flagged.Goroutines },
		"locking":      func() { scenario.Locking = flagged.Locking },
		"phases":       func() { scenario.Phases = flagged.Phases },
		"log-level":    func() { scenario.LogLevel = flagged.LogLevel },
		"json":         func() { scenario.JSON = flagged.JSON },
		"metrics-addr": func() { scenario.MetricsAddr = flagged.MetricsAddr },
	}
	for name, override := range overrides {
		if fs.Changed(name) {
			override()
		}
	}
	return scenario
}
