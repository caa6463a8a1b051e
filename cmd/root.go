package cmd

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/tebeka/atexit"
	"gopkg.in/yaml.v3"

	"github.com/terminal-sim/terminal-sim/sim/eventlog"
	"github.com/terminal-sim/terminal-sim/sim/terminal"
	"github.com/terminal-sim/terminal-sim/sim/trace"
)

// autoTraceName asks a trace writer to pick its own file name.
const autoTraceName = "auto"

var (
	configPath string // YAML configuration file
	envFile    string // .env file with TERMINAL_* variables
	logLevel   string // Log verbosity level

	// CLI flags for the terminal model
	seed                int64   // Seed for vessel arrivals
	simulationHorizon   int64   // Total simulation time (in minutes)
	berths              int     // Number of berths
	cranes              int     // Number of quay cranes
	trucks              int     // Number of trucks
	containersPerVessel int     // Containers unloaded from each vessel
	craneServiceTime    float64 // Minutes to lift one container
	truckTripTime       float64 // Minutes for a truck round trip
	meanInterArrival    float64 // Mean minutes between vessel arrivals
	maxVessels          int     // Stop generating vessels after this many (0 = unlimited)
	arrivalProcess      string  // Inter-arrival process
	arrivalCV           float64 // Coefficient of variation for gamma/weibull arrivals

	// Event log outputs
	traceJSONL  string // JSON lines trace file
	traceSQLite string // SQLite trace database
	traceLevel  string // In-memory trace level summarized after the run
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "terminal-sim",
	Short: "Discrete-event simulator for a container terminal",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
		if !trace.IsValidTraceLevel(traceLevel) {
			return fmt.Errorf("invalid trace level: %s (want none, vessel or container)", traceLevel)
		}
		return nil
	},
	SilenceUsage: true,
}

// runCmd executes the simulation using the resolved configuration
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the container terminal simulation",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, horizonSet, err := resolveConfig(cmd.Flags())
		if err != nil {
			return err
		}
		if !horizonSet {
			if cfg.Horizon, err = promptHorizon(cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
				return err
			}
		}
		return runSimulation(cfg, cmd.OutOrStdout())
	},
}

// configCmd prints the effective configuration without running anything
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := resolveConfig(cmd.Flags())
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return fmt.Errorf("encoding configuration: %w", err)
		}
		return enc.Close()
	},
}

// runSimulation wires the event sinks, runs one terminal and prints the report.
func runSimulation(cfg terminal.Config, out io.Writer) (err error) {
	sinks := []trace.Sink{eventlog.NewLogrusSink()}
	var writers []eventlog.Writer
	defer func() {
		for _, w := range writers {
			if cerr := w.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("closing trace: %w", cerr)
			}
		}
	}()

	if traceJSONL != "" {
		w, err := eventlog.NewJSONLinesWriter(tracePath(traceJSONL))
		if err != nil {
			return err
		}
		logrus.Infof("Writing JSON lines trace to %s", w.Path())
		sinks = append(sinks, w)
		writers = append(writers, w)
	}
	if traceSQLite != "" {
		w, err := eventlog.NewSQLiteWriter(tracePath(traceSQLite))
		if err != nil {
			return err
		}
		sinks = append(sinks, w)
		writers = append(writers, w)
	}
	var recorded *trace.SimulationTrace
	if level := trace.TraceLevel(traceLevel); level != "" && level != trace.TraceLevelNone {
		recorded = trace.NewSimulationTrace(trace.TraceConfig{Level: level})
		sinks = append(sinks, recorded)
	}

	term, err := terminal.New(cfg, eventlog.Multi(sinks...))
	if err != nil {
		return err
	}
	final, err := term.Run(float64(cfg.Horizon))
	if err != nil {
		return err
	}
	final.Print(out)
	if recorded != nil {
		trace.Summarize(recorded).Print(out)
	}
	logrus.Info("Simulation complete.")
	return nil
}

func tracePath(flagValue string) string {
	if flagValue == autoTraceName {
		return ""
	}
	return flagValue
}

// Execute runs the CLI root command
func Execute() {
	// Fatal logs must still flush trace writers.
	logrus.StandardLogger().ExitFunc = atexit.Exit
	if err := rootCmd.Execute(); err != nil {
		atexit.Exit(1)
	}
}

// registerFlags declares every configuration flag on fs.
func registerFlags(fs *pflag.FlagSet) {
	fs.StringVar(&configPath, "config", "", "YAML configuration file")
	fs.StringVar(&envFile, "env-file", "", "File with TERMINAL_* variables (default .env if present)")
	fs.StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")

	defaults := terminal.DefaultConfig()
	fs.Int64Var(&seed, "seed", defaults.Seed, "Seed for vessel arrivals")
	fs.Int64Var(&simulationHorizon, "horizon", 0, "Total simulation time (in minutes); prompted for when unset")
	fs.IntVar(&berths, "berths", defaults.Berths, "Number of berths")
	fs.IntVar(&cranes, "cranes", defaults.Cranes, "Number of quay cranes")
	fs.IntVar(&trucks, "trucks", defaults.Trucks, "Number of trucks")
	fs.IntVar(&containersPerVessel, "containers", defaults.ContainersPerVessel, "Containers per vessel")
	fs.Float64Var(&craneServiceTime, "crane-time", defaults.CraneServiceTime, "Minutes to lift one container")
	fs.Float64Var(&truckTripTime, "truck-time", defaults.TruckTripTime, "Minutes for a truck to drop a container and return")
	fs.Float64Var(&meanInterArrival, "mean-inter-arrival", defaults.MeanInterArrival, "Mean minutes between vessel arrivals")
	fs.IntVar(&maxVessels, "max-vessels", 0, "Stop after this many vessels have arrived (0 = unlimited)")
	fs.StringVar(&arrivalProcess, "arrival", defaults.Arrival.Process, "Inter-arrival process (poisson, constant, gamma, weibull)")
	fs.Float64Var(&arrivalCV, "arrival-cv", 1.0, "Coefficient of variation for gamma/weibull arrivals")

	fs.StringVar(&traceJSONL, "trace-jsonl", "", "Write event records to this JSON lines file")
	fs.StringVar(&traceSQLite, "trace-sqlite", "", "Write event records to this SQLite database")
	fs.StringVar(&traceLevel, "trace-level", string(trace.TraceLevelNone), "Keep an in-memory trace and print its summary (none, vessel, container)")
	fs.Lookup("trace-jsonl").NoOptDefVal = autoTraceName
	fs.Lookup("trace-sqlite").NoOptDefVal = autoTraceName
}

// init sets up CLI flags and subcommands
func init() {
	registerFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(configCmd)
}
