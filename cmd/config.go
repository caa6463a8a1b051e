package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/terminal-sim/terminal-sim/sim/terminal"
)

// envPrefix is prepended to every configuration key read from the environment.
const envPrefix = "TERMINAL_"

// resolveConfig builds the effective configuration. Later sources win:
// defaults, the --config YAML file, .env and TERMINAL_* variables, then flags
// given explicitly on the command line. horizonSet reports whether any of
// those sources provided the horizon; when none did, cfg.Horizon is 0.
func resolveConfig(flags *pflag.FlagSet) (cfg terminal.Config, horizonSet bool, err error) {
	cfg = terminal.DefaultConfig()

	if configPath != "" {
		if err := terminal.LoadConfigFile(configPath, &cfg); err != nil {
			return cfg, false, err
		}
		if horizonSet, err = fileSetsHorizon(configPath); err != nil {
			return cfg, false, err
		}
		logrus.Debugf("Loaded configuration from %s", configPath)
	}

	env, err := loadEnv(envFile)
	if err != nil {
		return cfg, false, err
	}
	if err := applyEnv(&cfg, env); err != nil {
		return cfg, false, err
	}
	if _, ok := env[envPrefix+"HORIZON"]; ok {
		horizonSet = true
	}

	applyFlags(&cfg, flags)
	if flags.Changed("horizon") {
		horizonSet = true
	}
	return cfg, horizonSet, nil
}

// fileSetsHorizon reports whether the YAML file at path has a horizon key,
// whatever its value.
func fileSetsHorizon(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("reading terminal config: %w", err)
	}
	var shim struct {
		Horizon *int64 `yaml:"horizon"`
	}
	if err := yaml.Unmarshal(data, &shim); err != nil {
		return false, fmt.Errorf("parsing terminal config %s: %w", path, err)
	}
	return shim.Horizon != nil, nil
}

// loadEnv returns the TERMINAL_* variables from path (or ./.env when path is
// empty and the file exists), overlaid with the process environment.
func loadEnv(path string) (map[string]string, error) {
	vals := map[string]string{}
	file := path
	if file == "" {
		file = ".env"
	}
	fileVals, err := godotenv.Read(file)
	switch {
	case err == nil:
		for k, v := range fileVals {
			vals[k] = v
		}
	case path == "" && errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("reading env file %s: %w", file, err)
	}

	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok && strings.HasPrefix(k, envPrefix) {
			vals[k] = v
		}
	}
	return vals, nil
}

func applyEnv(cfg *terminal.Config, env map[string]string) error {
	ints := map[string]*int{
		"BERTHS":                &cfg.Berths,
		"CRANES":                &cfg.Cranes,
		"TRUCKS":                &cfg.Trucks,
		"CONTAINERS_PER_VESSEL": &cfg.ContainersPerVessel,
		"MAX_VESSELS":           &cfg.MaxVessels,
	}
	for key, dst := range ints {
		if raw, ok := env[envPrefix+key]; ok {
			v, err := strconv.Atoi(strings.TrimSpace(raw))
			if err != nil {
				return fmt.Errorf("%s%s: %w", envPrefix, key, err)
			}
			*dst = v
		}
	}

	int64s := map[string]*int64{
		"HORIZON": &cfg.Horizon,
		"SEED":    &cfg.Seed,
	}
	for key, dst := range int64s {
		if raw, ok := env[envPrefix+key]; ok {
			v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
			if err != nil {
				return fmt.Errorf("%s%s: %w", envPrefix, key, err)
			}
			*dst = v
		}
	}

	floats := map[string]*float64{
		"CRANE_SERVICE_TIME": &cfg.CraneServiceTime,
		"TRUCK_TRIP_TIME":    &cfg.TruckTripTime,
		"MEAN_INTER_ARRIVAL": &cfg.MeanInterArrival,
	}
	for key, dst := range floats {
		if raw, ok := env[envPrefix+key]; ok {
			v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return fmt.Errorf("%s%s: %w", envPrefix, key, err)
			}
			*dst = v
		}
	}

	if raw, ok := env[envPrefix+"ARRIVAL_PROCESS"]; ok {
		cfg.Arrival.Process = strings.TrimSpace(raw)
	}
	if raw, ok := env[envPrefix+"ARRIVAL_CV"]; ok {
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return fmt.Errorf("%sARRIVAL_CV: %w", envPrefix, err)
		}
		cfg.Arrival.CV = &v
	}
	return nil
}

// applyFlags copies only the flags the user actually set, so that flag
// defaults never mask values from the file or the environment.
func applyFlags(cfg *terminal.Config, flags *pflag.FlagSet) {
	if flags.Changed("horizon") {
		cfg.Horizon = simulationHorizon
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("berths") {
		cfg.Berths = berths
	}
	if flags.Changed("cranes") {
		cfg.Cranes = cranes
	}
	if flags.Changed("trucks") {
		cfg.Trucks = trucks
	}
	if flags.Changed("containers") {
		cfg.ContainersPerVessel = containersPerVessel
	}
	if flags.Changed("crane-time") {
		cfg.CraneServiceTime = craneServiceTime
	}
	if flags.Changed("truck-time") {
		cfg.TruckTripTime = truckTripTime
	}
	if flags.Changed("mean-inter-arrival") {
		cfg.MeanInterArrival = meanInterArrival
	}
	if flags.Changed("max-vessels") {
		cfg.MaxVessels = maxVessels
	}
	if flags.Changed("arrival") {
		cfg.Arrival.Process = arrivalProcess
	}
	if flags.Changed("arrival-cv") {
		cv := arrivalCV
		cfg.Arrival.CV = &cv
	}
}

// promptHorizon asks for the simulation time on in.
func promptHorizon(in io.Reader, out io.Writer) (int64, error) {
	fmt.Fprint(out, "Enter the simulation time (in minutes):")
	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return 0, fmt.Errorf("reading simulation time: %w", err)
		}
		return 0, errors.New("reading simulation time: no input")
	}
	horizon, err := strconv.ParseInt(strings.TrimSpace(scanner.Text()), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("simulation time must be a whole number of minutes: %w", err)
	}
	return horizon, nil
}
