package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/sidesplit/internal/config"
	"github.com/eugenenazirov/sidesplit/internal/logging"
)

func main() {
	kingpinApp := kingpin.New("sidesplit", "Split timed tracks across fixed-length sides with balanced running times")
	configFile := kingpinApp.Flag("config", "Path to YAML configuration file").String()
	debug := kingpinApp.Flag("debug", "Enable debug logging").Bool()

	splitCmd := kingpinApp.Command("split", "Allocate a track list to sides and print the result")
	inputFile := splitCmd.Flag("input", "Track list, one \"[HH:]MM:SS Title\" per line").Short('i').Required().String()
	capacity := splitCmd.Flag("duration", "Capacity of a single side, e.g. 19:40").Short('d').String()
	even := splitCmd.Flag("even", "Force an even number of sides").Short('e').Bool()
	sides := splitCmd.Flag("sides", "Number of sides (0 derives it from the total duration)").Default("-1").Int()
	deadline := splitCmd.Flag("timeout", "Search deadline in seconds").Short('t').Default("-1").Int()
	threshold := splitCmd.Flag("threshold", "Stop once the load deviation drops below this many seconds").Default("-1").Float64()
	strategy := splitCmd.Flag("strategy", "Allocation strategy").Enum("search", "sequential")
	csvOut := splitCmd.Flag("csv", "Print the allocation as CSV").Bool()
	plain := splitCmd.Flag("plain", "Print track titles without durations").Bool()
	showProgress := splitCmd.Flag("progress", "Show a deadline progress bar on stderr").Bool()

	serveCmd := kingpinApp.Command("serve", "Run the HTTP API")
	port := serveCmd.Flag("port", "HTTP port exposed by the service").String()
	rateLimitRPSFlag := serveCmd.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	rateLimitBurstFlag := serveCmd.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()
	allocationRPSFlag := serveCmd.Flag("allocation-rate-limit-rps", "Allocation requests per second allowed (set 0 to disable)").Default("-1").Float64()
	allocationBurstFlag := serveCmd.Flag("allocation-rate-limit-burst", "Burst capacity for allocation requests").Default("-1").Int()
	maxDeadline := serveCmd.Flag("max-deadline", "Largest deadlineSeconds a request may ask for").Default("-1").Int()

	command := kingpin.MustParse(kingpinApp.Parse(os.Args[1:]))

	overrides := &config.CLIOverrides{
		ConfigFile: *configFile,
		Debug:      debug,
	}

	switch command {
	case splitCmd.FullCommand():
		overrides.InputFile = inputFile
		overrides.Capacity = capacity
		overrides.Even = even
		overrides.Strategy = strategy
		if *sides >= 0 {
			overrides.Sides = sides
		}
		if *deadline >= 0 {
			overrides.DeadlineSeconds = deadline
		}
		if *threshold >= 0 {
			overrides.Threshold = threshold
		}
	case serveCmd.FullCommand():
		if *port != "" {
			overrides.Port = port
		}
		if *rateLimitRPSFlag >= 0 {
			overrides.RateLimitRPS = rateLimitRPSFlag
		}
		if *rateLimitBurstFlag >= 0 {
			overrides.RateLimitBurst = rateLimitBurstFlag
		}
		if *allocationRPSFlag >= 0 {
			overrides.AllocationRPS = allocationRPSFlag
		}
		if *allocationBurstFlag >= 0 {
			overrides.AllocationBurst = allocationBurstFlag
		}
		if *maxDeadline >= 0 {
			overrides.MaxDeadline = maxDeadline
		}
	}

	cfg, err := config.Load(overrides)
	kingpinApp.FatalIfError(err, "load configuration")

	encoding := cfg.LogEncoding
	if command == splitCmd.FullCommand() {
		encoding = "console"
	}
	logger, err := logging.New(logging.WithDebug(cfg.Debug), logging.WithEncoding(encoding))
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	switch command {
	case splitCmd.FullCommand():
		err = runSplit(cfg, splitOptions{
			csv:      *csvOut,
			plain:    *plain,
			progress: *showProgress,
		}, logger)
		if err != nil {
			_ = logger.Sync()
			kingpinApp.Fatalf("%v", err)
		}
	case serveCmd.FullCommand():
		if err := runServe(cfg, logger); err != nil {
			logger.Fatal("server failed", zap.Error(err))
		}
	}
}
