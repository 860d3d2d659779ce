package main

import (
	"flag"
	"fmt"
	"os"

	simctl "github.com/ehrlich-b/go-simctl"
	"github.com/ehrlich-b/go-simctl/backend"
	"github.com/ehrlich-b/go-simctl/internal/logging"
)

func main() {
	var (
		port       = flag.Int("port", simctl.DefaultPort, "TCP loopback port to listen on")
		timeoutSec = flag.Int("timeout", simctl.DefaultTimeoutSec, "accept timeout, in seconds")
		width      = flag.Uint64("width", 8, "counter register width in bits (wraps at 2^width)")
		period     = flag.Uint64("period", 10, "free-running clock period, in ticks")
		verbose    = flag.Bool("v", false, "verbose (debug) logging")
	)
	flag.Parse()

	logConfig := logging.DefaultConfig()
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logger := logging.NewLogger(logConfig)
	logging.SetDefault(logger)

	model := backend.NewCounterModel(*width, -9)

	params := simctl.DefaultParams(model)
	params.Port = *port
	params.TimeoutSec = *timeoutSec
	params.ModelName = "counter"

	driver, err := simctl.NewDriver(params, &simctl.Options{Logger: logger})
	if err != nil {
		logger.Error("failed to create driver", "error", err)
		os.Exit(1)
	}

	if err := driver.RegisterScalar("count", model.CountHandle(), 0); err != nil {
		logger.Error("failed to register count", "error", err)
		os.Exit(1)
	}
	if err := driver.RegisterEvent("overflow", model.OverflowHandle()); err != nil {
		logger.Error("failed to register overflow", "error", err)
		os.Exit(1)
	}
	clk := driver.RegisterClock("clk", model.ClockHandle())
	if err := clk.SetPeriod(*period, 0.5); err != nil {
		logger.Error("failed to configure clock", "error", err)
		os.Exit(1)
	}
	clk.Enable(0)

	fmt.Printf("simctl-demo listening on 127.0.0.1:%d (timeout %ds)\n", *port, *timeoutSec)
	fmt.Printf("registers: count (width=%d bits), overflow (event), clk (period=%d ticks)\n", *width, *period)

	status := driver.Run()
	logger.Info("session ended", "status", status, "metrics", driver.MetricsSnapshot())
	os.Exit(status)
}
