package main

// qmcsim estimates the execution time of a quantum circuit on a multi-core
// quantum architecture.
//
//	qmcsim -c <circuit> -a <architecture> -p <parameters> [-o <param> <value>]*
//	       [-trace <file>] [-report <file>] [-db <file>] [-log <level>]

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/iti/qmcsim"
	"go.uber.org/zap"
)

// exit statuses
const (
	exitUsage = 1 + iota
	exitCircuit
	exitArchitecture
	exitParameters
	exitInvariant
	exitResultsDB
	exitSimulation
)

const usage = "Usage: qmcsim -c <circuit> -a <architecture> -p <parameters> [-o <param> <value>]*" +
	" [-trace <file>] [-report <file>] [-db <file>] [-log <level>]"

// splitOverrides removes every '-o name value' triple from args
func splitOverrides(args []string) ([]string, []qmcsim.Override, error) {
	rest := make([]string, 0, len(args))
	overrides := make([]qmcsim.Override, 0)
	for idx := 0; idx < len(args); idx++ {
		if args[idx] != "-o" && args[idx] != "--o" {
			rest = append(rest, args[idx])
			continue
		}
		if idx+2 >= len(args) {
			return nil, nil, errors.New("-o needs a parameter name and a value")
		}
		overrides = append(overrides, qmcsim.Override{Name: args[idx+1], Value: args[idx+2]})
		idx += 2
	}
	return rest, overrides, nil
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("qmcsim", flag.ContinueOnError)
	circuitFile := fs.String("c", "", "circuit file")
	archFile := fs.String("a", "", "architecture file (yaml, json, or 'name value' lines)")
	paramFile := fs.String("p", "", "parameters file (yaml, json, or 'name value' lines)")
	traceFile := fs.String("trace", "", "write a per-stage trace to this file (yaml or json)")
	reportFile := fs.String("report", "", "also write the report to this file (yaml, json, or text)")
	dbFile := fs.String("db", "", "record the report in this sqlite database")
	logLevel := fs.String("log", "info", "log level: error, warn, info, debug")

	rest, overrides, err := splitOverrides(args)
	if err == nil {
		err = fs.Parse(rest)
	}
	if err != nil || len(*circuitFile) == 0 || len(*archFile) == 0 || len(*paramFile) == 0 || fs.NArg() > 0 {
		fmt.Fprintln(os.Stderr, usage)
		return exitUsage
	}

	logger, _, err := qmcsim.NewLogger(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "building logger: %v\n", err)
		return exitUsage
	}
	defer logger.Sync()
	defer zap.ReplaceGlobals(logger)()

	xp, err := qmcsim.BuildExperiment(*circuitFile, *archFile, *paramFile, overrides)
	if err != nil {
		logger.Error("loading experiment", zap.Error(err))
		return loadExitCode(err)
	}

	fmt.Printf("*** Circuit ***\n%s\n\n", xp.Circuit.Summary())
	fmt.Printf("*** Architecture ***\n%s\n", xp.Arch)
	fmt.Printf("*** Parameters ***\n%s\n", xp.Params)
	fmt.Println(xp.NoC)

	xp.Trace = qmcsim.CreateTraceManager(xp.Name, len(*traceFile) > 0)
	rpt, err := xp.Run()
	if err != nil {
		logger.Error("simulation failed", zap.Error(err))
		return runExitCode(err)
	}
	fmt.Print(rpt.Text())

	if len(*traceFile) > 0 {
		if _, err = xp.Trace.WriteToFile(*traceFile); err != nil {
			logger.Warn("writing trace", zap.String("file", *traceFile), zap.Error(err))
		}
	}
	if len(*reportFile) > 0 {
		if err = rpt.WriteToFile(*reportFile); err != nil {
			logger.Warn("writing report", zap.String("file", *reportFile), zap.Error(err))
		}
	}

	if len(*dbFile) > 0 {
		rdb, err := qmcsim.OpenResultsDB(*dbFile)
		if err != nil {
			logger.Error("opening results database", zap.Error(err))
			return exitResultsDB
		}
		defer rdb.Close()
		if err = rdb.Record(xp.Name, rpt); err != nil {
			logger.Error("recording run", zap.Error(err))
			return exitResultsDB
		}
		logger.Info("run recorded", zap.String("fingerprint", rpt.Fingerprint), zap.String("db", *dbFile))
	}
	return 0
}

// runExitCode maps a failed run to its exit status
func runExitCode(err error) int {
	if qmcsim.IsInvariantError(err) {
		return exitInvariant
	}
	return exitSimulation
}

// loadExitCode maps the failure to load an input to its exit status
func loadExitCode(err error) int {
	var le *qmcsim.LoadError
	if !errors.As(err, &le) {
		return exitUsage
	}
	switch le.Kind {
	case "circuit":
		return exitCircuit
	case "architecture":
		return exitArchitecture
	default:
		return exitParameters
	}
}
