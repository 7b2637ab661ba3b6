// Command suitcase moves event-model document streams in and out of native
// detector image files.
//
// Usage:
//
//	suitcase [-config path] [-v] <command> [flags] [args]
//
// Commands:
//
//	ingest     read image files (or a watched directory) into a document stream
//	export     write a document stream out as image files
//	roundtrip  ingest files, export them again and compare the pixels
//	runs       list the runs recorded in the catalog
//	formats    list the native formats
//	config     write a starter config (init) or print the loaded one (show)
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"suitcase/internal/config"
	"suitcase/internal/format"
	"suitcase/internal/metrics"
	"suitcase/internal/service"
)

// errUsage marks command line mistakes; main exits 2 for them
var errUsage = errors.New("usage")

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout)
	stop()
	switch {
	case err == nil:
	case errors.Is(err, flag.ErrHelp):
		os.Exit(0)
	case errors.Is(err, errUsage):
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	default:
		log.Fatalf("suitcase: %v", err)
	}
}

// app holds what every command shares
type app struct {
	cfg     *config.Config
	formats *format.Registry
	bus     *service.EventBus
	metrics *metrics.Metrics
	stdin   io.Reader
	stdout  io.Writer
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	global := flag.NewFlagSet("suitcase", flag.ContinueOnError)
	configPath := global.String("config", "", "config file path (default: search $SUITCASE_CONFIG, ./suitcase.yaml, XDG)")
	verbose := global.Bool("v", false, "log every document and file")
	global.Usage = func() {
		fmt.Fprintln(global.Output(), "usage: suitcase [-config path] [-v] <ingest|export|roundtrip|runs|formats|config> [flags] [args]")
		global.PrintDefaults()
	}
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		global.Usage()
		return fmt.Errorf("%w: no command given", errUsage)
	}

	cfg, path, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *verbose {
		cfg.Log.Verbose = true
	}
	if path != "" && cfg.Log.Verbose {
		log.Printf("Loaded config from %s\n%s", path, cfg.Summary())
	}

	a := &app{
		cfg:     cfg,
		formats: format.DefaultRegistry(),
		bus:     service.NewEventBus(),
		metrics: metrics.New(),
		stdin:   stdin,
		stdout:  stdout,
	}
	a.metrics.Subscribe(a.bus)
	if cfg.Log.Verbose {
		a.bus.Subscribe(logEvent)
	}

	command, rest := global.Arg(0), global.Args()[1:]
	switch command {
	case "ingest":
		err = a.ingest(ctx, rest)
	case "export":
		err = a.export(ctx, rest)
	case "roundtrip":
		err = a.roundtrip(ctx, rest)
	case "runs":
		err = a.runs(ctx, rest)
	case "formats":
		err = a.listFormats(rest)
	case "config":
		err = a.configCommand(rest)
	default:
		global.Usage()
		return fmt.Errorf("%w: unknown command %q", errUsage, command)
	}

	readOnly := slices.Contains([]string{"runs", "formats", "config"}, command)
	if textfile := cfg.Metrics.Textfile; textfile != "" && !readOnly {
		if werr := a.metrics.WriteTextfile(textfile); werr != nil {
			log.Printf("Failed to write metrics to %s: %v", textfile, werr)
		}
	}
	return err
}

func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

// logEvent is the -v subscriber
func logEvent(e service.Event) {
	switch p := e.Payload.(type) {
	case service.DocumentPayload:
		log.Printf("%s %s %s", p.Direction, p.Kind, p.UID)
	case service.FilePayload:
		verb := "Wrote"
		if e.Type == service.EventFileRead {
			verb = "Read"
		}
		log.Printf("%s %s (%d bytes)", verb, p.Path, p.Bytes)
	}
}
