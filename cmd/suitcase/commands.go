package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"iter"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"suitcase/internal/checksum"
	"suitcase/internal/codec"
	"suitcase/internal/config"
	"suitcase/internal/format"
	"suitcase/internal/service"
	"suitcase/internal/watcher"
)

// resolveFormat picks the native codec: the named one, else the one
// matching the first path's extension, else the configured default
func (a *app) resolveFormat(name string, paths []string) (string, format.Codec, error) {
	if name == "" && len(paths) > 0 {
		if n, c, err := a.formats.ForPath(paths[0]); err == nil {
			return n, c, nil
		}
	}
	if name == "" {
		name = a.cfg.Format
	}
	c, err := a.formats.Lookup(name)
	if err != nil {
		return "", nil, err
	}
	return name, c, nil
}

func (a *app) ingest(ctx context.Context, args []string) (err error) {
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	formatName := fs.String("format", "", "native format (default: from the first file's extension, then config)")
	encoding := fs.String("encoding", a.cfg.StreamEncoding, "stream encoding: json or yaml")
	output := fs.String("o", "-", "stream output file, - for stdout")
	watchDir := fs.String("watch", "", "ingest files as they appear in this directory")
	idle := fs.Duration("idle", a.cfg.Watch.Idle.Duration(), "with -watch, stop after this long without new files")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *watchDir != "" && fs.NArg() > 0 {
		return fmt.Errorf("%w: ingest takes either -watch or paths, not both", errUsage)
	}

	name, native, err := a.resolveFormat(*formatName, fs.Args())
	if err != nil {
		return err
	}
	stream, err := codec.ForName(*encoding)
	if err != nil {
		return err
	}

	var paths iter.Seq[string]
	var w *watcher.Watcher
	if *watchDir != "" {
		extensions := a.cfg.Watch.Extensions
		if len(extensions) == 0 {
			extensions = []string{native.Extension()}
		}
		w = watcher.New(*watchDir, watcher.Options{
			Debounce:   a.cfg.Watch.Debounce.Duration(),
			Idle:       *idle,
			Extensions: extensions,
			Existing:   true,
		})
		paths = w.Paths(ctx)
		log.Printf("Watching %s for %s files", *watchDir, strings.Join(extensions, ", "))
	} else {
		paths = slices.Values(fs.Args())
	}

	rec, err := a.startRecording(ctx, "ingest", name)
	if err != nil {
		return err
	}
	defer func() { rec.finish(err) }()

	out, closeOut, err := a.openOutput(*output)
	if err != nil {
		return err
	}

	docs := service.NewIngester(native, a.bus).Ingest(paths)
	err = stream.Export(docs, out)
	if cerr := closeOut(); err == nil {
		err = cerr
	}
	if err == nil && w != nil {
		err = w.Err()
	}
	return err
}

func (a *app) export(ctx context.Context, args []string) (err error) {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	formatName := fs.String("format", a.cfg.Format, "native format")
	encoding := fs.String("encoding", a.cfg.StreamEncoding, "stream encoding: json or yaml")
	dir := fs.String("dir", a.cfg.OutputDir, "output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 1 {
		return fmt.Errorf("%w: export reads one stream", errUsage)
	}

	name, native, err := a.resolveFormat(*formatName, nil)
	if err != nil {
		return err
	}
	stream, err := codec.ForName(*encoding)
	if err != nil {
		return err
	}

	in := a.stdin
	if src := fs.Arg(0); src != "" && src != "-" {
		f, err := os.Open(src)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	if err := os.MkdirAll(*dir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	rec, err := a.startRecording(ctx, "export", name)
	if err != nil {
		return err
	}
	defer func() { rec.finish(err) }()

	paths, err := service.NewExporter(native, *dir, a.bus).Export(stream.Parse(in))
	for _, p := range paths {
		fmt.Fprintln(a.stdout, p)
	}
	if err != nil {
		return err
	}
	log.Printf("Exported %d files to %s", len(paths), *dir)
	return nil
}

func (a *app) roundtrip(ctx context.Context, args []string) (err error) {
	fs := flag.NewFlagSet("roundtrip", flag.ContinueOnError)
	formatName := fs.String("format", "", "native format (default: from the first file's extension, then config)")
	dir := fs.String("dir", a.cfg.OutputDir, "output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	sources := fs.Args()

	name, native, err := a.resolveFormat(*formatName, sources)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(*dir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	rec, err := a.startRecording(ctx, "roundtrip", name)
	if err != nil {
		return err
	}
	defer func() { rec.finish(err) }()

	docs := service.NewIngester(native, a.bus).Ingest(slices.Values(sources))
	written, err := service.NewExporter(native, *dir, a.bus).Export(docs)
	if err != nil {
		return err
	}

	images := slices.DeleteFunc(written, func(p string) bool {
		return filepath.Ext(p) == ".json"
	})
	if len(images) != len(sources) {
		return fmt.Errorf("wrote %d images for %d sources", len(images), len(sources))
	}

	mismatches := 0
	for i, src := range sources {
		before, err := checksum.Pixels(native, src)
		if err != nil {
			return err
		}
		after, err := checksum.Pixels(native, images[i])
		if err != nil {
			return err
		}
		status := "ok"
		if before != after {
			status = "MISMATCH"
			mismatches++
		}
		fmt.Fprintf(a.stdout, "%s\t%s -> %s\t%s\n", status, src, images[i], after.Short())
	}
	if mismatches > 0 {
		return fmt.Errorf("%d of %d files changed pixels", mismatches, len(sources))
	}
	return nil
}

func (a *app) runs(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "number of runs to list, 0 for all")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !a.cfg.Catalog.Enabled {
		return fmt.Errorf("run catalog is disabled (set catalog.enabled in the config)")
	}

	repo, err := openCatalog(a.cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	if uid := fs.Arg(0); uid != "" {
		run, err := repo.GetRun(ctx, uid)
		if err != nil {
			return err
		}
		if *asJSON {
			return json.NewEncoder(a.stdout).Encode(run)
		}
		tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "KIND\tSIZE\tCHECKSUM\tPATH\n")
		for _, art := range run.Artifacts {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", art.Kind, art.Size, checksum.Digest(art.Checksum).Short(), art.Path)
		}
		return tw.Flush()
	}

	runs, err := repo.ListRuns(ctx, *limit)
	if err != nil {
		return err
	}
	if *asJSON {
		return json.NewEncoder(a.stdout).Encode(runs)
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "UID\tDIRECTION\tFORMAT\tSTATUS\tSTARTED\tFILES\n")
	for _, run := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n",
			run.UID, run.Direction, run.Format, run.Status,
			run.StartedAt.Local().Format(time.DateTime), run.ArtifactCount)
	}
	return tw.Flush()
}

// configCommand writes a starter config file or prints the loaded one
func (a *app) configCommand(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: config needs a subcommand (init or show)", errUsage)
	}

	switch args[0] {
	case "init":
		fs := flag.NewFlagSet("config init", flag.ContinueOnError)
		output := fs.String("o", config.ConfigFileName, "where to write the config")
		force := fs.Bool("force", false, "overwrite an existing file")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if _, err := os.Stat(*output); err == nil && !*force {
			return fmt.Errorf("%s already exists (use -force to overwrite)", *output)
		}
		if err := config.DefaultConfig().Save(*output); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		fmt.Fprintf(a.stdout, "Wrote %s\n", *output)
		return nil
	case "show":
		fmt.Fprintln(a.stdout, a.cfg.Summary())
		return nil
	}
	return fmt.Errorf("%w: unknown config subcommand %q", errUsage, args[0])
}

func (a *app) listFormats(args []string) error {
	fs := flag.NewFlagSet("formats", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	for _, name := range a.formats.Names() {
		c, err := a.formats.Lookup(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "%s\t.%s\n", name, c.Extension())
	}
	return nil
}

// openOutput returns a buffered writer for path, or for stdout when path
// is -, and the function that flushes and closes it
func (a *app) openOutput(path string) (io.Writer, func() error, error) {
	if path == "-" || path == "" {
		bw := bufio.NewWriter(a.stdout)
		return bw, bw.Flush, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	bw := bufio.NewWriter(f)
	return bw, func() error {
		if err := bw.Flush(); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}, nil
}
