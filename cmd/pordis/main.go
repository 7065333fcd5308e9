// Command pordis decompiles a compiled script container into a
// pseudo-source listing.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/chazu/pordis/manifest"
	"github.com/chazu/pordis/pkg/bytecode"
	"github.com/chazu/pordis/pkg/container"
	"github.com/chazu/pordis/pkg/decompile"
	"github.com/chazu/pordis/pkg/printer"
)

func main() {
	dialect := flag.String("dialect", "", "bytecode dialect to decode against: A or B (default from pordis.toml, else A)")
	debugKeep := flag.Bool("debug-keep-branches", false, "slice at BKY/BKN like ordinary jumps (scenes containing them then fail to decompile)")
	dump := flag.String("dump", "", "output format: text or cbor (default from pordis.toml, else text)")
	outputPath := flag.String("output", "", "output file path (default from pordis.toml, else stdout)")
	cachePath := flag.String("cache", "", "decompile-result cache database path (default from pordis.toml, else disabled)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: pordis [options] <container>\n\n")
		fmt.Fprintf(os.Stderr, "Decompiles the event scripts embedded in a compiled script container\n")
		fmt.Fprintf(os.Stderr, "and prints a pseudo-source listing to stdout.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	m, err := manifest.FindAndLoad(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "pordis: %v\n", err)
		os.Exit(1)
	}

	dialectStr := *dialect
	if dialectStr == "" && m != nil {
		dialectStr = m.Dialect.Default
	}
	if dialectStr == "" {
		dialectStr = "A"
	}

	d, err := parseDialect(dialectStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pordis: %v\n", err)
		os.Exit(1)
	}

	dumpFormat := *dump
	if dumpFormat == "" && m != nil {
		dumpFormat = m.Output.Format
	}
	if dumpFormat == "" {
		dumpFormat = "text"
	}
	if dumpFormat != "text" && dumpFormat != "cbor" {
		fmt.Fprintf(os.Stderr, "pordis: unknown dump format %q (want text or cbor)\n", dumpFormat)
		os.Exit(1)
	}

	resolvedOutputPath := *outputPath
	if resolvedOutputPath == "" && m != nil {
		resolvedOutputPath = m.OutputPath()
	}

	resolvedCachePath := *cachePath
	if resolvedCachePath == "" && m != nil {
		resolvedCachePath = m.CachePath()
	}

	var cache *decompile.Cache
	if resolvedCachePath != "" {
		cache, err = decompile.OpenCache(resolvedCachePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "pordis: %v\n", err)
			os.Exit(1)
		}
		defer cache.Close()
	}

	opts := decompile.Options{Dialect: d, IncludeBranchAndKeep: *debugKeep, Cache: cache}
	if err := run(flag.Arg(0), opts, dumpFormat, resolvedOutputPath); err != nil {
		fmt.Fprintf(os.Stderr, "pordis: %v\n", err)
		os.Exit(2)
	}
}

func parseDialect(s string) (bytecode.Dialect, error) {
	switch s {
	case "A":
		return bytecode.DialectA, nil
	case "B":
		return bytecode.DialectB, nil
	default:
		return 0, fmt.Errorf("unknown dialect %q (want A or B)", s)
	}
}

func run(path string, opts decompile.Options, dump, outputPath string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	c, err := container.Parse(data)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	events := decompile.All(c, opts)

	out := io.Writer(os.Stdout)
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("open %s for writing: %w", outputPath, err)
		}
		defer f.Close()
		out = f
	}

	switch dump {
	case "text":
		return printer.WriteListing(out, c.GlobalNames, events)
	case "cbor":
		blob, err := decompile.DumpCBOR(events)
		if err != nil {
			return fmt.Errorf("dump %s: %w", path, err)
		}
		_, err = out.Write(blob)
		return err
	default:
		return fmt.Errorf("unknown dump format %q (want text or cbor)", dump)
	}
}
