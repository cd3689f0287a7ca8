// Command spectool transforms 1D spectra from the command line: unit
// conversion, arithmetic between spectra, normalization, smoothing and
// provenance inspection, with an optional SQLite catalog for intermediate
// results.
//
// Usage:
//
//	spectool <command> [flags] [args]
//
// Commands:
//
//	info        print a summary of a spectrum file
//	convert     convert the abscissa to another unit
//	subtract    subtract one spectrum from another
//	divide      divide one spectrum by another
//	normalize   rescale values by peak, area or continuum
//	smooth      smooth values with a boxcar, gaussian or savitzky_golay kernel
//	slice       cut a spectrum to an abscissa range
//	provenance  print a spectrum's transformation history as YAML
//	replay      re-run a provenance ledger against fresh inputs
//	plot        render one or more spectra as an ECharts HTML page
//	store       save a spectrum into a catalog database
//	list        list the spectra in a catalog database
//	fetch       export a spectrum from a catalog database
//	remove      delete a spectrum from a catalog database
//
// Examples:
//
//	spectool info vega.csv
//	spectool convert -to angstrom -o vega_aa.csv vega.csv
//	spectool subtract -o clean.csv vega.csv sky.csv
//	spectool normalize -method peak -o norm.csv clean.csv
//	spectool smooth -method gaussian -sigma 2.5 -o smooth.csv norm.csv
//	spectool provenance smooth.csv > pipeline.yaml
//	spectool replay -ledger pipeline.yaml -in <id>=vega2.csv -o out.csv
//	spectool plot -o chart.html -normalize vega.csv sky.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/cwbudde/algo-spectra/catalog"
	"github.com/cwbudde/algo-spectra/plot"
	"github.com/cwbudde/algo-spectra/specio"
	"github.com/cwbudde/algo-spectra/spectra/ops"
	"github.com/cwbudde/algo-spectra/spectra/provenance"
	"github.com/cwbudde/algo-spectra/spectra/spectrum"
	"github.com/cwbudde/algo-spectra/spectra/unit"
)

func main() {
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	cmd, rest := args[0], args[1:]
	var err error
	switch cmd {
	case "info":
		err = cmdInfo(rest)
	case "convert":
		err = cmdConvert(rest)
	case "subtract":
		err = cmdBinary(rest, "subtract", ops.Subtract)
	case "divide":
		err = cmdBinary(rest, "divide", ops.Divide)
	case "normalize":
		err = cmdNormalize(rest)
	case "smooth":
		err = cmdSmooth(rest)
	case "slice":
		err = cmdSlice(rest)
	case "provenance":
		err = cmdProvenance(rest)
	case "replay":
		err = cmdReplay(rest)
	case "plot":
		err = cmdPlot(rest)
	case "store":
		err = cmdStore(rest)
	case "list":
		err = cmdList(rest)
	case "fetch":
		err = cmdFetch(rest)
	case "remove":
		err = cmdRemove(rest)
	default:
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n\n", cmd)
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: spectool <command> [flags] [args]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  info convert subtract divide normalize smooth slice\n")
	fmt.Fprintf(os.Stderr, "  provenance replay plot store list fetch remove\n\n")
	fmt.Fprintf(os.Stderr, "Run 'spectool <command> -h' for command flags.\n")
}

func cmdInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("info: expected one input file, got %d", fs.NArg())
	}
	s, err := specio.Load(fs.Arg(0))
	if err != nil {
		return err
	}

	lo, hi := s.Range()
	meta := s.Meta()
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "name\t%s\n", meta.Name)
	if meta.Object != "" {
		fmt.Fprintf(tw, "object\t%s\n", meta.Object)
	}
	if meta.Instrument != "" {
		fmt.Fprintf(tw, "instrument\t%s\n", meta.Instrument)
	}
	fmt.Fprintf(tw, "id\t%s\n", s.ID())
	fmt.Fprintf(tw, "samples\t%d (%d valid)\n", s.Len(), s.ValidCount())
	fmt.Fprintf(tw, "range\t%g .. %g %s\n", lo, hi, s.Unit())
	fmt.Fprintf(tw, "values\t%s\n", s.ValueUnit())
	fmt.Fprintf(tw, "operations\t%d\n", len(s.Provenance()))
	return tw.Flush()
}

func cmdConvert(args []string) error {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	to := fs.String("to", "", "target unit: nm, angstrom, Hz or eV")
	out := fs.String("o", "", "output file (csv, txt, dat or asc)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 || *to == "" || *out == "" {
		return fmt.Errorf("convert: usage: spectool convert -to UNIT -o OUT FILE")
	}
	u, err := unit.Parse(*to)
	if err != nil {
		return err
	}
	s, err := specio.Load(fs.Arg(0))
	if err != nil {
		return err
	}
	converted, err := ops.ConvertUnits(s, u)
	if err != nil {
		return err
	}
	return save(*out, converted)
}

func cmdBinary(args []string, name string, op func(a, b *spectrum.Spectrum) (*spectrum.Spectrum, error)) error {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	out := fs.String("o", "", "output file (csv, txt, dat or asc)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 || *out == "" {
		return fmt.Errorf("%s: usage: spectool %s -o OUT A B", name, name)
	}
	a, err := specio.Load(fs.Arg(0))
	if err != nil {
		return err
	}
	b, err := specio.Load(fs.Arg(1))
	if err != nil {
		return err
	}
	result, err := op(a, b)
	if err != nil {
		return err
	}
	return save(*out, result)
}

func cmdNormalize(args []string) error {
	fs := flag.NewFlagSet("normalize", flag.ExitOnError)
	method := fs.String("method", "peak", "normalization method: peak, area or continuum")
	out := fs.String("o", "", "output file (csv, txt, dat or asc)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 || *out == "" {
		return fmt.Errorf("normalize: usage: spectool normalize -method M -o OUT FILE")
	}
	m, err := ops.ParseNormalizeMethod(*method)
	if err != nil {
		return err
	}
	s, err := specio.Load(fs.Arg(0))
	if err != nil {
		return err
	}
	result, err := ops.Normalize(s, m)
	if err != nil {
		return err
	}
	return save(*out, result)
}

func cmdSmooth(args []string) error {
	fs := flag.NewFlagSet("smooth", flag.ExitOnError)
	method := fs.String("method", "boxcar", "smoothing method: boxcar, gaussian or savitzky_golay")
	window := fs.Float64("window", 5, "window width in samples (boxcar, savitzky_golay)")
	sigma := fs.Float64("sigma", 0, "gaussian standard deviation in samples")
	out := fs.String("o", "", "output file (csv, txt, dat or asc)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 || *out == "" {
		return fmt.Errorf("smooth: usage: spectool smooth -method M [-window N | -sigma X] -o OUT FILE")
	}
	m, err := ops.ParseSmoothMethod(*method)
	if err != nil {
		return err
	}
	width := *window
	if m == ops.SmoothGaussian {
		if *sigma <= 0 {
			return fmt.Errorf("smooth: gaussian needs -sigma > 0")
		}
		width = *sigma
	}
	s, err := specio.Load(fs.Arg(0))
	if err != nil {
		return err
	}
	result, err := ops.Smooth(s, m, width)
	if err != nil {
		return err
	}
	return save(*out, result)
}

func cmdSlice(args []string) error {
	fs := flag.NewFlagSet("slice", flag.ExitOnError)
	lo := fs.Float64("lo", 0, "lower abscissa bound (inclusive)")
	hi := fs.Float64("hi", 0, "upper abscissa bound (inclusive)")
	out := fs.String("o", "", "output file (csv, txt, dat or asc)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 || *out == "" {
		return fmt.Errorf("slice: usage: spectool slice -lo X -hi Y -o OUT FILE")
	}
	s, err := specio.Load(fs.Arg(0))
	if err != nil {
		return err
	}
	result, err := ops.Slice(s, *lo, *hi)
	if err != nil {
		return err
	}
	return save(*out, result)
}

func cmdProvenance(args []string) error {
	fs := flag.NewFlagSet("provenance", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("provenance: expected one input file, got %d", fs.NArg())
	}
	s, err := specio.Load(fs.Arg(0))
	if err != nil {
		return err
	}
	return specio.WriteProvenanceYAML(os.Stdout, s)
}

// bindings maps recorded input fingerprints to replacement files,
// parsed from repeated -in ID=FILE flags.
type bindings map[string]string

func (b bindings) String() string {
	parts := make([]string, 0, len(b))
	for id, path := range b {
		parts = append(parts, id+"="+path)
	}
	return strings.Join(parts, ",")
}

func (b bindings) Set(v string) error {
	id, path, ok := strings.Cut(v, "=")
	if !ok || id == "" || path == "" {
		return fmt.Errorf("want ID=FILE, got %q", v)
	}
	b[id] = path
	return nil
}

func cmdReplay(args []string) error {
	fs := flag.NewFlagSet("replay", flag.ExitOnError)
	ledgerPath := fs.String("ledger", "", "provenance YAML file to replay")
	db := fs.String("db", "", "catalog database to resolve recorded inputs from")
	out := fs.String("o", "", "output file (csv, txt, dat or asc)")
	binds := bindings{}
	fs.Var(binds, "in", "bind a recorded input fingerprint to a file, ID=FILE (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *ledgerPath == "" || *out == "" {
		return fmt.Errorf("replay: usage: spectool replay -ledger FILE [-db DB] [-in ID=FILE ...] -o OUT")
	}

	f, err := os.Open(*ledgerPath)
	if err != nil {
		return err
	}
	ledger, err := provenance.Parse(f)
	f.Close()
	if err != nil {
		return err
	}

	inputs := make(map[string]*spectrum.Spectrum)
	if *db != "" {
		store, err := catalog.Open(*db)
		if err != nil {
			return err
		}
		defer store.Close()
		ctx := context.Background()
		for _, rec := range ledger {
			for _, id := range rec.Inputs {
				if _, ok := inputs[id]; ok {
					continue
				}
				sp, err := store.Get(ctx, id)
				if err == nil {
					inputs[id] = sp
				}
			}
		}
	}
	for id, path := range binds {
		sp, err := specio.Load(path)
		if err != nil {
			return err
		}
		restored, err := spectrum.Restore(id, sp.Abscissa(), sp.Values(),
			sp.Unit(), sp.ValueUnit(), sp.Meta(), sp.Provenance())
		if err != nil {
			return err
		}
		inputs[id] = restored
	}

	result, err := ops.Replay(ledger, inputs)
	if err != nil {
		return err
	}
	return save(*out, result)
}

func cmdPlot(args []string) error {
	fs := flag.NewFlagSet("plot", flag.ExitOnError)
	out := fs.String("o", "", "output HTML file")
	title := fs.String("title", "", "chart title")
	normalize := fs.Bool("normalize", false, "peak-normalize each series")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 || *out == "" {
		return fmt.Errorf("plot: usage: spectool plot -o OUT.html [-title T] [-normalize] FILE...")
	}

	spectra := make([]*spectrum.Spectrum, 0, fs.NArg())
	for _, path := range fs.Args() {
		s, err := specio.Load(path)
		if err != nil {
			return err
		}
		spectra = append(spectra, s)
	}

	var options []plot.Option
	if *title != "" {
		options = append(options, plot.WithTitle(*title))
	}
	if *normalize {
		options = append(options, plot.WithPeakNormalization())
	}

	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	defer f.Close()
	return plot.Compare(f, spectra, options...)
}

func cmdStore(args []string) error {
	fs := flag.NewFlagSet("store", flag.ExitOnError)
	db := fs.String("db", "", "catalog database file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 || *db == "" {
		return fmt.Errorf("store: usage: spectool store -db DB FILE")
	}
	s, err := specio.Load(fs.Arg(0))
	if err != nil {
		return err
	}
	store, err := catalog.Open(*db)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Put(context.Background(), s); err != nil {
		return err
	}
	fmt.Println(s.ID())
	return nil
}

func cmdList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	db := fs.String("db", "", "catalog database file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *db == "" {
		return fmt.Errorf("list: usage: spectool list -db DB")
	}
	store, err := catalog.Open(*db)
	if err != nil {
		return err
	}
	defer store.Close()
	entries, err := store.List(context.Background())
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tName\tUnit\tSamples\tOps\tCreated\n")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
			e.ID, e.Name, e.Unit, e.Samples, e.Operations,
			e.Created.Format("2006-01-02 15:04:05"))
	}
	return tw.Flush()
}

func cmdFetch(args []string) error {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)
	db := fs.String("db", "", "catalog database file")
	id := fs.String("id", "", "spectrum fingerprint")
	out := fs.String("o", "", "output file (csv, txt, dat or asc)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *db == "" || *id == "" || *out == "" {
		return fmt.Errorf("fetch: usage: spectool fetch -db DB -id ID -o OUT")
	}
	store, err := catalog.Open(*db)
	if err != nil {
		return err
	}
	defer store.Close()
	s, err := store.Get(context.Background(), *id)
	if err != nil {
		return err
	}
	return save(*out, s)
}

func cmdRemove(args []string) error {
	fs := flag.NewFlagSet("remove", flag.ExitOnError)
	db := fs.String("db", "", "catalog database file")
	id := fs.String("id", "", "spectrum fingerprint")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *db == "" || *id == "" {
		return fmt.Errorf("remove: usage: spectool remove -db DB -id ID")
	}
	store, err := catalog.Open(*db)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Delete(context.Background(), *id)
}

func save(path string, s *spectrum.Spectrum) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return specio.WriteCSV(f, s)
	case ".dat", ".asc":
		return specio.WriteASCII(f, s)
	}
	return fmt.Errorf("save: unknown output format %q", filepath.Ext(path))
}
