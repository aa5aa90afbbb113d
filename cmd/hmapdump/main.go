// Command hmapdump is a small external driver over the hmap package: it
// inserts a run of pseudo-random keys, prints the resulting table
// shape, and optionally renders a full bucket dump or a Prometheus text
// exposition of the live metrics. It owns its own key generation and
// argument parsing, the way the benchmark/test driver at the edge of the package
// is expected to -- none of this belongs in the core.
package main

import (
	"fmt"
	"io"
	"math/rand"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/expfmt"
	flag "github.com/spf13/pflag"

	"github.com/wowczarek/hmap"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("hmapdump", flag.ContinueOnError)
	fs.SetOutput(errOut)

	n := fs.IntP("inserts", "n", 1000, "number of pseudo-random keys to insert")
	seed := fs.Int64P("seed", "s", 1, "PRNG seed for key generation")
	log2size := fs.Uint8P("log2size", "l", 5, "initial/minimum log2 table size")
	growLoad := fs.Float64("grow-load", 0.7, "load factor that triggers a grow")
	shrinkLoad := fs.Float64("shrink-load", 0.25, "load factor that triggers a shrink")
	offsetMult := fs.Uint32("offset-mult", 1, "probe-length ceiling multiplier")
	batchSize := fs.Uint32("batch-size", 4, "buckets migrated per mutating op (0 = migrate all synchronously)")
	dumpBuckets := fs.Bool("dump", false, "print every bucket after the insert run")
	showMetrics := fs.Bool("metrics", false, "print the Prometheus text exposition after the insert run")

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	m, err := hmap.NewCustom(*log2size, *growLoad, *shrinkLoad, *offsetMult, *batchSize)
	if err != nil {
		fmt.Fprintln(errOut, "hmapdump: invalid configuration:", err)
		return 1
	}

	rng := rand.New(rand.NewSource(*seed))
	for i := 0; i < *n; i++ {
		m.Put(rng.Uint32(), int32(i))
	}

	fmt.Fprintf(out, "count=%d current_log2_size=%d load=%.3f migrating=%v\n",
		m.Count(), m.CurrentLog2Size(), m.Load(), m.Migrating())

	if *dumpBuckets {
		m.Dump(out, false)
	}

	if *showMetrics {
		if err := printMetrics(out, m); err != nil {
			fmt.Fprintln(errOut, "hmapdump: rendering metrics:", err)
			return 1
		}
	}

	return 0
}

func printMetrics(out io.Writer, m *hmap.Map) error {
	reg := prometheus.NewRegistry()
	mx := hmap.NewMetrics(m, "hmapdump")
	if err := mx.Register(reg); err != nil {
		return err
	}

	families, err := reg.Gather()
	if err != nil {
		return err
	}

	enc := expfmt.NewEncoder(out, expfmt.FmtText)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
