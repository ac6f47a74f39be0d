// Command jsobj runs object model scenarios.
//
//	jsobj [flags] [file or directory ...]
//
// Without arguments the directories listed in the config file are run.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime/debug"
	"runtime/pprof"
	"time"

	"github.com/google/pprof/profile"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/dop251/jsobj"
	"github.com/dop251/jsobj/scenario"
)

var configFile = flag.String("config", "", "read settings from a TOML file")
var verbose = flag.Bool("v", false, "log at debug level")
var crosscheck = flag.Bool("crosscheck", false, "evaluate crosscheck scripts with goja")
var cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
var icprofile = flag.String("icprofile", "", "write inline cache profile to file")
var shapedump = flag.String("shapedump", "", "write the shape trees of every scenario to file as CBOR")
var stats = flag.Bool("stats", false, "print inline cache statistics")
var timelimit = flag.Int("timelimit", 0, "max time to run (in seconds)")

var errFailed = errors.New("some scenarios failed")

// ShapeDump is one record of the -shapedump output.
type ShapeDump struct {
	Scenario string             `cbor:"1,keyasint"`
	Roots    []*jsobj.ShapeInfo `cbor:"2,keyasint"`
}

type summary struct {
	passed, failed, skipped int
	cache                   jsobj.CacheStats
	profiles                []*profile.Profile
	shapes                  []ShapeDump
}

func (s *summary) addCacheStats(st jsobj.CacheStats) {
	s.cache.Sites += st.Sites
	s.cache.Uninitialized += st.Uninitialized
	s.cache.Monomorphic += st.Monomorphic
	s.cache.Polymorphic += st.Polymorphic
	s.cache.Megamorphic += st.Megamorphic
	s.cache.Hits += st.Hits
	s.cache.Misses += st.Misses
}

func collect(paths []string) ([]*scenario.Scenario, error) {
	var res []*scenario.Scenario
	for _, p := range paths {
		fi, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if fi.IsDir() {
			list, err := scenario.LoadDir(p)
			if err != nil {
				return nil, err
			}
			res = append(res, list...)
			continue
		}
		sc, err := scenario.Load(p)
		if err != nil {
			return nil, err
		}
		res = append(res, sc)
	}
	return res, nil
}

// runScenarios runs every scenario on a fresh runtime and reports each
// result to out.
func runScenarios(ctx context.Context, cfg *Config, logger zerolog.Logger, scenarios []*scenario.Scenario, out io.Writer) (*summary, error) {
	sum := &summary{}
	runner := scenario.NewRunner(logger, cfg.Scenario.Crosscheck)
	for _, sc := range scenarios {
		opts := append(cfg.options(), jsobj.WithLogger(logger.With().Str("scenario", sc.Name).Logger()))
		rt := jsobj.New(opts...)
		res, err := runner.Run(ctx, rt, sc)
		if err != nil {
			return sum, err
		}
		switch {
		case res.Skipped:
			sum.skipped++
			fmt.Fprintf(out, "SKIP %s: %s\n", res.Name, res.SkipReason)
			continue
		case res.Failed():
			sum.failed++
			fmt.Fprintf(out, "FAIL %s\n", res.Name)
			for _, f := range res.Failures {
				fmt.Fprintf(out, "\t%s\n", f)
			}
		default:
			sum.passed++
			fmt.Fprintf(out, "PASS %s (%d steps, %v)\n", res.Name, res.Steps, res.Duration.Round(time.Microsecond))
		}
		sum.addCacheStats(rt.CacheStats())
		if *icprofile != "" {
			p, err := rt.CacheProfile()
			if err != nil {
				return sum, err
			}
			sum.profiles = append(sum.profiles, p)
		}
		if *shapedump != "" {
			sum.shapes = append(sum.shapes, ShapeDump{Scenario: res.Name, Roots: rt.ShapeTree()})
		}
	}
	return sum, nil
}

func writeCacheProfile(filename string, profiles []*profile.Profile) error {
	if len(profiles) == 0 {
		profiles = []*profile.Profile{mustEmptyProfile()}
	}
	merged, err := profile.Merge(profiles)
	if err != nil {
		return err
	}
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := merged.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func mustEmptyProfile() *profile.Profile {
	p, err := jsobj.New().CacheProfile()
	if err != nil {
		panic(err)
	}
	return p
}

func writeShapeDump(filename string, shapes []ShapeDump) error {
	data, err := jsobj.MarshalCanonical(shapes)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0o644)
}

func printStats(w io.Writer, sum *summary) {
	p := message.NewPrinter(language.English)
	p.Fprintf(w, "%d passed, %d failed, %d skipped\n", sum.passed, sum.failed, sum.skipped)
	if !*stats {
		return
	}
	st := sum.cache
	p.Fprintf(w, "inline caches: %d sites (%d uninitialized, %d monomorphic, %d polymorphic, %d megamorphic)\n",
		st.Sites, st.Uninitialized, st.Monomorphic, st.Polymorphic, st.Megamorphic)
	p.Fprintf(w, "lookups: %d hits, %d misses, %.1f%% hit rate\n", st.Hits, st.Misses, st.HitRate()*100)
}

func run() error {
	cfg := defaultConfig()
	if *configFile != "" {
		var err error
		if cfg, err = loadConfig(*configFile); err != nil {
			return err
		}
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *crosscheck {
		cfg.Scenario.Crosscheck = true
	}
	logger, err := cfg.logger(os.Stderr)
	if err != nil {
		return err
	}

	paths := flag.Args()
	if len(paths) == 0 {
		paths = cfg.Scenario.Dirs
	}
	scenarios, err := collect(paths)
	if err != nil {
		return err
	}
	logger.Debug().Int("scenarios", len(scenarios)).Strs("paths", paths).Msg("loaded")

	ctx := context.Background()
	if *timelimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(*timelimit)*time.Second)
		defer cancel()
	}

	sum, err := runScenarios(ctx, cfg, logger, scenarios, os.Stdout)
	if err != nil {
		return err
	}
	if *icprofile != "" {
		if err := writeCacheProfile(*icprofile, sum.profiles); err != nil {
			return err
		}
	}
	if *shapedump != "" {
		if err := writeShapeDump(*shapedump, sum.shapes); err != nil {
			return err
		}
	}
	printStats(os.Stdout, sum)
	if sum.failed > 0 {
		return errFailed
	}
	return nil
}

func main() {
	defer func() {
		if x := recover(); x != nil {
			os.Stderr.Write(debug.Stack())
			panic(x)
		}
	}()
	flag.Parse()
	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	if err := run(); err != nil {
		fmt.Println(err)
		pprof.StopCPUProfile()
		os.Exit(64)
	}
}
