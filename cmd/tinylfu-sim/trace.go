package main

import (
	"bufio"
	"maps"
	"math/rand"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// pattern generates length keys drawn from universe distinct keys.
type pattern func(rng *rand.Rand, length, universe int) []string

var patterns = map[string]pattern{
	"zipf":    zipfPattern,
	"loop":    loopPattern,
	"scan":    scanPattern,
	"uniform": uniformPattern,
}

func patternNames() []string { return slices.Sorted(maps.Keys(patterns)) }

func zipfPattern(rng *rand.Rand, length, universe int) []string {
	const (
		skew = 1.2
		bias = 1.0
	)
	var (
		trace = make([]string, length)
		zipf  = rand.NewZipf(rng, skew, bias, uint64(max(universe, 2)-1))
	)
	for i := range trace {
		trace[i] = strconv.FormatUint(zipf.Uint64(), 10)
	}
	return trace
}

// loopPattern cycles over the universe in order.
func loopPattern(_ *rand.Rand, length, universe int) []string {
	trace := make([]string, length)
	for i := range trace {
		trace[i] = strconv.Itoa(i % universe)
	}
	return trace
}

// scanPattern mixes a Zipf distributed working set with a scan
// of keys that are never requested twice.
func scanPattern(rng *rand.Rand, length, universe int) []string {
	const every = 4
	trace := zipfPattern(rng, length, universe)
	for i := every - 1; i < len(trace); i += every {
		trace[i] = "scan-" + strconv.Itoa(i)
	}
	return trace
}

func uniformPattern(rng *rand.Rand, length, universe int) []string {
	trace := make([]string, length)
	for i := range trace {
		trace[i] = strconv.Itoa(rng.Intn(universe))
	}
	return trace
}

// loadTrace reads one key per line, skipping blank lines.
func loadTrace(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open trace")
	}
	defer file.Close()
	var (
		trace   []string
		scanner = bufio.NewScanner(file)
	)
	for scanner.Scan() {
		if key := strings.TrimSpace(scanner.Text()); key != "" {
			trace = append(trace, key)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "read trace %s", path)
	}
	if len(trace) == 0 {
		return nil, errors.Errorf("trace %s holds no keys", path)
	}
	return trace, nil
}

func buildTrace(conf *Config) ([]string, error) {
	if conf.Trace != "" {
		return loadTrace(conf.Trace)
	}
	generate, ok := patterns[conf.Pattern]
	if !ok {
		return nil, errors.Errorf("unknown pattern %q", conf.Pattern)
	}
	rng := rand.New(rand.NewSource(conf.Seed))
	return generate(rng, conf.Length, conf.Universe), nil
}
