package scenario

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// ParseDurations reads lines of the form "agentN: value", N counting from 1.
// Blank lines and lines starting with '#' are skipped. Every agent from 1 to
// the highest N must be present exactly once with a positive finite value.
func ParseDurations(r io.Reader) ([]float64, error) {
	byAgent := make(map[int]float64)
	highest := 0

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		key, val, ok := strings.Cut(text, ":")
		if !ok {
			return nil, fmt.Errorf("line %d: missing ':': %w", line, ErrFormat)
		}
		key = strings.TrimSpace(key)
		if !strings.HasPrefix(key, "agent") {
			return nil, fmt.Errorf("line %d: key %q: %w", line, key, ErrFormat)
		}
		n, err := strconv.Atoi(strings.TrimPrefix(key, "agent"))
		if err != nil || n < 1 {
			return nil, fmt.Errorf("line %d: agent number in %q: %w", line, key, ErrFormat)
		}
		d, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil || d <= 0 || math.IsInf(d, 0) || math.IsNaN(d) {
			return nil, fmt.Errorf("line %d: duration %q: %w", line, strings.TrimSpace(val), ErrFormat)
		}
		if _, dup := byAgent[n]; dup {
			return nil, fmt.Errorf("line %d: agent%d listed twice: %w", line, n, ErrFormat)
		}
		byAgent[n] = d
		if n > highest {
			highest = n
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading durations: %w", err)
	}

	if highest > len(byAgent) {
		for i := 1; ; i++ {
			if _, ok := byAgent[i]; !ok {
				return nil, fmt.Errorf("agent%d missing: %w", i, ErrFormat)
			}
		}
	}

	out := make([]float64, highest)
	for i := range out {
		d, ok := byAgent[i+1]
		if !ok {
			return nil, fmt.Errorf("agent%d missing: %w", i+1, ErrFormat)
		}
		out[i] = d
	}
	return out, nil
}

// ReadDurations parses the duration file at path.
func ReadDurations(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening durations: %w", err)
	}
	defer f.Close()
	d, err := ParseDurations(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// WriteDurations writes d in the format ParseDurations reads.
func WriteDurations(w io.Writer, d []float64) error {
	bw := bufio.NewWriter(w)
	for i, v := range d {
		if _, err := fmt.Fprintf(bw, "agent%d: %s\n", i+1, strconv.FormatFloat(v, 'f', -1, 64)); err != nil {
			return err
		}
	}
	return bw.Flush()
}
