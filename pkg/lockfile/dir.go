package lockfile

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// Options configures [ProcessDir].
type Options struct {
	// Logger receives one line per parsed or skipped file. Nil discards.
	Logger *log.Logger
}

// Report lists the input files handled by [ProcessDir].
type Report struct {
	Parsed  []string // output paths written
	Skipped []string // input paths that failed
}

// OutputName returns the canonical map file name for an input file.
// v1 outputs carry a "_parsed" suffix; v2 outputs reuse the input name.
func OutputName(input string, schema Schema) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	if schema == SchemaV1 {
		return base + "_parsed.json"
	}
	return base + ".json"
}

// ProcessDir parses every *.json file in inDir, in name order, and writes one
// canonical map per file into outDir.
//
// A file that cannot be read, parsed or written is logged and skipped; no
// partial output is left behind for it. Only directory-level failures and
// context cancellation are returned as errors.
func ProcessDir(ctx context.Context, inDir, outDir string, schema Schema, opts Options) (Report, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	var report Report
	entries, err := os.ReadDir(inDir)
	if err != nil {
		return report, fmt.Errorf("read input dir: %w", err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return report, fmt.Errorf("create output dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}

		in := filepath.Join(inDir, entry.Name())
		out, err := processFile(in, outDir, schema)
		if err != nil {
			logger.Warn("skipping lockfile", "file", in, "err", err)
			report.Skipped = append(report.Skipped, in)
			continue
		}
		logger.Info("parsed lockfile", "file", in, "output", out)
		report.Parsed = append(report.Parsed, out)
	}
	return report, nil
}

func processFile(in, outDir string, schema Schema) (string, error) {
	data, err := os.ReadFile(in)
	if err != nil {
		return "", err
	}
	if schema == SchemaAuto {
		if schema, err = DetectSchema(data); err != nil {
			return "", err
		}
	}
	m, err := Parse(data, schema)
	if err != nil {
		return "", err
	}

	out := filepath.Join(outDir, OutputName(in, schema))
	return out, WriteFile(out, m)
}

// WriteFile writes m to path via a temporary file and rename.
func WriteFile(path string, m *DependencyMap) error {
	return writeFileAtomic(path, func(w io.Writer) error { return WriteJSON(m, w) })
}

// WriteRaw stores an unparsed lockfile at path the same way [WriteFile] does.
func WriteRaw(path string, data []byte) error {
	return writeFileAtomic(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

func writeFileAtomic(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".lockgraph-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// ReadFile loads a canonical map written by [WriteFile] or [ProcessDir].
func ReadFile(path string) (*DependencyMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadJSON(f)
}
