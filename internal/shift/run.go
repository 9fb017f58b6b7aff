package shift

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/mgpai22/subslide/internal/logging"
	"github.com/mgpai22/subslide/internal/offset"
)

var (
	// ErrInputNotFound is returned when the input subtitle file is missing.
	ErrInputNotFound = errors.New("input file does not exist")
	// ErrOutputLocked is returned when another run holds the output lock.
	ErrOutputLocked = errors.New("output file is being written by another process")
)

// Options configures a file-to-file run.
type Options struct {
	Input  string
	Output string // defaults to Input
	Offset offset.Offset

	BackupSuffix string // appended to the input name for the in-place backup
	TempSuffix   string // appended to the input name for the intermediate file

	Logger *logging.Logger
}

// what a run produced
type Report struct {
	Output string
	Backup string // empty unless the input was overwritten
	Result Result
	Kept   int
}

// Run shifts Options.Input by Options.Offset and writes the renumbered result
// to Options.Output. When both paths are the same the input is first copied
// to a backup next to it. The intermediate file is always removed.
func Run(ctx context.Context, opts Options) (*Report, error) {
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.BackupSuffix == "" {
		opts.BackupSuffix = "_orig"
	}
	if opts.TempSuffix == "" {
		opts.TempSuffix = "_temp"
	}
	if opts.Output == "" {
		opts.Output = opts.Input
	}

	info, err := os.Stat(opts.Input)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", opts.Input, ErrInputNotFound)
		}
		return nil, fmt.Errorf("stat input: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory: %w", opts.Input, ErrInputNotFound)
	}

	if err := ensureDir(opts.Output); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	lockPath := opts.Output + ".lock"
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock output: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", opts.Output, ErrOutputLocked)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			opts.Logger.Warnw("Failed to release output lock", "lock", lockPath, "error", err)
		}
		_ = os.Remove(lockPath)
	}()

	report := &Report{Output: opts.Output}
	base := strings.TrimSuffix(opts.Input, filepath.Ext(opts.Input))

	if samePath(opts.Input, opts.Output) {
		report.Backup = base + opts.BackupSuffix + ".srt"
		if err := copyFile(opts.Input, report.Backup); err != nil {
			return nil, fmt.Errorf("back up input: %w", err)
		}
		opts.Logger.Debugw("Backed up input", "backup", report.Backup)
	}

	tempPath := fmt.Sprintf("%s%s-%s.srt", base, opts.TempSuffix, uuid.NewString()[:8])
	defer func() {
		if err := os.Remove(tempPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			opts.Logger.Warnw("Failed to remove temp file", "path", tempPath, "error", err)
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res, err := shiftFile(opts.Input, tempPath, opts.Offset)
	if err != nil {
		return nil, err
	}
	report.Result = res
	opts.Logger.Debugw("Shift pass complete",
		"blocks", res.Blocks,
		"first_valid", res.FirstValid,
		"clamped", res.Clamped,
	)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	kept, err := renumberFile(tempPath, opts.Output, res.FirstValid)
	if err != nil {
		return nil, err
	}
	report.Kept = kept
	opts.Logger.Debugw("Renumber pass complete",
		"kept", kept,
		"dropped", res.Blocks-kept,
	)

	return report, nil
}

func shiftFile(inputPath, tempPath string, off offset.Offset) (Result, error) {
	in, err := os.Open(inputPath)
	if err != nil {
		return Result{}, fmt.Errorf("failed to open SRT file: %w", err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(tempPath)
	if err != nil {
		return Result{}, fmt.Errorf("create temp file: %w", err)
	}

	res, err := Shift(in, out, off)
	if err != nil {
		_ = out.Close()
		return res, err
	}
	if err := out.Close(); err != nil {
		return res, fmt.Errorf("close temp file: %w", err)
	}
	return res, nil
}

func renumberFile(tempPath, outputPath string, firstValid int) (int, error) {
	in, err := os.Open(tempPath)
	if err != nil {
		return 0, fmt.Errorf("open temp file: %w", err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(outputPath)
	if err != nil {
		return 0, fmt.Errorf("create output file: %w", err)
	}

	kept, err := Renumber(in, out, firstValid)
	if err != nil {
		_ = out.Close()
		return kept, err
	}
	if err := out.Close(); err != nil {
		return kept, fmt.Errorf("close output file: %w", err)
	}
	return kept, nil
}

// copyFile leaves no partial destination behind on failure.
func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = out.Close()
			_ = os.Remove(dst)
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		return err
	}
	if err = out.Sync(); err != nil {
		return err
	}
	return out.Close()
}

func samePath(a, b string) bool {
	if a == b {
		return true
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0755)
}
