package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/mgpai22/subslide/internal/config"
	"github.com/mgpai22/subslide/internal/logging"
	"github.com/mgpai22/subslide/internal/offset"
	"github.com/mgpai22/subslide/internal/shift"
	"github.com/mgpai22/subslide/internal/subtitle"
)

var (
	verbose bool
	logger  *logging.Logger
	cfg     *config.Config
)

var rootCmd = newRootCmd(os.Stdin)

func newRootCmd(stdin io.Reader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subslide [flags] INPUT",
		Short: "Shift SubRip subtitles forward or backward in time",
		Long: `Subslide applies an offset to every timestamp of an .srt file.

Subtitles can be delayed, advanced, or re-anchored so that a chosen line
starts at a given time. Blocks pushed entirely before 00:00:00,000 are
dropped and the remaining ones are renumbered from 1.

OFFSET and TIME use the format [MM:]SS[,mmm]:
  "1:23,456"  1 minute, 23 seconds, 456 milliseconds
  "100"       100 seconds, i.e. 1 minute 40 seconds
  "12,43"     12 seconds, 430 milliseconds
TIME also accepts a full HH:MM:SS,mmm timestamp.

Examples:
  subslide -d 2,5 movie.srt
  subslide -a 1:03 movie.srt -o fixed.srt
  subslide -s 1:02,300 movie.srt
  subslide -s 00:01:02,300 --line 3 movie.srt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShift(cmd, args, stdin)
		},
	}

	cmd.SetIn(stdin)
	cmd.Flags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	cmd.Flags().
		StringP("delay-subs", "d", "", "Make subtitles appear later by OFFSET")
	cmd.Flags().
		StringP("delay-video", "a", "", "Make subtitles appear sooner by OFFSET")
	cmd.Flags().
		StringP("start-at", "s", "", "Make a chosen subtitle line appear at TIME")
	cmd.Flags().
		StringP("output", "o", "", "Output file path (default: overwrite INPUT and keep INPUT_orig.srt)")
	cmd.Flags().
		Int("line", 0, "Line to re-anchor with --start-at, skipping the prompt")
	cmd.Flags().
		Int("lines", 0, "Number of lines offered by the --start-at prompt (default from config, 10)")
	cmd.Flags().
		String("config", "", "Path to config file (default ~/.config/subslide/config.toml)")

	cmd.MarkFlagsMutuallyExclusive("delay-subs", "delay-video", "start-at")
	cmd.MarkFlagsOneRequired("delay-subs", "delay-video", "start-at")

	return cmd
}

func Execute() error {
	return rootCmd.Execute()
}

// setup loads the config file and builds the logger it configures.
func setup(configPath string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg = loaded
	logger, err = logging.NewWithLevel(cfg.Logging.Level, verbose)
	return err
}

func runShift(cmd *cobra.Command, args []string, stdin io.Reader) error {
	inputPath := args[0]

	delaySubs, _ := cmd.Flags().GetString("delay-subs")
	delayVideo, _ := cmd.Flags().GetString("delay-video")
	startAt, _ := cmd.Flags().GetString("start-at")
	outputPath, _ := cmd.Flags().GetString("output")
	line, _ := cmd.Flags().GetInt("line")
	lines, _ := cmd.Flags().GetInt("lines")
	configPath, _ := cmd.Flags().GetString("config")

	if lines < 0 {
		return &UsageError{Msg: fmt.Sprintf("--lines must be positive, got %d", lines)}
	}
	if cmd.Flags().Changed("line") && !cmd.Flags().Changed("start-at") {
		return &UsageError{Msg: "--line only applies to --start-at"}
	}

	// flags are valid from here on, runtime failures should not print usage
	cmd.SilenceUsage = true

	if err := setup(configPath); err != nil {
		return err
	}
	if lines == 0 {
		lines = cfg.Prompt.Lines
	}

	if _, err := os.Stat(inputPath); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s: %w", inputPath, shift.ErrInputNotFound)
	}
	if outputPath == "" {
		outputPath = inputPath
	}

	out := cmd.OutOrStdout()

	var off offset.Offset
	var err error
	switch {
	case cmd.Flags().Changed("delay-subs"):
		off, err = offset.Parse(delaySubs, offset.Later)
	case cmd.Flags().Changed("delay-video"):
		off, err = offset.Parse(delayVideo, offset.Sooner)
	default:
		var sel offset.Selector = &offset.PromptSelector{
			In:    stdin,
			Out:   out,
			Color: isTerminal(out),
		}
		if cmd.Flags().Changed("line") {
			sel = offset.FixedSelector{Choice: line}
		}
		off, err = resolveStartAt(inputPath, startAt, lines, sel)
		if err == nil {
			fmt.Fprintf(out, "Applying %s as offset\n", off)
		}
	}
	if err != nil {
		return err
	}

	logger.Infow("Shifting subtitles",
		"input", inputPath,
		"output", outputPath,
		"offset", off.String(),
	)

	report, err := shift.Run(context.Background(), shift.Options{
		Input:        inputPath,
		Output:       outputPath,
		Offset:       off,
		BackupSuffix: cfg.Files.BackupSuffix,
		TempSuffix:   cfg.Files.TempSuffix,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	if report.Result.FirstValid == shift.NoValidBlock {
		logger.Warnw("Every block ends before 00:00:00,000, output is empty",
			"blocks", report.Result.Blocks,
		)
	} else if dropped := report.Result.Blocks - report.Kept; dropped > 0 {
		logger.Infow("Dropped blocks shifted before zero", "dropped", dropped)
	}

	absOutput, _ := filepath.Abs(report.Output)
	fmt.Fprintf(out, "Success! Offset subs have been written to %s\n", absOutput)
	if report.Backup != "" {
		fmt.Fprintf(out, "The original subs have been copied to %s\n", report.Backup)
	}

	return nil
}

func resolveStartAt(
	inputPath, target string,
	lines int,
	sel offset.Selector,
) (offset.Offset, error) {
	// fail on a bad TIME before prompting
	if _, err := offset.ParseTarget(target); err != nil {
		return offset.Offset{}, err
	}

	file, err := os.Open(inputPath)
	if err != nil {
		return offset.Offset{}, fmt.Errorf("failed to open SRT file: %w", err)
	}
	defer func() { _ = file.Close() }()

	previews, err := subtitle.ReadPreview(file, lines)
	if err != nil {
		return offset.Offset{}, err
	}

	off, picked, err := offset.Choose(previews, target, sel)
	if err != nil {
		return offset.Offset{}, err
	}
	logger.Debugw("Re-anchoring",
		"choice", picked.Choice,
		"sequence", picked.Sequence,
		"original_start", subtitle.FormatTimestamp(picked.StartTime),
		"target", target,
	)
	return off, nil
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
