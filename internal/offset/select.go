package offset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/mgpai22/subslide/internal/subtitle"
)

// ErrSelection is wrapped by every SelectionError.
var ErrSelection = errors.New("invalid block selection")

// SelectionError reports a re-anchor choice that is not a number in 1..Max.
type SelectionError struct {
	Input string
	Max   int
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf(
		"expected a number between 1 and %d, but %q was entered",
		e.Max,
		e.Input,
	)
}

func (e *SelectionError) Unwrap() error {
	return ErrSelection
}

// Selector picks which previewed block should start at the target time.
type Selector interface {
	// Select returns the 1-based choice among previews.
	Select(previews []subtitle.Preview, target string) (int, error)
}

// PromptSelector asks on Out and reads the answer from In. An empty answer
// selects the first block.
type PromptSelector struct {
	In    io.Reader
	Out   io.Writer
	Color bool
}

func (p *PromptSelector) Select(
	previews []subtitle.Preview,
	target string,
) (int, error) {
	if len(previews) == 0 {
		return 0, errors.New("no subtitle blocks to choose from")
	}

	fmt.Fprintf(p.Out, "These are the first %d lines:\n\n", len(previews))
	fmt.Fprintln(p.Out, renderPreviews(previews, p.Color))
	fmt.Fprintf(
		p.Out,
		"\nWhich one should start at %s?\nYour choice 1-%d [1]: ",
		target,
		len(previews),
	)

	answer, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("read choice: %w", err)
	}
	return parseChoice(answer, len(previews))
}

// FixedSelector answers with a choice decided up front, e.g. from a flag.
type FixedSelector struct {
	Choice int
}

func (f FixedSelector) Select(
	previews []subtitle.Preview,
	_ string,
) (int, error) {
	return parseChoice(strconv.Itoa(f.Choice), len(previews))
}

func parseChoice(answer string, limit int) (int, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return 1, nil
	}
	choice, err := strconv.Atoi(answer)
	if err != nil || choice < 1 || choice > limit {
		return 0, &SelectionError{Input: answer, Max: limit}
	}
	return choice, nil
}

func renderPreviews(previews []subtitle.Preview, color bool) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "Start", "Text"})
	for _, p := range previews {
		t.AppendRow(table.Row{
			p.Choice,
			subtitle.FormatTimestamp(p.StartTime),
			p.Text,
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, WidthMax: 60},
	})
	if color {
		t.SetStyle(table.StyleColoredBright)
	} else {
		t.SetStyle(table.StyleLight)
	}
	return t.Render()
}

// Choose parses target, lets sel pick one of previews and returns the offset
// that makes the picked block start at target.
func Choose(
	previews []subtitle.Preview,
	target string,
	sel Selector,
) (Offset, subtitle.Preview, error) {
	at, err := ParseTarget(target)
	if err != nil {
		return Offset{}, subtitle.Preview{}, err
	}
	choice, err := sel.Select(previews, target)
	if err != nil {
		return Offset{}, subtitle.Preview{}, err
	}
	if choice < 1 || choice > len(previews) {
		return Offset{}, subtitle.Preview{}, &SelectionError{
			Input: strconv.Itoa(choice),
			Max:   len(previews),
		}
	}
	picked := previews[choice-1]
	return Reanchor(picked.StartTime, at), picked, nil
}
