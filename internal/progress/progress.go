// Package progress prints per-item completion for the batch pipelines.
package progress

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
)

// Reporter receives one Done call per finished item, in completion order. Implementations are
// driven from a single goroutine and are not safe for concurrent use.
type Reporter interface {
	Start(total int)
	Done(seq int, id string, err error)
	Finish()
}

// New returns a bar reporter when bar is true and a line reporter otherwise.
func New(out io.Writer, bar bool, description string) Reporter {
	if bar {
		return NewBar(out, description)
	}
	return NewLines(out)
}

// Lines prints "[k/N] succeeded: id" for each item.
type Lines struct {
	out   io.Writer
	total int
	ok    func(a ...interface{}) string
	fail  func(a ...interface{}) string
}

// NewLines creates a line reporter writing to out.
func NewLines(out io.Writer) *Lines {
	return &Lines{
		out:  out,
		ok:   color.New(color.FgGreen, color.Bold).SprintFunc(),
		fail: color.New(color.FgRed, color.Bold).SprintFunc(),
	}
}

func (l *Lines) Start(total int) { l.total = total }

func (l *Lines) Done(seq int, id string, err error) {
	if err != nil {
		fmt.Fprintf(l.out, "[%d/%d] %s: %s (%v)\n", seq, l.total, l.fail("failed"), id, err)
		return
	}
	fmt.Fprintf(l.out, "[%d/%d] %s: %s\n", seq, l.total, l.ok("succeeded"), id)
}

func (l *Lines) Finish() {}

// Bar renders a single progress bar and keeps a failure count in its description.
type Bar struct {
	out         io.Writer
	description string
	bar         *progressbar.ProgressBar
	failed      int
}

// NewBar creates a bar reporter writing to out.
func NewBar(out io.Writer, description string) *Bar {
	return &Bar{out: out, description: description}
}

func (b *Bar) Start(total int) {
	b.failed = 0
	b.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(b.out),
		progressbar.OptionSetDescription(b.description),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(b.out) }),
	)
}

func (b *Bar) Done(seq int, id string, err error) {
	if b.bar == nil {
		return
	}
	if err != nil {
		b.failed++
		b.bar.Describe(fmt.Sprintf("%s (%d failed)", b.description, b.failed))
	}
	_ = b.bar.Add(1)
}

func (b *Bar) Finish() {
	if b.bar == nil {
		return
	}
	_ = b.bar.Finish()
	if n := b.Failed(); n > 0 {
		fmt.Fprintf(b.out, "%s: %d failed\n", b.description, n)
	}
}

// Failed returns how many Done calls carried an error since Start.
func (b *Bar) Failed() int { return b.failed }
