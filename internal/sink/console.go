package sink

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"contractwatch/internal/model"
)

const separator = "--------------------------------------------------"

// Console prints one human-readable block per event.
type Console struct {
	out io.Writer

	mu    sync.Mutex
	title *color.Color
	warn  *color.Color
	label *color.Color
}

// NewConsole writes to out. Colors follow fatih/color terminal detection
// unless noColor is set.
func NewConsole(out io.Writer, noColor bool) *Console {
	c := &Console{
		out:   out,
		title: color.New(color.FgGreen, color.Bold),
		warn:  color.New(color.FgYellow, color.Bold),
		label: color.New(color.FgCyan),
	}
	if noColor {
		c.title.DisableColor()
		c.warn.DisableColor()
		c.label.DisableColor()
	}
	return c
}

func (c *Console) Emit(_ context.Context, ev model.Event) error {
	record := model.NewLogRecord(ev.RawLog())

	var b strings.Builder
	b.WriteString("\n")
	switch typed := ev.(type) {
	case *model.DecodedEvent:
		b.WriteString(c.title.Sprintf("New event: %s", typed.Name))
		b.WriteString("\n")
		c.field(&b, "signature", typed.Signature)
		c.field(&b, "topic0", record.Topic0())
		c.field(&b, "args", formatArgs(typed.Args))
	case *model.UndecodedEvent:
		b.WriteString(c.warn.Sprint("New event: could not decode, showing raw log"))
		b.WriteString("\n")
		c.field(&b, "topic0", record.Topic0())
		c.field(&b, "reason", typed.Reason)
		c.field(&b, "address", record.Address)
		c.field(&b, "topics", strings.Join(record.Topics, ", "))
		c.field(&b, "data", record.Data)
	}
	c.field(&b, "tx", record.TxHash)
	c.field(&b, "block", fmt.Sprintf("%d", record.BlockNumber))
	c.field(&b, "log index", fmt.Sprintf("%d", record.LogIndex))
	b.WriteString(separator)
	b.WriteString("\n")

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := io.WriteString(c.out, b.String())
	return err
}

func (c *Console) Fault(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = io.WriteString(c.out, c.warn.Sprintf("warning: %v", err)+"\n")
}

func (c *Console) field(b *strings.Builder, name, value string) {
	b.WriteString("  ")
	b.WriteString(c.label.Sprintf("%-10s", name))
	b.WriteString(" ")
	b.WriteString(value)
	b.WriteString("\n")
}

func formatArgs(args []model.Arg) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		parts = append(parts, fmt.Sprintf("%s=%v", arg.Name, model.FormatValue(arg.Value)))
	}
	return strings.Join(parts, " ")
}
