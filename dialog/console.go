package dialog

import (
	"bufio"
	"context"
	"fmt"
	"io"
)

// Speaker voices a reply. The console ignores speaker failures after
// reporting them, since the text has already been printed.
type Speaker func(ctx context.Context, text string) error

// Console runs the conversation over a line-oriented reader and writer.
type Console struct {
	in    *bufio.Scanner
	out   io.Writer
	speak Speaker
}

// NewConsole creates a console. speak may be nil.
func NewConsole(in io.Reader, out io.Writer, speak Speaker) *Console {
	return &Console{in: bufio.NewScanner(in), out: out, speak: speak}
}

// Run greets the user and answers each line until the user says thanks,
// input ends, or ctx is cancelled.
func (c *Console) Run(ctx context.Context) error {
	fmt.Fprintln(c.out, Greeting)

	state := StateIdle
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		prompt := ">> "
		if state == StateAwaitingConsciousness {
			prompt = consciousnessHint + ": "
		}
		fmt.Fprint(c.out, prompt)

		if !c.in.Scan() {
			fmt.Fprintln(c.out)
			return c.in.Err()
		}

		reply := Step(state, c.in.Text())
		c.say(ctx, reply.Text)
		if reply.Done {
			return nil
		}
		state = reply.State
	}
}

func (c *Console) say(ctx context.Context, text string) {
	fmt.Fprintln(c.out, "안내:", text)
	if c.speak == nil {
		return
	}
	if err := c.speak(ctx, text); err != nil {
		fmt.Fprintln(c.out, "(음성 안내 실패:", err.Error()+")")
	}
}
