package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	goCheckin "github.com/MrEthical07/goCheckin"
)

// console drives an engine from line-oriented input. Lines starting with ':' are
// commands; anything else is treated as a decoded code.
type console struct {
	engine *goCheckin.Engine
	out    io.Writer
}

func (c *console) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	c.prompt()
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			c.prompt()
			continue
		}
		if strings.HasPrefix(line, ":") {
			if quit := c.command(ctx, line[1:]); quit {
				return nil
			}
		} else {
			c.scan(ctx, line)
		}
		c.prompt()
	}
	return scanner.Err()
}

func (c *console) prompt() {
	s := c.engine.Sessions().Session()
	label := "anonymous"
	if s.Authenticated() {
		label = s.Identity.Email
	}
	fmt.Fprintf(c.out, "[%s] > ", label)
}

func (c *console) command(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	switch fields[0] {
	case "quit", "exit":
		return true
	case "login":
		if len(fields) != 3 {
			fmt.Fprintln(c.out, "usage: :login <email> <password>")
			return false
		}
		if err := c.engine.Sessions().Login(ctx, fields[1], fields[2]); err != nil {
			fmt.Fprintf(c.out, "login failed: %v\n", err)
			return false
		}
		c.activate(ctx)
	case "logout":
		if err := c.engine.Scanner().SignOut(ctx); err != nil {
			fmt.Fprintf(c.out, "sign-out: %v\n", err)
		}
		fmt.Fprintln(c.out, "signed out")
	case "status":
		fmt.Fprintf(c.out, "session: %s\n", c.engine.Sessions().Status())
		fmt.Fprintf(c.out, "camera: %s\n", c.engine.Scanner().Permission())
		fmt.Fprintf(c.out, "gate: %s\n", c.engine.Scanner().Gate())
	default:
		fmt.Fprintf(c.out, "unknown command %q\n", fields[0])
	}
	return false
}

// activate opens the scanner once a session is authenticated.
func (c *console) activate(ctx context.Context) {
	perm, err := c.engine.Scanner().Activate(ctx)
	if err != nil {
		fmt.Fprintf(c.out, "camera unavailable: %v\n", err)
		return
	}
	if perm != goCheckin.PermissionGranted {
		fmt.Fprintln(c.out, "No access to camera")
	}
}

func (c *console) scan(ctx context.Context, payload string) {
	if !c.engine.Sessions().Session().Authenticated() {
		fmt.Fprintln(c.out, "sign in first with :login <email> <password>")
		return
	}
	if !c.engine.Scanner().Submit(ctx, payload) {
		fmt.Fprintln(c.out, "scan ignored")
		return
	}
	outcome, ok := c.engine.Scanner().Gate().Outcome()
	if !ok {
		return
	}
	fb := outcome.Feedback()
	fmt.Fprintf(c.out, "%s: %s\n", fb.Title, fb.Message)
	c.engine.Scanner().Acknowledge()
}
