package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. App satisfies it;
// tests substitute a stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Use(ctx context.Context, name string) error
	List(ctx context.Context) error
	ListDeleted(ctx context.Context) error
	Filter(ctx context.Context) error
	Delete(ctx context.Context, id string) error
	Recover(ctx context.Context, id string) error
	RecoverAll(ctx context.Context) error
	Show(ctx context.Context, id string) error
}

// runREPL reads a line, takes the first token as the command, and dispatches.
// It exits on scanner EOF or "exit"/"quit". Handler errors are printed by the
// handlers themselves; the loop keeps going.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("drp> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Commands: use <entity>, list, deleted, filter, show <id>, delete <id>, recover <id>, recover-all, logout, exit")
			} else {
				printlnFn("Commands: login, exit")
			}

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "use":
			if len(args) != 1 {
				printlnFn("usage: use <entity>")
				continue
			}
			_ = a.Use(ctx, args[0])

		case "list":
			_ = a.List(ctx)

		case "deleted":
			_ = a.ListDeleted(ctx)

		case "filter":
			_ = a.Filter(ctx)

		case "show":
			if len(args) != 1 {
				printlnFn("usage: show <id>")
				continue
			}
			_ = a.Show(ctx, args[0])

		case "delete":
			if len(args) != 1 {
				printlnFn("usage: delete <id>")
				continue
			}
			_ = a.Delete(ctx, args[0])

		case "recover":
			if len(args) != 1 {
				printlnFn("usage: recover <id>")
				continue
			}
			_ = a.Recover(ctx, args[0])

		case "recover-all":
			_ = a.RecoverAll(ctx)

		case "exit", "quit":
			return

		default:
			printlnFn("unknown command: " + cmd)
		}
	}
}
