package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	expired() bool
	Register(ctx context.Context) error
	Signup(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Docs(ctx context.Context) error
	Upload(ctx context.Context, paths []string) error
	RemoveDocument(ctx context.Context, ref string) error
	Chats(ctx context.Context) error
	NewChat(ctx context.Context, name string) error
	Open(ctx context.Context, ref string) error
	RemoveChat(ctx context.Context, ref string) error
	Messages(ctx context.Context) error
	Ask(ctx context.Context, question string) error
	Stats(ctx context.Context) error
}

const (
	guestHelp  = "Available commands: register, signup, login, help, exit"
	memberHelp = "Available commands: whoami, docs, upload <file>..., rmdoc <n|id>, chats, newchat [name], open <n|id>, rmchat <n|id>, messages, ask [question], stats, logout, help, exit"
)

// public commands work without a session.
var public = map[string]bool{
	"help": true, "register": true, "signup": true, "login": true, "exit": true, "quit": true,
}

// runREPL starts a simple read–eval–print loop for the chat CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. Every command except the public ones needs a
// signed-in session. Before each prompt the loop checks whether the session
// expired in the meantime; if so it says so and starts the login prompt.
// The loop exits on EOF or when the user types "exit" or "quit".
//
// Command errors are printed and never end the loop.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if a.expired() {
			printlnFn("Your session has expired. Please log in again.")
			report(a.Login(ctx))
		}

		printlnFn(fmt.Sprintf("chat %s > ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}

		cmd, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
		rest = strings.TrimSpace(rest)
		if cmd == "" {
			continue
		}

		if !public[cmd] && !a.isLoggedIn() {
			printlnFn("Please log in first (login, signup or register).")
			continue
		}

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(memberHelp)
			} else {
				printlnFn(guestHelp)
			}

		case "register":
			report(a.Register(ctx))

		case "signup":
			report(a.Signup(ctx))

		case "login":
			report(a.Login(ctx))

		case "logout":
			report(a.Logout(ctx))

		case "whoami":
			report(a.WhoAmI(ctx))

		case "docs", "sources":
			report(a.Docs(ctx))

		case "upload":
			report(a.Upload(ctx, strings.Fields(rest)))

		case "rmdoc":
			report(a.RemoveDocument(ctx, rest))

		case "chats", "history":
			report(a.Chats(ctx))

		case "newchat":
			report(a.NewChat(ctx, rest))

		case "open":
			report(a.Open(ctx, rest))

		case "rmchat":
			report(a.RemoveChat(ctx, rest))

		case "messages":
			report(a.Messages(ctx))

		case "ask":
			report(a.Ask(ctx, rest))

		case "stats":
			report(a.Stats(ctx))

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			return
		}
	}
}

func report(err error) {
	if err != nil {
		printlnFn(userMessage(err))
	}
}
