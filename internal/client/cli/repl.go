package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Signup(ctx context.Context) error
	Login(ctx context.Context) error
	Refresh(ctx context.Context) error
	Me(ctx context.Context) error
	CheckUsername(ctx context.Context, username string) error
	CheckEmail(ctx context.Context, email string) error
	Logout(ctx context.Context) error
}

// runREPL reads commands from scanner and dispatches them to a until EOF or
// "exit"/"quit".
//
//	Always:
//	  - help                    show available commands
//	  - check-username <name>   report whether a username is free
//	  - check-email <email>     report whether an email is free
//	  - exit | quit             leave the program
//
//	Not logged in:
//	  - signup                  create an account and log in
//	  - login                   authenticate
//
//	Logged in:
//	  - me                      show the current identity
//	  - refresh                 rotate tokens, picking up role changes
//	  - logout                  forget the session
//
// Command errors are reported by the handlers themselves.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("infosec %s> ", statusFn()))
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
				printlnFn("Available commands: me, refresh, check-username, check-email, logout, exit")
			} else {
				printlnFn("Available commands: signup, login, check-username, check-email, exit")
			}

		case "signup":
			_ = a.Signup(ctx)

		case "login":
			_ = a.Login(ctx)

		case "me":
			_ = a.Me(ctx)

		case "refresh":
			_ = a.Refresh(ctx)

		case "check-username":
			if len(args) == 0 {
				printlnFn("Usage: check-username <username>")
				continue
			}
			_ = a.CheckUsername(ctx, args[0])

		case "check-email":
			if len(args) == 0 {
				printlnFn("Usage: check-email <email>")
				continue
			}
			_ = a.CheckEmail(ctx, args[0])

		case "logout":
			_ = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
