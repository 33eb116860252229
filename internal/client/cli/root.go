package cli

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
)

func (a *App) getStatus() string {
	s := ""
	if user := a.engine.User(); user != nil && user.LoggedIn {
		s = user.Email + " "
	}
	if a.engine.Connected() {
		s += "online"
	} else {
		s += "offline"
	}
	if a.engine.Dirty() {
		s += " *"
	}
	return fmt.Sprintf("(%s)", s)
}

// Root runs the read-eval-print loop. Command errors are printed and the loop
// continues; only EOF or an explicit exit ends it.
func (a *App) Root(ctx context.Context) {

	log.Println("Welcome to Occasio CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Printf("occasio %s> ", a.getStatus())
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]

		var err error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Println("Available commands: (l)ist, add, edit, delete, sync, logout, exit")
			} else {
				fmt.Println("Available commands: signup, verify, resend, login, reset, list, exit")
			}

		case "signup":
			err = a.Signup(ctx)
		case "verify":
			err = a.Verify(ctx)
		case "resend":
			err = a.Resend(ctx)
		case "login":
			err = a.Login(ctx)
		case "reset":
			err = a.ResetPassword(ctx)
		case "l", "list":
			a.List(ctx)
		case "add":
			err = a.Add(ctx)
		case "edit":
			err = a.Edit(ctx)
		case "delete":
			err = a.Delete(ctx)
		case "sync":
			a.Sync(ctx)
		case "logout":
			err = a.Logout(ctx)
		case "exit", "quit":
			fmt.Println("Bye!")
			return
		default:
			fmt.Println("Unknown command:", cmd)
		}

		if err != nil {
			log.Println(err.Error())
		}

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}
