package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/occasio/occasio/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Signup prompts for the account fields and creates a new account. The server
// responds with a one-time code sent out of band; the user confirms it with
// the verify command.
func (a *App) Signup(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter name", os.Stdout)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}
	mobile, err := getSimpleText(a.reader, "Enter mobile (optional)", os.Stdout)
	if err != nil {
		return err
	}
	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}

	msg, err := a.engine.SignupUser(ctx, name, email, password, mobile)
	if err != nil {
		return err
	}

	fmt.Println(msg)
	fmt.Println("Check your inbox and run 'verify' to activate the account.")
	return nil
}

// Verify prompts for the one-time code and confirms the pending signup.
func (a *App) Verify(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}
	code, err := getSimpleText(a.reader, "Enter the one-time code", os.Stdout)
	if err != nil {
		return err
	}

	msg, err := a.engine.VerifyOTP(ctx, email, code)
	if err != nil {
		if errors.Is(err, common.ErrOTPExpired) {
			fmt.Println("The code expired. Run 'resend' to get a new one.")
			return nil
		}
		return err
	}

	fmt.Println(msg)
	return nil
}

// Resend requests a fresh one-time code.
func (a *App) Resend(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	msg, err := a.engine.ResendOTP(ctx, email)
	if err != nil {
		return err
	}

	fmt.Println(msg)
	return nil
}

// Login authenticates and pulls the account's events from the server.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}
	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}

	user, err := a.engine.LoginUser(ctx, email, password)
	if err != nil {
		if errors.Is(err, common.ErrNetworkUnavailable) {
			log.Println("No connection. Login needs the server; cached events stay readable.")
			return nil
		}
		return err
	}

	fmt.Printf("Welcome back, %s!\n", user.Name)
	return nil
}

// ResetPassword sets a new password for an account.
func (a *App) ResetPassword(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}
	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}

	msg, err := a.engine.ResetPassword(ctx, email, password)
	if err != nil {
		return err
	}

	fmt.Println(msg)
	return nil
}

// Logout drops the session and the locally stored credentials.
func (a *App) Logout(ctx context.Context) error {
	if err := a.engine.RemoveUserData(ctx); err != nil {
		return err
	}
	fmt.Println("Logged out.")
	return nil
}
