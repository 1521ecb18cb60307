package cli

import (
	"context"
	"os"
	"strings"

	"github.com/dmitrijs2005/infosec/internal/client/client"
	"github.com/dmitrijs2005/infosec/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

func (a *App) printSession(s *client.Session) {
	printlnFn("id:      ", s.ID)
	printlnFn("username:", s.Username)
	printlnFn("email:   ", s.Email)
	printlnFn("roles:   ", strings.Join(s.Roles, ", "))
}

// Signup prompts for credentials and optional profile fields, registers the
// account and keeps the returned session.
func (a *App) Signup(ctx context.Context) error {
	var req client.SignupRequest

	prompts := []struct {
		text string
		dst  *string
	}{
		{"Enter username", &req.Username},
		{"Enter email", &req.Email},
		{"Enter name (optional)", &req.Name},
	}
	for _, p := range prompts {
		v, err := getSimpleText(a.reader, p.text, os.Stdout)
		if err != nil {
			return err
		}
		*p.dst = v
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)
	req.Password = string(password)

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	s, err := a.authClient.Signup(ctx, req)
	if err != nil {
		printlnFn("Signup unsuccessful:", err)
		return err
	}

	a.session = s
	printlnFn("Success! Logged in as", s.Username)
	return nil
}

// Login prompts for a username or email and a password.
func (a *App) Login(ctx context.Context) error {
	login, err := getSimpleText(a.reader, "Enter username or email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	s, err := a.authClient.Login(ctx, login, string(password))
	if err != nil {
		printlnFn("Login unsuccessful:", err)
		return err
	}

	a.session = s
	printlnFn("Login successful")
	return nil
}

// Refresh rotates the token pair and picks up role changes.
func (a *App) Refresh(ctx context.Context) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	s, err := a.authClient.Refresh(ctx)
	if err != nil {
		printlnFn("Refresh unsuccessful:", err)
		return err
	}

	a.session = s
	a.printSession(s)
	return nil
}

// Me prints the identity the server resolves for the current access token.
func (a *App) Me(ctx context.Context) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	s, err := a.authClient.Me(ctx)
	if err != nil {
		printlnFn("Error:", err)
		return err
	}

	a.printSession(s)
	return nil
}

func (a *App) printAvailability(what, value string, ok bool) {
	if ok {
		printlnFn(what, value, "is available")
	} else {
		printlnFn(what, value, "is taken")
	}
}

func (a *App) CheckUsername(ctx context.Context, username string) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	ok, err := a.authClient.CheckUsername(ctx, username)
	if err != nil {
		printlnFn("Error:", err)
		return err
	}
	a.printAvailability("username", username, ok)
	return nil
}

func (a *App) CheckEmail(ctx context.Context, email string) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	ok, err := a.authClient.CheckEmail(ctx, email)
	if err != nil {
		printlnFn("Error:", err)
		return err
	}
	a.printAvailability("email", email, ok)
	return nil
}

// Logout drops the local session and tokens.
func (a *App) Logout(ctx context.Context) error {
	a.authClient.Logout()
	a.session = nil
	printlnFn("Logged out")
	return nil
}
