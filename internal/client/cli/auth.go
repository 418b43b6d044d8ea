package cli

import (
	"context"
	"fmt"
	"os"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts the user for an email and password and attempts to create
// a new account. A successful registration also starts a session.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}

	if err := a.api.Register(ctx, email, string(password)); err != nil {
		fmt.Println("Registration failed:", err)
		return err
	}

	fmt.Println("Success!")
	return nil
}

// Login prompts the user for credentials and tries to authenticate.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}

	if err := a.api.Login(ctx, email, string(password)); err != nil {
		fmt.Println("Login failed:", err)
		return err
	}

	fmt.Println("Logged in")
	return nil
}

// Logout ends the session on both sides.
func (a *App) Logout(ctx context.Context) error {
	if err := a.api.Logout(ctx); err != nil {
		fmt.Println("Logout failed:", err)
		return err
	}
	fmt.Println("Logged out")
	return nil
}

// Me prints the identity bound to the current session.
func (a *App) Me(ctx context.Context) error {
	me, err := a.api.Me(ctx)
	if err != nil {
		fmt.Println("Error:", err)
		return err
	}
	fmt.Printf("Logged in as %s (id %s)\n", me.Email, me.UserID)
	return nil
}
