package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Grupo-Cloud/frontend/internal/client/credentials"
	"github.com/Grupo-Cloud/frontend/internal/client/services"
	"github.com/Grupo-Cloud/frontend/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

type signupForm struct {
	username string
	email    string
	password []byte
}

func (a *App) readSignupForm() (*signupForm, error) {
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return nil, err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return nil, err
	}
	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return nil, err
	}
	return &signupForm{username: username, email: email, password: password}, nil
}

// Register prompts for username, email and password and creates the account
// without signing in. The password is wiped before returning.
func (a *App) Register(ctx context.Context) error {
	f, err := a.readSignupForm()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(f.password)

	u, err := a.authService.Register(ctx, f.username, f.email, f.password)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Account %s created, you can log in now.\n", u.Username)
	return nil
}

// Signup registers and then logs in with the same credentials.
func (a *App) Signup(ctx context.Context) error {
	if a.isLoggedIn() {
		return errLoggedIn
	}
	f, err := a.readSignupForm()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(f.password)

	u, err := a.authService.Signup(ctx, f.username, f.email, f.password)
	if err != nil {
		if u != nil {
			fmt.Fprintf(a.out, "Account %s created, but logging in failed.\n", u.Username)
		}
		return err
	}

	a.userName = u.Username
	a.logger.Info(ctx, "signed up", "user", u.Username)
	fmt.Fprintf(a.out, "Welcome, %s!\n", u.Username)
	return nil
}

// Login prompts for credentials and signs in. Wrong credentials are reported
// and leave the session signed out.
func (a *App) Login(ctx context.Context) error {
	if a.isLoggedIn() {
		return errLoggedIn
	}
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.authService.Login(ctx, username, password); err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			a.logger.Debug(ctx, "login rejected", "user", username)
		}
		return err
	}

	a.userName = username
	a.logger.Info(ctx, "logged in", "user", username)
	fmt.Fprintln(a.out, "Login successful")
	return nil
}

// Logout drops the stored token and the selected chat.
func (a *App) Logout(ctx context.Context) error {
	a.selected = nil
	a.userName = ""
	if err := a.authService.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

// WhoAmI prints the signed-in user and when the access token runs out.
func (a *App) WhoAmI(ctx context.Context) error {
	me, err := a.userService.Me(ctx)
	if err != nil {
		return err
	}
	a.userName = me.Username
	fmt.Fprintf(a.out, "%s <%s>\n", me.Username, me.Email)

	cred, _, err := a.store.Load(ctx)
	if err != nil || cred.Empty() {
		return err
	}
	claims, err := credentials.ParseClaims(cred.AccessToken)
	if err != nil {
		a.logger.Debug(ctx, "access token is not a readable JWT", "error", err)
		return nil
	}
	if !claims.ExpiresAt.IsZero() {
		fmt.Fprintf(a.out, "Access token valid until %s (%s)\n",
			claims.ExpiresAt.Local().Format(time.DateTime), time.Until(claims.ExpiresAt).Round(time.Second))
	}
	return nil
}
