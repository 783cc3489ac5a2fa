package main

import (
	"context"

	"github.com/urfave/cli/v3"
)

func credentialFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "email",
			Aliases:  []string{"e"},
			Usage:    "Account email",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "password",
			Aliases:  []string{"p"},
			Usage:    "Account password",
			Sources:  cli.EnvVars("NTEEZFLIX_PASSWORD"),
			Required: true,
		},
	}
}

func signUpCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "signup",
		Usage:  "Create an account and sign in",
		Flags:  credentialFlags(),
		Action: r.SignUp,
	}
}

func signInCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "signin",
		Usage:  "Sign in and keep the session for later commands",
		Flags:  credentialFlags(),
		Action: r.SignIn,
	}
}

func signOutCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "signout",
		Usage:  "Sign out and forget the saved session",
		Action: r.SignOut,
	}
}

func whoamiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "whoami",
		Usage:  "Show the current session",
		Action: r.Whoami,
	}
}

// SignUp creates an account. The session is saved for later commands.
func (r *Runner) SignUp(ctx context.Context, cmd *cli.Command) error {
	c, err := r.client(ctx, cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Sessions.SignUp(ctx, cmd.String("email"), cmd.String("password")); err != nil {
		return err
	}
	return r.writePlain("Account created. Signed in as %s\n", c.Session().Email)
}

// SignIn authenticates and pulls the user's watchlist.
func (r *Runner) SignIn(ctx context.Context, cmd *cli.Command) error {
	c, err := r.client(ctx, cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Sessions.SignIn(ctx, cmd.String("email"), cmd.String("password")); err != nil {
		return err
	}
	return r.writePlain("Signed in as %s (%d on watchlist)\n", c.Session().Email, c.Watchlist.Len())
}

func (r *Runner) SignOut(ctx context.Context, cmd *cli.Command) error {
	c, err := r.client(ctx, cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	if c.Session().SignedOut() {
		return r.writePlain("Not signed in\n")
	}
	if err := c.Sessions.SignOut(ctx); err != nil {
		return err
	}
	return r.writePlain("Signed out\n")
}

func (r *Runner) Whoami(ctx context.Context, cmd *cli.Command) error {
	c, err := r.client(ctx, cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	sess := c.Session()
	if !sess.Authenticated() {
		return r.writePlain("Not signed in\n")
	}
	return r.writePlain("%s (%s), %d on watchlist\n", sess.Email, sess.UserID, c.Watchlist.Len())
}
