package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/mrlokans/bookkinder/internal/client"
	"github.com/mrlokans/bookkinder/internal/config"
)

// PasswordEnv lets scripts log in without a password flag.
const PasswordEnv = "BOOKKINDER_PASSWORD"

// LoginCommand exchanges credentials for a token and saves the session.
type LoginCommand struct {
	clientFlags
	Email    string
	Password string
	In       io.Reader
}

func NewLoginCommand() *LoginCommand {
	return &LoginCommand{}
}

func (cmd *LoginCommand) ParseFlags(args []string, cfg config.Client) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	cmd.register(fs, cfg)
	fs.StringVar(&cmd.Email, "email", "", "Account email (required)")
	fs.StringVar(&cmd.Password, "password", "", "Account password; read from $"+PasswordEnv+" or stdin when empty")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s login -email <email> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Sign in and store the bearer token in the local session file.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.Email == "" {
		return fmt.Errorf("required flag -email not provided")
	}
	if cmd.Password == "" {
		cmd.Password = os.Getenv(PasswordEnv)
	}
	return nil
}

func (cmd *LoginCommand) readPassword() (string, error) {
	if cmd.Password != "" {
		return cmd.Password, nil
	}
	in := cmd.In
	if in == nil {
		in = os.Stdin
	}
	fmt.Fprint(cmd.out(), "Password: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Fprintln(cmd.out())
	return strings.TrimRight(line, "\r\n"), nil
}

func (cmd *LoginCommand) Run(ctx context.Context) error {
	password, err := cmd.readPassword()
	if err != nil {
		return err
	}

	c, closeSession, err := cmd.open()
	if err != nil {
		return err
	}
	defer closeSession()

	user, err := client.NewAuthService(c).Login(ctx, cmd.Email, password)
	if err != nil {
		if client.IsStatus(err, http.StatusUnauthorized) {
			return fmt.Errorf("invalid email or password")
		}
		return err
	}

	fmt.Fprintf(cmd.out(), "Logged in as %s <%s>\n", user.Name, user.Email)
	return nil
}

// LogoutCommand revokes every token of the signed-in user and forgets the
// local session.
type LogoutCommand struct {
	clientFlags
}

func NewLogoutCommand() *LogoutCommand {
	return &LogoutCommand{}
}

func (cmd *LogoutCommand) ParseFlags(args []string, cfg config.Client) error {
	fs := flag.NewFlagSet("logout", flag.ContinueOnError)
	cmd.register(fs, cfg)
	return fs.Parse(args)
}

func (cmd *LogoutCommand) Run(ctx context.Context) error {
	c, closeSession, err := cmd.open()
	if err != nil {
		return err
	}
	defer closeSession()

	err = client.NewAuthService(c).Logout(ctx)
	switch {
	case errors.Is(err, client.ErrNotAuthenticated):
		fmt.Fprintln(cmd.out(), "Not logged in")
		return nil
	case err != nil:
		fmt.Fprintln(cmd.out(), "Local session cleared")
		return fmt.Errorf("server logout failed: %w", err)
	}

	fmt.Fprintln(cmd.out(), "Logged out")
	return nil
}

// WhoamiCommand prints the signed-in user as the API sees it.
type WhoamiCommand struct {
	clientFlags
}

func NewWhoamiCommand() *WhoamiCommand {
	return &WhoamiCommand{}
}

func (cmd *WhoamiCommand) ParseFlags(args []string, cfg config.Client) error {
	fs := flag.NewFlagSet("whoami", flag.ContinueOnError)
	cmd.register(fs, cfg)
	return fs.Parse(args)
}

func (cmd *WhoamiCommand) Run(ctx context.Context) error {
	c, closeSession, err := cmd.open()
	if err != nil {
		return err
	}
	defer closeSession()

	if !c.Session().IsAuthenticated() {
		fmt.Fprintln(cmd.out(), "Not logged in")
		return nil
	}

	user, err := client.NewAuthService(c).Me(ctx)
	if err != nil {
		if client.IsStatus(err, http.StatusUnauthorized) {
			return fmt.Errorf("session expired, log in again")
		}
		return err
	}
	renderSessionUser(cmd.out(), user)
	return nil
}
