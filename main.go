package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mrlokans/bookkinder/internal/cli"
	"github.com/mrlokans/bookkinder/internal/config"
	"github.com/mrlokans/bookkinder/internal/entrypoint"
	"github.com/mrlokans/bookkinder/internal/logger"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

// clientCommand is any command that talks to the API.
type clientCommand interface {
	ParseFlags(args []string, cfg config.Client) error
	Run(ctx context.Context) error
}

func main() {
	cfg := config.NewConfig()
	logger.Init(cfg.Log.Level, cfg.Log.Format)

	// If no arguments or "serve" command, run the HTTP server
	if len(os.Args) < 2 || os.Args[1] == "serve" {
		if err := entrypoint.Run(cfg, Version); err != nil {
			logger.L.Fatal().Err(err).Msg("Server failed")
		}
		return
	}

	command := os.Args[1]
	args := os.Args[2:]

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var cmd clientCommand
	switch command {
	case "seed":
		seedCmd := cli.NewSeedCommand()
		if err := seedCmd.ParseFlags(args, cfg); err != nil {
			exit(err)
		}
		if err := seedCmd.Run(); err != nil {
			exit(err)
		}
		return

	case "login":
		cmd = cli.NewLoginCommand()
	case "logout":
		cmd = cli.NewLogoutCommand()
	case "whoami":
		cmd = cli.NewWhoamiCommand()
	case "books":
		cmd = cli.NewBooksCommand()
	case "users":
		cmd = cli.NewUsersCommand()

	case "version":
		fmt.Printf("bookkinder %s (%s)\n", Version, Commit)
		return

	case "-h", "--help", "help":
		printUsage()
		return

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err := cmd.ParseFlags(args, cfg.Client); err != nil {
		exit(err)
	}
	if err := cmd.Run(ctx); err != nil {
		exit(err)
	}
}

func exit(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  serve     Start the API server (default if no command given)\n")
	fmt.Fprintf(os.Stderr, "  seed      Create the admin account, sample users and sample books\n")
	fmt.Fprintf(os.Stderr, "  login     Sign in and save the session locally\n")
	fmt.Fprintf(os.Stderr, "  logout    Revoke every token of the signed-in user\n")
	fmt.Fprintf(os.Stderr, "  whoami    Show the signed-in user\n")
	fmt.Fprintf(os.Stderr, "  books     Browse and edit the catalog\n")
	fmt.Fprintf(os.Stderr, "  users     Manage user accounts\n")
	fmt.Fprintf(os.Stderr, "  version   Print the build version\n")
	fmt.Fprintf(os.Stderr, "\nUse '%s <command> -h' for help on a specific command.\n", os.Args[0])
}
