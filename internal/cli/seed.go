package cli

import (
	"flag"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/mrlokans/bookkinder/internal/auth"
	"github.com/mrlokans/bookkinder/internal/config"
	"github.com/mrlokans/bookkinder/internal/database"
	"github.com/mrlokans/bookkinder/internal/seed"
)

// SeedCommand fills an empty catalog with sample data.
type SeedCommand struct {
	Database config.Database
	Auth     config.Auth
	Users    int
	Books    int
	Seed     uint64
	Out      io.Writer
}

func NewSeedCommand() *SeedCommand {
	return &SeedCommand{}
}

func (cmd *SeedCommand) ParseFlags(args []string, cfg *config.Config) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)

	cmd.Database = cfg.Database
	cmd.Auth = cfg.Auth
	fs.StringVar(&cmd.Database.Path, "db", cfg.Database.Path, "Path to the SQLite catalog (ignored for mysql/postgres)")
	fs.IntVar(&cmd.Users, "users", seed.DefaultUsers, "Number of sample users besides the admin")
	fs.IntVar(&cmd.Books, "books", seed.DefaultBooks, "Number of sample books")
	fs.Uint64Var(&cmd.Seed, "seed", 0, "Random seed for reproducible data; 0 picks one")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s seed [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create the admin account (%s), sample users and sample books.\n", seed.AdminEmail)
		fmt.Fprintf(os.Stderr, "Every seeded account uses the password %q. Does nothing if the admin exists.\n\n", seed.Password)
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.Users < 0 || cmd.Books < 0 {
		return fmt.Errorf("-users and -books must not be negative")
	}
	return nil
}

func (cmd *SeedCommand) Run() error {
	out := cmd.Out
	if out == nil {
		out = os.Stdout
	}

	if cmd.Database.Driver == config.DriverSQLite || cmd.Database.Driver == "" {
		abs, err := filepath.Abs(cmd.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to get absolute path for database: %w", err)
		}
		cmd.Database.Path = abs
		fmt.Fprintf(out, "Database: %s\n", cmd.Database.Path)
	}

	db, err := database.NewDatabase(cmd.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	opts := seed.Options{Users: cmd.Users, Books: cmd.Books}
	if cmd.Seed != 0 {
		opts.Rand = rand.New(rand.NewPCG(cmd.Seed, cmd.Seed))
	}

	result, err := seed.Run(db.DB, auth.NewService(db.DB, cmd.Auth), opts)
	if err != nil {
		return err
	}
	if result.Skipped {
		fmt.Fprintln(out, "Admin account already exists, nothing to do")
		return nil
	}

	fmt.Fprintf(out, "Seeded %d users and %d books\n", result.Users, result.Books)
	fmt.Fprintf(out, "Log in as %s with password %q\n", seed.AdminEmail, seed.Password)
	return nil
}
