package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/bookkinder/internal/client"
	"github.com/mrlokans/bookkinder/internal/config"
	"github.com/mrlokans/bookkinder/internal/entities"
)

const usersUsage = `Usage: %[1]s users <action> [options]

Actions:
  list                 List users (default). Supports -search, -sort, -order, -per-page, -page
  search <query>       Users whose name contains query
  show <id>            One user (login required)
  add -name -email     Create a user with the default password (login required)
  update <id> ...      Change name, email or role (login required)
  delete <id>          Delete a user and revoke their tokens (login required)

Options:
`

// UsersCommand manages accounts through the API.
type UsersCommand struct {
	clientFlags
	Action string
	Args   []string

	list                       listFlags
	name, email, role          string
	nameSet, emailSet, roleSet bool
}

func NewUsersCommand() *UsersCommand {
	return &UsersCommand{}
}

func (cmd *UsersCommand) ParseFlags(args []string, cfg config.Client) error {
	cmd.Action = "list"
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		cmd.Action, args = args[0], args[1:]
	}

	fs := flag.NewFlagSet("users "+cmd.Action, flag.ContinueOnError)
	cmd.register(fs, cfg)
	switch cmd.Action {
	case "list":
		cmd.list.register(fs)
	case "add", "update":
		fs.StringVar(&cmd.name, "name", "", "Full name")
		fs.StringVar(&cmd.email, "email", "", "Email address")
		fs.StringVar(&cmd.role, "role", "", "Role: admin or user")
	case "search", "show", "delete":
	default:
		return fmt.Errorf("unknown users action %q", cmd.Action)
	}
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, usersUsage, os.Args[0])
		fs.PrintDefaults()
	}

	positional, rest := splitPositional(args)
	if err := fs.Parse(rest); err != nil {
		return err
	}
	cmd.Args = append(positional, fs.Args()...)
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			cmd.nameSet = true
		case "email":
			cmd.emailSet = true
		case "role":
			cmd.roleSet = true
		}
	})

	switch cmd.Action {
	case "search", "show", "delete", "update":
		if len(cmd.Args) != 1 {
			return fmt.Errorf("users %s takes exactly one argument", cmd.Action)
		}
	case "add":
		if cmd.name == "" || cmd.email == "" {
			return fmt.Errorf("users add requires -name and -email")
		}
	}
	return nil
}

func (cmd *UsersCommand) input() client.UserInput {
	var in client.UserInput
	if cmd.nameSet {
		in.Name = &cmd.name
	}
	if cmd.emailSet {
		in.Email = &cmd.email
	}
	if cmd.roleSet {
		in.Role = &cmd.role
	}
	return in
}

func (cmd *UsersCommand) Run(ctx context.Context) error {
	c, closeSession, err := cmd.open()
	if err != nil {
		return err
	}
	defer closeSession()

	users := client.NewUserService(c)
	w := cmd.out()

	switch cmd.Action {
	case "list":
		if cmd.list.paged() {
			page, err := users.ListPage(ctx, cmd.list.params())
			if err != nil {
				return err
			}
			renderUsers(w, page.Data)
			renderPageFooter(w, page.CurrentPage, page.LastPage, page.Total)
			return nil
		}
		list, err := users.List(ctx, cmd.list.params())
		if err != nil {
			return err
		}
		renderUsers(w, list)

	case "search":
		list, err := users.Search(ctx, cmd.Args[0])
		if err != nil {
			return err
		}
		renderUsers(w, list)

	case "show":
		id, err := parseID(cmd.Args[0])
		if err != nil {
			return err
		}
		user, err := users.Get(ctx, id)
		if err != nil {
			return err
		}
		renderUsers(w, []entities.User{*user})

	case "add":
		user, err := users.Create(ctx, cmd.input())
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Created user %d; initial password is the server default\n", user.ID)
		renderUsers(w, []entities.User{*user})

	case "update":
		id, err := parseID(cmd.Args[0])
		if err != nil {
			return err
		}
		user, err := users.Update(ctx, id, cmd.input())
		if err != nil {
			return err
		}
		renderUsers(w, []entities.User{*user})

	case "delete":
		id, err := parseID(cmd.Args[0])
		if err != nil {
			return err
		}
		if err := users.Delete(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(w, "Deleted user %d\n", id)
	}
	return nil
}
