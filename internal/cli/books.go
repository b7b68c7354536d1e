package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/mrlokans/bookkinder/internal/client"
	"github.com/mrlokans/bookkinder/internal/config"
)

const booksUsage = `Usage: %[1]s books <action> [options]

Actions:
  list                 List books (default). Supports -search, -sort, -order, -per-page, -page
  search <query>       Books whose title contains query
  category <name>      Books in a category
  top [limit]          Highest rated books (default 5)
  show <id>            One book (login required)
  add -title ...       Create a book (login required)
  update <id> ...      Change fields of a book (login required)
  delete <id>          Delete a book (login required)

Options:
`

// BooksCommand browses and edits the catalog through the API.
type BooksCommand struct {
	clientFlags
	Action string
	Args   []string

	list  listFlags
	input bookFlags
}

func NewBooksCommand() *BooksCommand {
	return &BooksCommand{}
}

func (cmd *BooksCommand) ParseFlags(args []string, cfg config.Client) error {
	cmd.Action = "list"
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		cmd.Action, args = args[0], args[1:]
	}

	fs := flag.NewFlagSet("books "+cmd.Action, flag.ContinueOnError)
	cmd.register(fs, cfg)
	switch cmd.Action {
	case "list":
		cmd.list.register(fs)
	case "add", "update":
		cmd.input.register(fs)
	case "search", "category", "top", "show", "delete":
	default:
		return fmt.Errorf("unknown books action %q", cmd.Action)
	}
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, booksUsage, os.Args[0])
		fs.PrintDefaults()
	}

	// Positional arguments come before the flags: books update 3 -stock 2
	positional, rest := splitPositional(args)
	if err := fs.Parse(rest); err != nil {
		return err
	}
	cmd.Args = append(positional, fs.Args()...)
	cmd.input.visit(fs)

	switch cmd.Action {
	case "search", "category", "show", "delete", "update":
		if len(cmd.Args) != 1 {
			return fmt.Errorf("books %s takes exactly one argument", cmd.Action)
		}
	case "add":
		if cmd.input.Title == nil || *cmd.input.Title == "" {
			return fmt.Errorf("required flag -title not provided")
		}
	}
	return nil
}

func (cmd *BooksCommand) Run(ctx context.Context) error {
	c, closeSession, err := cmd.open()
	if err != nil {
		return err
	}
	defer closeSession()

	books := client.NewBookService(c)
	w := cmd.out()

	switch cmd.Action {
	case "list":
		if cmd.list.paged() {
			page, err := books.ListPage(ctx, cmd.list.params())
			if err != nil {
				return err
			}
			renderBooks(w, page.Data)
			renderPageFooter(w, page.CurrentPage, page.LastPage, page.Total)
			return nil
		}
		list, err := books.List(ctx, cmd.list.params())
		if err != nil {
			return err
		}
		renderBooks(w, list)

	case "search":
		list, err := books.Search(ctx, cmd.Args[0])
		if err != nil {
			return err
		}
		renderBooks(w, list)

	case "category":
		list, err := books.ByCategory(ctx, cmd.Args[0])
		if err != nil {
			return err
		}
		renderBooks(w, list)

	case "top":
		limit := 5
		if len(cmd.Args) > 0 {
			if limit, err = strconv.Atoi(cmd.Args[0]); err != nil || limit < 1 {
				return fmt.Errorf("limit must be a positive integer")
			}
		}
		list, err := books.TopRated(ctx, limit)
		if err != nil {
			return err
		}
		renderBooks(w, list)

	case "show":
		id, err := parseID(cmd.Args[0])
		if err != nil {
			return err
		}
		book, err := books.Get(ctx, id)
		if err != nil {
			return err
		}
		renderBook(w, book)

	case "add":
		book, err := books.Create(ctx, cmd.input.BookInput)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Created book %d\n", book.ID)
		renderBook(w, book)

	case "update":
		id, err := parseID(cmd.Args[0])
		if err != nil {
			return err
		}
		book, err := books.Update(ctx, id, cmd.input.BookInput)
		if err != nil {
			return err
		}
		renderBook(w, book)

	case "delete":
		id, err := parseID(cmd.Args[0])
		if err != nil {
			return err
		}
		if err := books.Delete(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(w, "Deleted book %d\n", id)
	}
	return nil
}

// bookFlags fills a BookInput with only the flags given on the command line.
type bookFlags struct {
	client.BookInput

	title, author, isbn, description, cover, category string
	pages, year, stock                                int
	rating, price                                     float64
}

func (b *bookFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&b.title, "title", "", "Title")
	fs.StringVar(&b.author, "author", "", "Author")
	fs.StringVar(&b.isbn, "isbn", "", "ISBN-13")
	fs.StringVar(&b.description, "description", "", "Description")
	fs.StringVar(&b.cover, "cover", "", "Cover image URL")
	fs.StringVar(&b.category, "category", "", "Category")
	fs.IntVar(&b.pages, "pages", 0, "Page count")
	fs.IntVar(&b.year, "year", 0, "Published year")
	fs.IntVar(&b.stock, "stock", 0, "Units in stock")
	fs.Float64Var(&b.rating, "rating", 0, "Rating from 0 to 5")
	fs.Float64Var(&b.price, "price", 0, "Price")
}

func (b *bookFlags) visit(fs *flag.FlagSet) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			b.Title = &b.title
		case "author":
			b.Author = &b.author
		case "isbn":
			b.ISBN = &b.isbn
		case "description":
			b.Description = &b.description
		case "cover":
			b.CoverImage = &b.cover
		case "category":
			b.Category = &b.category
		case "pages":
			b.Pages = &b.pages
		case "year":
			b.PublishedYear = &b.year
		case "stock":
			b.Stock = &b.stock
		case "rating":
			b.Rating = &b.rating
		case "price":
			b.Price = &b.price
		}
	})
}

func splitPositional(args []string) (positional, rest []string) {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			return args[:i], args[i:]
		}
	}
	return args, nil
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return uint(id), nil
}
