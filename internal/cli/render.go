package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/mrlokans/bookkinder/internal/client/session"
	"github.com/mrlokans/bookkinder/internal/entities"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func renderBooks(w io.Writer, books []entities.Book) {
	if len(books) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No books found"))
		return
	}
	t := newTable("ID", "Title", "Author", "Category", "Rating", "Price", "Stock")
	for _, b := range books {
		t.Row(
			strconv.FormatUint(uint64(b.ID), 10),
			truncate(b.Title, 40),
			truncate(b.Author, 24),
			b.Category,
			strconv.FormatFloat(b.Rating, 'f', 1, 64),
			strconv.FormatFloat(b.Price, 'f', 2, 64),
			strconv.Itoa(b.Stock),
		)
	}
	fmt.Fprintln(w, t.Render())
}

func renderBook(w io.Writer, b *entities.Book) {
	isbn := "-"
	if b.ISBN != nil {
		isbn = *b.ISBN
	}
	fmt.Fprintln(w, titleStyle.Render(b.Title))
	t := newTable("Field", "Value").
		Row("ID", strconv.FormatUint(uint64(b.ID), 10)).
		Row("Author", b.Author).
		Row("ISBN", isbn).
		Row("Category", b.Category).
		Row("Pages", strconv.Itoa(b.Pages)).
		Row("Published", strconv.Itoa(b.PublishedYear)).
		Row("Rating", strconv.FormatFloat(b.Rating, 'f', 1, 64)).
		Row("Price", strconv.FormatFloat(b.Price, 'f', 2, 64)).
		Row("Stock", strconv.Itoa(b.Stock))
	fmt.Fprintln(w, t.Render())
	if b.Description != "" {
		fmt.Fprintln(w, b.Description)
	}
}

func renderUsers(w io.Writer, users []entities.User) {
	if len(users) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No users found"))
		return
	}
	t := newTable("ID", "Name", "Email", "Role")
	for _, u := range users {
		t.Row(strconv.FormatUint(uint64(u.ID), 10), u.Name, u.Email, string(u.Role))
	}
	fmt.Fprintln(w, t.Render())
}

func renderSessionUser(w io.Writer, u *session.User) {
	t := newTable("ID", "Name", "Email", "Role").
		Row(strconv.FormatUint(uint64(u.ID), 10), u.Name, u.Email, u.Role)
	fmt.Fprintln(w, t.Render())
}

func renderPageFooter(w io.Writer, current, last int, total int64) {
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("Page %d of %d (%d total)", current, last, total)))
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
