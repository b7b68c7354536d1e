// Package seed fills an empty catalog with an admin account, sample users and
// sample books.
package seed

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mrlokans/bookkinder/internal/auth"
	"github.com/mrlokans/bookkinder/internal/database/books"
	"github.com/mrlokans/bookkinder/internal/database/repository"
	"github.com/mrlokans/bookkinder/internal/database/users"
	"github.com/mrlokans/bookkinder/internal/entities"
	"github.com/mrlokans/bookkinder/internal/logger"
)

const (
	AdminName  = "Admin bookkinder"
	AdminEmail = "admin@bookkinder.com"
	// Password is shared by every seeded account.
	Password = "password"

	DefaultUsers = 10
	DefaultBooks = 100
)

type Options struct {
	Users int
	Books int
	// Rand drives every generated value; nil uses a time-seeded source.
	Rand *rand.Rand
}

type Result struct {
	Skipped bool // the admin already existed, nothing was written
	Users   int
	Books   int
}

// Run seeds db unless the admin account already exists.
func Run(db *gorm.DB, authService *auth.Service, opts Options) (*Result, error) {
	if opts.Users < 0 || opts.Books < 0 {
		return nil, fmt.Errorf("seed counts must not be negative")
	}
	rng := opts.Rand
	if rng == nil {
		now := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(now, now>>32))
	}

	userRepo := users.NewRepository(db)
	if _, err := userRepo.FindByEmail(AdminEmail); err == nil {
		logger.L.Info().Str("email", AdminEmail).Msg("Seed: admin exists, skipping")
		return &Result{Skipped: true}, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check admin account: %w", err)
	}

	if _, err := authService.CreateUser(AdminName, AdminEmail, Password, entities.RoleAdmin); err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}

	result := &Result{Users: 1}
	g := &generator{rng: rng, usedEmails: map[string]bool{AdminEmail: true}, usedISBNs: map[string]bool{}}

	for i := 0; i < opts.Users; i++ {
		name, email := g.person()
		if _, err := authService.CreateUser(name, email, Password, entities.RoleUser); err != nil {
			return nil, fmt.Errorf("failed to create user %s: %w", email, err)
		}
		result.Users++
	}

	bookRepo := books.NewRepository(db)
	for i := 0; i < opts.Books; i++ {
		if err := bookRepo.Create(g.book()); err != nil {
			return nil, fmt.Errorf("failed to create book: %w", err)
		}
		result.Books++
	}

	logger.L.Info().Int("users", result.Users).Int("books", result.Books).Msg("Seed: catalog populated")
	return result, nil
}

var (
	firstNames = []string{
		"Lucía", "Mateo", "Valentina", "Santiago", "Camila", "Sebastián", "Isabella",
		"Diego", "Martina", "Nicolás", "Sofía", "Gabriel", "Elena", "Tomás", "Julia",
	}
	lastNames = []string{
		"García", "Rodríguez", "Martínez", "López", "Hernández", "Pérez", "Sánchez",
		"Ramírez", "Torres", "Flores", "Rivera", "Gómez", "Díaz", "Morales", "Ortiz",
	}
	titleWords = []string{
		"silent", "garden", "river", "shadow", "crown", "letters", "winter", "island",
		"memory", "stars", "journey", "house", "forgotten", "city", "light", "dragon",
		"ocean", "secret", "mirror", "clock", "storm", "forest", "promise", "dream",
	}
	sentenceWords = []string{
		"a", "story", "about", "the", "quiet", "courage", "of", "people", "who",
		"find", "their", "way", "home", "through", "strange", "and", "wonderful",
		"places", "where", "time", "moves", "differently", "every", "chapter",
	}
)

type generator struct {
	rng        *rand.Rand
	usedEmails map[string]bool
	usedISBNs  map[string]bool
}

func (g *generator) pick(words []string) string {
	return words[g.rng.IntN(len(words))]
}

func (g *generator) person() (name, email string) {
	for {
		first, last := g.pick(firstNames), g.pick(lastNames)
		name = first + " " + last
		email = fmt.Sprintf("%s.%s%d@example.com", asciiLower(first), asciiLower(last), g.rng.IntN(1000))
		if !g.usedEmails[email] {
			g.usedEmails[email] = true
			return name, email
		}
	}
}

func (g *generator) sentence(words int) string {
	parts := make([]string, words)
	for i := range parts {
		parts[i] = g.pick(sentenceWords)
	}
	s := strings.Join(parts, " ")
	return strings.ToUpper(s[:1]) + s[1:] + "."
}

func (g *generator) title() string {
	n := 2 + g.rng.IntN(3)
	parts := make([]string, n)
	for i := range parts {
		w := g.pick(titleWords)
		parts[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return "The " + strings.Join(parts, " ")
}

// isbn13 returns an unused ISBN-13 with a valid check digit.
func (g *generator) isbn13() string {
	for {
		digits := make([]int, 12)
		copy(digits, []int{9, 7, 8})
		for i := 3; i < 12; i++ {
			digits[i] = g.rng.IntN(10)
		}
		var b strings.Builder
		for _, d := range digits {
			b.WriteByte(byte('0' + d))
		}
		b.WriteByte(byte('0' + ISBN13CheckDigit(digits)))

		isbn := b.String()
		if !g.usedISBNs[isbn] {
			g.usedISBNs[isbn] = true
			return isbn
		}
	}
}

// ISBN13CheckDigit computes the check digit for the first twelve digits.
func ISBN13CheckDigit(digits []int) int {
	sum := 0
	for i, d := range digits[:12] {
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	return (10 - sum%10) % 10
}

func (g *generator) book() *entities.Book {
	isbn := g.isbn13()
	return &entities.Book{
		Title:         g.title(),
		Author:        g.pick(firstNames) + " " + g.pick(lastNames),
		ISBN:          &isbn,
		Description:   g.sentence(12 + g.rng.IntN(12)),
		CoverImage:    "https://picsum.photos/seed/" + uuid.NewString() + "/300/450",
		Category:      g.pick(entities.BookCategories),
		Pages:         50 + g.rng.IntN(951),
		PublishedYear: 1900 + g.rng.IntN(time.Now().Year()-1900+1),
		Rating:        roundCents(1 + g.rng.Float64()*4),
		Price:         roundCents(5 + g.rng.Float64()*95),
		Stock:         g.rng.IntN(101),
	}
}

func roundCents(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

var asciiReplacer = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ñ", "n",
	"Á", "a", "É", "e", "Í", "i", "Ó", "o", "Ú", "u", "Ñ", "n",
)

func asciiLower(s string) string {
	return strings.ToLower(asciiReplacer.Replace(s))
}
