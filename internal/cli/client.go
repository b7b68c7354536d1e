// Package cli implements the bookkinder subcommands other than serve.
package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mrlokans/bookkinder/internal/client"
	"github.com/mrlokans/bookkinder/internal/client/session"
	"github.com/mrlokans/bookkinder/internal/config"
)

// clientFlags are shared by every command that talks to the API.
type clientFlags struct {
	BaseURL       string
	SessionPath   string
	EncryptionKey string
	Out           io.Writer
}

func (f *clientFlags) register(fs *flag.FlagSet, cfg config.Client) {
	fs.StringVar(&f.BaseURL, "api", cfg.BaseURL, "Base URL of the Bookkinder API, including the prefix")
	fs.StringVar(&f.SessionPath, "session", cfg.SessionPath, "Path to the encrypted session file")
	f.EncryptionKey = cfg.EncryptionKey
}

func (f *clientFlags) out() io.Writer {
	if f.Out == nil {
		return os.Stdout
	}
	return f.Out
}

// open restores the saved session and returns a client bound to it. The
// returned func closes the session file.
func (f *clientFlags) open() (*client.Client, func(), error) {
	storage, err := session.NewLocalStorage(session.LocalStorageConfig{
		Path:          f.SessionPath,
		EncryptionKey: f.EncryptionKey,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open session: %w", err)
	}

	store := session.NewStore(storage)
	if err := store.InitFromLocal(); err != nil {
		_ = storage.Close()
		return nil, nil, fmt.Errorf("failed to restore session: %w", err)
	}

	closeFn := func() { _ = storage.Close() }
	return client.New(f.BaseURL, store), closeFn, nil
}

// searchFlag collects repeated -search field=term pairs.
type searchFlag map[string]string

func (s searchFlag) String() string {
	parts := make([]string, 0, len(s))
	for k, v := range s {
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, ",")
}

func (s searchFlag) Set(value string) error {
	field, term, ok := strings.Cut(value, "=")
	if !ok || field == "" {
		return fmt.Errorf("expected field=term, got %q", value)
	}
	s[field] = term
	return nil
}

// listFlags map onto client.ListParams.
type listFlags struct {
	search  searchFlag
	sort    string
	order   string
	perPage int
	page    int
}

func (l *listFlags) register(fs *flag.FlagSet) {
	l.search = searchFlag{}
	fs.Var(l.search, "search", "Filter as field=term (repeatable), e.g. -search title=dune")
	fs.StringVar(&l.sort, "sort", "", "Field to sort by")
	fs.StringVar(&l.order, "order", "asc", "Sort order: asc or desc")
	fs.IntVar(&l.perPage, "per-page", 0, "Page size; enables pagination")
	fs.IntVar(&l.page, "page", 0, "Page number; enables pagination")
}

func (l *listFlags) params() client.ListParams {
	return client.ListParams{
		Search:    l.search,
		SortField: l.sort,
		SortOrder: l.order,
		PerPage:   l.perPage,
		Page:      l.page,
	}
}

func (l *listFlags) paged() bool {
	return l.perPage > 0 || l.page > 0
}
