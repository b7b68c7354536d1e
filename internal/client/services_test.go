package client

import (
	"context"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookkinder/internal/auth"
	"github.com/mrlokans/bookkinder/internal/client/session"
	"github.com/mrlokans/bookkinder/internal/config"
	"github.com/mrlokans/bookkinder/internal/database"
	apihttp "github.com/mrlokans/bookkinder/internal/http"
	"github.com/mrlokans/bookkinder/internal/seed"
)

// newAPIServer runs the real router over a seeded temp database.
func newAPIServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := database.NewDatabase(config.Database{
		Driver:   config.DriverSQLite,
		Path:     filepath.Join(t.TempDir(), "client.db"),
		LogLevel: "silent",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	authCfg := config.Auth{BcryptCost: 4, TokenExpiry: time.Hour}
	authService := auth.NewService(db.DB, authCfg)
	authController := auth.NewAuthController(authService, nil, authCfg)
	t.Cleanup(authController.Stop)

	_, err = seed.Run(db.DB, authService, seed.Options{
		Users: 3,
		Books: 12,
		Rand:  rand.New(rand.NewPCG(1, 2)),
	})
	require.NoError(t, err)

	router := apihttp.NewRouter(apihttp.RouterConfig{
		Database:       db,
		AuthController: authController,
		AuthService:    authService,
		APIPrefix:      "/api",
		Version:        "test",
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func newTestClient(server *httptest.Server, store *session.Store) *Client {
	return New(server.URL+"/api", store, WithHTTPClient(server.Client()))
}

func login(t *testing.T, c *Client) {
	t.Helper()
	_, err := NewAuthService(c).Login(context.Background(), seed.AdminEmail, seed.Password)
	require.NoError(t, err)
}

func TestAuthService_LoginLogout(t *testing.T) {
	server := newAPIServer(t)
	ctx := context.Background()
	storage := session.NewMemoryStorage()
	c := newTestClient(server, session.NewStore(storage))
	authService := NewAuthService(c)

	_, err := authService.Login(ctx, seed.AdminEmail, "wrong")
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
	assert.False(t, c.Session().IsAuthenticated())

	user, err := authService.Login(ctx, seed.AdminEmail, seed.Password)
	require.NoError(t, err)
	assert.Equal(t, seed.AdminName, user.Name)
	assert.Equal(t, "admin", user.Role)
	assert.True(t, c.Session().IsAuthenticated())

	me, err := authService.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, seed.AdminEmail, me.Email)

	// A second process restores the same session from storage.
	restored := session.NewStore(storage)
	require.NoError(t, restored.InitFromLocal())
	other := newTestClient(server, restored)
	_, err = NewAuthService(other).Me(ctx)
	require.NoError(t, err)

	require.NoError(t, authService.Logout(ctx))
	assert.False(t, c.Session().IsAuthenticated())

	// Logout revoked every token, including the one the restored client holds.
	_, err = NewAuthService(other).Me(ctx)
	assert.True(t, IsStatus(err, http.StatusUnauthorized))

	assert.ErrorIs(t, authService.Logout(ctx), ErrNotAuthenticated)
}

func TestAuthService_LogoutClearsSessionOnServerError(t *testing.T) {
	server, _ := recordingServer(t, http.StatusInternalServerError, `{"error":"logout failed"}`)
	storage := session.NewMemoryStorage()
	store := session.NewStore(storage)
	token := "stale"
	require.NoError(t, store.SetToken(&token))
	require.NoError(t, store.SetUser(&session.User{ID: 1, Name: "A"}))

	c := New(server.URL, store, WithHTTPClient(server.Client()))
	err := NewAuthService(c).Logout(context.Background())

	assert.True(t, IsStatus(err, http.StatusInternalServerError))
	assert.False(t, store.IsAuthenticated())
	_, ok, _ := storage.Get(session.KeyToken)
	assert.False(t, ok)
}

func TestBookService(t *testing.T) {
	server := newAPIServer(t)
	ctx := context.Background()
	c := newTestClient(server, nil)
	books := NewBookService(c)

	all, err := books.List(ctx, ListParams{})
	require.NoError(t, err)
	assert.Len(t, all, 12)

	page, err := books.ListPage(ctx, ListParams{PerPage: 5, Page: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(12), page.Total)
	assert.Equal(t, 3, page.LastPage)
	assert.Len(t, page.Data, 2)

	sorted, err := books.List(ctx, ListParams{SortField: "price", SortOrder: "desc"})
	require.NoError(t, err)
	for i := 1; i < len(sorted); i++ {
		assert.GreaterOrEqual(t, sorted[i-1].Price, sorted[i].Price)
	}

	top, err := books.TopRated(ctx, 3)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.GreaterOrEqual(t, top[0].Rating, top[1].Rating)

	byCategory, err := books.ByCategory(ctx, all[0].Category)
	require.NoError(t, err)
	assert.NotEmpty(t, byCategory)
	for _, b := range byCategory {
		assert.Equal(t, all[0].Category, b.Category)
	}

	// Reads of a single book and all writes need a token.
	_, err = books.Get(ctx, all[0].ID)
	assert.True(t, IsStatus(err, http.StatusUnauthorized))

	login(t, c)

	title, pages := "Cien años de soledad", 417
	created, err := books.Create(ctx, BookInput{Title: &title, Pages: &pages})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	found, err := books.Search(ctx, "Cien años")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, created.ID, found[0].ID)

	stock := 9
	updated, err := books.Update(ctx, created.ID, BookInput{Stock: &stock})
	require.NoError(t, err)
	assert.Equal(t, 9, updated.Stock)
	assert.Equal(t, title, updated.Title)

	require.NoError(t, books.Delete(ctx, created.ID))
	_, err = books.Get(ctx, created.ID)
	assert.True(t, IsStatus(err, http.StatusNotFound))

	badRating := 7.5
	_, err = books.Update(ctx, all[0].ID, BookInput{Rating: &badRating})
	assert.True(t, IsStatus(err, http.StatusBadRequest))
}

func TestUserService(t *testing.T) {
	server := newAPIServer(t)
	ctx := context.Background()
	c := newTestClient(server, nil)
	users := NewUserService(c)

	all, err := users.List(ctx, ListParams{})
	require.NoError(t, err)
	assert.Len(t, all, 4) // admin plus three seeded users

	admins, err := users.List(ctx, ListParams{Search: map[string]string{"role": "admin"}})
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, seed.AdminEmail, admins[0].Email)

	found, err := users.Search(ctx, "Admin")
	require.NoError(t, err)
	assert.NotEmpty(t, found)

	login(t, c)

	name, email := "Gabriel García", "gabo@bookkinder.com"
	created, err := users.Create(ctx, UserInput{Name: &name, Email: &email})
	require.NoError(t, err)
	assert.Equal(t, "user", string(created.Role))

	_, err = users.Create(ctx, UserInput{Name: &name, Email: &email})
	assert.True(t, IsStatus(err, http.StatusConflict))

	// New accounts sign in with the default password.
	other := newTestClient(server, nil)
	_, err = NewAuthService(other).Login(ctx, email, apihttp.DefaultUserPassword)
	require.NoError(t, err)

	renamed := "Gabo"
	updated, err := users.Update(ctx, created.ID, UserInput{Name: &renamed})
	require.NoError(t, err)
	assert.Equal(t, "Gabo", updated.Name)

	require.NoError(t, users.Delete(ctx, created.ID))
	_, err = users.Get(ctx, created.ID)
	assert.True(t, IsStatus(err, http.StatusNotFound))
}
