package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/mrlokans/bookkinder/internal/client/session"
	"github.com/mrlokans/bookkinder/internal/database/repository"
	"github.com/mrlokans/bookkinder/internal/entities"
	"github.com/mrlokans/bookkinder/internal/logger"
)

// AuthService signs the session in and out.
type AuthService struct {
	client *Client
}

func NewAuthService(c *Client) *AuthService {
	return &AuthService{client: c}
}

type loginResponse struct {
	User  session.User `json:"user"`
	Token string       `json:"token"`
}

// Login stores the returned token and user in the session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*session.User, error) {
	var resp loginResponse
	body := map[string]string{"email": email, "password": password}
	if err := s.client.Post(ctx, "/auth/login", body, &resp); err != nil {
		logger.L.Error().Err(err).Str("email", email).Msg("Login failed")
		return nil, err
	}

	store := s.client.Session()
	if err := store.SetToken(&resp.Token); err != nil {
		return nil, fmt.Errorf("failed to store token: %w", err)
	}
	if err := store.SetUser(&resp.User); err != nil {
		return nil, fmt.Errorf("failed to store user: %w", err)
	}
	return store.User(), nil
}

// Logout revokes the server-side tokens and clears the session. The session
// is cleared even when the server call fails; that error is still returned.
func (s *AuthService) Logout(ctx context.Context) error {
	store := s.client.Session()
	if !store.IsAuthenticated() {
		return ErrNotAuthenticated
	}

	err := s.client.Post(ctx, "/auth/logout", nil, nil)
	if err != nil {
		logger.L.Error().Err(err).Msg("Logout request failed")
	}
	if clearErr := store.ClearAuth(); clearErr != nil {
		logger.L.Error().Err(clearErr).Msg("Failed to clear session")
		if err == nil {
			err = clearErr
		}
	}
	return err
}

// Me fetches the current user and refreshes the session copy.
func (s *AuthService) Me(ctx context.Context) (*session.User, error) {
	var user session.User
	if err := s.client.Get(ctx, "/user", nil, &user); err != nil {
		logger.L.Error().Err(err).Msg("Failed to fetch current user")
		return nil, err
	}
	if err := s.client.Session().SetUser(&user); err != nil {
		return nil, fmt.Errorf("failed to store user: %w", err)
	}
	return &user, nil
}

// resource covers the shared CRUD endpoints of books and users.
type resource[T any] struct {
	client *Client
	name   string
}

func (r resource[T]) list(ctx context.Context, params ListParams) ([]T, error) {
	var items []T
	if err := r.client.Get(ctx, "/"+r.name, params.values(true), &items); err != nil {
		logger.L.Error().Err(err).Str("resource", r.name).Msg("List failed")
		return nil, err
	}
	return items, nil
}

func (r resource[T]) listPage(ctx context.Context, params ListParams) (*repository.Page[T], error) {
	var page repository.Page[T]
	if err := r.client.Get(ctx, "/"+r.name, params.values(false), &page); err != nil {
		logger.L.Error().Err(err).Str("resource", r.name).Msg("List failed")
		return nil, err
	}
	return &page, nil
}

func (r resource[T]) get(ctx context.Context, endpoint string) ([]T, error) {
	var items []T
	if err := r.client.Get(ctx, endpoint, nil, &items); err != nil {
		logger.L.Error().Err(err).Str("endpoint", endpoint).Msg("Request failed")
		return nil, err
	}
	return items, nil
}

func (r resource[T]) find(ctx context.Context, id uint) (*T, error) {
	var item T
	if err := r.client.Get(ctx, fmt.Sprintf("/%s/%d", r.name, id), nil, &item); err != nil {
		logger.L.Error().Err(err).Str("resource", r.name).Uint("id", id).Msg("Find failed")
		return nil, err
	}
	return &item, nil
}

func (r resource[T]) create(ctx context.Context, input any) (*T, error) {
	var item T
	if err := r.client.Post(ctx, "/"+r.name+"/store", input, &item); err != nil {
		logger.L.Error().Err(err).Str("resource", r.name).Msg("Create failed")
		return nil, err
	}
	return &item, nil
}

func (r resource[T]) update(ctx context.Context, id uint, input any) (*T, error) {
	var item T
	if err := r.client.Put(ctx, fmt.Sprintf("/%s/update/%d", r.name, id), input, &item); err != nil {
		logger.L.Error().Err(err).Str("resource", r.name).Uint("id", id).Msg("Update failed")
		return nil, err
	}
	return &item, nil
}

func (r resource[T]) delete(ctx context.Context, id uint) error {
	if err := r.client.Delete(ctx, fmt.Sprintf("/%s/delete/%d", r.name, id)); err != nil {
		logger.L.Error().Err(err).Str("resource", r.name).Uint("id", id).Msg("Delete failed")
		return err
	}
	return nil
}

// BookInput carries the writable book fields. Nil fields are left out of
// the request.
type BookInput struct {
	Title         *string  `json:"title,omitempty"`
	Author        *string  `json:"author,omitempty"`
	ISBN          *string  `json:"isbn,omitempty"`
	Description   *string  `json:"description,omitempty"`
	CoverImage    *string  `json:"cover_image,omitempty"`
	Category      *string  `json:"category,omitempty"`
	Pages         *int     `json:"pages,omitempty"`
	PublishedYear *int     `json:"published_year,omitempty"`
	Rating        *float64 `json:"rating,omitempty"`
	Price         *float64 `json:"price,omitempty"`
	Stock         *int     `json:"stock,omitempty"`
}

type BookService struct {
	r resource[entities.Book]
}

func NewBookService(c *Client) *BookService {
	return &BookService{r: resource[entities.Book]{client: c, name: "books"}}
}

func (s *BookService) List(ctx context.Context, params ListParams) ([]entities.Book, error) {
	return s.r.list(ctx, params)
}

func (s *BookService) ListPage(ctx context.Context, params ListParams) (*repository.Page[entities.Book], error) {
	return s.r.listPage(ctx, params)
}

func (s *BookService) Search(ctx context.Context, query string) ([]entities.Book, error) {
	return s.r.get(ctx, "/books/search/"+url.PathEscape(query))
}

func (s *BookService) ByCategory(ctx context.Context, category string) ([]entities.Book, error) {
	return s.r.get(ctx, "/books/category/"+url.PathEscape(category))
}

func (s *BookService) TopRated(ctx context.Context, limit int) ([]entities.Book, error) {
	return s.r.get(ctx, "/books/top-rated/"+strconv.Itoa(limit))
}

func (s *BookService) Get(ctx context.Context, id uint) (*entities.Book, error) {
	return s.r.find(ctx, id)
}

func (s *BookService) Create(ctx context.Context, input BookInput) (*entities.Book, error) {
	return s.r.create(ctx, input)
}

func (s *BookService) Update(ctx context.Context, id uint, input BookInput) (*entities.Book, error) {
	return s.r.update(ctx, id, input)
}

func (s *BookService) Delete(ctx context.Context, id uint) error {
	return s.r.delete(ctx, id)
}

// UserInput carries the writable user fields.
type UserInput struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Role  *string `json:"role,omitempty"`
}

type UserService struct {
	r resource[entities.User]
}

func NewUserService(c *Client) *UserService {
	return &UserService{r: resource[entities.User]{client: c, name: "users"}}
}

func (s *UserService) List(ctx context.Context, params ListParams) ([]entities.User, error) {
	return s.r.list(ctx, params)
}

func (s *UserService) ListPage(ctx context.Context, params ListParams) (*repository.Page[entities.User], error) {
	return s.r.listPage(ctx, params)
}

func (s *UserService) Search(ctx context.Context, query string) ([]entities.User, error) {
	return s.r.get(ctx, "/users/search/"+url.PathEscape(query))
}

func (s *UserService) Get(ctx context.Context, id uint) (*entities.User, error) {
	return s.r.find(ctx, id)
}

func (s *UserService) Create(ctx context.Context, input UserInput) (*entities.User, error) {
	return s.r.create(ctx, input)
}

func (s *UserService) Update(ctx context.Context, id uint, input UserInput) (*entities.User, error) {
	return s.r.update(ctx, id, input)
}

func (s *UserService) Delete(ctx context.Context, id uint) error {
	return s.r.delete(ctx, id)
}
