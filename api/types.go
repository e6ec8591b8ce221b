package api

import (
	"context"

	"todos-api/domain"
)

// Storage abstracts the todo store for handlers.
type Storage interface {
	List(ctx context.Context) ([]domain.Todo, error)
	Create(ctx context.Context, name string) (domain.Todo, error)
	Rename(ctx context.Context, id int64, name string) (domain.Todo, error)
	Delete(ctx context.Context, id int64) (domain.Todo, error)
	Toggle(ctx context.Context, id int64) (domain.Todo, error)
}

// errorResponse is the JSON body of a rejected name.
type errorResponse struct {
	Error string `json:"error"`
}
