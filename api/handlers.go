package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"todos-api/domain"
)

// Register wires up all todo routes on the provided Echo instance.
func Register(e *echo.Echo, store Storage, logger *log.Logger) {
	if logger == nil {
		logger = log.StandardLogger()
	}
	e.GET("/", listTodos(store))
	e.POST("/", createTodo(store, logger))
	e.PUT("/:id", renameTodo(store, logger))
	e.DELETE("/:id", deleteTodo(store, logger))
	e.POST("/:id/toggle", toggleTodo(store, logger))
	e.GET("/healthz", healthz())
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	}
}

func listTodos(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		todos, err := store.List(c.Request().Context())
		if err != nil {
			metricsFrom(c).SetErrorStage("storage")
			return err
		}
		if todos == nil {
			todos = []domain.Todo{}
		}
		metricsFrom(c).SetTodosReturned(len(todos))
		return c.JSON(http.StatusOK, todos)
	}
}

func createTodo(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		name, err := nameFromRequest(c)
		if err != nil {
			return respondValidation(c, err)
		}
		todo, err := store.Create(c.Request().Context(), name)
		if err != nil {
			metricsFrom(c).SetErrorStage("storage")
			return err
		}
		metricsFrom(c).SetTodoID(strconv.FormatInt(todo.ID, 10))
		logger.WithField("todo_id", todo.ID).Debug("todo created")
		return c.JSON(http.StatusOK, todo)
	}
}

// renameTodo validates the body before looking the todo up, so a bad body
// for an unknown id is a 400 rather than a 404.
func renameTodo(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		metricsFrom(c).SetTodoID(c.Param("id"))
		name, err := nameFromRequest(c)
		if err != nil {
			return respondValidation(c, err)
		}
		id, ok := domain.ParseID(c.Param("id"))
		if !ok {
			return notFound(c)
		}
		todo, err := store.Rename(c.Request().Context(), id, name)
		if err != nil {
			return respondStoreError(c, err)
		}
		logger.WithField("todo_id", todo.ID).Debug("todo renamed")
		return c.JSON(http.StatusOK, todo)
	}
}

func deleteTodo(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		metricsFrom(c).SetTodoID(c.Param("id"))
		id, ok := domain.ParseID(c.Param("id"))
		if !ok {
			return notFound(c)
		}
		todo, err := store.Delete(c.Request().Context(), id)
		if err != nil {
			return respondStoreError(c, err)
		}
		logger.WithField("todo_id", todo.ID).Debug("todo deleted")
		return c.JSON(http.StatusOK, todo)
	}
}

func toggleTodo(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		metricsFrom(c).SetTodoID(c.Param("id"))
		id, ok := domain.ParseID(c.Param("id"))
		if !ok {
			return notFound(c)
		}
		todo, err := store.Toggle(c.Request().Context(), id)
		if err != nil {
			return respondStoreError(c, err)
		}
		logger.WithFields(log.Fields{"todo_id": todo.ID, "done": todo.Done}).Debug("todo toggled")
		return c.JSON(http.StatusOK, todo)
	}
}

func nameFromRequest(c echo.Context) (string, error) {
	payload, err := decodePayload(c)
	if err != nil {
		return "", err
	}
	return domain.ValidateName(payload)
}

// respondValidation answers rejected names with 400; other errors (body read
// failures) are left to the error handler.
func respondValidation(c echo.Context, err error) error {
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		metricsFrom(c).SetErrorStage("request")
		return err
	}
	metricsFrom(c).SetErrorStage("validation")
	return c.JSON(http.StatusBadRequest, errorResponse{Error: verr.Message})
}

func respondStoreError(c echo.Context, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return notFound(c)
	}
	metricsFrom(c).SetErrorStage("storage")
	return err
}

func notFound(c echo.Context) error {
	metricsFrom(c).SetErrorStage("not_found")
	return respondNotFound(c)
}
