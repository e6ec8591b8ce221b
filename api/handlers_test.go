package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"todos-api/domain"
	"todos-api/storage"
)

func newContext(method, target, body string, id string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if id != "" {
		c.SetParamNames("id")
		c.SetParamValues(id)
	}
	return c, rec
}

func decodeTodo(t *testing.T, rec *httptest.ResponseRecorder) domain.Todo {
	t.Helper()
	var todo domain.Todo
	if err := sonic.Unmarshal(rec.Body.Bytes(), &todo); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	return todo
}

func listAll(t *testing.T, store *storage.Memory) []domain.Todo {
	t.Helper()
	todos, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	return todos
}

func TestListTodosFreshStore(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/", "", "")

	if err := listTodos(storage.NewMemory())(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, echo.MIMEApplicationJSON) {
		t.Fatalf("unexpected content type %q", ct)
	}
	var todos []domain.Todo
	if err := sonic.Unmarshal(rec.Body.Bytes(), &todos); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(todos) != 2 {
		t.Fatalf("expected 2 seed todos, got %#v", todos)
	}
	if todos[0].ID == todos[1].ID {
		t.Fatalf("seed ids should differ: %#v", todos)
	}
	for _, todo := range todos {
		if todo.Name != "Dinner" || todo.Done {
			t.Fatalf("unexpected seed todo: %#v", todo)
		}
	}
}

func TestListTodosEmptyStoreIsArray(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/", "", "")

	if err := listTodos(storage.NewMemoryWithSeed())(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("expected empty array, got %q", rec.Body.String())
	}
}

func TestCreateTodo(t *testing.T) {
	store := storage.NewMemory()
	before := listAll(t, store)
	c, rec := newContext(http.MethodPost, "/", `{"name":"  Kazik "}`, "")

	if err := createTodo(store, log.New())(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	created := decodeTodo(t, rec)
	if created.Name != "Kazik" || created.Done {
		t.Fatalf("unexpected todo: %#v", created)
	}

	after := listAll(t, store)
	if len(after) != len(before)+1 {
		t.Fatalf("expected %d todos, got %d", len(before)+1, len(after))
	}
	if after[len(after)-1] != created {
		t.Fatalf("created todo not appended: %#v", after)
	}
	for _, todo := range before {
		if todo.ID == created.ID {
			t.Fatalf("id %d reused", created.ID)
		}
	}
}

func TestCreateTodoValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "missing body", body: "", want: "Name is missing"},
		{name: "missing name", body: `{}`, want: "Name is missing"},
		{name: "array body", body: `[{"name":"x"}]`, want: "Name is missing"},
		{name: "empty name", body: `{"name":""}`, want: "Name should not be empty"},
		{name: "blank name", body: `{"name":"   "}`, want: "Name should not be empty"},
		{name: "number name", body: `{"name":42}`, want: "Name should be a string"},
		{name: "null name", body: `{"name":null}`, want: "Name should be a string"},
		{name: "object name", body: `{"name":{"first":"x"}}`, want: "Name should be a string"},
		{name: "out of range number name", body: `{"name":1e400}`, want: "Name should be a string"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storage.NewMemory()
			c, rec := newContext(http.MethodPost, "/", tt.body, "")

			if err := createTodo(store, log.New())(c); err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400 got %d", rec.Code)
			}
			var resp errorResponse
			if err := sonic.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if resp.Error != tt.want {
				t.Fatalf("error = %q, want %q", resp.Error, tt.want)
			}
			if store.Len() != 2 {
				t.Fatalf("rejected create mutated the store")
			}
		})
	}
}

func TestCreateTodoMalformedBody(t *testing.T) {
	for _, body := range []string{`{"name":`, `"x"`, `null`, `42`, `[1,`} {
		t.Run(body, func(t *testing.T) {
			store := storage.NewMemory()
			c, rec := newContext(http.MethodPost, "/", body, "")

			err := createTodo(store, log.New())(c)
			if !errors.Is(err, errMalformedBody) {
				t.Fatalf("expected errMalformedBody, got %v", err)
			}
			if rec.Body.Len() != 0 {
				t.Fatalf("handler should leave the response to the error handler, wrote %q", rec.Body.String())
			}
			if store.Len() != 2 {
				t.Fatalf("malformed create mutated the store")
			}
		})
	}
}

func TestCreateTodoIgnoresNonJSONContentType(t *testing.T) {
	store := storage.NewMemory()
	c, rec := newContext(http.MethodPost, "/", `{"name":"plain"}`, "")
	c.Request().Header.Set(echo.HeaderContentType, echo.MIMETextPlain)

	if err := createTodo(store, log.New())(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 got %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"error":"Name is missing"}` {
		t.Fatalf("unexpected body %q", got)
	}
	if store.Len() != 2 {
		t.Fatalf("non-json create mutated the store")
	}
}

func TestCreateTodoJSONContentTypeWithCharset(t *testing.T) {
	store := storage.NewMemory()
	c, rec := newContext(http.MethodPost, "/", `{"name":"Lunch"}`, "")
	c.Request().Header.Set(echo.HeaderContentType, "Application/JSON; charset=utf-8")

	if err := createTodo(store, log.New())(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
}

func TestRenameTodo(t *testing.T) {
	store := storage.NewMemoryWithSeed("Supper")
	if _, err := store.Toggle(context.Background(), 1); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	c, rec := newContext(http.MethodPut, "/1", `{"name":"Lunch"}`, "1")

	if err := renameTodo(store, log.New())(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	want := domain.Todo{ID: 1, Name: "Lunch", Done: true}
	if got := decodeTodo(t, rec); got != want {
		t.Fatalf("response = %#v, want %#v", got, want)
	}
	if todos := listAll(t, store); len(todos) != 1 || todos[0] != want {
		t.Fatalf("store not updated in place: %#v", todos)
	}
}

func TestRenameTodoErrors(t *testing.T) {
	tests := []struct {
		name       string
		id         string
		body       string
		wantStatus int
		wantBody   string
	}{
		{name: "missing todo", id: "999999", body: `{"name":"Lunch"}`, wantStatus: http.StatusNotFound, wantBody: "Not found"},
		{name: "non numeric id", id: "whatever", body: `{"name":"Lunch"}`, wantStatus: http.StatusNotFound, wantBody: "Not found"},
		{name: "validation before lookup", id: "999999", body: `{}`, wantStatus: http.StatusBadRequest, wantBody: `{"error":"Name is missing"}`},
		{name: "empty name on existing", id: "1", body: `{"name":" "}`, wantStatus: http.StatusBadRequest, wantBody: `{"error":"Name should not be empty"}`},
		{name: "wrong type on existing", id: "1", body: `{"name":false}`, wantStatus: http.StatusBadRequest, wantBody: `{"error":"Name should be a string"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storage.NewMemory()
			c, rec := newContext(http.MethodPut, "/"+tt.id, tt.body, tt.id)

			if err := renameTodo(store, log.New())(c); err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d got %d", tt.wantStatus, rec.Code)
			}
			if got := strings.TrimSpace(rec.Body.String()); got != tt.wantBody {
				t.Fatalf("body = %q, want %q", got, tt.wantBody)
			}
			for _, todo := range listAll(t, store) {
				if todo.Name != "Dinner" {
					t.Fatalf("failed rename mutated store: %#v", todo)
				}
			}
		})
	}
}

func TestDeleteTodo(t *testing.T) {
	store := storage.NewMemoryWithSeed("a", "b", "c")
	c, rec := newContext(http.MethodDelete, "/2", "", "2")

	if err := deleteTodo(store, log.New())(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	if got := decodeTodo(t, rec); got != (domain.Todo{ID: 2, Name: "b"}) {
		t.Fatalf("unexpected removed todo: %#v", got)
	}
	todos := listAll(t, store)
	if len(todos) != 2 || todos[0].Name != "a" || todos[1].Name != "c" {
		t.Fatalf("unexpected remaining todos: %#v", todos)
	}
}

func TestDeleteTodoMissing(t *testing.T) {
	for _, id := range []string{"999999", "whatever", "1.5"} {
		t.Run(id, func(t *testing.T) {
			store := storage.NewMemory()
			c, rec := newContext(http.MethodDelete, "/"+id, "", id)

			if err := deleteTodo(store, log.New())(c); err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			if rec.Code != http.StatusNotFound || rec.Body.String() != "Not found" {
				t.Fatalf("expected 404 Not found, got %d %q", rec.Code, rec.Body.String())
			}
			if store.Len() != 2 {
				t.Fatalf("failed delete mutated the store")
			}
		})
	}
}

func TestToggleTodo(t *testing.T) {
	store := storage.NewMemory()

	c, rec := newContext(http.MethodPost, "/1/toggle", "", "1")
	if err := toggleTodo(store, log.New())(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	if got := decodeTodo(t, rec); got != (domain.Todo{ID: 1, Name: "Dinner", Done: true}) {
		t.Fatalf("unexpected toggled todo: %#v", got)
	}
	if store.Len() != 2 {
		t.Fatalf("toggle changed store length to %d", store.Len())
	}

	c, rec = newContext(http.MethodPost, "/1/toggle", "", "1")
	if err := toggleTodo(store, log.New())(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if got := decodeTodo(t, rec); got.Done {
		t.Fatalf("second toggle should restore done=false: %#v", got)
	}
}

func TestToggleTodoMissing(t *testing.T) {
	c, rec := newContext(http.MethodPost, "/42/toggle", "", "42")

	if err := toggleTodo(storage.NewMemory(), log.New())(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusNotFound || rec.Body.String() != "Not found" {
		t.Fatalf("expected 404 Not found, got %d %q", rec.Code, rec.Body.String())
	}
}
