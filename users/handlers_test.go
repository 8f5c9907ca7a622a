package users

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suporte/usuarios-api/apperror"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	s, _ := newTestService(t)
	r := chi.NewRouter()
	NewUserHandlers(s).RegisterRoutes(r)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestUserHandlersLifecycle(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/users", `{"name":"Maria","email":"maria@example.com","password":"s3nh4"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "s3nh4")
	var created User
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.Equal(t, int64(1), created.ID)

	rec = do(t, h, http.MethodGet, "/users/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":1,"name":"Maria","email":"maria@example.com"}`, rec.Body.String())

	rec = do(t, h, http.MethodPut, "/users/1", `{"name":"Maria S.","email":"maria@example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":1,"name":"Maria S.","email":"maria@example.com"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/users", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":1,"name":"Maria S.","email":"maria@example.com"}]`, rec.Body.String())

	rec = do(t, h, http.MethodDelete, "/users/1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/users/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestUserHandlersEmptyList(t *testing.T) {
	rec := do(t, newTestRouter(t), http.MethodGet, "/users", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestUserHandlersNotFoundHasEmptyBody(t *testing.T) {
	h := newTestRouter(t)

	for _, tc := range []struct{ method, body string }{
		{http.MethodGet, ""},
		{http.MethodPut, `{"name":"A","email":"a@b.com"}`},
		{http.MethodDelete, ""},
	} {
		rec := do(t, h, tc.method, "/users/77", tc.body)
		assert.Equal(t, http.StatusNotFound, rec.Code, tc.method)
		assert.Empty(t, rec.Body.String(), tc.method)
	}
}

func TestUserHandlersErrors(t *testing.T) {
	h := newTestRouter(t)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/users", `{"name":"A","email":"a@b.com","password":"x"}`).Code)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/users", `{"name":"B","email":"b@b.com","password":"y"}`).Code)

	t.Run("duplicate on create", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/users", `{"name":"C","email":"a@b.com","password":"z"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.JSONEq(t, `{"error":"E-mail já registrado."}`, rec.Body.String())
	})

	t.Run("duplicate on update", func(t *testing.T) {
		rec := do(t, h, http.MethodPut, "/users/1", `{"name":"A","email":"b@b.com"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("validation", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/users", `{"name":"","email":"nope","password":"x"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		var body apperror.ErrorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "Dados inválidos", body.Error)
		assert.Equal(t, []string{"O nome é obrigatório", "E-mail inválido"}, body.Details)
	})

	t.Run("multibyte password over 72 bytes", func(t *testing.T) {
		pw := strings.Repeat("é", 40)
		for _, tc := range []struct{ method, path string }{
			{http.MethodPost, "/users"},
			{http.MethodPut, "/users/1"},
		} {
			rec := do(t, h, tc.method, tc.path, `{"name":"Z","email":"z@b.com","password":"`+pw+`"}`)
			require.Equal(t, http.StatusBadRequest, rec.Code, tc.method)
			assert.JSONEq(t, `{"error":"Dados inválidos","details":["A senha deve ter no máximo 72 bytes"]}`, rec.Body.String(), tc.method)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/users", `{"name":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("oversized body", func(t *testing.T) {
		body := `{"name":"` + strings.Repeat("a", MaxBodyBytes) + `","email":"big@b.com","password":"x"}`
		rec := do(t, h, http.MethodPost, "/users", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"Corpo da requisição muito grande"}`, rec.Body.String())
	})

	t.Run("non numeric id", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/users/abc", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
