package validation

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deppfellow/go-users-api/internal/errs"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupRequest struct {
	ID    int64  `param:"id" validate:"required,gt=0"`
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required,min=2"`
}

func (r *signupRequest) Validate() error {
	return Struct(r)
}

type customRequest struct{}

func (r *customRequest) Validate() error {
	return CustomValidationErrors{{Field: "token", Message: "is expired"}}
}

func newContext(body string, id string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/things/:id")
	c.SetParamNames("id")
	c.SetParamValues(id)
	return c
}

func TestBindAndValidate_Success(t *testing.T) {
	req := &signupRequest{}
	err := BindAndValidate(newContext(`{"email":"a@example.com","name":"Al"}`, "4"), req)

	require.NoError(t, err)
	assert.Equal(t, int64(4), req.ID)
	assert.Equal(t, "a@example.com", req.Email)
}

func TestBindAndValidate_FieldErrorsUseJSONNames(t *testing.T) {
	err := BindAndValidate(newContext(`{"email":"nope","name":"A"}`, "4"), &signupRequest{})

	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.ElementsMatch(t, []errs.FieldError{
		{Field: "email", Error: "must be a valid email address"},
		{Field: "name", Error: "must be at least 2 characters"},
	}, httpErr.Errors)
}

func TestBindAndValidate_NonNumericParam(t *testing.T) {
	err := BindAndValidate(newContext(`{}`, "abc"), &signupRequest{})

	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.Empty(t, httpErr.Errors)
}

func TestBindAndValidate_MalformedJSON(t *testing.T) {
	err := BindAndValidate(newContext(`{"email":`, "1"), &signupRequest{})

	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
}

func TestBindAndValidate_CustomErrors(t *testing.T) {
	err := BindAndValidate(newContext(``, "1"), &customRequest{})

	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, []errs.FieldError{{Field: "token", Error: "is expired"}}, httpErr.Errors)
}
