package util

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func handle(err error) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	HandleError(c, err)
	return w
}

func TestHandleErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized},
		{"bad credentials", ErrInvalidCredentials, http.StatusUnauthorized},
		{"forbidden", ErrForbidden, http.StatusForbidden},
		{"blocked", ErrUserBlocked, http.StatusForbidden},
		{"course missing", ErrCourseNotFound, http.StatusNotFound},
		{"wrapped not found", errors.Join(errors.New("ctx"), ErrCourseNotFound), http.StatusNotFound},
		{"duplicate email", ErrEmailRegistered, http.StatusConflict},
		{"storage", StorageError("create course", gorm.ErrInvalidDB), http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, handle(tc.err).Code)
		})
	}
}

func TestHandleErrorValidationCarriesFields(t *testing.T) {
	verr := NewValidationError()
	verr.Add("price", "must be >= 0")

	w := handle(verr)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body struct {
		Code int `json:"code"`
		Data struct {
			Fields map[string]string `json:"fields"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "must be >= 0", body.Data.Fields["price"])
}

func TestStorageErrorDoesNotLeakDetails(t *testing.T) {
	w := handle(StorageError("find course", errors.New("dial tcp 10.0.0.1:3306: refused")))
	assert.NotContains(t, w.Body.String(), "10.0.0.1")
	assert.Contains(t, w.Body.String(), "try again")
}

func TestStorageErrorKeepsCause(t *testing.T) {
	err := StorageError("find course", gorm.ErrInvalidDB)
	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, gorm.ErrInvalidDB)
	assert.NoError(t, StorageError("noop", nil))
}

func TestValidationErrorOrNil(t *testing.T) {
	verr := NewValidationError()
	assert.NoError(t, verr.OrNil())
	verr.Add("title", "is required")
	verr.Add("category", "is required")
	assert.EqualError(t, verr.OrNil(), "validation failed: category: is required; title: is required")
}
