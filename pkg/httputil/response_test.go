package httputil_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/hospital-core/pkg/errors"
	"github.com/jwalitptl/hospital-core/pkg/httputil"
)

func respond(t *testing.T, err error) (*httptest.ResponseRecorder, httputil.Response) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	httputil.RespondWithError(c, err)

	var body httputil.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestRespondWithErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", errors.NotFound("unit", nil), http.StatusNotFound},
		{"unauthorized", errors.Unauthorized(nil), http.StatusUnauthorized},
		{"code collision", errors.CodeCollision("code WARD-01 already in use"), http.StatusConflict},
		{"scheduling conflict", errors.SchedulingConflict("window overlaps"), http.StatusConflict},
		{"invalid code", errors.InvalidCode("bad code"), http.StatusBadRequest},
		{"plain error", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, body := respond(t, tc.err)
			assert.Equal(t, tc.want, rec.Code)
			assert.False(t, body.Success)
			require.NotNil(t, body.Error)
			assert.Equal(t, tc.want, body.Error.Code)
		})
	}
}

// Repositories wrap domain errors with context before returning them;
// the mapping must see through the wrapping instead of falling back to 500.
func TestRespondWithErrorUnwrapsChain(t *testing.T) {
	wrapped := fmt.Errorf("create unit: %w", errors.CodeCollision("code WARD-01 already in use"))

	rec, body := respond(t, wrapped)
	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, "code WARD-01 already in use", body.Error.Message)
}
