package unit_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/hospital-core/internal/handler/unit"
	"github.com/jwalitptl/hospital-core/internal/middleware"
	"github.com/jwalitptl/hospital-core/internal/model"
	"github.com/jwalitptl/hospital-core/internal/repository/memory"
	"github.com/jwalitptl/hospital-core/internal/service/audit"
	registryService "github.com/jwalitptl/hospital-core/internal/service/registry"
	"github.com/jwalitptl/hospital-core/pkg/httputil"
	"github.com/jwalitptl/hospital-core/pkg/validator"
)

// newRouter wires the unit handler over in-memory stores behind a stub
// auth layer that injects the given branch scope.
func newRouter(t *testing.T, branchID uuid.UUID) (*gin.Engine, *registryService.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validator.RegisterCustom()

	svc := registryService.NewService(
		memory.NewUnitRepository(),
		audit.NewService(memory.NewAuditRepository()),
		nil,
	)
	h := unit.NewHandler(svc, memory.NewOutboxRepository())

	r := gin.New()
	api := r.Group("/api/v1", func(c *gin.Context) {
		c.Set(middleware.ContextBranchID, branchID)
		c.Set(middleware.ContextActorID, uuid.New())
	})
	h.RegisterRoutes(api)
	return r, svc
}

func doJSON(r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, httputil.Response) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var envelope httputil.Response
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	return rec, envelope
}

func createUnitBody(code string) string {
	return `{"department_id":"` + uuid.NewString() + `","unit_type_id":"` + uuid.NewString() + `","code":"` + code + `","name":"Unit ` + code + `"}`
}

func TestCreateUnitHandler(t *testing.T) {
	r, _ := newRouter(t, uuid.New())

	rec, envelope := doJSON(r, http.MethodPost, "/api/v1/units", createUnitBody("ward-med-01"))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, envelope.Success)

	var created model.Unit
	data, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &created))
	assert.Equal(t, "WARD-MED-01", created.Code)
}

func TestCreateUnitHandlerBindErrors(t *testing.T) {
	r, _ := newRouter(t, uuid.New())

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{"code":`},
		{"missing required fields", `{"code":"WARD-01"}`},
		{"department id not a uuid", `{"department_id":"nope","unit_type_id":"` + uuid.NewString() + `","code":"WARD-01","name":"Ward"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, envelope := doJSON(r, http.MethodPost, "/api/v1/units", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.False(t, envelope.Success)
			require.NotNil(t, envelope.Error)
		})
	}
}

// A duplicate code must surface as 409 through the full handler path,
// including any wrapping the lower layers add.
func TestCreateUnitHandlerDuplicateCode(t *testing.T) {
	r, _ := newRouter(t, uuid.New())

	rec, _ := doJSON(r, http.MethodPost, "/api/v1/units", createUnitBody("WARD-MED-01"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, envelope := doJSON(r, http.MethodPost, "/api/v1/units", createUnitBody("WARD-MED-01"))
	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, http.StatusConflict, envelope.Error.Code)
}

// Reading a unit owned by another branch returns 404, exactly as an
// unknown id would.
func TestGetUnitHandlerBranchScope(t *testing.T) {
	ownerBranch := uuid.New()
	r, svc := newRouter(t, ownerBranch)

	rec, envelope := doJSON(r, http.MethodPost, "/api/v1/units", createUnitBody("WARD-MED-01"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created model.Unit
	data, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &created))

	rec, _ = doJSON(r, http.MethodGet, "/api/v1/units/"+created.ID.String(), "")
	assert.Equal(t, http.StatusOK, rec.Code)

	// Same store, different authenticated branch.
	foreign := gin.New()
	api := foreign.Group("/api/v1", func(c *gin.Context) {
		c.Set(middleware.ContextBranchID, uuid.New())
		c.Set(middleware.ContextActorID, uuid.New())
	})
	unit.NewHandler(svc, memory.NewOutboxRepository()).RegisterRoutes(api)

	rec, _ = doJSON(foreign, http.MethodGet, "/api/v1/units/"+created.ID.String(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// Without an authenticated scope every route refuses with 401.
func TestHandlersRequireScope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := registryService.NewService(
		memory.NewUnitRepository(),
		audit.NewService(memory.NewAuditRepository()),
		nil,
	)
	r := gin.New()
	unit.NewHandler(svc, memory.NewOutboxRepository()).RegisterRoutes(r.Group("/api/v1"))

	rec, _ := doJSON(r, http.MethodGet, "/api/v1/units", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = doJSON(r, http.MethodPost, "/api/v1/units", createUnitBody("WARD-01"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
