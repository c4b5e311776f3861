package models

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"borecon/common"
)

func setupModelsRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	setupModelsTestDB(t)

	r := gin.New()
	RegisterRoutes(r.Group("/models"))
	return r
}

func TestCreateModelEndpoint(t *testing.T) {
	r := setupModelsRouter(t)

	body, _ := json.Marshal(gin.H{
		"name":         "Orange Money",
		"file_type":    "partner",
		"file_pattern": "CI_OM_*",
		"bo_keys":      `["Référence"]`,
		"partner_keys": `["Référence"]`,
	})
	req := httptest.NewRequest(http.MethodPost, "/models", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created ReconciliationModel
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Orange Money", created.Name)
}

func TestCreateModelEndpoint_ValidationErrors(t *testing.T) {
	r := setupModelsRouter(t)

	body, _ := json.Marshal(gin.H{"name": "incomplete"})
	req := httptest.NewRequest(http.MethodPost, "/models", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "file_pattern")
}

func TestListModelsEndpoint(t *testing.T) {
	r := setupModelsRouter(t)

	m := validModel()
	NormalizeModelRecord(m)
	require.NoError(t, common.GetDB().Create(m).Error)

	req := httptest.NewRequest(http.MethodGet, "/models", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var list []ReconciliationModel
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "CI_OM_*", list[0].FilePattern)
}
