package controller_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"duesbook/pkg/controller"

	"github.com/stretchr/testify/require"
)

func TestWriteError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	controller.WriteError(rec, req, http.StatusNotFound, "MEMBER_NOT_FOUND", "member not found")

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.JSONEq(t, `{"code":"MEMBER_NOT_FOUND","message":"member not found"}`, rec.Body.String())
}
