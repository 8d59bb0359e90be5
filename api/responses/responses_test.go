package responses

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&env))
	return env
}

func TestWriteSuccessStatus(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccessStatus(w, http.StatusCreated, map[string]string{"orderId": "ord-1"})

	require.Equal(t, http.StatusCreated, w.Code)
	require.Contains(t, w.Header().Get("Content-Type"), "application/json")
	env := decode(t, w)
	require.Nil(t, env.Error)
	require.Equal(t, "ord-1", env.Data.(map[string]any)["orderId"])
}

func TestWriteSuccessNilDataIsEmptyObject(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccess(w, nil)
	require.JSONEq(t, `{"data":{}}`, w.Body.String())
}

func TestWriteErrorCarriesReason(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeValidation, "invalid code").WithReason(pkgerrors.ReasonInvalidOTP)
	WriteError(context.Background(), nil, w, err)

	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w)
	require.NotNil(t, env.Error)
	require.Equal(t, string(pkgerrors.CodeValidation), env.Error.Code)
	require.Equal(t, "invalid code", env.Error.Message)
	require.Equal(t, "invalid_otp", env.Error.Details.(map[string]any)["reason"])
}

func TestWriteErrorHidesInternalDetails(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &buf})
	w := httptest.NewRecorder()
	WriteError(context.Background(), logg, w, errors.New("pq: connection reset"))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotContains(t, w.Body.String(), "connection reset")
	require.Contains(t, buf.String(), "connection reset")
	require.Contains(t, buf.String(), `"level":"error"`)
}

func TestWriteErrorLogsClientMistakesAtWarn(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &buf})
	w := httptest.NewRecorder()
	WriteError(context.Background(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "order not found"))

	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, buf.String(), `"level":"warn"`)
	require.Contains(t, buf.String(), `"error_code":"NOT_FOUND"`)
}
