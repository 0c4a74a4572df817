package httpx_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/denimstock/denimstock/internal/platform/httpx"
	"github.com/denimstock/denimstock/internal/shared"
)

func TestRespondErrorStatuses(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("product 3: %w", shared.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("wrap: %w", shared.ErrInsufficientStock), http.StatusConflict},
		{shared.ErrConstraintViolation, http.StatusConflict},
		{shared.ErrDuplicate, http.StatusConflict},
		{shared.Invalid("quantity", "must be greater than 0"), http.StatusUnprocessableEntity},
		{shared.ErrValidation, http.StatusBadRequest},
		{shared.ErrForbidden, http.StatusForbidden},
		{shared.ErrUnauthorized, http.StatusUnauthorized},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		httpx.RespondError(rec, tc.err)
		require.Equal(t, tc.want, rec.Code, tc.err.Error())
		require.Equal(t, tc.want, httpx.Status(tc.err))
	}
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	httpx.RespondError(rec, errors.New("dial tcp 10.0.0.1: refused"))
	require.NotContains(t, rec.Body.String(), "10.0.0.1")
}

type createPayload struct {
	Name     string `json:"name" validate:"required"`
	Quantity int    `json:"quantity" validate:"gt=0"`
}

func TestValidatorBindReportsJSONFieldNames(t *testing.T) {
	v := httpx.NewValidator()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"","quantity":0}`))

	var payload createPayload
	err := v.Bind(req, &payload)
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 2)
	require.Equal(t, "name", verr.Fields[0].Field)
	require.Equal(t, "quantity", verr.Fields[1].Field)

	rec := httptest.NewRecorder()
	httpx.RespondError(rec, err)
	var body httpx.ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Errors, 2)
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","extra":1}`))
	var payload createPayload
	require.ErrorIs(t, httpx.DecodeJSON(req, &payload), shared.ErrValidation)
}
