package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Message string `json:"message" validate:"required,max=5"`
	Limit   int    `json:"limit" default:"10" validate:"gte=1,lte=100"`
}

func newJSONContext(body string) echo.Context {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return echo.New().NewContext(req, httptest.NewRecorder())
}

func TestReadAndValidateRequest_Defaults(t *testing.T) {
	var req sampleRequest
	errs := ReadAndValidateRequest(newJSONContext(`{"message":"hi"}`), &req)

	assert.Nil(t, errs)
	assert.Equal(t, "hi", req.Message)
	assert.Equal(t, 10, req.Limit)
}

func TestReadAndValidateRequest_FieldErrors(t *testing.T) {
	var req sampleRequest
	errs := ReadAndValidateRequest(newJSONContext(`{"message":"","limit":500}`), &req)

	list, ok := errs.([]ValidationError)
	require.True(t, ok)
	require.Len(t, list, 2)
	assert.Equal(t, "ERR_REQUIRED", list[0].Code)
	assert.Equal(t, "Message is required", list[0].Message)
	assert.Equal(t, "ERR_LTE", list[1].Code)
	assert.Equal(t, "Limit must be at most 100", list[1].Message)
	assert.Equal(t, "100", list[1].Params["max"])
}

func TestReadAndValidateRequest_StringLength(t *testing.T) {
	var req sampleRequest
	errs := ReadAndValidateRequest(newJSONContext(`{"message":"too long"}`), &req)

	list, ok := errs.([]ValidationError)
	require.True(t, ok)
	require.Len(t, list, 1)
	assert.Equal(t, "Message must be at most 5 characters", list[0].Message)
}

func TestReadAndValidateRequest_Malformed(t *testing.T) {
	var req sampleRequest
	errs := ReadAndValidateRequest(newJSONContext(`{"message":`), &req)

	list, ok := errs.([]ValidationError)
	require.True(t, ok)
	require.Len(t, list, 1)
	assert.Equal(t, "ERR_UNKNOWN", list[0].Code)
	assert.NotEmpty(t, list[0].Message)
}
