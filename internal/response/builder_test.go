package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shengyanli1982/toolkit/pkg/httptool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	return c, w
}

func TestEnvelope(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		c, w := newContext()
		OK(c, map[string]string{"state": "closed"})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

		var body httptool.BaseHttpResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, int64(CodeSuccess), body.Code)
		assert.Empty(t, body.ErrorMessage)
		assert.NotNil(t, body.Data)
	})

	t.Run("error with detail", func(t *testing.T) {
		c, w := newContext()
		Error(CodeCircuitBreaker, "upstream circuit breaker is open").
			WithDetail(map[string]string{"upstream": "books"}).
			JSON(c, http.StatusServiceUnavailable)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)

		var body httptool.BaseHttpResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, int64(CodeCircuitBreaker), body.Code)
		assert.Equal(t, "upstream circuit breaker is open", body.ErrorMessage)
		assert.Equal(t, map[string]interface{}{"upstream": "books"}, body.ErrorDetail)
		assert.Nil(t, body.Data)
	})
}

func TestConvenienceErrors(t *testing.T) {
	tests := []struct {
		name   string
		write  func(c *gin.Context, message string)
		status int
		code   int64
	}{
		{"not found", NotFound, http.StatusNotFound, CodeNotFound},
		{"too many requests", TooManyRequests, http.StatusTooManyRequests, CodeRateLimit},
		{"internal", InternalServerError, http.StatusInternalServerError, CodeInternalError},
		{"bad gateway", BadGateway, http.StatusBadGateway, CodeBadGateway},
		{"unavailable", ServiceUnavailable, http.StatusServiceUnavailable, CodeServiceUnavailable},
		{"gateway timeout", GatewayTimeout, http.StatusGatewayTimeout, CodeGatewayTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newContext()
			tt.write(c, "boom")

			assert.Equal(t, tt.status, w.Code)
			var body httptool.BaseHttpResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, "boom", body.ErrorMessage)
		})
	}
}

func TestMessage(t *testing.T) {
	c, w := newContext()
	Message(c, http.StatusGatewayTimeout, "External service timeout")

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.JSONEq(t, `{"message":"External service timeout"}`, w.Body.String())
}

func TestRawAndNoContent(t *testing.T) {
	c, w := newContext()
	Raw(c, http.StatusOK, "application/json", []byte(`[{"isbn":"1"}]`))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, `[{"isbn":"1"}]`, w.Body.String())

	c, w = newContext()
	Raw(c, http.StatusOK, "", []byte(`[]`))
	assert.Equal(t, gin.MIMEJSON, w.Header().Get("Content-Type"))

	c, w = newContext()
	NoContent(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}
