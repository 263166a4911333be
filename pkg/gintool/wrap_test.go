package gintool

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/to404hanga/online_judge_duel/constants"
	"github.com/to404hanga/online_judge_duel/model"
	"github.com/to404hanga/online_judge_duel/pkg/logger"
)

type echoParam struct {
	model.CommonParam `json:"-"`

	Name string `json:"name" form:"name" binding:"required"`
}

func newEngine() (*gin.Engine, *echoParam) {
	gin.SetMode(gin.TestMode)
	got := &echoParam{}
	r := gin.New()
	r.Use(ContextMiddleware())
	h := func(c *gin.Context, p *echoParam) {
		*got = *p
		GinResponse(c, &Response{Code: http.StatusOK, Message: "success"})
	}
	r.GET("/echo", WrapHandler(h, logger.NewNopLogger()))
	r.POST("/echo", WrapHandler(h, logger.NewNopLogger()))
	return r, got
}

func decode(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestWrapHandlerBindsQueryForGet(t *testing.T) {
	r, got := newEngine()
	req := httptest.NewRequest(http.MethodGet, "/echo?name=alice", nil)
	req.Header.Set(constants.HeaderUserIDKey, "7")
	req.Header.Set(constants.HeaderRequestIDKey, "req-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	resp := decode(t, w)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "req-1", resp.RequestID)
	assert.Equal(t, "alice", got.Name)
	assert.Equal(t, uint64(7), got.Operator)
}

func TestWrapHandlerBindsJSONForPost(t *testing.T) {
	r, got := newEngine()
	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"name":"bob"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(constants.HeaderUserIDKey, "9")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, decode(t, w).Code)
	assert.Equal(t, "bob", got.Name)
	assert.Equal(t, uint64(9), got.Operator)
}

func TestWrapHandlerRejectsBadRequests(t *testing.T) {
	cases := []struct {
		name   string
		url    string
		userID string
	}{
		{"missing required field", "/echo", "1"},
		{"missing user id", "/echo?name=a", ""},
		{"invalid user id", "/echo?name=a", "abc"},
		{"zero user id", "/echo?name=a", "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, got := newEngine()
			req := httptest.NewRequest(http.MethodGet, tc.url, nil)
			if tc.userID != "" {
				req.Header.Set(constants.HeaderUserIDKey, tc.userID)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, decode(t, w).Code)
			assert.Empty(t, got.Name)
		})
	}
}

func TestContextMiddlewareAddsLogFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ContextMiddleware())
	var fields []logger.Field
	r.GET("/", func(c *gin.Context) {
		fields = logger.FieldsFromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(constants.HeaderRequestIDKey, "r")
	req.Header.Set(constants.HeaderUserIDKey, "3")
	r.ServeHTTP(httptest.NewRecorder(), req)

	require.Len(t, fields, 2)
	assert.Equal(t, "RequestID", fields[0].Key)
	assert.Equal(t, "UserID", fields[1].Key)
}
