package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/to404hanga/online_judge_duel/constants"
	"github.com/to404hanga/online_judge_duel/entity"
	"github.com/to404hanga/online_judge_duel/judge"
	"github.com/to404hanga/online_judge_duel/model"
	"github.com/to404hanga/online_judge_duel/pkg/gintool"
	"github.com/to404hanga/online_judge_duel/service"
)

const testDuelID = "6f1c1c1e-2f9a-4d7e-9a53-0c0b3f0a4e11"

// fakeDuelService 只实现测试用到的方法
type fakeDuelService struct {
	service.DuelService

	duel       *entity.Duel
	err        error
	listUserID uint64
}

func (f *fakeDuelService) CreateDuel(_ context.Context, creatorID uint64, timeLimit int, challenges []string) (*entity.Duel, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &entity.Duel{ID: testDuelID, User1ID: creatorID, TimeLimit: timeLimit, Status: entity.DuelStatusPending, ChallengesSlug: challenges}, nil
}

func (f *fakeDuelService) JoinDuel(context.Context, string, uint64) (*entity.Duel, error) {
	return f.duel, f.err
}

func (f *fakeDuelService) GetDuel(context.Context, string) (*entity.Duel, error) {
	return f.duel, f.err
}

func (f *fakeDuelService) ListUserDuels(_ context.Context, userID uint64, _, _ int) ([]entity.Duel, int64, error) {
	f.listUserID = userID
	return []entity.Duel{}, 0, f.err
}

type fakeSubmissionService struct {
	err    error
	called bool
}

func (f *fakeSubmissionService) RecordSubmission(_ context.Context, param *model.SubmitDuelChallengeParam) (*entity.Submission, error) {
	f.called = true
	if f.err != nil {
		return nil, f.err
	}
	return &entity.Submission{ID: "s1", UserID: param.Operator, Challenge: param.Challenge, Status: entity.SubmissionStatusAccepted, Score: 100}, nil
}

func (f *fakeSubmissionService) RunCode(context.Context, *model.RunCodeParam) (*judge.RunResponse, error) {
	f.called = true
	return &judge.RunResponse{Status: "ok"}, f.err
}

func serve(t *testing.T, h Handler, method, target, body string) gintool.Response {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gintool.ContextMiddleware())
	h.Register(r)

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.Header.Set(constants.HeaderUserIDKey, "1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp gintool.Response
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestErrorCode(t *testing.T) {
	cases := map[error]int{
		service.ErrValidation:        http.StatusBadRequest,
		service.ErrChallengeNotFound: http.StatusBadRequest,
		service.ErrSelfJoin:          http.StatusBadRequest,
		service.ErrNotParticipant:    http.StatusForbidden,
		service.ErrDuelNotFound:      http.StatusNotFound,
		service.ErrDuelNotPending:    http.StatusConflict,
		service.ErrDuelAlreadyJoined: http.StatusConflict,
		service.ErrDuelNotActive:     http.StatusConflict,
		service.ErrStoreConflict:     http.StatusConflict,
		service.ErrJudgeUnavailable:  http.StatusServiceUnavailable,
		context.DeadlineExceeded:     http.StatusInternalServerError,
	}
	for err, code := range cases {
		assert.Equal(t, code, errorCode(err), err.Error())
	}
}

func TestCreateDuel(t *testing.T) {
	h := NewDuelHandler(&fakeDuelService{}, nopLogger())
	resp := serve(t, h, http.MethodPost, constants.CreateDuelPath, `{"time_limit":600,"challenges":["sum"]}`)

	assert.Equal(t, http.StatusOK, resp.Code)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, testDuelID, data["id"])
	assert.EqualValues(t, 1, data["user1_id"])
	assert.Equal(t, "pending", data["status"])
}

func TestCreateDuelRejectsMissingTimeLimit(t *testing.T) {
	h := NewDuelHandler(&fakeDuelService{}, nopLogger())
	resp := serve(t, h, http.MethodPost, constants.CreateDuelPath, `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestJoinDuelMapsErrors(t *testing.T) {
	body := `{"duel_id":"` + testDuelID + `"}`
	cases := []struct {
		err  error
		code int
	}{
		{service.ErrDuelNotFound, http.StatusNotFound},
		{service.ErrSelfJoin, http.StatusBadRequest},
		{service.ErrDuelAlreadyJoined, http.StatusConflict},
	}
	for _, tc := range cases {
		h := NewDuelHandler(&fakeDuelService{err: tc.err}, nopLogger())
		resp := serve(t, h, http.MethodPost, constants.JoinDuelPath, body)
		assert.Equal(t, tc.code, resp.Code, tc.err.Error())
	}
}

func TestJoinDuelRejectsBadID(t *testing.T) {
	h := NewDuelHandler(&fakeDuelService{}, nopLogger())
	resp := serve(t, h, http.MethodPost, constants.JoinDuelPath, `{"duel_id":"not-a-uuid"}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestGetUserDuelListDefaultsToOperator(t *testing.T) {
	svc := &fakeDuelService{}
	h := NewDuelHandler(svc, nopLogger())

	resp := serve(t, h, http.MethodGet, constants.GetUserDuelListPath+"?page=1&page_size=10", "")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, uint64(1), svc.listUserID)

	resp = serve(t, h, http.MethodGet, constants.GetUserDuelListPath+"?page=1&page_size=10&user_id=42", "")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, uint64(42), svc.listUserID)
}

func TestSubmitDuelChallenge(t *testing.T) {
	svc := &fakeSubmissionService{}
	h := NewSubmissionHandler(svc, nopLogger(), 64)

	resp := serve(t, h, http.MethodPost, constants.SubmitDuelChallengePath,
		`{"challenge":"sum","code":"print(1)","language":"python"}`)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, svc.called)
}

func TestSubmitDuelChallengeRejectsLargeCode(t *testing.T) {
	svc := &fakeSubmissionService{}
	h := NewSubmissionHandler(svc, nopLogger(), 4)

	resp := serve(t, h, http.MethodPost, constants.SubmitDuelChallengePath,
		`{"challenge":"sum","code":"print(1)","language":"python"}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.False(t, svc.called)
}

func TestSubmitDuelChallengeJudgeUnavailable(t *testing.T) {
	svc := &fakeSubmissionService{err: service.ErrJudgeUnavailable}
	h := NewSubmissionHandler(svc, nopLogger(), 0)

	resp := serve(t, h, http.MethodPost, constants.SubmitDuelChallengePath,
		`{"challenge":"sum","code":"x","language":"go","duel_id":"`+testDuelID+`"}`)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
}

func TestRunCode(t *testing.T) {
	svc := &fakeSubmissionService{}
	h := NewSubmissionHandler(svc, nopLogger(), 0)

	resp := serve(t, h, http.MethodPost, constants.RunCodePath, `{"code":"x","language":"go","input":"1"}`)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, svc.called)
}
