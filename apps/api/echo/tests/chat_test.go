package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/admissions/core/chat"
)

func TestChatApi(t *testing.T) {
	app := newTestApp(t)

	runHTTPTests(t, app, []httpTest{
		{
			name:     "empty message",
			method:   http.MethodPost,
			path:     "/v1/chat",
			body:     []byte(`{"session_id":"s1","message":"   "}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"message":"message cannot be empty"}`),
		},
		{
			name:     "unknown session has no history",
			path:     "/v1/chat/s404",
			wantData: []byte(`[]`),
		},
	})

	t.Run("conversation", func(t *testing.T) {
		for _, msg := range []string{"Điểm chuẩn ngành CNTT?", "Còn học phí?"} {
			rec := app.do(httpTest{
				method: http.MethodPost,
				path:   "/v1/chat",
				body:   marshalObj(t, map[string]string{"session_id": "s1", "message": msg}),
			})
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var reply chat.Reply
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
			assert.Equal(t, "s1", reply.SessionID)
			assert.Equal(t, "echo: "+msg, reply.Message)
			assert.False(t, reply.CreatedAt.IsZero())
		}

		// the second request carried the first exchange
		require.Len(t, app.chat.reqs, 2)
		assert.Equal(t, []chat.Message{
			{Role: chat.RoleUser, Content: "Điểm chuẩn ngành CNTT?"},
			{Role: chat.RoleAssistant, Content: "echo: Điểm chuẩn ngành CNTT?"},
		}, app.chat.reqs[1].History)

		rec := app.do(httpTest{path: "/v1/chat/s1"})
		require.Equal(t, http.StatusOK, rec.Code)
		var history []chat.Message
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
		assert.Len(t, history, 4)

		rec = app.do(httpTest{method: http.MethodDelete, path: "/v1/chat/s1"})
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = app.do(httpTest{path: "/v1/chat/s1"})
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("assistant down", func(t *testing.T) {
		app.chat.err = errors.New("connection refused")
		defer func() { app.chat.err = nil }()

		rec := app.do(httpTest{
			method: http.MethodPost,
			path:   "/v1/chat",
			body:   []byte(`{"session_id":"s2","message":"Xin chào"}`),
		})
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.JSONEq(t, `{"error":"assistant unavailable"}`, rec.Body.String())
	})
}
