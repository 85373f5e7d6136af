package chatsvc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/admissions/core"
	"github.com/trezcool/admissions/core/chat"
	logsvc "github.com/trezcool/admissions/services/logger"
)

func newClient(url string) *HTTPClient {
	c := NewHTTPClient(core.ChatConfig{
		BaseURL:  url + "/",
		ApiKey:   "k3y",
		Timeout:  time.Second,
		RetryMax: 2,
	}, logsvc.NewNopLogger())
	c.http.RetryWaitMin = time.Millisecond
	c.http.RetryWaitMax = 5 * time.Millisecond
	return c
}

func TestHTTPClient_Send(t *testing.T) {
	var got chat.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat", r.URL.Path)
		assert.Equal(t, "Bearer k3y", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"session_id":"s1","reply":"Điểm chuẩn năm 2024 là 26.5","sources":["hust.edu.vn"]}`))
	}))
	defer srv.Close()

	reply, err := newClient(srv.URL).Send(context.Background(), chat.Request{
		SessionID: "s1",
		Message:   "Điểm chuẩn HUST?",
		History:   []chat.Message{{Role: chat.RoleUser, Content: "xin chào"}},
	})
	require.NoError(t, err)
	assert.Equal(t, chat.Reply{SessionID: "s1", Message: "Điểm chuẩn năm 2024 là 26.5", Sources: []string{"hust.edu.vn"}}, reply)
	assert.Equal(t, "Điểm chuẩn HUST?", got.Message)
	assert.Len(t, got.History, 1)
}

func TestHTTPClient_Send_retries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"reply":"ok"}`))
	}))
	defer srv.Close()

	reply, err := newClient(srv.URL).Send(context.Background(), chat.Request{Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "ok", reply.Message)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestHTTPClient_Send_errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "server error after retries", status: http.StatusInternalServerError, body: "oops", wantErr: "responded 500"},
		{name: "client error", status: http.StatusBadRequest, body: "bad", wantErr: "responded 400: bad"},
		{name: "malformed body", status: http.StatusOK, body: "<html>", wantErr: "decoding chat response"},
		{name: "empty reply", status: http.StatusOK, body: `{"reply":"  "}`, wantErr: "empty reply"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newClient(srv.URL).Send(context.Background(), chat.Request{Message: "hi"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
