package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetJSON(t *testing.T) {
	mt := httpmock.NewMockTransport()
	mt.RegisterResponder(http.MethodGet, "https://api.example.com/items",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "Bearer tok", req.Header.Get("Authorization"))
			return httpmock.NewJsonResponse(http.StatusOK, map[string]any{"ok": true, "name": "a"})
		})
	client := &http.Client{Transport: mt}

	var out struct {
		OK   bool   `json:"ok"`
		Name string `json:"name"`
	}
	err := GetJSON(context.Background(), client, "https://api.example.com/items", Bearer("tok"), &out)
	require.NoError(t, err)
	assert.True(t, out.OK)
	assert.Equal(t, "a", out.Name)
	assert.Equal(t, 1, mt.GetTotalCallCount())
}

func TestPostForm(t *testing.T) {
	mt := httpmock.NewMockTransport()
	var got url.Values
	mt.RegisterResponder(http.MethodPost, "https://api.example.com/post",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "application/x-www-form-urlencoded", req.Header.Get("Content-Type"))
			require.NoError(t, req.ParseForm())
			got = req.PostForm
			return httpmock.NewStringResponse(http.StatusOK, `{}`), nil
		})
	client := &http.Client{Transport: mt}

	err := PostForm(context.Background(), client, "https://api.example.com/post", nil,
		url.Values{"channel": {"C1"}, "token": {"xoxb"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "C1", got.Get("channel"))
	assert.Equal(t, "xoxb", got.Get("token"))
}

func TestPostJSON(t *testing.T) {
	mt := httpmock.NewMockTransport()
	var body string
	mt.RegisterResponder(http.MethodPost, "https://api.example.com/enqueue",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
			b, _ := io.ReadAll(req.Body)
			body = string(b)
			return httpmock.NewStringResponse(http.StatusAccepted, `{"status":"success"}`), nil
		})
	client := &http.Client{Transport: mt}

	var out struct {
		Status string `json:"status"`
	}
	err := PostJSON(context.Background(), client, "https://api.example.com/enqueue", nil, map[string]string{"a": "b"}, &out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"b"}`, body)
	assert.Equal(t, "success", out.Status)
}

func TestStatusError(t *testing.T) {
	mt := httpmock.NewMockTransport()
	mt.RegisterResponder(http.MethodPost, "https://api.example.com/enqueue",
		httpmock.NewStringResponder(http.StatusBadRequest, "invalid routing key\n"))
	client := &http.Client{Transport: mt}

	err := PostJSON(context.Background(), client, "https://api.example.com/enqueue", nil, map[string]string{}, nil)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
	assert.Equal(t, "invalid routing key", se.Body)
}

func TestTransportError(t *testing.T) {
	mt := httpmock.NewMockTransport()
	mt.RegisterResponder(http.MethodGet, "https://api.example.com/down",
		httpmock.NewErrorResponder(errors.New("dial tcp: connection refused")))
	client := &http.Client{Transport: mt}

	err := GetJSON(context.Background(), client, "https://api.example.com/down", nil, &struct{}{})
	assert.ErrorContains(t, err, "connection refused")
}

func TestNewHTTPClient(t *testing.T) {
	assert.Equal(t, DefaultTimeout, NewHTTPClient(0).Timeout)
}
