package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendSMSDryRun(t *testing.T) {
	c := NewClientWithOptions("dry-run", "LOANCRM", true)
	resp, err := c.SendSMS("+77010000000", "code 123456")
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Code)
}

func TestSendSMSPostsForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "key", r.PostForm.Get("apiKey"))
		assert.Equal(t, "+77010000000", r.PostForm.Get("recipient"))
		assert.Equal(t, "SENDER", r.PostForm.Get("from"))
		_, _ = w.Write([]byte(`{"code":0,"data":{"messageId":"m-1"}}`))
	}))
	defer srv.Close()

	c := NewClientWithOptions("key", "SENDER", false)
	c.URL = srv.URL
	resp, err := c.SendSMS("+77010000000", "hello")
	require.NoError(t, err)
	assert.Equal(t, "m-1", resp.Data.MessageID)
}

func TestSendSMSProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":8}`))
	}))
	defer srv.Close()

	c := NewClientWithOptions("key", "", false)
	c.URL = srv.URL
	_, err := c.SendSMS("+77010000000", "hello")
	assert.ErrorContains(t, err, "error code: 8")
}
