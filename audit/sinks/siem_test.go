package sinks

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyotee/LSFTP/audit"
)

func TestSIEMWritePostsJSONWithBearerAuth(t *testing.T) {
	var gotAuth string
	var gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotMethod = r.Method
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	sink := NewSIEM(srv.URL, "secret-key")
	require.NoError(t, sink.Write(audit.Event{EventID: "e1", Action: audit.ActionSecurityEvent, Result: audit.ResultFailure}))

	assert.Equal(t, "Bearer secret-key", gotAuth)
	assert.Equal(t, http.MethodPost, gotMethod)
}

func TestSIEMWriteErrorsOnNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	sink := NewSIEM(srv.URL, "")
	err := sink.Write(audit.Event{EventID: "e1"})
	assert.Error(t, err)
}
