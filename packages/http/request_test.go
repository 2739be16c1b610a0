package http

import (
	"encoding/json"
	neturl "net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/volley/packages/core/parser"
)

func TestBuildRequest_BodylessVerbs(t *testing.T) {
	for _, method := range []string{"GET", "HEAD", "DELETE"} {
		t.Run(method, func(t *testing.T) {
			req, err := BuildRequest(&parser.Request{
				Target:   "localhost",
				Port:     8080,
				Endpoint: "/things",
				Method:   method,
				Headers:  map[string]string{"Content-Type": "application/json"},
				Data:     map[string]string{"ignored": "yes"},
			})

			require.NoError(t, err)
			assert.Equal(t, method, req.Method)
			assert.Equal(t, "http://localhost:8080/things", req.URL)
			assert.Empty(t, req.Body)
		})
	}
}

func TestBuildRequest_UnsupportedMethod(t *testing.T) {
	tests := []string{"OPTIONS", "TRACE", "get", "Post", ""}

	for _, method := range tests {
		t.Run("method "+method, func(t *testing.T) {
			_, err := BuildRequest(&parser.Request{
				Target:   "localhost",
				Port:     8080,
				Endpoint: "/",
				Method:   method,
			})

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnsupportedMethod)
		})
	}
}

func TestBuildRequest_FormBody(t *testing.T) {
	req, err := BuildRequest(&parser.Request{
		Target:   "localhost",
		Port:     8080,
		Endpoint: "/login",
		Method:   "POST",
		Headers:  map[string]string{"Content-Type": "application/x-www-form-urlencoded"},
		Data:     map[string]string{"user": "admin", "pass": "p&ss wörd"},
	})

	require.NoError(t, err)

	form, perr := neturl.ParseQuery(req.Body)
	require.NoError(t, perr)
	assert.Equal(t, "admin", form.Get("user"))
	assert.Equal(t, "p&ss wörd", form.Get("pass"))
}

func TestBuildRequest_JSONBody(t *testing.T) {
	data := map[string]string{"user": "admin", "role": "ops"}

	req, err := BuildRequest(&parser.Request{
		Target:   "localhost",
		Port:     8080,
		Endpoint: "/login",
		Method:   "PUT",
		Headers:  map[string]string{"Content-Type": "application/json; charset=utf-8"},
		Data:     data,
	})

	require.NoError(t, err)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal([]byte(req.Body), &decoded))
	assert.Equal(t, data, decoded)
}

func TestBuildRequest_TextBody(t *testing.T) {
	req, err := BuildRequest(&parser.Request{
		Target:   "localhost",
		Port:     8080,
		Endpoint: "/notes",
		Method:   "POST",
		Headers:  map[string]string{"content-type": "text/plain"},
		Data:     map[string]string{"txt": "hello, server", "extra": "dropped"},
	})

	require.NoError(t, err)
	assert.Equal(t, "hello, server", req.Body)
}

func TestBuildRequest_TextBodyMissingTxt(t *testing.T) {
	_, err := BuildRequest(&parser.Request{
		Target:   "localhost",
		Port:     8080,
		Endpoint: "/notes",
		Method:   "POST",
		Headers:  map[string]string{"Content-Type": "text/plain"},
		Data:     map[string]string{"text": "wrong key"},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingTextField)
}

func TestBuildRequest_DataWithoutContentType(t *testing.T) {
	req, err := BuildRequest(&parser.Request{
		Target:   "localhost",
		Port:     8080,
		Endpoint: "/things",
		Method:   "POST",
		Data:     map[string]string{"user": "admin"},
	})

	require.NoError(t, err)
	assert.Empty(t, req.Body)
}

func TestBuildRequest_DataWithUnrecognizedContentType(t *testing.T) {
	req, err := BuildRequest(&parser.Request{
		Target:   "localhost",
		Port:     8080,
		Endpoint: "/things",
		Method:   "PATCH",
		Headers:  map[string]string{"Content-Type": "application/xml"},
		Data:     map[string]string{"user": "admin"},
	})

	require.NoError(t, err)
	assert.Empty(t, req.Body)
}

func TestBuildRequest_BodiedVerbWithoutData(t *testing.T) {
	req, err := BuildRequest(&parser.Request{
		Target:   "localhost",
		Port:     8080,
		Endpoint: "/things",
		Method:   "POST",
		Headers:  map[string]string{"Content-Type": "application/json"},
	})

	require.NoError(t, err)
	assert.Empty(t, req.Body)
}
