package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormReadsDeleteBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodDelete, "/delete", strings.NewReader("filepath=cat.jpg"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	require.NoError(t, parseForm(req))
	assert.Equal(t, "cat.jpg", req.FormValue("filepath"))
}

func TestParseFormDeleteWithoutContentType(t *testing.T) {
	req := httptest.NewRequest(http.MethodDelete, "/delete?filepath=cat.jpg", nil)

	require.NoError(t, parseForm(req))
	assert.Equal(t, "cat.jpg", req.FormValue("filepath"))
}

func TestGetImagePresentEmptyURLFieldWins(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/add", strings.NewReader("url="))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	require.NoError(t, parseForm(req))

	input, err := getImage(req, "url", "image")
	require.NoError(t, err)
	assert.False(t, input.Uploaded)
	assert.Equal(t, "", input.URL)
}

func TestGetImageAbsentFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/add", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	require.NoError(t, parseForm(req))

	_, err := getImage(req, "url", "image")
	assert.Error(t, err)
}
