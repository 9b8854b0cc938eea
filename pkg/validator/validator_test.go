package validator

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type uploadRequest struct {
	Title   string `json:"title" validate:"required"`
	Price   int64  `json:"price" validate:"gte=0"`
	FileURL string `json:"url" validate:"omitempty,url"`
}

func TestValidate_Success(t *testing.T) {
	req := uploadRequest{Title: "Go in Action", Price: 20000, FileURL: "https://cdn.example.com/img/1.jpg"}
	assert.NoError(t, Validate(req))
}

func TestValidate_FieldErrors(t *testing.T) {
	req := uploadRequest{Title: "", Price: -1, FileURL: "not-a-url"}

	err := Validate(req)
	require.Error(t, err)

	valErr, ok := err.(*ValidationError)
	require.True(t, ok)

	fields := valErr.Fields()
	assert.Equal(t, "is required", fields["Title"])
	assert.Equal(t, "must be greater than or equal to 0", fields["Price"])
	assert.Equal(t, "must be a valid URL", fields["FileURL"])
	assert.Contains(t, valErr.Error(), "field 'Title' is required")
}

func TestDecodeAndValidate(t *testing.T) {
	r := httptest.NewRequest("POST", "/upload", strings.NewReader(`{"title":"Clean Code","price":15000}`))

	var req uploadRequest
	require.NoError(t, DecodeAndValidate(r, &req))
	assert.Equal(t, "Clean Code", req.Title)
	assert.Equal(t, int64(15000), req.Price)
}

func TestDecodeAndValidate_BadJSON(t *testing.T) {
	r := httptest.NewRequest("POST", "/upload", strings.NewReader(`{"title":`))

	var req uploadRequest
	err := DecodeAndValidate(r, &req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode request body")
}
