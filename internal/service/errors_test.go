package service

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(invalid("name", "bad")))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(notFound("Item")))
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(unauthorized("who")))
	assert.Equal(t, http.StatusForbidden, HTTPStatus(forbidden("no")))
	assert.Equal(t, http.StatusConflict, HTTPStatus(conflict("dup")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}

func TestStoreErrPassesClassifiedErrors(t *testing.T) {
	nf := notFound("Sale")
	assert.Same(t, nf, storeErr("op", nf))
	assert.NoError(t, storeErr("op", nil))

	raw := errors.New("connection reset")
	wrapped := storeErr("Failed to fetch items", raw)
	var se *StoreError
	assert.ErrorAs(t, wrapped, &se)
	assert.Equal(t, "Failed to fetch items", se.Op)
	assert.ErrorIs(t, wrapped, raw)
	assert.Same(t, wrapped, storeErr("again", wrapped))
}

func TestActorCanSee(t *testing.T) {
	a := Actor{Role: "staff"}
	assert.True(t, a.canSee(nil))
}
