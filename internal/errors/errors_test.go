package errors

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestNewAPIErrorOverridesMessageOnly(t *testing.T) {
	err := NewAPIError(ErrDatabase, "connection refused")
	assert.Equal(t, http.StatusInternalServerError, err.HTTPStatus)
	assert.Equal(t, ErrDatabase.Code, err.Code)
	assert.Equal(t, "connection refused", err.Message)
	assert.Equal(t, "Database operation failed", ErrDatabase.Message, "base error untouched")
}

func TestParseDBError(t *testing.T) {
	assert.Nil(t, ParseDBError(nil))

	notFound := ParseDBError(gorm.ErrRecordNotFound)
	assert.Equal(t, http.StatusNotFound, notFound.HTTPStatus)

	wrapped := ParseDBError(stderrors.Join(gorm.ErrRecordNotFound, stderrors.New("context")))
	assert.Equal(t, http.StatusNotFound, wrapped.HTTPStatus)

	other := ParseDBError(stderrors.New("disk full"))
	assert.Equal(t, http.StatusInternalServerError, other.HTTPStatus)
	assert.Equal(t, "disk full", other.Message)
}
