package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "No files provided", Validation("No files provided").PublicMessage())
	assert.Equal(t, "Contact not found", NotFound("Contact not found").PublicMessage())

	internal := Internal(errors.New("dial tcp: connection refused"), "Failed to process upload")
	assert.Equal(t, "internal server error", internal.PublicMessage())
	assert.Contains(t, internal.Error(), "connection refused")
}

func TestAsWrapsForeignErrors(t *testing.T) {
	assert.Nil(t, As(nil))

	typed := As(errors.New("boom"))
	assert.Equal(t, CodeInternal, typed.Code())
	assert.Equal(t, http.StatusInternalServerError, MetadataFor(typed.Code()).HTTPStatus)

	wrapped := fmt.Errorf("handler: %w", NotFound("Contact not found"))
	assert.Equal(t, CodeNotFound, As(wrapped).Code())
	assert.Equal(t, http.StatusNotFound, MetadataFor(As(wrapped).Code()).HTTPStatus)
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(CodeInternal, cause, "write failed")
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusRequestEntityTooLarge, MetadataFor(CodePayloadTooLarge).HTTPStatus)
	assert.Equal(t, http.StatusInternalServerError, MetadataFor(Code("SOMETHING_ELSE")).HTTPStatus)
}
