package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorWrappingAndExtra(t *testing.T) {
	cause := errors.New("disk full")
	err := Internal(CodeUpdateFailed, "could not update field", cause).With("field", "phone")

	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.Equal(t, "phone", err.Extra["field"])
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "disk full")

	wrapped := fmt.Errorf("mutate: %w", err)
	got, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, CodeUpdateFailed, got.Code)
	assert.Equal(t, CodeUpdateFailed, CodeOf(wrapped))
	assert.Equal(t, "", CodeOf(cause))
}
