package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewStorageError(t *testing.T) {
	assert.Nil(t, NewStorageError("insert", nil))
	assert.Same(t, ErrDuplicateName, NewStorageError("insert", ErrDuplicateName))
	assert.ErrorIs(t, NewStorageError("delete", fmt.Errorf("row: %w", ErrNotFound)), ErrNotFound)

	cause := errors.New("connection refused")
	err := NewStorageError("find by id", cause)

	var storageErr *StorageError
	assert.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "find by id", storageErr.Op)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "storage find by id: connection refused", err.Error())
}
