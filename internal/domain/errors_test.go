package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"price_simulator/internal/domain"
	"price_simulator/pkg/errcodes"
)

func TestStorageFailure(t *testing.T) {
	rq := require.New(t)

	cause := errors.New("connection reset")
	err := fmt.Errorf("repo.Append: %w", domain.StorageFailure(cause, "failed to insert sample"))

	rq.True(domain.IsStorageFailure(err))
	rq.True(domain.IsAppError(err))
	rq.ErrorIs(err, cause)
	rq.ErrorContains(err, "failed to insert sample: connection reset")

	code, ok := domain.GetCode(err)
	rq.True(ok)
	rq.Equal(errcodes.StorageFailure, code)
}

func TestNewError(t *testing.T) {
	rq := require.New(t)

	err := domain.NewError(errcodes.NotFound, "no samples")

	rq.False(domain.IsStorageFailure(err))
	rq.Equal("no samples", err.Error())
	rq.NoError(errors.Unwrap(err))

	_, ok := domain.GetCode(errors.New("plain"))
	rq.False(ok)
}
