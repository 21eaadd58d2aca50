package fielderrors_test

import (
	"errors"
	"testing"

	"github.com/kasuganosora/seqfield/pkg/fielderrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewErrPreconditionMessage(t *testing.T) {
	err := fielderrors.NewErrPrecondition("zero-count mark")
	assert.Contains(t, err.Error(), "zero-count mark")
}

func TestNewErrMetadataMissingMessage(t *testing.T) {
	err := fielderrors.NewErrMetadataMissing("rX")
	assert.Contains(t, err.Error(), "rX")
}

func TestNewErrChildChangeWrapsAndUnwraps(t *testing.T) {
	inner := errors.New("boom")
	wrapped := fielderrors.NewErrChildChange(inner)
	require.Error(t, wrapped)
	assert.ErrorIs(t, wrapped, inner)
}

func TestNewErrChildChangeNilPassesThrough(t *testing.T) {
	assert.NoError(t, fielderrors.NewErrChildChange(nil))
}

func TestPanicAndRecoverRoundTrip(t *testing.T) {
	var recovered error
	func() {
		defer func() {
			recovered = fielderrors.Recover(recover())
		}()
		fielderrors.Panic(fielderrors.NewErrPrecondition("bad input"))
	}()
	require.Error(t, recovered)
	assert.Contains(t, recovered.Error(), "bad input")
}

func TestRecoverWithNilIsNoOp(t *testing.T) {
	assert.NoError(t, fielderrors.Recover(nil))
}
