package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/NoduleAdvisor/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// New / Wrap
// ─────────────────────────────────────────────────────────────────────────────

func TestNew_FieldsAreSetCorrectly(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		code    errors.ErrorCode
		message string
	}{
		{"internal error", errors.CodeInternal, "unexpected failure"},
		{"not a nodule", errors.ErrCodeNotANoduleReference, "text does not reference a nodule"},
		{"measurement", errors.ErrCodeMeasurementNotFound, "no measurement"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ae := errors.New(tc.code, tc.message)

			require.NotNil(t, ae)
			assert.Equal(t, tc.code, ae.Code)
			assert.Equal(t, tc.message, ae.Message)
			assert.Empty(t, ae.Detail)
			assert.Nil(t, ae.Cause)
			assert.NotEmpty(t, ae.Stack)
		})
	}
}

func TestWrap_NilErrReturnsNil(t *testing.T) {
	t.Parallel()
	assert.Nil(t, errors.Wrap(nil, errors.CodeInternal, "should not matter"))
}

func TestWrap_CauseChainIsPreserved(t *testing.T) {
	t.Parallel()

	root := stderrors.New("connection refused")
	ae := errors.Wrap(root, errors.ErrCodeDBConnectionError, "audit insert failed")

	require.NotNil(t, ae)
	assert.True(t, stderrors.Is(ae, root))
	assert.Equal(t, root, ae.Unwrap())
}

func TestWrap_UnknownCodePreservesOriginal(t *testing.T) {
	t.Parallel()

	inner := errors.New(errors.ErrCodeMeasurementNotFound, "no measurement")
	outer := errors.Wrap(inner, errors.CodeUnknown, "classify")

	assert.Equal(t, errors.ErrCodeMeasurementNotFound, outer.Code)
}

// ─────────────────────────────────────────────────────────────────────────────
// Error formatting
// ─────────────────────────────────────────────────────────────────────────────

func TestError_Format(t *testing.T) {
	t.Parallel()

	ae := errors.New(errors.ErrCodeNotANoduleReference, "text does not reference a nodule")
	assert.Equal(t, "[NOD_001] text does not reference a nodule", ae.Error())

	withDetail := ae.WithDetail("There is no finding of note.")
	assert.Equal(t, "[NOD_001] text does not reference a nodule: There is no finding of note.", withDetail.Error())
	assert.Empty(t, ae.Detail, "WithDetail must not mutate the receiver")
}

func TestWithCause_NilReceiver(t *testing.T) {
	t.Parallel()

	var ae *errors.AppError
	assert.Nil(t, ae.WithCause(stderrors.New("x")))
	assert.Nil(t, ae.WithDetail("x"))
}

// ─────────────────────────────────────────────────────────────────────────────
// Chain inspection
// ─────────────────────────────────────────────────────────────────────────────

func TestIsCode_ThroughFmtWrapping(t *testing.T) {
	t.Parallel()

	ae := errors.New(errors.ErrCodeMeasurementNotFound, "no measurement")
	wrapped := fmt.Errorf("worker: %w", ae)

	assert.True(t, errors.IsCode(wrapped, errors.ErrCodeMeasurementNotFound))
	assert.True(t, errors.IsMeasurementNotFound(wrapped))
	assert.False(t, errors.IsNotANoduleReference(wrapped))
	assert.True(t, errors.IsClassificationFailure(wrapped))
}

func TestIsClassificationFailure_Infrastructure(t *testing.T) {
	t.Parallel()

	err := errors.Wrap(stderrors.New("timeout"), errors.ErrCodeCacheUnavailable, "cache")
	assert.False(t, errors.IsClassificationFailure(err))
	assert.False(t, errors.IsClassificationFailure(nil))
}

func TestGetCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, errors.CodeOK, errors.GetCode(nil))
	assert.Equal(t, errors.CodeUnknown, errors.GetCode(stderrors.New("plain")))
	assert.Equal(t, errors.ErrCodeNotANoduleReference,
		errors.GetCode(fmt.Errorf("wrap: %w", errors.New(errors.ErrCodeNotANoduleReference, "x"))))
}

func TestGetMessage(t *testing.T) {
	t.Parallel()

	assert.Empty(t, errors.GetMessage(nil))
	assert.Equal(t, "plain", errors.GetMessage(stderrors.New("plain")))
	assert.Equal(t, "no measurement",
		errors.GetMessage(errors.New(errors.ErrCodeMeasurementNotFound, "no measurement").WithDetail("a nodule")))
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	assert.True(t, errors.IsNotFound(errors.NotFound("classification 42")))
	assert.False(t, errors.IsNotFound(errors.Internal("boom")))
}

func TestConvenienceFactories(t *testing.T) {
	t.Parallel()

	assert.Equal(t, errors.CodeInvalidParam, errors.InvalidParam("bad").Code)
	assert.Equal(t, errors.CodeInternal, errors.Internal("bad").Code)
	assert.Equal(t, errors.ErrCodeServiceUnavailable, errors.Unavailable("bad").Code)
}

//Personal.AI order the ending
