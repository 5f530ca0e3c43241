package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ErrorTestSuite struct {
	suite.Suite
}

func TestErrorSuite(t *testing.T) {
	suite.Run(t, new(ErrorTestSuite))
}

func (suite *ErrorTestSuite) TestNewAndCode() {
	err := New(ErrCodeInvalidInterval, "unknown interval")

	suite.Equal(ErrCodeInvalidInterval, GetCode(err))
	suite.True(HasCode(err, ErrCodeInvalidInterval))
	suite.False(HasCode(err, ErrCodeInvalidParameter))
	suite.Contains(err.Error(), "unknown interval")
}

func (suite *ErrorTestSuite) TestWrapPreservesCause() {
	cause := fmt.Errorf("connection refused")
	err := Wrap(ErrCodeStoreOpenFailed, "failed to open alert store", cause)

	suite.Equal(cause, err.Unwrap())
	suite.True(Is(err, cause))
	suite.Contains(err.Error(), "connection refused")
	suite.Contains(err.Error(), "failed to open alert store")
}

func (suite *ErrorTestSuite) TestCodeSurvivesWrapping() {
	inner := New(ErrCodeNonMonotonicTimestamps, "timestamps not strictly increasing")
	outer := Wrap(ErrCodeQueryFailed, "validation failed", inner)

	// GetCode reports the outermost code.
	suite.Equal(ErrCodeQueryFailed, GetCode(outer))

	var structured *Error

	suite.True(As(outer, &structured))
}

func (suite *ErrorTestSuite) TestGetCodeOnPlainError() {
	suite.Equal(ErrCodeUnknown, GetCode(fmt.Errorf("plain")))
}

func (suite *ErrorTestSuite) TestInsufficientDataError() {
	err := NewInsufficientDataErrorf(200, 120, "BTCUSDT", "need %d bars, have %d", 200, 120)

	suite.True(IsInsufficientDataError(err))
	suite.Equal(200, err.Required)
	suite.Equal(120, err.Actual)
	suite.Contains(err.Error(), "need 200 bars")

	wrapped := Wrap(ErrCodeOutcomeEvaluation, "evaluation failed", err)
	suite.True(IsInsufficientDataError(wrapped))

	suite.False(IsInsufficientDataError(fmt.Errorf("plain")))
}
