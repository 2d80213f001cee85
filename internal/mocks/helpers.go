package mocks

//go:generate mockgen -destination=mock_provider.go -package=mocks github.com/gsarma/mailblast/internal/email Provider
//go:generate mockgen -destination=mock_sink.go -package=mocks github.com/gsarma/mailblast/internal/notify Sink

import (
	"testing"

	"go.uber.org/mock/gomock"
)

// NewMockProviderForTest creates a MockProvider whose controller is finished
// when the test ends.
func NewMockProviderForTest(t *testing.T) *MockProvider {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return NewMockProvider(ctrl)
}

// NewMockSinkForTest creates a MockSink whose controller is finished when the
// test ends.
func NewMockSinkForTest(t *testing.T) *MockSink {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return NewMockSink(ctrl)
}
