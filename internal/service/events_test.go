package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestEventPublisherWithoutNATSLogsOnly(t *testing.T) {
	publisher := NewEventPublisher(nil, zerolog.Nop())
	err := publisher.Publish(context.Background(), SubjectSubmissionAccepted, SubmissionAcceptedEvent{SubmissionID: 1})
	require.NoError(t, err)
}

func TestPaginationHelpers(t *testing.T) {
	require.Equal(t, 1, normalizePage(-3))
	require.Equal(t, 4, normalizePage(4))
	require.Equal(t, 20, clampPageSize(0))
	require.Equal(t, 100, clampPageSize(500))
	require.Equal(t, 3, calculateTotalPages(41, 20))
	require.Zero(t, calculateTotalPages(0, 20))
}
