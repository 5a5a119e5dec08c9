package notify

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func TestLogMailer_SendPasswordResetCode(t *testing.T) {
	logger, hook := test.NewNullLogger()

	err := NewLogMailer(logger).SendPasswordResetCode(context.Background(), "bob@example.com", "123456")
	require.NoError(t, err)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	require.Equal(t, logrus.InfoLevel, entry.Level)
	require.Equal(t, "bob@example.com", entry.Data["to"])
	require.Equal(t, "123456", entry.Data["code"])
}
