package cli

import (
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playtesting-bot/internal/config"
	"playtesting-bot/internal/infra/memory"
)

func TestEmojiInvalidateLogsRedisFailure(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	log, hook := logtest.NewNullLogger()
	st := &stores{redis: client, log: log, close: func() {}}
	_, invalidate := st.emojiResolver(config.Config{}, memory.NewStaticEmojiLoader(nil))

	invalidate("s1")
	assert.Empty(t, hook.AllEntries())

	mr.Close()
	invalidate("s1")
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "invalidate cached emoji", entry.Message)
	assert.Equal(t, "s1", entry.Data["server"])
}
