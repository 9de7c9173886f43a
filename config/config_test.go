package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "REDIS_ADDR", "ALLOW_RESET", "VOTE_RATE_PER_SEC", "TEACHER_EMAIL_DOMAINS"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.Quizz.AllowReset)
	assert.Equal(t, 5.0, cfg.RateLimit.VotesPerSecond)
	assert.Nil(t, cfg.Quizz.TeacherEmailDomains)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("ALLOW_RESET", "true")
	t.Setenv("VOTE_RATE_PER_SEC", "0.5")
	t.Setenv("TEACHER_EMAIL_DOMAINS", " @univ.fr, ,@prof.fr ")
	t.Setenv("JWT_EXPIRE_HOURS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.True(t, cfg.Redis.Enabled())
	assert.True(t, cfg.Quizz.AllowReset)
	assert.Equal(t, 0.5, cfg.RateLimit.VotesPerSecond)
	assert.Equal(t, []string{"@univ.fr", "@prof.fr"}, cfg.Quizz.TeacherEmailDomains)
	assert.Equal(t, 24, cfg.JWT.ExpireHours)
}
