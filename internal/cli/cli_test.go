package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forPelevin/reelcut/internal/config"
)

func TestApplyFlags_OnlyChangedFlagsOverride(t *testing.T) {
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--clips", "5", "--no-subs", "--aspect", "4:5", "--min", "10"}))

	cfg := config.Default()
	cfg.Jobs = 4
	require.NoError(t, applyFlags(cmd, cfg))

	assert.Equal(t, 5, cfg.Clips)
	assert.False(t, cfg.Subtitles)
	assert.Equal(t, "4:5", cfg.Reframe.Aspect)
	assert.Equal(t, 10.0, cfg.MinClipSec)
	assert.Equal(t, 4, cfg.Jobs, "unset flag keeps the config value")
	assert.True(t, cfg.Reframe.Enabled)
	assert.Equal(t, 60.0, cfg.MaxClipSec)
}

func TestApplyFlags_NoReframe(t *testing.T) {
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--no-reframe", "--detector", "center", "--stride", "3"}))
	cfg := config.Default()
	require.NoError(t, applyFlags(cmd, cfg))
	assert.False(t, cfg.Reframe.Enabled)
	assert.Equal(t, "center", cfg.Reframe.Detector)
	assert.Equal(t, 3, cfg.Reframe.Stride)
}

func TestPipelineConfig(t *testing.T) {
	cfg := config.Default()
	cfg.OpenRouter.APIKey = "k"
	pcfg, err := pipelineConfig(cfg)
	require.NoError(t, err)
	assert.InDelta(t, 9.0/16.0, pcfg.Aspect, 1e-12)
	assert.Equal(t, 15*time.Second, pcfg.MinClip)
	assert.Equal(t, 60*time.Second, pcfg.MaxClip)
	assert.True(t, pcfg.Reframe)
	assert.True(t, pcfg.BurnSubtitles)
	assert.Equal(t, "k", pcfg.OpenRouterAPIKey)

	cfg.Reframe.Aspect = "wide"
	_, err = pipelineConfig(cfg)
	require.Error(t, err)
}

func TestRootCmd_Args(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{args: nil, want: "accepts 1 arg(s), received 0"},
		{args: []string{"a.mp4", "b.mp4"}, want: "accepts 1 arg(s), received 2"},
		{args: []string{"a.mp4", "--wat"}, want: "unknown flag: --wat"},
		{args: []string{"reframe"}, want: "accepts 1 arg(s), received 0"},
	}
	for _, tc := range tests {
		cmd := newRootCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs(tc.args)
		err := cmd.Execute()
		require.Error(t, err, tc.args)
		assert.Contains(t, err.Error(), tc.want)
	}
}

func TestDefaultReframeOutput(t *testing.T) {
	assert.Equal(t, "clips/talk_vertical.mp4", defaultReframeOutput("clips/talk.mp4"))
	assert.Equal(t, "talk_vertical.mp4", defaultReframeOutput("talk"))
	assert.Equal(t, "a.b_vertical.mov", defaultReframeOutput("a.b.mov"))
}
