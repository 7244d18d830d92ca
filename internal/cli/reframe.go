package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/forPelevin/reelcut/internal/logging"
	"github.com/forPelevin/reelcut/internal/pipeline"
)

func newReframeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "reframe <clip>",
		Short:        "Reframe a single landscape clip to vertical",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReframe(cmd, args[0])
		},
	}
	cmd.Flags().StringP("output", "o", "", "Output file (default <clip>_vertical.mp4)")
	return cmd
}

func runReframe(cmd *cobra.Command, input string) error {
	cfg, verbose, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logging.Init(verbose)

	out, _ := cmd.Flags().GetString("output")
	if out == "" {
		out = defaultReframeOutput(input)
	}
	if filepath.Clean(out) == filepath.Clean(input) {
		return errors.New("output must differ from input")
	}

	pcfg, err := pipelineConfig(cfg)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := pcfg.ValidateReframe(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	pcfg.Logger = zlog.Logger
	if !verbose && logging.IsTerminal(os.Stderr) {
		p := newProgress(os.Stderr)
		defer p.Finish()
		pcfg.Progress = p.Update
	}

	ctx, cancel := commandContext()
	defer cancel()

	res, err := pipeline.Reframe(ctx, pcfg, input, out)
	if err != nil {
		return err
	}
	log := logging.WithComponent("cli")
	log.Info().
		Str("output", res.Output).
		Int("frames", res.Frames).
		Int("crop_width", res.Crop.Width).
		Int("crop_height", res.Crop.Height).
		Msg("reframed")
	fmt.Fprintln(cmd.OutOrStdout(), res.Output)
	return nil
}

func defaultReframeOutput(input string) string {
	ext := filepath.Ext(input)
	if ext == "" {
		ext = ".mp4"
	}
	base := input[:len(input)-len(filepath.Ext(input))]
	return base + "_vertical" + ext
}
