package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "reelcut <input>",
		Short:        "Cut vertical highlight reels from a local MP4",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0])
		},
	}

	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	// Shared by every command
	pf := root.PersistentFlags()
	pf.String("config", "", "Config file (default reelcut.yaml)")
	pf.String("aspect", "9:16", "Output aspect ratio as W:H")
	pf.String("detector", "pigo", "Subject detector: pigo or center")
	pf.String("cascade", "", "Pigo face cascade file")
	pf.BoolP("verbose", "v", false, "Debug logging")

	// Hidden tuning flags (internal)
	pf.Float64("smooth", 1.0, "Smoothing window in seconds")
	pf.Int("stride", 2, "Run the detector every N frames")
	_ = pf.MarkHidden("smooth")
	_ = pf.MarkHidden("stride")

	// Visible flags
	root.Flags().String("out", "out", "Output directory")
	root.Flags().Int("clips", 3, "Number of clips")
	root.Flags().Int("jobs", 1, "Clips processed in parallel")
	root.Flags().Bool("no-reframe", false, "Keep the source framing")
	root.Flags().Bool("no-subs", false, "Do not burn subtitles")
	root.Flags().Bool("skip-failed", false, "Record clips that fail to reframe instead of aborting")

	root.Flags().Int("max", 60, "Max clip duration seconds")
	root.Flags().Int("min", 15, "Min clip duration seconds")
	_ = root.Flags().MarkHidden("max")
	_ = root.Flags().MarkHidden("min")

	root.AddCommand(newReframeCmd())
	return root
}
