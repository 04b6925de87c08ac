package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/ptgbot/config"
	"github.com/kilianp07/ptgbot/core/schedule"
)

var stateTrack string

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Print the saved schedule",
	Args:  cobra.NoArgs,
	RunE:  printState,
}

func init() {
	stateCmd.Flags().StringVar(&stateTrack, "track", "", "only print this track")
	rootCmd.AddCommand(stateCmd)
}

func printState(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	backend, err := schedule.NewFileBackend(cfg.Storage.Path)
	if err != nil {
		return err
	}
	snap, found, err := backend.Load()
	if err != nil {
		return err
	}
	if !found {
		snap = schedule.Empty()
	}
	var v any = snap
	if stateTrack != "" {
		track, ok := snap.Track(stateTrack)
		if !ok {
			return fmt.Errorf("unknown track '%s'", stateTrack)
		}
		v = track
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
