package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/petems/tapedeck/internal/audio"
	"github.com/petems/tapedeck/internal/logging"
)

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List audio input and output devices",
		Long:  `Opens the configured audio backend, prints the input and output device names, and exits.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			log := logging.NewWithLevel(cfg.LogLevel)

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			bridge, worker, _, err := startWorker(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer func() {
				_ = bridge.Close()
				<-worker.Done()
			}()

			return printDevices(cmd.OutOrStdout(), bridge)
		},
	}
}

func printDevices(w io.Writer, bridge *audio.Bridge) error {
	inputs, err := bridge.InputDevices()
	if err != nil {
		return err
	}
	outputs, err := bridge.OutputDevices()
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "Input devices:")
	for _, name := range inputs {
		fmt.Fprintf(w, "  %s\n", name)
	}
	fmt.Fprintln(w, "Output devices:")
	for _, name := range outputs {
		fmt.Fprintf(w, "  %s\n", name)
	}
	return nil
}
