package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/louis030195/bigbrother/internal/recorder"
	"github.com/louis030195/bigbrother/internal/uierr"
	"github.com/spf13/cobra"
)

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Stream captured input events as JSON lines",
	Long: "Capture desktop input and write one JSON event per line to stdout\n" +
		"until interrupted. Intended for piping into other tools.",
	Args: cobra.NoArgs,
	RunE: runStream,
}

func init() {
	rootCmd.AddCommand(streamCmd)
	streamCmd.Flags().Float64("threshold", 0, "Min pointer distance in px before a move is emitted (0 = default)")
	streamCmd.Flags().Duration("text-timeout", 0, "Quiet period that closes a text run (0 = default)")
	streamCmd.Flags().Int("buffer", 0, "Event queue capacity; overflow drops events (0 = default)")
	streamCmd.Flags().Bool("no-context", false, "Skip element selector capture on clicks")
}

func runStream(cmd *cobra.Command, args []string) error {
	provider, err := newProvider()
	if err != nil {
		return err
	}
	if status := provider.Permissions.Request(); !status.AllGranted() {
		return uierr.Newf(uierr.PermissionDenied,
			"missing permissions (accessibility=%v, input_monitoring=%v); grant them in System Settings > Privacy & Security",
			status.Accessibility, status.InputMonitoring)
	}

	cfg := recorder.DefaultConfig()
	cfg.Log = log
	if threshold, _ := cmd.Flags().GetFloat64("threshold"); threshold > 0 {
		cfg.PointerMoveThreshold = threshold
	}
	if quiet, _ := cmd.Flags().GetDuration("text-timeout"); quiet > 0 {
		cfg.TextQuietTimeout = quiet
	}
	if buffer, _ := cmd.Flags().GetInt("buffer"); buffer > 0 {
		cfg.MaxBufferedEvents = buffer
	}
	noContext, _ := cmd.Flags().GetBool("no-context")
	cfg.CaptureElementContext = !noContext

	rec := recorder.New(provider.Hook, provider.Focuser, provider.Tree, cfg)
	stream, err := rec.Stream()
	if err != nil {
		return err
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	go func() {
		<-interrupt
		stream.Stop()
	}()

	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	for ev := range stream.Events() {
		if err := enc.Encode(ev); err != nil {
			stream.Stop()
			return fmt.Errorf("json encode: %w", err)
		}
	}

	if dropped := stream.Dropped(); dropped > 0 {
		fmt.Fprintf(os.Stderr, "dropped %d events under load\n", dropped)
	}
	return nil
}
