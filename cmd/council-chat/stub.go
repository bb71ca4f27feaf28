package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"councilchat/internal/stub"
)

func newStubServerCommand(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "stub-server",
		Short: "Serve a fake council backend for demos and local development",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Stub.Addr = addr
			}
			if cmd.Flags().Changed("stage-delay") {
				delay, _ := cmd.Flags().GetDuration("stage-delay")
				a.cfg.Stub.StageDelay = delay
			}
			a.cfg.Validate()

			logger := a.logger(cmd)
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			srv := stub.New(stub.Options{
				StageDelay: a.cfg.Stub.StageDelay,
				Logger:     logrus.NewEntry(logger),
			})
			logger.WithField("stage_delay", a.cfg.Stub.StageDelay).Debug("starting stub council backend")
			return srv.ListenAndServe(ctx, a.cfg.Stub.Addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (env COUNCIL_STUB_ADDR)")
	cmd.Flags().Duration("stage-delay", 0, "pause after each stage start event (env COUNCIL_STUB_STAGE_DELAY)")
	return cmd
}
