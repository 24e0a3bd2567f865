package main

import (
	"github.com/spf13/cobra"

	"github.com/thywilljoshua/docanalyzer/internal/session"
	"github.com/thywilljoshua/docanalyzer/internal/web"
)

func serveCmd(g *globalFlags) *cobra.Command {
	var addr string
	var db string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web interface and JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.resolve(cmd)
			if err != nil {
				return err
			}
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			if db != "" {
				a.cfg.Server.DB = db
			}

			ctx := cmd.Context()
			store, err := session.Open(ctx, a.cfg.Server.DB)
			if err != nil {
				return err
			}
			defer store.Close()

			srv, err := web.New(a.router, a.analyzer, store, web.Options{
				MaxUploadBytes: a.cfg.Server.MaxUploadBytes,
				SessionTTL:     a.cfg.Server.SessionTTL,
				Logger:         a.logger,
			})
			if err != nil {
				return err
			}
			return srv.ListenAndServe(ctx, a.cfg.Server.Addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().StringVar(&db, "db", "", "session database path, or :memory:")
	return cmd
}
