package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/hazyhaar/pagesnap/capture"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API and capture previews",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		c, release, err := newCapturer(cfg)
		if err != nil {
			return err
		}
		defer release()

		srv := &http.Server{
			Addr:              serveAddr,
			Handler:           capture.NewServer(c, logger),
			ReadHeaderTimeout: 10 * time.Second,
		}
		ctx := cmd.Context()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		logger.Info("pagesnap: listening", "addr", serveAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP tools over stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		// stdout carries the protocol.
		sinks := cfg.Sinks[:0]
		for _, s := range cfg.Sinks {
			if s.Type != "stdout" {
				sinks = append(sinks, s)
			}
		}
		cfg.Sinks = sinks

		c, release, err := newCapturer(cfg)
		if err != nil {
			return err
		}
		defer release()

		srv := mcp.NewServer(&mcp.Implementation{Name: "pagesnap", Version: version}, nil)
		c.RegisterMCP(srv)
		logger.Info("pagesnap: mcp on stdio")
		return srv.Run(cmd.Context(), &mcp.StdioTransport{})
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8090", "listen address")
}
