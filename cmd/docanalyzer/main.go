package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	var g globalFlags
	root := newRootCmd(&g)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(g *globalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:           "docanalyzer",
		Short:         "Extract text from PDFs and images, summarize it and answer questions about it",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&g.config, "config", "", "path to a YAML config file")
	pf.BoolVar(&g.restricted, "restricted", false, "hosted mode: refuse image uploads instead of running OCR")
	pf.StringVar(&g.model, "model", "", "Gemini model used for summaries and answers")
	pf.StringVar(&g.logLevel, "log-level", "", "log level: debug|info|warn|error")

	root.AddCommand(serveCmd(g), extractCmd(g), summarizeCmd(g), askCmd(g))
	return root
}
