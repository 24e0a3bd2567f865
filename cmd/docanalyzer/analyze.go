package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/thywilljoshua/docanalyzer/internal/analyze"
)

func extractCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "extract <file>",
		Short: "Print the extracted text of a PDF or image as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.resolve(cmd)
			if err != nil {
				return err
			}
			res, err := a.extractFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
}

type summarizeOutput struct {
	File      string `json:"file"`
	Extractor string `json:"extractor"`
	analyze.Summary
}

func summarizeCmd(g *globalFlags) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "summarize <file>",
		Short: "Extract a document and print a short summary as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.resolve(cmd)
			if err != nil {
				return err
			}
			res, err := a.extractFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			sum, err := a.analyzer.Summarize(cmd.Context(), res.Text)
			if err != nil {
				return err
			}
			if !raw {
				sum.Raw = ""
			}
			return printJSON(cmd.OutOrStdout(), summarizeOutput{File: args[0], Extractor: res.Extractor, Summary: sum})
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "include the unfiltered model output")
	return cmd
}

type askOutput struct {
	File     string `json:"file"`
	Question string `json:"question"`
	analyze.Answer
}

func askCmd(g *globalFlags) *cobra.Command {
	var qaOnly bool

	cmd := &cobra.Command{
		Use:   "ask <file> <question...>",
		Short: "Answer a question about a document",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.resolve(cmd)
			if err != nil {
				return err
			}
			question := strings.Join(args[1:], " ")
			res, err := a.extractFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			var ans analyze.Answer
			if qaOnly {
				ans, err = a.analyzer.Answer(cmd.Context(), res.Text, question)
			} else {
				ans, err = a.analyzer.Ask(cmd.Context(), res.Text, question)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), askOutput{File: args[0], Question: question, Answer: ans})
		},
	}
	cmd.Flags().BoolVar(&qaOnly, "qa", false, "always use the question-answering model, even for overview questions")
	return cmd
}
