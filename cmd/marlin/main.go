// Command marlin is a headless page runner: it parses an HTML file, loads
// its scripts through the scripting bridge, optionally fires synthetic
// interactions, and prints the resulting document.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"marlin/pkg/css"
	"marlin/pkg/event"
	"marlin/pkg/html"
	"marlin/pkg/script"
)

var (
	flagClick   string
	flagSubmit  string
	flagDump    bool
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "marlin <page.html>",
	Short: "Run a page's scripts headlessly and show the resulting document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPage(args[0])
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().StringVar(&flagClick, "click", "", "dispatch a click on the first node matching this selector")
	rootCmd.Flags().StringVar(&flagSubmit, "submit", "", "dispatch a submit on the first form matching this selector")
	rootCmd.Flags().BoolVar(&flagDump, "dump", true, "print the serialized document after scripts run")
	rootCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runPage(path string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read page: %w", err)
	}
	doc, err := html.Parse(string(source))
	if err != nil {
		return fmt.Errorf("parse page: %w", err)
	}

	renders := 0
	renderer := script.RenderFunc(func() error {
		renders++
		logger.Debug("render pass", zap.Int("pass", renders))
		return nil
	})

	bridge := script.New(doc, renderer, logger)
	if err := bridge.RunBootstrap(); err != nil {
		return err
	}
	for _, fault := range bridge.LoadScripts() {
		// Script faults are routine; they were already logged with the
		// script id, the page just keeps going.
		logger.Warn("page script failed", zap.Error(fault))
	}

	dispatcher := event.NewDispatcher(bridge, event.Hooks{
		Navigate: func(href string) error {
			fmt.Fprintf(os.Stdout, "navigate: %s\n", href)
			return nil
		},
		Submit: func(form *html.Node) error {
			fmt.Fprintf(os.Stdout, "submit: %s\n", form.TagName)
			return nil
		},
	}, logger)

	if flagClick != "" {
		target, err := firstMatch(doc, flagClick)
		if err != nil {
			return err
		}
		if target != nil {
			if err := dispatcher.Click(target); err != nil {
				return err
			}
		}
	}
	if flagSubmit != "" {
		form, err := firstMatch(doc, flagSubmit)
		if err != nil {
			return err
		}
		if form != nil {
			if err := dispatcher.SubmitForm(form); err != nil {
				return err
			}
		}
	}

	logger.Info("page done",
		zap.Int("scripts", len(doc.Scripts)),
		zap.Int("renders", renders),
		zap.Int("handles", bridge.Handles().Len()))

	if flagDump {
		fmt.Println(doc.Root.Serialize())
	}
	return nil
}

func firstMatch(doc *html.Document, selector string) (*html.Node, error) {
	sels, err := css.ParseSelectorList(selector)
	if err != nil {
		return nil, err
	}
	for _, node := range html.Preorder(doc.Root) {
		if css.MatchesAny(node, sels) {
			return node, nil
		}
	}
	return nil, nil
}

func newLogger() (*zap.Logger, error) {
	if flagVerbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}
