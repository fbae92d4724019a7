package cli

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aidanlsb/brag/internal/brag"
	"github.com/aidanlsb/brag/internal/commands"
	"github.com/aidanlsb/brag/internal/model"
	"github.com/aidanlsb/brag/internal/ui"
)

func init() {
	names := commands.AllCommandNames()
	sort.Strings(names)
	for _, name := range names {
		rootCmd.AddCommand(commands.GenerateCobraCommand(name, runDocumentCommand))
	}
}

// runDocumentCommand executes a registry command against the document
// named by the global flags and prints the result.
func runDocumentCommand(cmd *cobra.Command, meta commands.Meta, in commands.Input) error {
	svc, err := getService()
	if err != nil {
		return reportError(err)
	}
	ref, err := documentRef()
	if err != nil {
		return reportError(err)
	}

	if meta.Name == "delete" && !in.Bool("force") && shouldPromptForConfirm() {
		if !promptForConfirm(fmt.Sprintf("Delete %s?", describeSelection(in))) {
			return reportError(&codedError{code: codeCancelled, err: errors.New("delete cancelled")})
		}
	}

	out, err := commands.Execute(svc, ref, meta.Name, in)
	if err != nil {
		logger.Debug("command failed", zap.String("command", meta.Name), zap.Error(err))
		return reportError(err)
	}

	if isJSONOutput() {
		outputSuccess(out)
		return nil
	}
	for _, w := range out.Warnings {
		fmt.Fprintln(os.Stderr, ui.Warning(w.Message))
	}
	if meta.Name == "outline" && in.Bool("render") {
		return renderDocument(out.Data.(brag.Outline).Path)
	}
	printResult(meta.Name, out.Data)
	return nil
}

// reportError writes the JSON envelope in JSON mode; otherwise the error is
// printed by Execute.
func reportError(err error) error {
	if isJSONOutput() {
		outputError(err)
		return &reportedError{err: err}
	}
	return err
}

func describeSelection(in commands.Input) string {
	if id := in.String("entry-id"); id != "" {
		return "entry " + id
	}
	return fmt.Sprintf("%q in %s", in.String("old-text"), in.String("section-path"))
}

func renderDocument(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Wrap(model.KindDocumentNotFound, err, "read document")
	}
	width, _ := ui.TermWidth()
	out, err := ui.RenderMarkdown(string(data), width-ui.MarkdownRenderMargin)
	if err != nil {
		return fmt.Errorf("render document: %w", err)
	}
	fmt.Print(out)
	return nil
}
