package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aidanlsb/brag/internal/ui"
	"github.com/aidanlsb/brag/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Assign ids to hand-written entries as the document changes",
	Long: `Watches the document and runs repair whenever it is saved, so bullets you
type in your editor get entry ids right away. Orphan records are reported
but never removed.

Stops on Ctrl-C.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := getService()
		if err != nil {
			return reportError(err)
		}
		ref, err := documentRef()
		if err != nil {
			return reportError(err)
		}
		outline, err := svc.GetOutline(ref)
		if err != nil {
			return reportError(err)
		}

		repair := func() error {
			res, err := svc.Repair(ref, false)
			if err != nil {
				return err
			}
			if len(res.Adopted) > 0 {
				logger.Info("adopted entries", zap.String("document", res.Document), zap.Int("count", len(res.Adopted)))
				if !isJSONOutput() {
					fmt.Print(formatRepair(res.RepairReport))
				}
			}
			return nil
		}
		if err := repair(); err != nil {
			return reportError(err)
		}

		w, err := watcher.New(watcher.Config{Path: outline.Path, OnChange: repair, Logger: logger})
		if err != nil {
			return err
		}
		if !isJSONOutput() {
			fmt.Println(ui.Hint("Watching " + outline.Path + " (Ctrl-C to stop)"))
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
