package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"library-circulation/config"
	"library-circulation/library"
)

// app carries what every command needs once the root command has run its
// pre-run hook.
type app struct {
	cfg config.Config
	log *slog.Logger
	mgr *library.LibraryManager
}

func main() {
	a := &app{}
	if err := execute(a, newRootCmd(a, os.Stdin, os.Stdout, os.Stderr)); err != nil {
		os.Exit(1)
	}
}

// execute runs root and closes whatever the pre-run hook opened, including
// when the command itself failed.
func execute(a *app, root *cobra.Command) error {
	err := root.Execute()
	if cerr := a.close(); cerr != nil {
		fmt.Fprintf(root.ErrOrStderr(), "Error: close library: %v\n", cerr)
		err = errors.Join(err, cerr)
	}
	return err
}

func newRootCmd(a *app, in io.Reader, out, errOut io.Writer) *cobra.Command {
	var dataDir, ledger, logLevel string

	root := &cobra.Command{
		Use:   "library",
		Short: "Keep a library's catalog, members and borrow/return ledger",
		Long: "library tracks book copies, members and their borrowing privileges, and a ledger of\n" +
			"borrow/return events, stored as plain text files in the data directory.\n" +
			"Run without a subcommand to start the interactive menu.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("data-dir") {
				cfg.DataDir = dataDir
			}
			if cmd.Flags().Changed("ledger") {
				cfg.Ledger = ledger
			}
			if cmd.Flags().Changed("log-level") {
				if cfg.LogLevel, err = config.ParseLevel(logLevel); err != nil {
					return err
				}
			}

			a.cfg = cfg
			a.log = slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: cfg.LogLevel}))
			a.mgr, err = library.NewLibraryManager(library.Options{
				DataDir: cfg.DataDir,
				Ledger:  cfg.Ledger,
				Logger:  a.log,
			})
			if err != nil {
				return fmt.Errorf("open library: %w", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMenu(cmd.Context(), in, out, a.mgr, isTerminal(in))
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&dataDir, "data-dir", ".", "directory holding books.txt, members.txt and the ledger (env "+config.EnvDataDir+")")
	pf.StringVar(&ledger, "ledger", library.LedgerFile, "ledger backend: file or sqlite (env "+config.EnvLedger+")")
	pf.StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error (env "+config.EnvLogLevel+")")

	root.AddCommand(
		newMenuCmd(a, in, out),
		newAddBookCmd(a, out),
		newAddMemberCmd(a, out),
		newBorrowCmd(a, out),
		newReserveCmd(a, out),
		newReturnCmd(a, out),
		newListBooksCmd(a, out),
		newListMembersCmd(a, out),
		newHistoryCmd(a, out),
		newSaveCmd(a, out),
	)
	return root
}

func (a *app) close() error {
	if a.mgr == nil {
		return nil
	}
	err := a.mgr.Close()
	a.mgr = nil
	return err
}
