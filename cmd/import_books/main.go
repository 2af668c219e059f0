package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"library-circulation/config"
	"library-circulation/library"
)

// entry is one line of the import file.
type entry struct {
	Line   int
	Title  string
	Author string
	Copies int
}

func main() {
	if err := newImportCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

func newImportCmd(out, errOut io.Writer) *cobra.Command {
	var dataDir string
	cmd := &cobra.Command{
		Use:   "import_books FILE",
		Short: "Bulk-add book copies from a tab-separated file",
		Long: "Each line of FILE is title<TAB>author[<TAB>copies]. Blank lines and lines\n" +
			"starting with # are ignored. Copies defaults to 1.",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("data-dir") {
				cfg.DataDir = dataDir
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			entries, err := parseEntries(f)
			if err != nil {
				return err
			}

			log := slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: cfg.LogLevel}))
			manager, err := library.NewLibraryManager(library.Options{
				DataDir: cfg.DataDir,
				Ledger:  cfg.Ledger,
				Logger:  log,
			})
			if err != nil {
				return fmt.Errorf("open library: %w", err)
			}
			defer manager.Close()

			return importEntries(out, manager, entries)
		},
	}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.Flags().StringVar(&dataDir, "data-dir", ".", "library data directory (env "+config.EnvDataDir+")")
	return cmd
}

// parseEntries reads the import file. The first bad line stops the parse so
// nothing is imported from a half-valid file.
func parseEntries(r io.Reader) ([]entry, error) {
	var entries []entry
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 2 || len(fields) > 3 {
			return nil, fmt.Errorf("line %d: want title<TAB>author[<TAB>copies], got %d fields", n, len(fields))
		}
		e := entry{
			Line:   n,
			Title:  strings.TrimSpace(fields[0]),
			Author: strings.TrimSpace(fields[1]),
			Copies: 1,
		}
		if e.Title == "" || e.Author == "" {
			return nil, fmt.Errorf("line %d: title and author are required", n)
		}
		if len(fields) == 3 {
			c, err := strconv.Atoi(strings.TrimSpace(fields[2]))
			if err != nil || c < 1 {
				return nil, fmt.Errorf("line %d: invalid copies %q", n, fields[2])
			}
			e.Copies = c
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func importEntries(out io.Writer, manager *library.LibraryManager, entries []entry) error {
	successCount, errorCount := 0, 0
	for _, e := range entries {
		fmt.Fprintf(out, "Importing: %s by %s (x%d)... ", e.Title, e.Author, e.Copies)
		ids := make([]string, 0, e.Copies)
		var failed error
		for i := 0; i < e.Copies; i++ {
			b, err := manager.AddBook(e.Title, e.Author)
			if err != nil {
				failed = err
				break
			}
			ids = append(ids, strconv.Itoa(b.ID))
		}
		successCount += len(ids)
		if failed != nil {
			fmt.Fprintf(out, "ERROR - %v\n", failed)
			errorCount++
			continue
		}
		fmt.Fprintf(out, "SUCCESS (IDs: %s)\n", strings.Join(ids, ", "))
	}

	fmt.Fprintf(out, "\nImport complete!\n")
	fmt.Fprintf(out, "Copies added: %d\n", successCount)
	fmt.Fprintf(out, "Errors: %d\n", errorCount)
	if errorCount > 0 {
		return fmt.Errorf("%d entries failed", errorCount)
	}
	return nil
}
