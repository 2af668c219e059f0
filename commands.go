package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"library-circulation/library"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func newMenuCmd(a *app, in io.Reader, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Start the interactive menu",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMenu(cmd.Context(), in, out, a.mgr, isTerminal(in))
		},
	}
}

func newAddBookCmd(a *app, out io.Writer) *cobra.Command {
	var copies int
	cmd := &cobra.Command{
		Use:   "add-book TITLE AUTHOR",
		Short: "Add copies of a book to the catalog",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			if copies < 1 {
				return fmt.Errorf("--copies must be at least 1")
			}
			for i := 0; i < copies; i++ {
				b, err := a.mgr.AddBook(args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Added book ID %d: %s by %s\n", b.ID, b.Title, b.Author)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&copies, "copies", 1, "number of copies to add")
	return cmd
}

func newAddMemberCmd(a *app, out io.Writer) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "add-member NAME",
		Short: "Register a member",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			k, err := parseKindChoice(kind)
			if err != nil {
				return err
			}
			m, err := a.mgr.AddMember(k, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Added member '%s' (%s) with ID %d\n", m.Name, m.Kind, m.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "type", "student", "member type: student, professor or staff")
	return cmd
}

func newBorrowCmd(a *app, out io.Writer) *cobra.Command {
	var reserve bool
	cmd := &cobra.Command{
		Use:   "borrow MEMBER_ID TITLE AUTHOR",
		Short: "Borrow a copy of a book, optionally reserving one if none is free",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			memberID, err := parseID("member", args[0])
			if err != nil {
				return err
			}
			offer := func(string, string) bool { return reserve }
			res, err := a.mgr.BorrowBook(cmd.Context(), memberID, args[1], args[2], offer)
			if err != nil {
				return errors.New(describe(err))
			}
			printBorrowOutcome(out, a.mgr, res)
			return nil
		},
	}
	cmd.Flags().BoolVar(&reserve, "reserve", false, "reserve a copy when none can be borrowed")
	return cmd
}

func newReserveCmd(a *app, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "reserve MEMBER_ID TITLE AUTHOR",
		Short: "Reserve a free copy of a book for 24 hours",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			memberID, err := parseID("member", args[0])
			if err != nil {
				return err
			}
			b, err := a.mgr.ReserveBook(cmd.Context(), memberID, args[1], args[2])
			if err != nil {
				return errors.New(describe(err))
			}
			fmt.Fprintf(out, "Book ID %d reserved for member %d.\n", b.ID, memberID)
			return nil
		},
	}
}

func newReturnCmd(a *app, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "return BOOK_ID MEMBER_ID",
		Short: "Return a borrowed copy",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bookID, err := parseID("book", args[0])
			if err != nil {
				return err
			}
			memberID, err := parseID("member", args[1])
			if err != nil {
				return err
			}
			if _, err := a.mgr.ReturnBook(cmd.Context(), bookID, memberID); err != nil {
				return errors.New(describe(err))
			}
			m, _ := a.mgr.GetMember(memberID)
			fmt.Fprintf(out, "Book returned successfully by %s.\n", m.Name)
			return nil
		},
	}
}

type bookView struct {
	*library.Book
	State library.CopyState `json:"state"`
}

type memberView struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	BorrowLimit int    `json:"borrow_limit"`
	BorrowCount int    `json:"borrow_count"`
}

func newListBooksCmd(a *app, out io.Writer) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list-books",
		Short: "List every copy in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			books := a.mgr.ListBooks()
			if asJSON {
				views := make([]bookView, 0, len(books))
				for _, b := range books {
					views = append(views, bookView{Book: b, State: b.State()})
				}
				return writeJSON(out, views)
			}
			printBooks(out, books)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newListMembersCmd(a *app, out io.Writer) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list-members",
		Short: "List every member",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			members := a.mgr.ListMembers()
			if asJSON {
				views := make([]memberView, 0, len(members))
				for _, m := range members {
					views = append(views, memberView{
						ID:          m.ID,
						Name:        m.Name,
						Type:        m.Kind.String(),
						BorrowLimit: m.BorrowLimit(),
						BorrowCount: m.BorrowCount(),
					})
				}
				return writeJSON(out, views)
			}
			printMembers(out, members)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newHistoryCmd(a *app, out io.Writer) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the borrow/return ledger",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			txs, err := a.mgr.Transactions()
			if err != nil {
				return err
			}
			if asJSON {
				if txs == nil {
					txs = []library.Transaction{}
				}
				return writeJSON(out, txs)
			}
			printTransactions(out, txs)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newSaveCmd(a *app, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Rewrite the books and members files from the loaded state",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if err := a.mgr.Save(); err != nil {
				return err
			}
			fmt.Fprintln(out, "Library data saved.")
			return nil
		},
	}
}

// ------------------ Helpers ------------------

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseID(what, s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid %s ID: %s", what, s)
	}
	return id, nil
}

// parseKindChoice accepts the menu numbers 1-3 or a type name.
func parseKindChoice(s string) (library.MemberKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "student":
		return library.Student, nil
	case "2", "professor":
		return library.Professor, nil
	case "3", "staff", "technicalstaff", "technical staff":
		return library.TechnicalStaff, nil
	}
	return 0, fmt.Errorf("invalid member type %q", s)
}

// describe turns a circulation outcome into the sentence shown to the user.
func describe(err error) string {
	switch {
	case errors.Is(err, library.ErrMemberNotFound):
		return "Member not found!"
	case errors.Is(err, library.ErrBookNotFound):
		return "Book not found!"
	case errors.Is(err, library.ErrBorrowLimitReached):
		return "Member has reached their borrowing limit!"
	case errors.Is(err, library.ErrNoCopyAvailable):
		return "No available copies of that book were found."
	case errors.Is(err, library.ErrNoCopyToReserve):
		return "All copies of the book are currently reserved or borrowed."
	case errors.Is(err, library.ErrNotCurrentlyBorrowed):
		return "Book is not currently borrowed!"
	}
	return err.Error()
}

func printBorrowOutcome(out io.Writer, mgr *library.LibraryManager, res library.BorrowOutcome) {
	switch {
	case res.Borrowed != nil:
		fmt.Fprintf(out, "Book ID %d borrowed successfully.\n", res.Borrowed.ID)
	case res.Reserved != nil:
		name := ""
		if m, err := mgr.GetMember(res.Reserved.Reservation.MemberID); err == nil {
			name = m.Name
		}
		fmt.Fprintf(out, "Book ID %d reserved successfully by %s.\n", res.Reserved.ID, name)
	}
}

func printBooks(out io.Writer, books []*library.Book) {
	if len(books) == 0 {
		fmt.Fprintln(out, "No books in library.")
		return
	}
	fmt.Fprintf(out, "%-6s %-30s %-25s %-10s %s\n", "ID", "Title", "Author", "State", "Reserved By")
	fmt.Fprintln(out, strings.Repeat("-", 85))
	for _, b := range books {
		reservedBy := "-"
		if b.Reservation != nil {
			reservedBy = strconv.Itoa(b.Reservation.MemberID)
		}
		fmt.Fprintf(out, "%-6d %-30s %-25s %-10s %s\n",
			b.ID, truncateString(b.Title, 30), truncateString(b.Author, 25), b.State(), reservedBy)
	}
}

func printMembers(out io.Writer, members []*library.Member) {
	if len(members) == 0 {
		fmt.Fprintln(out, "No members registered.")
		return
	}
	fmt.Fprintf(out, "%-6s %-30s %-15s %s\n", "ID", "Name", "Type", "Borrowed")
	fmt.Fprintln(out, strings.Repeat("-", 65))
	for _, m := range members {
		fmt.Fprintf(out, "%-6d %-30s %-15s %d/%d\n",
			m.ID, truncateString(m.Name, 30), m.Kind, m.BorrowCount(), m.BorrowLimit())
	}
}

func printTransactions(out io.Writer, txs []library.Transaction) {
	if len(txs) == 0 {
		fmt.Fprintln(out, "No transactions recorded.")
		return
	}
	fmt.Fprintf(out, "%-12s %-8s %-8s %s\n", "Date", "Book", "Member", "Kind")
	fmt.Fprintln(out, strings.Repeat("-", 40))
	for _, t := range txs {
		fmt.Fprintf(out, "%-12s %-8d %-8d %s\n", t.Date, t.BookID, t.MemberID, t.Kind)
	}
}

// truncateString shortens s to maxLength runes, marking the cut with "...".
func truncateString(s string, maxLength int) string {
	r := []rune(s)
	if len(r) <= maxLength {
		return s
	}
	return string(r[:maxLength-3]) + "..."
}
