package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"library-circulation/library"
)

// isTerminal reports whether in is an interactive terminal. Piped input runs
// the menu without banner or prompts.
func isTerminal(in io.Reader) bool {
	f, ok := in.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

type menu struct {
	ctx         context.Context
	sc          *bufio.Scanner
	out         io.Writer
	mgr         *library.LibraryManager
	interactive bool
}

func runMenu(ctx context.Context, in io.Reader, out io.Writer, mgr *library.LibraryManager, interactive bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	m := &menu{ctx: ctx, sc: bufio.NewScanner(in), out: out, mgr: mgr, interactive: interactive}

	if interactive {
		fmt.Fprintln(out, "Welcome to the Library Management System!")
		fmt.Fprintln(out, "Available commands:")
		fmt.Fprintln(out, "  Books: add book, list books")
		fmt.Fprintln(out, "  Members: add member, list members")
		fmt.Fprintln(out, "  Circulation: borrow, return, reserve, history")
		fmt.Fprintln(out, "  System: save, exit")
	}

	for {
		if interactive {
			fmt.Fprint(out, "\n> ")
		}
		if !m.sc.Scan() {
			return m.sc.Err()
		}
		cmd := strings.ToLower(strings.TrimSpace(m.sc.Text()))

		switch cmd {
		case "":
			continue
		case "add book":
			m.handleAddBook()
		case "add member":
			m.handleAddMember()
		case "borrow":
			m.handleBorrow()
		case "return":
			m.handleReturn()
		case "reserve":
			m.handleReserve()
		case "list books":
			printBooks(out, mgr.ListBooks())
		case "list members":
			printMembers(out, mgr.ListMembers())
		case "history":
			m.handleHistory()
		case "save":
			m.handleSave()
		case "exit", "quit":
			fmt.Fprintln(out, "Goodbye!")
			return nil
		default:
			fmt.Fprintln(out, "Unknown command. Type one of the available commands listed above.")
		}
	}
}

// ask prints prompt (interactive only) and reads one trimmed line.
func (m *menu) ask(prompt string) (string, bool) {
	if m.interactive {
		fmt.Fprint(m.out, prompt)
	}
	if !m.sc.Scan() {
		return "", false
	}
	return strings.TrimSpace(m.sc.Text()), true
}

func (m *menu) askID(what string) (int, bool) {
	s, ok := m.ask(strings.ToUpper(what[:1]) + what[1:] + " ID: ")
	if !ok {
		return 0, false
	}
	id, err := strconv.Atoi(s)
	if err != nil {
		fmt.Fprintf(m.out, "Invalid %s ID: %s\n", what, s)
		return 0, false
	}
	return id, true
}

func (m *menu) askTitleAuthor() (string, string, bool) {
	title, ok := m.ask("Title: ")
	if !ok {
		return "", "", false
	}
	author, ok := m.ask("Author: ")
	if !ok {
		return "", "", false
	}
	return title, author, true
}

func (m *menu) handleAddBook() {
	title, author, ok := m.askTitleAuthor()
	if !ok {
		return
	}
	b, err := m.mgr.AddBook(title, author)
	if err != nil {
		fmt.Fprintf(m.out, "Error adding book: %v\n", err)
		return
	}
	fmt.Fprintf(m.out, "Book added successfully with ID %d.\n", b.ID)
}

func (m *menu) handleAddMember() {
	name, ok := m.ask("Name: ")
	if !ok {
		return
	}
	if m.interactive {
		fmt.Fprintln(m.out, "Select member type:")
		for i, k := range library.MemberKinds {
			fmt.Fprintf(m.out, "%d. %s\n", i+1, k)
		}
	}
	choice, ok := m.ask("Enter your choice: ")
	if !ok {
		return
	}
	kind, err := parseKindChoice(choice)
	if err != nil {
		fmt.Fprintln(m.out, "Invalid member type selected.")
		return
	}
	member, err := m.mgr.AddMember(kind, name)
	if err != nil {
		fmt.Fprintf(m.out, "Error adding member: %v\n", err)
		return
	}
	fmt.Fprintf(m.out, "Added member '%s' with ID %d\n", member.Name, member.ID)
}

func (m *menu) handleBorrow() {
	memberID, ok := m.askID("member")
	if !ok {
		return
	}
	title, author, ok := m.askTitleAuthor()
	if !ok {
		return
	}

	offer := func(title, author string) bool {
		fmt.Fprintf(m.out, "No available copies of the book %q by %s were found.\n", title, author)
		answer, ok := m.ask("Would you like to reserve a copy for future borrowing? (yes/no): ")
		if ok && strings.EqualFold(answer, "yes") {
			return true
		}
		fmt.Fprintln(m.out, "Reservation canceled.")
		return false
	}

	res, err := m.mgr.BorrowBook(m.ctx, memberID, title, author, offer)
	if err != nil {
		// A declined offer has already been reported.
		if !errors.Is(err, library.ErrNoCopyAvailable) {
			fmt.Fprintln(m.out, describe(err))
		}
		return
	}
	printBorrowOutcome(m.out, m.mgr, res)
}

func (m *menu) handleReserve() {
	memberID, ok := m.askID("member")
	if !ok {
		return
	}
	title, author, ok := m.askTitleAuthor()
	if !ok {
		return
	}
	b, err := m.mgr.ReserveBook(m.ctx, memberID, title, author)
	if err != nil {
		fmt.Fprintln(m.out, describe(err))
		return
	}
	fmt.Fprintf(m.out, "Book ID %d reserved for member %d.\n", b.ID, memberID)
}

func (m *menu) handleReturn() {
	bookID, ok := m.askID("book")
	if !ok {
		return
	}
	memberID, ok := m.askID("member")
	if !ok {
		return
	}
	if _, err := m.mgr.ReturnBook(m.ctx, bookID, memberID); err != nil {
		fmt.Fprintln(m.out, describe(err))
		return
	}
	member, _ := m.mgr.GetMember(memberID)
	fmt.Fprintf(m.out, "Book returned successfully by %s.\n", member.Name)
}

func (m *menu) handleHistory() {
	txs, err := m.mgr.Transactions()
	if err != nil {
		fmt.Fprintf(m.out, "Error reading ledger: %v\n", err)
		return
	}
	printTransactions(m.out, txs)
}

func (m *menu) handleSave() {
	if err := m.mgr.Save(); err != nil {
		fmt.Fprintf(m.out, "Error saving: %v\n", err)
		return
	}
	fmt.Fprintln(m.out, "Library data saved.")
}
