package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jmcleod/clubdesk/page"
	"github.com/jmcleod/clubdesk/roster"
	"github.com/jmcleod/clubdesk/session"
)

// ---------------------------------------------------------------------------
// Text output
// ---------------------------------------------------------------------------

func printStatus(w io.Writer, c session.Controls) {
	if c.StatusText != "" {
		fmt.Fprintln(w, c.StatusText)
		return
	}
	fmt.Fprintln(w, "Not signed in.")
	if c.ShowNotice {
		fmt.Fprintln(w, "Teachers must log in to register students.")
	}
}

func printRoster(w io.Writer, v roster.View) {
	if v.Failure != "" {
		fmt.Fprintln(w, v.Failure)
		return
	}
	for i, card := range v.Cards {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, card.Name)
		fmt.Fprintf(w, "  %s\n", card.Description)
		fmt.Fprintf(w, "  Schedule: %s\n", card.Schedule)
		fmt.Fprintf(w, "  Availability: %d spots left\n", card.SpotsLeft)
		if len(card.Participants) == 0 {
			fmt.Fprintf(w, "  %s\n", card.Placeholder)
			continue
		}
		fmt.Fprintln(w, "  Participants:")
		for _, row := range card.Participants {
			if row.Removable {
				fmt.Fprintf(w, "    - %s [remove]\n", row.Email)
			} else {
				fmt.Fprintf(w, "    - %s\n", row.Email)
			}
		}
	}
}

func printMessage(w io.Writer, msg roster.Message) {
	fmt.Fprintf(w, "[%s] %s\n", strings.ToUpper(msg.Kind.String()), msg.Text)
}

func printPage(w io.Writer, snap page.Snapshot) {
	printStatus(w, snap.Controls)
	fmt.Fprintln(w)
	printRoster(w, snap.Roster)
	if snap.Banner != nil {
		fmt.Fprintln(w)
		printMessage(w, *snap.Banner)
	}
}

// ---------------------------------------------------------------------------
// JSON output
// ---------------------------------------------------------------------------

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// output writes snap as JSON with --json, or as text otherwise.
func output(w io.Writer, snap page.Snapshot) error {
	if jsonOutput {
		return printJSON(w, snap)
	}
	printPage(w, snap)
	return nil
}
