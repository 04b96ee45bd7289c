package roster

import "github.com/jmcleod/clubdesk/api"

// User-visible texts produced by rendering.
const (
	MsgLoadFailed     = "Failed to load activities. Please try again later."
	MsgNoParticipants = "No participants yet"
)

// View is one complete rendering of the roster. It is rebuilt from scratch
// on every fetch and never patched.
type View struct {
	Cards []Card `json:"cards"`
	// Options lists the activity names offered by the signup form.
	Options []string `json:"options"`
	// Failure replaces the list when the last fetch failed.
	Failure string `json:"failure,omitempty"`
}

// Card is the rendering of one activity.
type Card struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	Schedule        string `json:"schedule"`
	MaxParticipants int    `json:"max_participants"`
	// SpotsLeft may be negative if the service over-filled the activity.
	SpotsLeft    int    `json:"spots_left"`
	Participants []Row  `json:"participants"`
	Placeholder  string `json:"placeholder,omitempty"`
}

// Row is one participant line.
type Row struct {
	Email string `json:"email"`
	// Removable is true only when the viewer is a signed-in teacher.
	Removable bool `json:"removable"`
}

// Removable counts the removal controls across the whole view.
func (v View) Removable() int {
	n := 0
	for _, c := range v.Cards {
		for _, r := range c.Participants {
			if r.Removable {
				n++
			}
		}
	}
	return n
}

// Gated returns v with every removal control dropped unless authenticated.
// Rows are fixed when a fetch completes, so readers gate them again against
// the session as it is now.
func (v View) Gated(authenticated bool) View {
	if authenticated || v.Removable() == 0 {
		return v
	}
	cards := make([]Card, len(v.Cards))
	for i, c := range v.Cards {
		rows := make([]Row, len(c.Participants))
		for j, r := range c.Participants {
			rows[j] = Row{Email: r.Email}
		}
		c.Participants = rows
		cards[i] = c
	}
	v.Cards = cards
	return v
}

// Card returns the card for the named activity.
func (v View) Card(name string) (Card, bool) {
	for _, c := range v.Cards {
		if c.Name == name {
			return c, true
		}
	}
	return Card{}, false
}

// Render builds the view of roster for a viewer whose authentication state is
// authenticated.
func Render(roster api.Roster, authenticated bool) View {
	v := View{
		Cards:   make([]Card, 0, len(roster)),
		Options: make([]string, 0, len(roster)),
	}
	for _, a := range roster {
		card := Card{
			Name:            a.Name,
			Description:     a.Description,
			Schedule:        a.Schedule,
			MaxParticipants: a.MaxParticipants,
			SpotsLeft:       a.MaxParticipants - len(a.Participants),
			Participants:    make([]Row, 0, len(a.Participants)),
		}
		for _, email := range a.Participants {
			card.Participants = append(card.Participants, Row{Email: email, Removable: authenticated})
		}
		if len(card.Participants) == 0 {
			card.Placeholder = MsgNoParticipants
		}
		v.Cards = append(v.Cards, card)
		v.Options = append(v.Options, a.Name)
	}
	return v
}

// failedView replaces the list with the failure message. The signup form's
// options are left as they were.
func failedView(options []string) View {
	if options == nil {
		options = []string{}
	}
	return View{Cards: []Card{}, Options: options, Failure: MsgLoadFailed}
}
