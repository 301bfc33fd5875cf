package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/ejamakovic/chat-app-FE/internal/client"
	"github.com/ejamakovic/chat-app-FE/internal/models"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			MarginTop(1)

	senderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	privateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Bold(true)

	timestampStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

// terminal renders client state as lines on out.
type terminal struct {
	mu  sync.Mutex
	out io.Writer
}

func newTerminal(out io.Writer) *terminal {
	return &terminal{out: out}
}

func (t *terminal) println(s string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, _ = fmt.Fprintln(t.out, s)
}

func (t *terminal) Errorf(format string, args ...any) {
	t.println(errorStyle.Render(fmt.Sprintf(format, args...)))
}

func (t *terminal) Transcript(peer string, msgs []models.Message) {
	title := "global"
	if peer != "" {
		title = "private: " + peer
	}
	t.println(headerStyle.Render("── " + title + " ──"))
	for _, m := range msgs {
		t.Message(m)
	}
}

func (t *terminal) Message(m models.Message) {
	style := senderStyle
	if m.IsPrivate() {
		style = privateStyle
	}
	line := style.Render(m.Sender.Username) + ": " + m.Content
	if !m.Timestamp.IsZero() {
		line = timestampStyle.Render(m.Timestamp.Local().Format("15:04")) + " " + line
	}
	t.println(line)
}

func (t *terminal) Presence(visible []string) {
	if len(visible) == 0 {
		t.println(metaStyle.Render("online: nobody else"))
		return
	}
	t.println(metaStyle.Render("online: " + strings.Join(visible, ", ")))
}

func (t *terminal) Notifications(items []client.Notification) {
	for _, n := range items {
		line := fmt.Sprintf("[%d] %s", n.ID, n.Text)
		if n.Actionable {
			line += fmt.Sprintf("  (/accept %s, /decline %s)", n.Request, n.Request)
		}
		t.println(noticeStyle.Render(line))
	}
}

func (t *terminal) Channel(state client.ChannelState) {
	style := metaStyle
	if state == client.ChannelClosed {
		style = errorStyle
	}
	t.println(style.Render("channel " + state.String()))
}

func (t *terminal) Unread(counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	peers := slices.Sorted(maps.Keys(counts))
	parts := lo.Map(peers, func(p string, _ int) string {
		return fmt.Sprintf("%s (%d)", p, counts[p])
	})
	t.println(noticeStyle.Render("unread: " + strings.Join(parts, ", ")))
}

// Users prints the online users with their unread counts and pending
// requests.
func (t *terminal) Users(state client.Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()

	table := tablewriter.NewWriter(t.out)
	table.SetHeader([]string{"User", "Unread", "Request"})

	users := lo.Uniq(append(append(slices.Clone(state.Visible), lo.Keys(state.Unread)...), state.Pending...))
	slices.Sort(users)
	for _, u := range users {
		name, request := u, ""
		if u == state.ActivePeer {
			name += " *"
		}
		if slices.Contains(state.Pending, u) {
			request = "pending"
		}
		table.Append([]string{name, strconv.Itoa(state.Unread[u]), request})
	}
	table.Render()
}

func (t *terminal) Help() {
	t.println(metaStyle.Render("/global  /open <user>  /request <user>  /accept <user>  /decline <user>  /dismiss <id>  /users  /quit"))
}
