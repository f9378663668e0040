package views

import (
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/fzon/storefront/internal/client/session"
)

// SessionSource is implemented by *session.Guard.
type SessionSource interface {
	Snapshot() session.Snapshot
	Subscribe(fn session.Listener) func()
}

// NavBar shows the brand, the signed-in user and the cart badge. It keeps the
// last snapshot it was notified with.
type NavBar struct {
	mu          sync.Mutex
	snap        session.Snapshot
	unsubscribe func()
}

func NewNavBar(src SessionSource) *NavBar {
	n := &NavBar{snap: src.Snapshot()}
	n.unsubscribe = src.Subscribe(n.update)
	return n
}

func (n *NavBar) update(s session.Snapshot) {
	n.mu.Lock()
	n.snap = s
	n.mu.Unlock()
}

func (n *NavBar) Close() { n.unsubscribe() }

func (n *NavBar) Render() string {
	n.mu.Lock()
	s := n.snap
	n.mu.Unlock()

	user := "Sign in"
	if s.Status == session.Authenticated {
		user = s.Username
	}

	cartItem := "Cart"
	if b := Badge(s.CartCount); b != "" {
		cartItem += " " + b
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		styles.Logo.Render("fzon"),
		styles.NavItem.Render(user),
		styles.NavItem.Render("Orders"),
		styles.NavItem.Render(cartItem),
	)
}

// Badge renders the cart counter. It is empty at zero and uses the wide form
// for two or more digits.
func Badge(count int) string {
	if count <= 0 {
		return ""
	}
	s := strconv.Itoa(count)
	if count > 9 {
		return styles.BadgeWide.Render(s)
	}
	return styles.Badge.Render(s)
}

// Status renders a one-line session summary for the REPL prompt area.
func Status(s session.Snapshot, online bool) string {
	var b strings.Builder
	if s.Status == session.Authenticated {
		b.WriteString(styles.Success.Render("● " + s.Username))
	} else if s.HasToken {
		b.WriteString(styles.Warning.Render("○ unverified session"))
	} else {
		b.WriteString(styles.Muted.Render("○ signed out"))
	}
	if !online {
		b.WriteString(" " + styles.Warning.Render("(offline)"))
	}
	return b.String()
}
