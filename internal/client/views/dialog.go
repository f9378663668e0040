package views

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fzon/storefront/internal/client/authgate"
)

// AuthDialog renders the login/registration modal from a gate state.
func AuthDialog(s authgate.State) string {
	title, switchHint := "Sign in", "no account yet? type 'switch' to register"
	fields := []string{authgate.FieldLogin, authgate.FieldPassword}
	if s.Mode == authgate.ModeRegister {
		title, switchHint = "Create account", "already registered? type 'switch' to sign in"
		fields = []string{authgate.FieldName, authgate.FieldLogin, authgate.FieldPassword}
	}

	lines := []string{styles.Title.Render(title)}
	for _, f := range fields {
		line := "  " + f
		if msg, ok := s.Errors[f]; ok {
			line += "  " + styles.Error.Render(msg)
		}
		lines = append(lines, line)
	}
	if msg, ok := s.Errors[authgate.FieldGeneral]; ok {
		lines = append(lines, styles.Error.Render(msg))
	}
	lines = append(lines, styles.Muted.Render(switchHint))

	return styles.Dialog.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// FieldErrors renders only the error lines, for re-prompting after a failed
// submit.
func FieldErrors(errs map[string]string) string {
	order := []string{authgate.FieldName, authgate.FieldLogin, authgate.FieldPassword, authgate.FieldGeneral}
	var b strings.Builder
	for _, f := range order {
		msg, ok := errs[f]
		if !ok {
			continue
		}
		if f == authgate.FieldGeneral {
			b.WriteString(styles.Error.Render(msg) + "\n")
			continue
		}
		b.WriteString(styles.Error.Render(f+": "+msg) + "\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}
