// Package authgate implements the login/registration dialog that blocks cart
// actions until the session is authenticated.
package authgate

import (
	"context"
	"errors"
	"maps"
	"strings"
	"sync"

	"github.com/fzon/storefront/internal/client/client"
	"github.com/fzon/storefront/internal/client/models"
	"github.com/fzon/storefront/internal/common"
	"github.com/fzon/storefront/internal/logging"
)

// ErrValidation is returned by Submit when a required field is empty. No
// request is sent in that case.
var ErrValidation = common.ErrValidation

const (
	FieldName     = "name"
	FieldLogin    = "login"
	FieldPassword = "password"
	FieldGeneral  = common.GeneralErrorField
)

const (
	msgRequired    = "required"
	msgUnavailable = "server unavailable, try again later"
	msgUnverified  = "signed in, but the session could not be verified"
	msgUnknown     = "something went wrong"
)

type Mode int

const (
	ModeLogin Mode = iota
	ModeRegister
)

func (m Mode) String() string {
	if m == ModeRegister {
		return "register"
	}
	return "login"
}

type Form struct {
	Name     string
	Login    string
	Password string
}

type Authenticator interface {
	Login(ctx context.Context, login, password string) (string, error)
	Register(ctx context.Context, name, login, password string) (string, error)
}

// TokenAcceptor is implemented by *session.Guard.
type TokenAcceptor interface {
	Accept(ctx context.Context, token string) (models.Profile, error)
}

// State is a copy of the dialog state handed to listeners.
type State struct {
	Mode    Mode
	Visible bool
	Errors  map[string]string
}

type Listener func(State)

type Gate struct {
	api     Authenticator
	session TokenAcceptor
	logger  logging.Logger

	mu      sync.Mutex
	mode    Mode
	visible bool
	errs    map[string]string

	lmu       sync.Mutex
	listeners map[int]Listener
	nextID    int
}

func New(api Authenticator, session TokenAcceptor, logger logging.Logger) *Gate {
	return &Gate{
		api:       api,
		session:   session,
		logger:    logger.With("module", "authgate"),
		errs:      map[string]string{},
		listeners: map[int]Listener{},
	}
}

func (g *Gate) Show() {
	g.mu.Lock()
	g.visible = true
	g.mu.Unlock()
	g.notify()
}

func (g *Gate) Hide() {
	g.mu.Lock()
	g.visible = false
	g.errs = map[string]string{}
	g.mu.Unlock()
	g.notify()
}

func (g *Gate) Visible() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.visible
}

func (g *Gate) Mode() Mode {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.mode
}

// Toggle switches between login and registration and clears all errors.
func (g *Gate) Toggle() {
	g.mu.Lock()
	if g.mode == ModeLogin {
		g.mode = ModeRegister
	} else {
		g.mode = ModeLogin
	}
	g.errs = map[string]string{}
	g.mu.Unlock()
	g.notify()
}

// SetMode is Toggle to a known mode. It is a no-op when already there.
func (g *Gate) SetMode(m Mode) {
	if g.Mode() != m {
		g.Toggle()
	}
}

// Errors returns a copy of the current field errors.
func (g *Gate) Errors() map[string]string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return maps.Clone(g.errs)
}

func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return State{Mode: g.mode, Visible: g.visible, Errors: maps.Clone(g.errs)}
}

// Submit validates the form, calls login or registration depending on the
// mode and hands the issued token to the session. The dialog is hidden on
// success. Failures are recorded as field errors and returned.
func (g *Gate) Submit(ctx context.Context, f Form) error {
	g.mu.Lock()
	mode := g.mode
	g.errs = missingFields(mode, f)
	invalid := len(g.errs) > 0
	g.mu.Unlock()
	g.notify()

	if invalid {
		return ErrValidation
	}

	var (
		token string
		err   error
	)
	if mode == ModeRegister {
		token, err = g.api.Register(ctx, strings.TrimSpace(f.Name), strings.TrimSpace(f.Login), f.Password)
	} else {
		token, err = g.api.Login(ctx, strings.TrimSpace(f.Login), f.Password)
	}
	if err != nil {
		g.logger.Info(ctx, "authentication rejected", "mode", mode.String(), "err", err)
		g.setError(errorField(err))
		return err
	}

	if _, err := g.session.Accept(ctx, token); err != nil {
		g.logger.Warn(ctx, "new token not verified", "err", err)
		g.setError(FieldGeneral, msgUnverified)
		return err
	}

	g.Hide()
	return nil
}

func missingFields(mode Mode, f Form) map[string]string {
	errs := map[string]string{}
	if mode == ModeRegister && strings.TrimSpace(f.Name) == "" {
		errs[FieldName] = msgRequired
	}
	if strings.TrimSpace(f.Login) == "" {
		errs[FieldLogin] = msgRequired
	}
	if f.Password == "" {
		errs[FieldPassword] = msgRequired
	}
	return errs
}

// errorField maps an authentication failure to the slot it is shown in.
func errorField(err error) (string, string) {
	var fe *client.FieldError
	switch {
	case errors.As(err, &fe) && fe.Field != "":
		return fe.Field, fe.Message
	case errors.As(err, &fe) && fe.Message != "":
		return FieldGeneral, fe.Message
	case errors.Is(err, client.ErrUnavailable):
		return FieldGeneral, msgUnavailable
	default:
		return FieldGeneral, msgUnknown
	}
}

func (g *Gate) setError(field, msg string) {
	g.mu.Lock()
	g.errs[field] = msg
	g.mu.Unlock()
	g.notify()
}

func (g *Gate) Subscribe(fn Listener) func() {
	g.lmu.Lock()
	id := g.nextID
	g.nextID++
	g.listeners[id] = fn
	g.lmu.Unlock()

	return func() {
		g.lmu.Lock()
		delete(g.listeners, id)
		g.lmu.Unlock()
	}
}

func (g *Gate) notify() {
	g.lmu.Lock()
	defer g.lmu.Unlock()

	s := g.State()
	for _, l := range g.listeners {
		l(s)
	}
}
