package views

import (
	"errors"

	"github.com/fzon/storefront/internal/client/cart"
)

// OutcomeMessage describes a cart outcome to the user. Applied and stale
// outcomes need no message; the grid line already shows the result.
func OutcomeMessage(o cart.Outcome, err error) string {
	switch o {
	case cart.OutcomeAuthRequired:
		return styles.Warning.Render("Sign in to change your cart.")
	case cart.OutcomeRejected:
		if err != nil {
			return styles.Error.Render(err.Error())
		}
		return styles.Muted.Render("Nothing to remove.")
	case cart.OutcomeInvalidated:
		return styles.Warning.Render("Your session has expired. Please sign in again.")
	case cart.OutcomeFailed:
		if errors.Is(err, cart.ErrTimeout) {
			return styles.Error.Render("The cart did not answer in time. Try again.")
		}
		return styles.Error.Render("Could not update the cart. Try again later.")
	}
	return ""
}
