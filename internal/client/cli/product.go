package cli

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/fzon/storefront/internal/client/client"
	"github.com/fzon/storefront/internal/client/models"
	"github.com/shopspring/decimal"
)

// AddProduct asks for a new listing field by field and submits it. An empty
// name cancels. Price and rating are checked for format here; the server
// validates ranges and reports the offending field.
func (a *App) AddProduct(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Product name (empty to cancel)", os.Stdout)
	if err != nil {
		return err
	}
	if strings.TrimSpace(name) == "" {
		printlnFn("Cancelled.")
		return nil
	}

	answers := make([]string, 4)
	for i, prompt := range []string{"Price", "Description", "Seller name", "Rating (1-5)"} {
		if answers[i], err = getSimpleText(a.reader, prompt, os.Stdout); err != nil {
			return err
		}
	}

	price, err := decimal.NewFromString(answers[0])
	if err != nil {
		printlnFn("Invalid price:", answers[0])
		return nil
	}
	rating, err := strconv.ParseFloat(answers[3], 64)
	if err != nil {
		printlnFn("Invalid rating:", answers[3])
		return nil
	}

	err = a.storefront.AddProduct(ctx, models.NewProduct{
		Name:        strings.TrimSpace(name),
		Price:       price,
		Description: answers[1],
		SellerName:  answers[2],
		Rating:      rating,
	})
	var fe *client.FieldError
	switch {
	case err == nil:
		printlnFn("Product listed.")
		return nil
	case errors.As(err, &fe):
		printlnFn("Rejected:", fe.Error())
		return err
	}
	return a.handleErr(ctx, err)
}
