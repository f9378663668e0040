package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fzon/storefront/internal/client/models"
	"github.com/shopspring/decimal"
)

const timeLayout = "2006-01-02 15:04"

func CartSummary(d *models.OrderData) string {
	if d == nil || len(d.Items) == 0 {
		return styles.Muted.Render("Your cart is empty.")
	}

	lines := []string{styles.Title.Render(fmt.Sprintf("Cart (%d)", d.CartCount))}
	lines = append(lines, itemLines(d.Items)...)
	lines = append(lines, "Total: "+styles.Price.Render(money(d.Sum)))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func OrderList(orders []models.Order) string {
	if len(orders) == 0 {
		return styles.Muted.Render("No orders yet.")
	}

	blocks := make([]string, 0, len(orders))
	for _, o := range orders {
		head := fmt.Sprintf("%s  %s  %s  %s",
			styles.Title.Render(shortID(o.ID)),
			o.CreatedAt.Local().Format(timeLayout),
			orderStatus(o.Status),
			styles.Price.Render(money(o.Sum)),
		)
		lines := append([]string{head}, itemLines(o.Items)...)
		blocks = append(blocks, lipgloss.JoinVertical(lipgloss.Left, lines...))
	}
	return strings.Join(blocks, "\n\n")
}

func BalanceView(balance decimal.Decimal) string {
	return "Balance: " + styles.Price.Render(money(balance))
}

func itemLines(items []models.CartItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		name := it.Name
		if name == "" {
			name = it.Article
		}
		out = append(out, fmt.Sprintf("  %s %s × %d  %s",
			styles.Muted.Render("#"+it.Article), name, it.Quantity, money(it.Price)))
	}
	return out
}

func orderStatus(s models.OrderStatus) string {
	switch s {
	case models.OrderPaid:
		return styles.Success.Render(string(s))
	case models.OrderFailed:
		return styles.Error.Render(string(s))
	default:
		return styles.Warning.Render(string(s))
	}
}

func money(d decimal.Decimal) string { return d.StringFixed(2) + " ₽" }

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
