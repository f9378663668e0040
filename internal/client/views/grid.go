package views

import (
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/fzon/storefront/internal/client/cart"
	"github.com/fzon/storefront/internal/client/catalog"
	"github.com/fzon/storefront/internal/client/models"
)

const cardWidth = 28

// Control is one clickable element of a cell. The command is fixed when the
// cell is built, so dispatch never depends on how the cell was drawn.
type Control struct {
	Label   string
	Command cart.Command
}

type Cell struct {
	Product  models.Product
	Controls []Control
}

// NewCell shows the add affordance at zero and a stepper otherwise.
func NewCell(p models.Product) Cell {
	if p.Quantity == 0 {
		return Cell{Product: p, Controls: []Control{{Label: "add to cart", Command: cart.CommandAdd}}}
	}
	return Cell{Product: p, Controls: []Control{
		{Label: "-", Command: cart.CommandDecrease},
		{Label: "+", Command: cart.CommandIncrease},
	}}
}

// Command looks up the control with the given label.
func (c Cell) Command(label string) (cart.Command, bool) {
	for _, ctl := range c.Controls {
		if ctl.Label == label {
			return ctl.Command, true
		}
	}
	return 0, false
}

func (c Cell) Render() string {
	p := c.Product
	name := p.Name
	if name == "" {
		name = p.Article
	}

	rows := []string{
		styles.Price.Render(p.Price.StringFixed(2) + " ₽"),
		styles.Title.Render(name),
		styles.Muted.Render(p.SellerName),
		fmt.Sprintf("★ %.1f  %s", p.Rating, styles.Muted.Render("#"+p.Article)),
		c.renderControls(),
	}
	return styles.Card.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (c Cell) renderControls() string {
	if len(c.Controls) == 1 {
		return styles.Button.Render("[ " + c.Controls[0].Label + " ]")
	}
	return styles.Button.Render("[-]") + " " + strconv.Itoa(c.Product.Quantity) + " " + styles.Button.Render("[+]")
}

// ProductGrid renders the catalog from the shared cache and remembers which
// articles changed since the last Drain.
type ProductGrid struct {
	cache   *catalog.Cache
	columns int

	mu          sync.Mutex
	dirty       map[string]struct{}
	reloaded    bool
	unsubscribe func()
}

func NewProductGrid(c *catalog.Cache, columns int) *ProductGrid {
	if columns < 1 {
		columns = 1
	}
	g := &ProductGrid{cache: c, columns: columns, dirty: map[string]struct{}{}}
	g.unsubscribe = c.Subscribe(g.onChange)
	return g
}

func (g *ProductGrid) onChange(ch catalog.Change) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if ch.Reloaded {
		g.reloaded = true
		g.dirty = map[string]struct{}{}
		return
	}
	g.dirty[ch.Article] = struct{}{}
}

func (g *ProductGrid) Close() { g.unsubscribe() }

// Drain returns the articles updated since the previous call, sorted, and
// whether the whole catalog was reloaded in between.
func (g *ProductGrid) Drain() (articles []string, reloaded bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for a := range g.dirty {
		articles = append(articles, a)
	}
	sort.Strings(articles)
	reloaded = g.reloaded
	g.dirty = map[string]struct{}{}
	g.reloaded = false
	return articles, reloaded
}

func (g *ProductGrid) Cell(article string) (Cell, bool) {
	p, ok := g.cache.Product(article)
	if !ok {
		return Cell{}, false
	}
	return NewCell(p), true
}

func (g *ProductGrid) Render() string {
	products := g.cache.Products()
	if len(products) == 0 {
		return styles.Muted.Render("The catalog is empty.")
	}

	var rows []string
	for i := 0; i < len(products); i += g.columns {
		end := min(i+g.columns, len(products))
		cells := make([]string, 0, end-i)
		for _, p := range products[i:end] {
			cells = append(cells, NewCell(p).Render())
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// RenderLine is the compact form of a cell used after a quantity change.
func (g *ProductGrid) RenderLine(article string) string {
	c, ok := g.Cell(article)
	if !ok {
		return styles.Muted.Render(article + ": not in catalog")
	}
	label := c.Product.Name
	if label == "" {
		label = article
	}
	return fmt.Sprintf("%s %s  %s", styles.Muted.Render("#"+article), label, c.renderControls())
}
