package shop

import "chatshop/internal/domain"

type CartLine struct {
	Product  domain.Product
	Quantity int
}

// Subtotal is unit price times quantity.
func (l CartLine) Subtotal() domain.Money {
	return l.Product.PriceOrZero().Mul(l.Quantity)
}

// Cart maps the chat message showing a product to the quantity chosen for it.
type Cart struct {
	lines map[int]*CartLine
	order []int
}

func NewCart() *Cart { return &Cart{lines: map[int]*CartLine{}} }

// Track registers the product displayed in messageID with quantity zero.
func (c *Cart) Track(messageID int, p domain.Product) {
	if _, ok := c.lines[messageID]; !ok {
		c.order = append(c.order, messageID)
	}
	c.lines[messageID] = &CartLine{Product: p}
}

func (c *Cart) Line(messageID int) (CartLine, bool) {
	l, ok := c.lines[messageID]
	if !ok {
		return CartLine{}, false
	}
	return *l, true
}

// Add increments the quantity; ok is false for unknown messages.
func (c *Cart) Add(messageID int) (qty int, ok bool) {
	l, ok := c.lines[messageID]
	if !ok {
		return 0, false
	}
	l.Quantity++
	return l.Quantity, true
}

// Remove decrements the quantity; ok is false for unknown messages or a quantity already at zero.
func (c *Cart) Remove(messageID int) (qty int, ok bool) {
	l, ok := c.lines[messageID]
	if !ok || l.Quantity == 0 {
		return 0, false
	}
	l.Quantity--
	return l.Quantity, true
}

func (c *Cart) Total() domain.Money {
	var sum domain.Money
	for _, l := range c.lines {
		sum = sum.Add(l.Subtotal())
	}
	return sum
}

// Lines returns the lines with a positive quantity in display order.
func (c *Cart) Lines() []CartLine {
	var out []CartLine
	for _, id := range c.order {
		if l := c.lines[id]; l.Quantity > 0 {
			out = append(out, *l)
		}
	}
	return out
}

func (c *Cart) Empty() bool { return len(c.Lines()) == 0 }
