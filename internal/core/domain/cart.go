package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type CartItem struct {
	ID        string  `json:"id"`
	CartID    string  `json:"cartId"`
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	Product   Product `json:"product"`
}

type Cart struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	Version   int64      `json:"version"` // optimistic locking
	Items     []CartItem `json:"items"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Total sums quantity × current product price. It is the display total; an
// order computed from the same cart uses the same arithmetic.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// MarshalJSON adds the display total to the wire form.
func (c Cart) MarshalJSON() ([]byte, error) {
	type plain Cart
	return json.Marshal(struct {
		plain
		Total decimal.Decimal `json:"total"`
	}{plain(c), c.Total()})
}
