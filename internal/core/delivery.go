package core

import (
	"math"
	"strconv"
	"strings"

	"github.com/JonMunkholm/feedsync/internal/sheet"
)

// DeliveryMethod is one active delivery option attached to every stock entry.
type DeliveryMethod struct {
	Method string  `json:"method"`
	Price  float64 `json:"price"`
}

var deliveryActive = map[string]bool{"true": true, "1": true, "yes": true, "так": true}

// ParseDeliveryMethods reads [method, active, price] rows after the header
// and keeps the active ones that name a method. A price that does not parse
// becomes 0.
func ParseDeliveryMethods(t sheet.Table) []DeliveryMethod {
	out := []DeliveryMethod{}
	for _, row := range t.Data() {
		method := row.At(0).Trimmed()
		if method == "" || !deliveryActive[strings.ToLower(row.At(1).Trimmed())] {
			continue
		}
		out = append(out, DeliveryMethod{
			Method: method,
			Price:  deliveryPrice(row.At(2)),
		})
	}
	return out
}

func deliveryPrice(c sheet.Cell) float64 {
	if c.Kind == sheet.KindNumber {
		return c.Num
	}
	s := c.Trimmed()
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
