package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"ms-landing/internal/models"
)

var ErrUnknownProduct = errors.New("unknown product")

// DefaultPrices maps each sellable product keyword to its Stripe price ID.
var DefaultPrices = map[string]string{
	"ebook":      "price_1Rs9nT2Lo3O3SUleb4s6gV43",
	"planilhas2": "price_1S6YZB2Lo3O3SUlelY52DkRf",
	"planilhas3": "price_1S6Ybs2Lo3O3SUleudFueBxH",
}

type Catalog struct {
	prices map[string]string
}

func New(prices map[string]string) *Catalog {
	c := &Catalog{prices: make(map[string]string, len(prices))}
	for k, v := range prices {
		c.prices[k] = v
	}
	return c
}

// Parse builds a catalog from the defaults, overridden by the entries in list,
// written as "key=price_id,key=price_id".
func Parse(list string) (*Catalog, error) {
	c := New(DefaultPrices)
	if strings.TrimSpace(list) == "" {
		return c, nil
	}

	for _, entry := range strings.Split(list, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		key, price, ok := strings.Cut(entry, "=")
		key, price = strings.TrimSpace(key), strings.TrimSpace(price)
		if !ok || key == "" || price == "" {
			return nil, fmt.Errorf("invalid product price entry %q", entry)
		}
		c.prices[key] = price
	}
	return c, nil
}

// Lookup returns the product for an exact keyword match.
func (c *Catalog) Lookup(key string) (models.Product, error) {
	price, ok := c.prices[key]
	if !ok {
		return models.Product{}, fmt.Errorf("%w: %q", ErrUnknownProduct, key)
	}
	return models.Product{Key: key, PriceID: price}, nil
}

func (c *Catalog) Products() []models.Product {
	keys := make([]string, 0, len(c.prices))
	for k := range c.prices {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	products := make([]models.Product, 0, len(keys))
	for _, k := range keys {
		products = append(products, models.Product{Key: k, PriceID: c.prices[k]})
	}
	return products
}
