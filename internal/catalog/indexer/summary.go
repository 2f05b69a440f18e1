package indexer

import (
	"fmt"
	"strconv"
	"strings"

	"catalog-fulfillment/internal/catalog"
)

const releaseDateLayout = "2006-01-02"

// Summary renders the text that represents a product in the semantic index.
func Summary(p catalog.Product) string {
	releaseDate := ""
	if !p.ReleaseDate.IsZero() {
		releaseDate = p.ReleaseDate.Format(releaseDateLayout)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Product Name: %s\n", p.Name)
	fmt.Fprintf(&b, "Description: %s\n", p.Description)
	fmt.Fprintf(&b, "Brand: %s\n", p.Brand)
	fmt.Fprintf(&b, "Category: %s\n", p.Category)
	fmt.Fprintf(&b, "Price: %s\n", p.Price.StringFixed(2))
	fmt.Fprintf(&b, "Release Date: %s\n", releaseDate)
	fmt.Fprintf(&b, "Available: %s\n", strconv.FormatBool(p.ProductAvailable))
	fmt.Fprintf(&b, "Stock: %d\n", p.StockQuantity)
	return b.String()
}
