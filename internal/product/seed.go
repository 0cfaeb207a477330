package product

import (
	"context"
	"fmt"
	"log"

	"github.com/shopspring/decimal"
)

// ReferenceProducts returns the catalog a fresh install starts with: four
// products in each of five categories, every barcode distinct.
func ReferenceProducts() []Product {
	p := func(name, price string, stock int, barcode, category string) Product {
		return Product{
			Name:     name,
			Price:    decimal.RequireFromString(price),
			Stock:    stock,
			Barcode:  barcode,
			Category: category,
		}
	}
	return []Product{
		p("Intel Core i9-13900K", "589.99", 12, "CPU001", "CPUs"),
		p("AMD Ryzen 9 7950X", "549.99", 15, "CPU002", "CPUs"),
		p("Intel Core i7-13700K", "409.99", 20, "CPU003", "CPUs"),
		p("AMD Ryzen 7 7800X3D", "449.99", 18, "CPU004", "CPUs"),

		p("ASUS ROG Maximus Z790", "599.99", 8, "MB001", "Motherboards"),
		p("MSI MAG B650 Tomahawk", "249.99", 14, "MB002", "Motherboards"),
		p("Gigabyte X670 AORUS Elite", "329.99", 10, "MB003", "Motherboards"),
		p("ASRock B760M Pro", "159.99", 22, "MB004", "Motherboards"),

		p("Corsair Vengeance DDR5 32GB", "159.99", 30, "RAM001", "RAM"),
		p("G.Skill Trident Z5 RGB 64GB", "299.99", 15, "RAM002", "RAM"),
		p("Kingston Fury Beast 16GB", "79.99", 45, "RAM003", "RAM"),
		p("Crucial DDR4 32GB Kit", "89.99", 40, "RAM004", "RAM"),

		p("NVIDIA RTX 4090", "1599.99", 5, "GPU001", "Graphics Cards"),
		p("AMD RX 7900 XTX", "999.99", 8, "GPU002", "Graphics Cards"),
		p("NVIDIA RTX 4070 Ti", "799.99", 12, "GPU003", "Graphics Cards"),
		p("AMD RX 7800 XT", "499.99", 16, "GPU004", "Graphics Cards"),

		p("Samsung 990 PRO 2TB", "189.99", 25, "SSD001", "Storage"),
		p("WD Black SN850X 1TB", "119.99", 35, "SSD002", "Storage"),
		p("Crucial P5 Plus 500GB", "59.99", 50, "SSD003", "Storage"),
		p("Seagate BarraCuda 4TB HDD", "89.99", 20, "HDD001", "Storage"),
	}
}

// Seed fills an empty catalog with ReferenceProducts in one batch and
// returns how many rows it wrote. A catalog that already has rows is left
// untouched, so restarts never reseed. The caller must treat an error as
// fatal: the batch is all-or-nothing and is not retried.
func Seed(ctx context.Context, repo Repository) (int, error) {
	n, err := repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	if n > 0 {
		log.Printf("[seed] catalog already has %d products, skipping", n)
		return 0, nil
	}

	ps := ReferenceProducts()
	if err := repo.CreateBatch(ctx, ps); err != nil {
		return 0, fmt.Errorf("insert reference products: %w", err)
	}
	log.Printf("[seed] inserted %d reference products", len(ps))
	return len(ps), nil
}
