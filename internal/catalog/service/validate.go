package service

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Skotchmaster/repair_shop/internal/apperr"
	"github.com/Skotchmaster/repair_shop/internal/catalog/repo"
	"github.com/Skotchmaster/repair_shop/internal/catalog/transport"
)

const (
	maxNameLength = 255
	// decimal(10,2)
	maxPrice = 99999999.99
)

// validateModel checks the request shape and returns the input ready for the
// repository. Product existence is checked separately.
func validateModel(req transport.ModelRequest, requireVariants bool) (repo.ModelInput, apperr.ValidationErrors) {
	verr := apperr.ValidationErrors{}

	if req.ProductID == 0 {
		verr.Add("product_id", "The product id field is required.")
	}

	name := strings.TrimSpace(req.Name)
	switch {
	case name == "":
		verr.Add("name", "The name field is required.")
	case utf8.RuneCountInString(name) > maxNameLength:
		verr.Add("name", "The name may not be greater than 255 characters.")
	}

	switch {
	case req.Variants == nil:
		verr.Add("variants", "The variants field is required.")
	case requireVariants && len(req.Variants) == 0:
		verr.Add("variants", "The variants must have at least 1 items.")
	}

	variants := make([]repo.Variant, 0, len(req.Variants))
	for i, v := range req.Variants {
		labelKey := fmt.Sprintf("variants.%d.option.label", i)
		priceKey := fmt.Sprintf("variants.%d.price", i)

		label := strings.TrimSpace(v.Option.Label)
		switch {
		case label == "":
			verr.Add(labelKey, fmt.Sprintf("The %s field is required.", labelKey))
		case utf8.RuneCountInString(label) > maxNameLength:
			verr.Add(labelKey, fmt.Sprintf("The %s may not be greater than 255 characters.", labelKey))
		}

		price, msg := parsePrice(v.Price, priceKey)
		if msg != "" {
			verr.Add(priceKey, msg)
		}
		variants = append(variants, repo.Variant{Label: label, Price: price})
	}

	if len(verr) > 0 {
		return repo.ModelInput{}, verr
	}
	return repo.ModelInput{
		ProductID:   req.ProductID,
		Name:        name,
		Description: req.Description,
		Variants:    variants,
	}, nil
}

func parsePrice(raw *json.Number, key string) (float64, string) {
	if raw == nil || raw.String() == "" {
		return 0, fmt.Sprintf("The %s field is required.", key)
	}
	price, err := strconv.ParseFloat(raw.String(), 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, fmt.Sprintf("The %s must be a number.", key)
	}
	if price < 0 {
		return 0, fmt.Sprintf("The %s must be at least 0.", key)
	}
	if price > maxPrice {
		return 0, fmt.Sprintf("The %s may not be greater than %.2f.", key, maxPrice)
	}
	return price, ""
}

func validateProduct(req transport.CreateProductRequest) apperr.ValidationErrors {
	verr := apperr.ValidationErrors{}
	name := strings.TrimSpace(req.Name)
	switch {
	case name == "":
		verr.Add("name", "The name field is required.")
	case utf8.RuneCountInString(name) > maxNameLength:
		verr.Add("name", "The name may not be greater than 255 characters.")
	}
	for field, v := range map[string]string{"category": req.Category, "brand": req.Brand} {
		if utf8.RuneCountInString(v) > maxNameLength {
			verr.Add(field, fmt.Sprintf("The %s may not be greater than 255 characters.", field))
		}
	}
	return verr
}
