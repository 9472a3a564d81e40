package catalog

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/benjamincozon/shopassist/internal/models"
)

// Issue severities
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Issue is one validation finding for a product
type Issue struct {
	ProductID string `json:"product_id"`
	Field     string `json:"field"`
	Message   string `json:"message"`
	Severity  string `json:"severity"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s [%s] %s: %s", i.Severity, i.ProductID, i.Field, i.Message)
}

// discountTolerance is how far a stored discount rate may drift from the
// rate implied by the prices before a warning is raised
const discountTolerance = 1

// Validate checks products and returns normalized copies.
// Errors reject the whole catalog; warnings are fixed up or accepted as-is.
func Validate(products []models.Product) ([]models.Product, []Issue, error) {
	var issues []Issue
	seen := make(map[string]bool, len(products))
	out := make([]models.Product, 0, len(products))

	for i, p := range products {
		id := strings.TrimSpace(p.ID)
		if id == "" {
			issues = append(issues, Issue{ProductID: fmt.Sprintf("#%d", i), Field: "id", Message: "missing id", Severity: SeverityError})
			continue
		}
		p.ID = id
		if seen[id] {
			issues = append(issues, Issue{ProductID: id, Field: "id", Message: "duplicate id", Severity: SeverityError})
			continue
		}
		seen[id] = true

		if p.Price <= 0 {
			issues = append(issues, Issue{ProductID: id, Field: "price", Message: "price must be positive", Severity: SeverityError})
		}
		if p.Rating < 0 || p.Rating > 5 {
			issues = append(issues, Issue{ProductID: id, Field: "rating", Message: "rating must be within [0,5]", Severity: SeverityError})
		}
		if p.ReviewCount < 0 {
			issues = append(issues, Issue{ProductID: id, Field: "review_count", Message: "review count must not be negative", Severity: SeverityError})
		}

		if p.OriginalPrice != nil && *p.OriginalPrice <= p.Price {
			issues = append(issues, Issue{ProductID: id, Field: "original_price", Message: "original price not above price, dropped", Severity: SeverityWarning})
			p.OriginalPrice = nil
		}

		if p.DiscountRate != nil && p.OriginalPrice != nil {
			implied := math.Round((*p.OriginalPrice - p.Price) / *p.OriginalPrice * 100)
			if math.Abs(implied-float64(*p.DiscountRate)) > discountTolerance {
				issues = append(issues, Issue{
					ProductID: id,
					Field:     "discount_rate",
					Message:   fmt.Sprintf("stored rate %d%% differs from price delta %.0f%%, keeping stored rate", *p.DiscountRate, implied),
					Severity:  SeverityWarning,
				})
			}
		}
		if p.DiscountRate != nil && (*p.DiscountRate < 0 || *p.DiscountRate >= 100) {
			issues = append(issues, Issue{ProductID: id, Field: "discount_rate", Message: "discount rate must be within [0,100)", Severity: SeverityError})
		}

		p.Description = PlainText(p.Description)
		out = append(out, p)
	}

	var errs []error
	for _, is := range issues {
		if is.Severity == SeverityError {
			errs = append(errs, errors.New(is.String()))
		}
	}
	if len(errs) > 0 {
		return nil, issues, fmt.Errorf("invalid catalog: %w", errors.Join(errs...))
	}
	return out, issues, nil
}
