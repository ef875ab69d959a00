package httpapi

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/filter"
)

const maxPerPage = 100

// maxPage keeps (page-1)*per_page inside a postgres bigint offset.
const maxPage = math.MaxInt64 / maxPerPage

// parseProductQuery validates the listing query string. Parameters outside the
// filter whitelist are left for the composer to ignore.
func parseProductQuery(q url.Values) (filter.Values, catalog.Page, *validationError) {
	values := filter.Values{}
	errs := newValidationError()

	if raw := listParam(q, string(filter.KeyCategories)); len(raw) > 0 {
		ids := make([]int64, 0, len(raw))
		for i, s := range raw {
			id, err := strconv.ParseInt(s, 10, 64)
			if err != nil || id <= 0 {
				errs.Add(fmt.Sprintf("categories.%d", i), fmt.Sprintf("The categories.%d field must be an integer.", i))
				continue
			}
			ids = append(ids, id)
		}
		values[filter.KeyCategories] = ids
	}

	if raw := listParam(q, string(filter.KeyPrices)); len(raw) > 0 {
		if len(raw) != 2 {
			errs.Add("prices", "The prices field must contain 2 items.")
		} else {
			low, errLow := strconv.ParseFloat(raw[0], 64)
			high, errHigh := strconv.ParseFloat(raw[1], 64)
			switch {
			case errLow != nil:
				errs.Add("prices.0", "The prices.0 field must be a number.")
			case errHigh != nil:
				errs.Add("prices.1", "The prices.1 field must be a number.")
			default:
				values[filter.KeyPrices] = filter.PriceRange{Low: low, High: high}
			}
		}
	}

	if q.Has(string(filter.KeySortBy)) {
		values[filter.KeySortBy] = q.Get(string(filter.KeySortBy))
	}

	if title := strings.TrimSpace(q.Get(string(filter.KeyTitle))); title != "" {
		if len(title) > 255 {
			errs.Add("title", "The title field must not be greater than 255 characters.")
		} else {
			values[filter.KeyTitle] = title
		}
	}

	if raw := q.Get(string(filter.KeyHighRated)); raw != "" {
		on, ok := parseBool(raw)
		if !ok {
			errs.Add("highRated", "The highRated field must be true or false.")
		} else {
			values[filter.KeyHighRated] = on
		}
	}

	var page catalog.Page
	if raw := q.Get("per_page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxPerPage {
			errs.Add("per_page", fmt.Sprintf("The per page field must be between 1 and %d.", maxPerPage))
		} else {
			page.PerPage = n
			page.Page = 1
		}
	}
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		tooLarge := (err == nil && n > maxPage) ||
			(errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(raw, "-"))
		switch {
		case tooLarge:
			errs.Add("page", fmt.Sprintf("The page field must not be greater than %d.", maxPage))
		case err != nil || n < 1:
			errs.Add("page", "The page field must be at least 1.")
		case page.PerPage > 0:
			page.Page = n
		}
	}

	if !errs.Empty() {
		return nil, catalog.Page{}, errs
	}
	return values, page, nil
}

// listParam accepts key=1&key=2, key[]=1&key[]=2 and key=1,2.
func listParam(q url.Values, key string) []string {
	var out []string
	for _, v := range append(q[key], q[key+"[]"]...) {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "on", "yes":
		return true, true
	case "0", "false", "off", "no":
		return false, true
	default:
		return false, false
	}
}
