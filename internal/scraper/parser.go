package scraper

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ParseRating ищет элемент по селектору в отрендеренном HTML и читает число из его текста
func ParseRating(html, selector string) (float64, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0, fmt.Errorf("failed to parse HTML: %w", err)
	}

	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return 0, fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}

	text := strings.TrimSpace(sel.Text())
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRating, text)
	}

	return value, nil
}
