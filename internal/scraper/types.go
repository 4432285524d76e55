package scraper

import "errors"

var (
	// ErrSessionNotOpen FetchAll вызван до Open: ошибка использования, навигации не было
	ErrSessionNotOpen = errors.New("browser session is not open, call Open first")
	// ErrElementNotFound на странице нет элемента с рейтингом
	ErrElementNotFound = errors.New("rating element not found")
	// ErrInvalidRating текст элемента не число
	ErrInvalidRating = errors.New("rating text is not a number")
)
