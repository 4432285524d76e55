package checksum

import (
	"crypto/sha256"
	"fmt"

	"tvratings-parser/internal/ratings"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// GenerateRatingHash генерирует SHA256 хеш значения канала
// Формула: SHA256(timestamp|code|value)
func (g *Generator) GenerateRatingHash(timestamp, code string, value float64) string {
	content := fmt.Sprintf("%s|%s|%s", timestamp, code, ratings.FormatValue(value))

	hash := sha256.Sum256([]byte(content))

	return fmt.Sprintf("%x", hash)
}

// VerifyRatingHash проверяет соответствие хеша
func (g *Generator) VerifyRatingHash(expectedHash, timestamp, code string, value float64) bool {
	return g.GenerateRatingHash(timestamp, code, value) == expectedHash
}
