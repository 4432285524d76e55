package checksum

import (
	"testing"
)

func TestGenerateRatingHash(t *testing.T) {
	gen := NewGenerator()

	ts := "2025-01-01T10:00:00.123456"

	hash1 := gen.GenerateRatingHash(ts, "CHV", 6.4)
	hash2 := gen.GenerateRatingHash(ts, "CHV", 6.4)

	// Хеш должен быть детерминированным
	if hash1 != hash2 {
		t.Errorf("Hash not deterministic: %s != %s", hash1, hash2)
	}

	// Хеш должен быть 64 символа (SHA256 hex)
	if len(hash1) != 64 {
		t.Errorf("Hash wrong length: %d, expected 64", len(hash1))
	}

	// Изменение канала или значения должно изменить хеш
	if hash1 == gen.GenerateRatingHash(ts, "MEGA", 6.4) {
		t.Errorf("Hash should change when channel changes")
	}
	if hash1 == gen.GenerateRatingHash(ts, "CHV", 6.5) {
		t.Errorf("Hash should change when value changes")
	}
}

func TestVerifyRatingHash(t *testing.T) {
	gen := NewGenerator()

	ts := "2025-01-01T10:00:00.123456"
	hash := gen.GenerateRatingHash(ts, "CHV", 6.4)

	if !gen.VerifyRatingHash(hash, ts, "CHV", 6.4) {
		t.Errorf("VerifyRatingHash failed for correct data")
	}

	if gen.VerifyRatingHash(hash, "2025-01-01T10:30:00.000000", "CHV", 6.4) {
		t.Errorf("VerifyRatingHash should fail for wrong timestamp")
	}
}
