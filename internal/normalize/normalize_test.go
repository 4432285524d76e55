package normalize

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tvratings-parser/internal/ratings"
)

func TestNormalizeZeroFillsAbsent(t *testing.T) {
	catalog := ratings.Catalog{
		{Code: "CHV", Slug: "chv"},
		{Code: "MEGA", Slug: "mega"},
	}
	raw := ratings.Raw{
		"CHV":  ratings.Value(6.4),
		"MEGA": nil,
	}

	rec := Normalize(catalog, raw, "2025-01-01T10:00:00.123456")

	require.Equal(t, "2025-01-01T10:00:00.123456", rec.Timestamp)
	require.Equal(t, []string{"TIMESTAMP", "CHV", "MEGA"}, rec.Header())

	chv, ok := rec.Get("CHV")
	require.True(t, ok)
	require.Equal(t, 6.4, chv)

	mega, ok := rec.Get("MEGA")
	require.True(t, ok)
	require.Equal(t, 0.0, mega)
}

func TestNormalizeKeySetFollowsCatalog(t *testing.T) {
	catalog := ratings.DefaultCatalog()

	tests := []struct {
		name string
		raw  ratings.Raw
	}{
		{"all absent", ratings.Raw{}},
		{"all present", ratings.Raw{
			"CHV": ratings.Value(1), "CANAL13": ratings.Value(2), "TVM": ratings.Value(3),
			"TVNO": ratings.Value(4), "LARED": ratings.Value(5), "MEGA": ratings.Value(6),
		}},
		{"mixed", ratings.Raw{"TVM": ratings.Value(2.25), "LARED": nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Normalize(catalog, tt.raw, "ts")
			require.Len(t, rec.Header(), len(catalog)+1)
			require.Equal(t, catalog.Header(), rec.Header())

			for _, ch := range catalog {
				got, ok := rec.Get(ch.Code)
				require.True(t, ok)
				if v := tt.raw[ch.Code]; v != nil {
					require.Equal(t, *v, got)
				} else {
					require.Equal(t, 0.0, got)
				}
			}
		})
	}
}

func TestNormalizeIsPure(t *testing.T) {
	catalog := ratings.DefaultCatalog()
	raw := ratings.Raw{"CHV": ratings.Value(6.4), "MEGA": ratings.Value(5.1)}

	first := Normalize(catalog, raw, "2025-01-01T10:00:00.000000")
	second := Normalize(catalog, raw, "2025-01-01T10:00:00.000000")

	require.Equal(t, first, second)
}

func TestNormalizeGeneratesTimestamp(t *testing.T) {
	rec := Normalize(ratings.DefaultCatalog(), ratings.Raw{}, "")

	re := regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{6}$`)
	if !re.MatchString(rec.Timestamp) {
		t.Errorf("generated timestamp %q does not match local ISO-8601 layout", rec.Timestamp)
	}
}

func TestTimestampHasNoOffset(t *testing.T) {
	ts := Timestamp(time.Date(2025, 1, 1, 10, 0, 0, 123456000, time.Local))
	require.Equal(t, "2025-01-01T10:00:00.123456", ts)
}
