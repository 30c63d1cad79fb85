package issuedate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromText(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
		tier Tier
	}{
		{
			name: "plain day month year",
			text: "01 JAN 22",
			want: "2022-01-01",
			tier: TierStandard,
		},
		{
			name: "single digit day is padded",
			text: "1 JAN 22",
			want: "2022-01-01",
			tier: TierStandard,
		},
		{
			name: "labeled issue line",
			text: "Date of issue: 03 SEP 2022",
			want: "2022-09-03",
			tier: TierStandard,
		},
		{
			name: "labeled issue line lowercase",
			text: "date of issue 15 oct 1999",
			want: "1999-10-15",
			tier: TierStandard,
		},
		{
			name: "bilingual layout",
			text: "03 SEP /SEPT 22",
			want: "2022-09-03",
			tier: TierStandard,
		},
		{
			name: "bilingual layout tight slash",
			text: "03 SEP/SEPT 22",
			want: "2022-09-03",
			tier: TierStandard,
		},
		{
			name: "four digit year passes through",
			text: "15 OCT 1999",
			want: "1999-10-15",
			tier: TierStandard,
		},
		{
			name: "two digit year low window",
			text: "05 MAY 22",
			want: "2022-05-05",
			tier: TierStandard,
		},
		{
			name: "two digit year high window",
			text: "05 MAY 85",
			want: "1985-05-05",
			tier: TierStandard,
		},
		{
			name: "two digit year window boundary low",
			text: "05 MAY 50",
			want: "2050-05-05",
			tier: TierStandard,
		},
		{
			name: "two digit year window boundary high",
			text: "05 MAY 51",
			want: "1951-05-05",
			tier: TierStandard,
		},
		{
			name: "fragmented serssee shape",
			text: "O3SersseeT22",
			want: "2022-09-03",
			tier: TierFragmented,
		},
		{
			name: "fragmented sep sept shape",
			text: "O3SEP/SEPT22",
			want: "2022-09-03",
			tier: TierFragmented,
		},
		{
			name: "fragmented serfseer shape",
			text: "O4Serfseer33",
			want: "2033-09-04",
			tier: TierFragmented,
		},
		{
			name: "year only corruption",
			text: "Gsseryserr22",
			want: "2022-09-03",
			tier: TierYearOnly,
		},
		{
			name: "clean match beats fragmented match",
			text: "noise O3SersseeT22 noise 01 JAN 22 more",
			want: "2022-01-01",
			tier: TierStandard,
		},
		{
			name: "unparseable match falls through to next match",
			text: "99 XXX 22 then 05 JUN 23",
			want: "2023-06-05",
			tier: TierStandard,
		},
		{
			name: "issue date inside surrounding document text",
			text: "PASSPORT\nSurname SPECIMEN\nDate of issue: 07 FEB 19\nAuthority HMPO",
			want: "2019-02-07",
			tier: TierStandard,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FromText(tt.text)
			require.True(t, ok)
			assert.Equal(t, tt.want, got.Date)
			assert.Equal(t, tt.tier, got.Tier)
		})
	}
}

func TestFromTextNoMatch(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "empty text", text: ""},
		{name: "no date shapes", text: "HELLO WORLD"},
		{name: "unknown month abbreviation", text: "10 XYZ 22"},
		{name: "four letter month without bilingual layout", text: "03 SEPT 22"},
		{name: "three digit year", text: "01 JAN 202"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := FromText(tt.text)
			assert.False(t, ok)
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Run("leading O corrected to zero", func(t *testing.T) {
		got, err := normalize("O1", "JAN", "22", false)
		require.NoError(t, err)
		assert.Equal(t, "2022-01-01", got)
	})

	t.Run("lowercase month resolves", func(t *testing.T) {
		got, err := normalize("9", "dec", "85", false)
		require.NoError(t, err)
		assert.Equal(t, "1985-12-09", got)
	})

	t.Run("assumed september ignores month token", func(t *testing.T) {
		got, err := normalize("3", "", "22", true)
		require.NoError(t, err)
		assert.Equal(t, "2022-09-03", got)
	})

	t.Run("unknown month fails", func(t *testing.T) {
		_, err := normalize("01", "SEPT", "22", false)
		require.Error(t, err)
	})

	t.Run("three digit year fails", func(t *testing.T) {
		_, err := normalize("01", "JAN", "202", false)
		require.Error(t, err)
	})

	t.Run("empty parts fail", func(t *testing.T) {
		_, err := normalize("", "JAN", "22", false)
		require.Error(t, err)
	})
}

func TestTierString(t *testing.T) {
	assert.Equal(t, "standard", TierStandard.String())
	assert.Equal(t, "fragmented", TierFragmented.String())
	assert.Equal(t, "year_only", TierYearOnly.String())
}
