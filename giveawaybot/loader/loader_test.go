package loader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCodes(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "newline separated",
			text: "A1\nA2\nA3",
			want: []string{"A1", "A2", "A3"},
		},
		{
			name: "comma separated",
			text: "A1, A2,A3",
			want: []string{"A1", "A2", "A3"},
		},
		{
			name: "mixed with blanks",
			text: "A1,\n\n  A2  \n,,A3\n",
			want: []string{"A1", "A2", "A3"},
		},
		{
			name: "duplicates kept",
			text: "A1\nA1",
			want: []string{"A1", "A1"},
		},
		{
			name: "empty input",
			text: "  \n, \n",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCodes(tt.text))
		})
	}
}

func TestParseWinners(t *testing.T) {
	csv := "user_id,username,allow_multiple\n" +
		"111,alice,true\n" +
		"222,bob,0\n" +
		"333,carol,yes\n"

	records, err := ParseWinners(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, WinnerRecord{UserID: "111", Username: "alice", AllowMultiple: true}, records[0])
	assert.Equal(t, WinnerRecord{UserID: "222", Username: "bob", AllowMultiple: false}, records[1])
	assert.Equal(t, WinnerRecord{UserID: "333", Username: "carol", AllowMultiple: true}, records[2])
}

func TestParseWinnersSkipsBadRows(t *testing.T) {
	csv := "user_id,username,allow_multiple\n" +
		"111,alice,true\n" +
		",missing-id,true\n" +
		"\n" +
		"222\n"

	records, err := ParseWinners(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "111", records[0].UserID)
	// short row still counts; missing columns default
	assert.Equal(t, WinnerRecord{UserID: "222"}, records[1])
}

func TestParseWinnersHeaderVariants(t *testing.T) {
	csv := "Username, User_ID ,ALLOW_MULTIPLE\nalice,111,1\n"

	records, err := ParseWinners(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, WinnerRecord{UserID: "111", Username: "alice", AllowMultiple: true}, records[0])
}

func TestParseWinnersMissingUserIDColumn(t *testing.T) {
	_, err := ParseWinners(strings.NewReader("username\nalice\n"))
	assert.Error(t, err)
}

func TestParseWinnersEmptyInput(t *testing.T) {
	records, err := ParseWinners(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, records)
}
