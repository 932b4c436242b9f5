package admin

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/disgoorg/giveaway-bot/giveawaybot/database/models"
)

func TestWinnerSummary(t *testing.T) {
	registered := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	claimedAt := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name   string
		winner *models.Winner
		links  []*models.GiftLink
		want   []string
	}{
		{
			name:   "no claims",
			winner: &models.Winner{UserID: "111", CreatedAt: registered},
			want:   []string{"Registered 2026-03-01", "No claims yet."},
		},
		{
			name:   "multi-claim winner",
			winner: &models.Winner{UserID: "111", AllowMultiple: true, CreatedAt: registered},
			want:   []string{"may claim multiple gift links", "No claims yet."},
		},
		{
			name:   "with claims",
			winner: &models.Winner{UserID: "111", CreatedAt: registered},
			links: []*models.GiftLink{
				{Code: "A1", ClaimedAt: claimedAt},
				{Code: "A2"},
			},
			want: []string{"`A1` — claimed 2026-03-02 09:30", "`A2` — claimed unknown time"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := winnerSummary(tt.winner, tt.links)
			for _, want := range tt.want {
				assert.Contains(t, got, want)
			}
		})
	}
}

func TestWinnerSummaryOmitsMultiClaimNoteByDefault(t *testing.T) {
	got := winnerSummary(&models.Winner{UserID: "111"}, nil)
	assert.NotContains(t, got, "multiple")
}
