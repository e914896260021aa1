package notifier

import (
	"strings"
	"testing"

	"episode-pulse/catalog"
)

func ratingPtr(v float64) *float64 {
	return &v
}

func TestRenderDigests(t *testing.T) {
	n, err := NewEmailNotifier(EmailConfig{SMTPHost: "smtp.test", RecipientEmail: "me@test"})
	if err != nil {
		t.Fatalf("NewEmailNotifier() error = %v", err)
	}

	digests := []RatingsDigest{{
		TitleID:       "tt0903747",
		TitleName:     "Breaking Bad",
		SeasonCount:   2,
		FailedSeasons: []int{2},
		Summaries: []catalog.SeasonSummary{
			{Season: 1, Episodes: 2, Rated: 1, Average: ratingPtr(9.05)},
		},
		Changes: []RatingChange{
			{Season: 1, Episode: 2, Current: ratingPtr(8.7)},
		},
	}}

	html, err := n.renderDigests("October 18, 2026", digests)
	if err != nil {
		t.Fatalf("renderDigests() error = %v", err)
	}

	for _, want := range []string{
		"Breaking Bad (tt0903747)",
		"Seasons without data this run: 2",
		"<td>S1E2</td>",
		"<td>-</td>",
		"<td>8.7</td>",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered digest missing %q", want)
		}
	}

	plain := plainDigest("October 18, 2026", digests)
	if !strings.Contains(plain, "Breaking Bad (tt0903747): 2 season(s), 1 rating change(s)") {
		t.Errorf("plainDigest() = %q", plain)
	}
}

func TestNotifyRatingsUpdateNothingToSend(t *testing.T) {
	n, err := NewEmailNotifier(EmailConfig{})
	if err != nil {
		t.Fatalf("NewEmailNotifier() error = %v", err)
	}

	// Neither call may reach the dialer.
	if err := n.NotifyRatingsUpdate(nil); err != nil {
		t.Errorf("NotifyRatingsUpdate(nil) error = %v", err)
	}
	if err := n.NotifyRatingsUpdate([]RatingsDigest{{TitleID: "tt1"}}); err != nil {
		t.Errorf("NotifyRatingsUpdate() without recipient error = %v", err)
	}
}

func TestMaskSecret(t *testing.T) {
	tests := map[string]string{
		"":                 "",
		"short":            "***",
		"0123456789abcdef": "0123...cdef",
	}
	for in, want := range tests {
		if got := maskSecret(in); got != want {
			t.Errorf("maskSecret(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEmailConfigEnabled(t *testing.T) {
	if (EmailConfig{SMTPHost: "smtp.test"}).Enabled() {
		t.Error("config without recipient should be disabled")
	}
	if !(EmailConfig{SMTPHost: "smtp.test", RecipientEmail: "me@test"}).Enabled() {
		t.Error("config with host and recipient should be enabled")
	}
}
