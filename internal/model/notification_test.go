package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTapPayloadRoundTrip(t *testing.T) {
	raw, err := EncodeTapPayload(FriendSuggestionTap{
		FriendID:     5,
		SuggestionID: "suggest:5:2026-03-10",
		Urgency:      UrgencyHigh,
	})
	require.NoError(t, err)

	decoded, err := DecodeTapPayload([]byte(raw))
	require.NoError(t, err)

	tap, ok := decoded.(*FriendSuggestionTap)
	require.True(t, ok)
	assert.Equal(t, int64(5), tap.FriendID)
	assert.Equal(t, "suggest:5:2026-03-10", tap.SuggestionID)
	assert.Equal(t, UrgencyHigh, tap.Urgency)
	assert.Equal(t, TypeFriendSuggestion, decoded.NotificationType())
}

func TestDecodeTapPayloadRejectsUnknownType(t *testing.T) {
	_, err := DecodeTapPayload([]byte(`{"type":"carrier_pigeon","data":{}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown notification type")

	_, err = DecodeTapPayload([]byte(`not json`))
	require.Error(t, err)
}

func TestDecodeTapPayloadEmptyData(t *testing.T) {
	p, err := DecodeTapPayload([]byte(`{"type":"battery_checkin"}`))
	require.NoError(t, err)
	assert.Equal(t, TypeBatteryCheckin, p.NotificationType())
}

func TestDigestItemsSortByPriority(t *testing.T) {
	items := DigestItems{
		{Priority: 60, Kind: DigestItemSuggestion, Title: "建议 A"},
		{Priority: 100, Kind: DigestItemPlan, Title: "今晚的约定"},
		{Priority: 60, Kind: DigestItemSuggestion, Title: "建议 B"},
		{Priority: 90, Kind: DigestItemUpcoming, Title: "明天的纪念日"},
	}

	items.SortByPriority()

	assert.Equal(t, "今晚的约定", items[0].Title)
	assert.Equal(t, "明天的纪念日", items[1].Title)
	// 同级保持插入顺序
	assert.Equal(t, "建议 A", items[2].Title)
	assert.Equal(t, "建议 B", items[3].Title)
}

func TestUrgencyRankOrdering(t *testing.T) {
	assert.Greater(t, UrgencyRank(UrgencyCritical), UrgencyRank(UrgencyHigh))
	assert.Greater(t, UrgencyRank(UrgencyHigh), UrgencyRank(UrgencyMedium))
	assert.Greater(t, UrgencyRank(UrgencyMedium), UrgencyRank(UrgencyLow))
	assert.Equal(t, 0, UrgencyRank(Urgency("nope")))
}
