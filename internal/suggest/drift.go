package suggest

import (
	"context"
	"sort"
	"time"

	"Weave/internal/model"
	"Weave/internal/policy"
	"Weave/internal/repository"
	"Weave/utils"
)

// FriendLister 漂移启发式需要的数据面
type FriendLister interface {
	ListFriends(ctx context.Context, userID int64) ([]model.Friend, error)
	GetUser(ctx context.Context, userID int64) (*model.User, error)
}

// DriftSource 基于联络漂移的默认建议来源：
// 朋友距上次联络超过圈层期望间隔后进入候选，逾期越多紧急度越高。
type DriftSource struct {
	friends FriendLister
}

func NewDriftSource(friends FriendLister) *DriftSource {
	return &DriftSource{friends: friends}
}

func (s *DriftSource) Generate(ctx context.Context, userID int64, now time.Time) ([]Suggestion, error) {
	user, err := s.friends.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	friends, err := s.friends.ListFriends(ctx, userID)
	if err != nil {
		return nil, err
	}

	day := utils.DayKey(now)
	var out []Suggestion
	for _, f := range friends {
		var since time.Duration
		if f.LastInteractionAt != nil {
			since = now.Sub(*f.LastInteractionAt)
		} else {
			// 从建档时间起算，新添加的朋友不会立刻被催
			since = now.Sub(f.CreatedAt)
		}

		expected := policy.ScaleInterval(ExpectedInterval(f.Circle), user.Season)
		urgency, category, ok := Classify(since, expected)
		if !ok {
			continue
		}

		out = append(out, Suggestion{
			ID:         SuggestionID(f.ID, day),
			FriendID:   f.ID,
			FriendName: f.Name,
			Category:   category,
			Urgency:    urgency,
			DaysSince:  int(since.Hours() / 24),
		})
	}

	// 紧急度降序，同级按逾期天数降序
	sort.Slice(out, func(i, j int) bool {
		ri, rj := model.UrgencyRank(out[i].Urgency), model.UrgencyRank(out[j].Urgency)
		if ri != rj {
			return ri > rj
		}
		return out[i].DaysSince > out[j].DaysSince
	})
	return out, nil
}

// RepositoryFriendLister 生产实现，直接走数据库
type RepositoryFriendLister struct{}

func (RepositoryFriendLister) ListFriends(ctx context.Context, userID int64) ([]model.Friend, error) {
	return repository.ListFriends(ctx, userID)
}

func (RepositoryFriendLister) GetUser(ctx context.Context, userID int64) (*model.User, error) {
	return repository.GetUserByID(ctx, userID)
}
