package trust

import (
	"context"
	"sync"
	"testing"
)

func TestDefaultProfileOnFirstAccess(t *testing.T) {
	s := NewMemStore()
	p, err := s.Get(context.Background(), "new-user")
	if err != nil {
		t.Fatal(err)
	}
	if p.Karma != 1000 {
		t.Errorf("default karma = %d, want 1000", p.Karma)
	}
	if p.Age != 16 {
		t.Errorf("default age = %d, want 16", p.Age)
	}
	if p.HarassmentScore != 0 {
		t.Errorf("default harassment = %d, want 0", p.HarassmentScore)
	}
}

func TestKarmaClampedAtZero(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	if _, err := s.AdjustKarma(ctx, "u", -5000); err != nil {
		t.Fatal(err)
	}
	p, _ := s.Get(ctx, "u")
	if p.Karma != 0 {
		t.Errorf("karma = %d, want 0 after large negative delta", p.Karma)
	}

	// Further negatives stay at the floor; positives recover.
	s.AdjustKarma(ctx, "u", -100)
	if karma, _ := s.AdjustKarma(ctx, "u", 30); karma != 30 {
		t.Errorf("karma = %d, want 30", karma)
	}
}

func TestConcurrentKarmaDeltasNotLost(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.AdjustKarma(ctx, "cheater", -100)
		}()
	}
	wg.Wait()

	p, _ := s.Get(ctx, "cheater")
	if p.Karma != 800 {
		t.Errorf("karma = %d, want 800 (two -100 deltas from 1000)", p.Karma)
	}
}

func TestSetProfileAttrs(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	if err := s.SetProfile(ctx, "kid", Attrs{IsMinor: true, Age: 12, InstitutionRestricted: true}); err != nil {
		t.Fatal(err)
	}
	p, _ := s.Get(ctx, "kid")
	if !p.IsMinor || p.Age != 12 || !p.InstitutionRestricted {
		t.Errorf("attrs not persisted: %+v", p)
	}
	if p.Karma != 1000 {
		t.Errorf("setting attrs must not touch karma, got %d", p.Karma)
	}
}

func TestUserTypeBuckets(t *testing.T) {
	cases := []struct {
		name string
		p    Profile
		want string
	}{
		{"restricted wins over age", Profile{Age: 30, InstitutionRestricted: true}, "RESTRICTED_STUDENT"},
		{"child", Profile{Age: 12}, "CHILD_UNDER_13"},
		{"teen lower bound", Profile{Age: 13}, "TEENAGER"},
		{"teen upper bound", Profile{Age: 17}, "TEENAGER"},
		{"adult", Profile{Age: 18}, "ADULT"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := string(UserType(tc.p)); got != tc.want {
				t.Errorf("UserType(%+v) = %s, want %s", tc.p, got, tc.want)
			}
		})
	}
}

func TestAvatarThresholds(t *testing.T) {
	cases := []struct {
		score int
		state string
	}{
		{0, "NORMAL"},
		{30, "NORMAL"},
		{31, "WARNING"},
		{60, "WARNING"},
		{61, "NIGHTMARE"},
		{95, "NIGHTMARE"},
	}
	for _, tc := range cases {
		if got := Avatar(tc.score).State; got != tc.state {
			t.Errorf("Avatar(%d).State = %s, want %s", tc.score, got, tc.state)
		}
	}
}
