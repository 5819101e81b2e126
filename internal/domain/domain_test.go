package domain_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/agentpulse/internal/domain"
)

func TestParseLeadStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    domain.LeadStatus
		wantErr bool
	}{
		{in: "New", want: domain.StatusNew},
		{in: "novo", want: domain.StatusNew},
		{in: "Em Contato", want: domain.StatusContacted},
		{in: "scheduled", want: domain.StatusScheduled},
		{in: "Negócio Fechado", want: domain.StatusDealClosed},
		{in: "deal_closed", want: domain.StatusDealClosed},
		{in: "lost", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			t.Parallel()
			got, err := domain.ParseLeadStatus(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCanTransition(t *testing.T) {
	t.Parallel()

	assert.True(t, domain.CanTransition(domain.StatusNew, domain.StatusContacted))
	assert.True(t, domain.CanTransition(domain.StatusScheduled, domain.StatusNew))
	assert.True(t, domain.CanTransition("", domain.StatusScheduled))
	assert.True(t, domain.CanTransition(domain.StatusDealClosed, domain.StatusDealClosed))
	assert.False(t, domain.CanTransition(domain.StatusDealClosed, domain.StatusNew))
	assert.False(t, domain.CanTransition(domain.StatusNew, "Lost"))
}

func TestClampScore(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, domain.ClampScore(-4))
	assert.Equal(t, 55, domain.ClampScore(55))
	assert.Equal(t, 100, domain.ClampScore(180))
}

func TestSubscription(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	daysAgo := func(n int) *time.Time {
		ts := now.Add(-time.Duration(n) * 24 * time.Hour)
		return &ts
	}

	tests := []struct {
		name    string
		profile domain.UserProfile
		want    domain.SubscriptionStatus
	}{
		{
			name:    "pro token",
			profile: domain.UserProfile{ProToken: "AGENT-PRO-M-ABC123", TrialStartDate: daysAgo(30)},
			want:    domain.SubscriptionStatus{Tier: domain.TierPro},
		},
		{
			name:    "fresh trial",
			profile: domain.UserProfile{},
			want:    domain.SubscriptionStatus{Tier: domain.TierTrial, DaysLeft: 7},
		},
		{
			name:    "mid trial",
			profile: domain.UserProfile{TrialStartDate: daysAgo(2)},
			want:    domain.SubscriptionStatus{Tier: domain.TierTrial, DaysLeft: 5},
		},
		{
			name:    "expired trial",
			profile: domain.UserProfile{TrialStartDate: daysAgo(7)},
			want:    domain.SubscriptionStatus{Tier: domain.TierTrial, Expired: true},
		},
		{
			name:    "wrong token prefix",
			profile: domain.UserProfile{ProToken: "FREE-123", TrialStartDate: daysAgo(9)},
			want:    domain.SubscriptionStatus{Tier: domain.TierTrial, Expired: true},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, tc.profile.Subscription(now, 7, "AGENT-PRO-"))
		})
	}
}

func TestSearchScheduleValidate(t *testing.T) {
	t.Parallel()

	valid := domain.SearchSchedule{
		Niche:    "apartamento 3 quartos",
		Location: "Curitiba",
		Type:     domain.LeadTypeBuyer,
		Days:     []string{"Seg", "qua", "Mon", "friday"},
		Time:     "09:30",
	}
	require.NoError(t, valid.Validate())

	days, err := valid.Weekdays()
	require.NoError(t, err)
	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday, time.Friday}, days)

	h, m, err := valid.Clock()
	require.NoError(t, err)
	assert.Equal(t, 9, h)
	assert.Equal(t, 30, m)

	badTime := valid
	badTime.Time = "25:00"
	assert.Error(t, badTime.Validate())

	noDays := valid
	noDays.Days = nil
	assert.Error(t, noDays.Validate())

	badDay := valid
	badDay.Days = []string{"someday"}
	assert.Error(t, badDay.Validate())
}

func TestRateSafety(t *testing.T) {
	t.Parallel()

	assert.Equal(t, domain.SafetySafe, domain.RateSafety(0, 15, 30))
	assert.Equal(t, domain.SafetyAttention, domain.RateSafety(15, 15, 30))
	assert.Equal(t, domain.SafetyRisk, domain.RateSafety(30, 15, 30))
}

func TestNewIDIsTimeOrdered(t *testing.T) {
	t.Parallel()

	a := domain.NewID()
	time.Sleep(2 * time.Millisecond)
	b := domain.NewID()
	assert.NotEqual(t, a, b)
	assert.Less(t, a, b)
}

func TestTriangleArea(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 6.0, domain.TriangleArea(3, 4, 5), 1e-9)
	assert.Zero(t, domain.TriangleArea(1, 2, 10), "sides cannot close")
	assert.Zero(t, domain.TriangleArea(0, 0, 0))
}

func TestAppraise(t *testing.T) {
	t.Parallel()

	regular := domain.DefaultAppraisalInput()

	irregular := domain.DefaultAppraisalInput()
	irregular.Shape = domain.LotIrregular

	narrowOld := domain.DefaultAppraisalInput()
	narrowOld.Frontage = 8
	narrowOld.BuildingAge = 90
	narrowOld.ConservationState = 1
	narrowOld.IncorporationFactor = 1

	degenerate := domain.DefaultAppraisalInput()
	degenerate.Shape = domain.LotIrregular
	degenerate.SideA, degenerate.SideB, degenerate.SideC, degenerate.SideD = 1, 1, 1, 1
	degenerate.BuiltArea = 0

	tests := []struct {
		name      string
		in        domain.AppraisalInput
		wantArea  float64
		wantLand  float64
		wantBuilt float64
		wantTotal float64
		wantDep   float64
		wantPerM  float64
	}{
		{
			name:      "regular lot",
			in:        regular,
			wantArea:  360,
			wantLand:  540000,
			wantBuilt: 428400,
			wantTotal: 1113660,
			wantDep:   36.25,
			wantPerM:  1113660.0 / 210,
		},
		{
			name:      "irregular lot by two triangles",
			in:        irregular,
			wantArea:  341.7955061852068,
			wantLand:  512693.2592778102,
			wantBuilt: 428400,
			wantTotal: 1082257.2481694818,
			wantDep:   36.25,
			wantPerM:  1082257.2481694818 / 210,
		},
		{
			name:      "narrow frontage and depreciation floor",
			in:        narrowOld,
			wantArea:  240,
			wantLand:  324000,
			wantBuilt: 67200,
			wantTotal: 391200,
			wantDep:   90,
			wantPerM:  391200.0 / 210,
		},
		{
			name:      "unmeasurable lot counts one square meter",
			in:        degenerate,
			wantArea:  1,
			wantLand:  1500,
			wantBuilt: 0,
			wantTotal: 1725,
			wantDep:   36.25,
			wantPerM:  1725,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := domain.Appraise(tc.in)
			require.NoError(t, err)
			assert.InDelta(t, tc.wantArea, got.LandArea, 1e-6)
			assert.InDelta(t, tc.wantLand, got.LandValue, 1e-6)
			assert.InDelta(t, tc.wantBuilt, got.BuildingValue, 1e-6)
			assert.InDelta(t, tc.wantTotal, got.Total, 1e-6)
			assert.InDelta(t, tc.wantDep, got.DepreciationPct, 1e-9)
			assert.InDelta(t, tc.wantPerM, got.ValuePerMeter, 1e-6)
		})
	}
}

func TestAppraiseRejectsBadInput(t *testing.T) {
	t.Parallel()

	mutate := func(fn func(*domain.AppraisalInput)) domain.AppraisalInput {
		in := domain.DefaultAppraisalInput()
		fn(&in)
		return in
	}
	tests := map[string]domain.AppraisalInput{
		"unknown shape":       mutate(func(in *domain.AppraisalInput) { in.Shape = "round" }),
		"negative price":      mutate(func(in *domain.AppraisalInput) { in.PricePerMeterLand = -1 }),
		"negative diagonal":   mutate(func(in *domain.AppraisalInput) { in.Diagonal = -3 }),
		"conservation above":  mutate(func(in *domain.AppraisalInput) { in.ConservationState = 1.2 }),
		"infinite built area": mutate(func(in *domain.AppraisalInput) { in.BuiltArea = math.Inf(1) }),
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := domain.Appraise(in)
			assert.ErrorIs(t, err, domain.ErrInvalidAppraisal)
		})
	}
}

func TestNewProToken(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for range 50 {
		token := domain.NewProToken("AGENT-PRO-")
		assert.Regexp(t, `^AGENT-PRO-[0-9A-Z]{8}$`, token)
		assert.False(t, seen[token])
		seen[token] = true

		p := domain.UserProfile{ProToken: token}
		assert.Equal(t, domain.TierPro, p.Subscription(time.Now(), 7, "AGENT-PRO-").Tier)
	}
}

func TestNewGoalProgress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		closed, goal int
		want         domain.GoalProgress
	}{
		{name: "halfway", closed: 2, goal: 4, want: domain.GoalProgress{BrokerID: "b", Closed: 2, Goal: 4, Progress: 50}},
		{name: "met exactly", closed: 4, goal: 4, want: domain.GoalProgress{BrokerID: "b", Closed: 4, Goal: 4, Progress: 100, Met: true}},
		{name: "capped", closed: 9, goal: 3, want: domain.GoalProgress{BrokerID: "b", Closed: 9, Goal: 3, Progress: 100, Met: true}},
		{name: "unset goal uses default", closed: 1, goal: 0, want: domain.GoalProgress{BrokerID: "b", Closed: 1, Goal: 5, Progress: 20}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, domain.NewGoalProgress("b", tc.closed, tc.goal))
		})
	}
}
