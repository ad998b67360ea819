package policy

import "testing"

func TestFeeCents(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		amount     int64
		feePercent int
		want       int64
	}{
		{"exact percentage", 10000, 10, 1000},
		{"rounds up", 999, 10, 100},
		{"zero amount", 0, 10, 0},
		{"zero percent", 10000, 0, 0},
		{"one cent", 1, 10, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FeeCents(tt.amount, tt.feePercent); got != tt.want {
				t.Errorf("FeeCents(%d, %d) = %d, want %d", tt.amount, tt.feePercent, got, tt.want)
			}
		})
	}
}

func TestNetCents(t *testing.T) {
	t.Parallel()

	if got := NetCents(10000, 10); got != 9000 {
		t.Errorf("NetCents(10000, 10) = %d, want 9000", got)
	}
}

func TestLeadingPrice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name             string
		topCeiling       int64
		secondCeiling    int64
		startPrice       int64
		incrementPercent int
		want             int64
	}{
		{"no bids", 0, 0, 5000, 5, 0},
		{"sole bidder pays start price", 20000, 0, 5000, 5, 5000},
		{"second plus increment", 20000, 10000, 5000, 5, 10500},
		{"capped by own ceiling", 10200, 10000, 5000, 5, 10200},
		{"equal ceilings cap at ceiling", 10000, 10000, 5000, 5, 10000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LeadingPrice(tt.topCeiling, tt.secondCeiling, tt.startPrice, tt.incrementPercent)
			if got != tt.want {
				t.Errorf("LeadingPrice() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMinimumNextBid(t *testing.T) {
	t.Parallel()

	// 无人出价时门槛为起拍价
	if got := MinimumNextBid(0, 0, 5000, 5); got != 5000 {
		t.Errorf("MinimumNextBid with no bids = %d, want 5000", got)
	}

	// 有领先者时门槛为展示价加一档：展示价5000，加价5%后为5250
	if got := MinimumNextBid(20000, 0, 5000, 5); got != 5250 {
		t.Errorf("MinimumNextBid with sole leader = %d, want 5250", got)
	}
}

func TestRaiseBid_ZeroIncrementStillRaises(t *testing.T) {
	t.Parallel()

	if got := RaiseBid(10000, 0); got != 10001 {
		t.Errorf("RaiseBid(10000, 0) = %d, want 10001", got)
	}
}

func TestResolvePackage_AppliesCarrierFloors(t *testing.T) {
	t.Parallel()

	pkg := ResolvePackage(0, 0, 0, 0)
	if pkg.Height != MinHeightCm || pkg.Width != MinWidthCm || pkg.Length != MinLengthCm || pkg.Weight != MinWeightKg {
		t.Errorf("ResolvePackage(0,0,0,0) = %+v, want carrier minimums", pkg)
	}

	pkg = ResolvePackage(10, 20, 30, 1.5)
	if pkg.Height != 10 || pkg.Width != 20 || pkg.Length != 30 || pkg.Weight != 1.5 {
		t.Errorf("ResolvePackage kept values = %+v, want declared dimensions", pkg)
	}
}

func TestValidCancelReason(t *testing.T) {
	t.Parallel()

	if !ValidCancelReason(CancelReasonBuyerRemorse) {
		t.Error("buyer_remorse should be a valid reason")
	}
	if ValidCancelReason("whatever") {
		t.Error("unknown reason should be rejected")
	}
}
