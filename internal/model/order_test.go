package model

import (
	"database/sql"
	"testing"
	"time"
)

func TestIsCancelledStatus(t *testing.T) {
	t.Parallel()

	if !IsCancelledStatus("cancelled") || !IsCancelledStatus("canceled") {
		t.Error("两种历史拼写都应视为已取消")
	}
	if IsCancelledStatus("pending") || IsCancelledStatus("approved") {
		t.Error("非取消状态误判")
	}
}

func TestIsApprovedStatus(t *testing.T) {
	t.Parallel()

	if !IsApprovedStatus("approved") || !IsApprovedStatus("paid") {
		t.Error("approved与历史paid都应视为已支付")
	}
	if IsApprovedStatus("pending") {
		t.Error("pending不应视为已支付")
	}
}

func TestAvailableAtOrFallback(t *testing.T) {
	t.Parallel()

	available := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	deadline := time.Date(2026, 8, 2, 10, 0, 0, 0, time.UTC)
	delivered := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		order  Order
		want   time.Time
		wantOK bool
	}{
		{
			name: "优先available_at",
			order: Order{
				AvailableAt:             sql.NullTime{Time: available, Valid: true},
				BuyerApprovalDeadlineAt: sql.NullTime{Time: deadline, Valid: true},
				DeliveredAt:             sql.NullTime{Time: delivered, Valid: true},
			},
			want:   available,
			wantOK: true,
		},
		{
			name: "回退到buyer_approval_deadline_at",
			order: Order{
				BuyerApprovalDeadlineAt: sql.NullTime{Time: deadline, Valid: true},
				DeliveredAt:             sql.NullTime{Time: delivered, Valid: true},
			},
			want:   deadline,
			wantOK: true,
		},
		{
			name: "最后回退到签收时间加确认期",
			order: Order{
				DeliveredAt: sql.NullTime{Time: delivered, Valid: true},
			},
			want:   delivered.AddDate(0, 0, 3),
			wantOK: true,
		},
		{
			name:  "三个时间都缺失",
			order: Order{},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := tt.order.AvailableAtOrFallback(3)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsAuctionOpen(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	open := Listing{
		ListingType:  ListingTypeAuction,
		Status:       ListingStatusActive,
		AuctionEndAt: sql.NullTime{Time: now.Add(time.Hour), Valid: true},
	}
	if !open.IsAuctionOpen(now) {
		t.Error("未到期的拍卖应可出价")
	}

	expired := open
	expired.AuctionEndAt = sql.NullTime{Time: now.Add(-time.Minute), Valid: true}
	if expired.IsAuctionOpen(now) {
		t.Error("已到期的拍卖不应可出价")
	}

	closed := open
	closed.AuctionClosedAt = sql.NullTime{Time: now, Valid: true}
	if closed.IsAuctionOpen(now) {
		t.Error("已结算的拍卖不应可出价")
	}

	fixed := open
	fixed.ListingType = ListingTypeFixed
	if fixed.IsAuctionOpen(now) {
		t.Error("一口价商品不应可出价")
	}
}
