package service

import (
	"strings"
	"testing"
	"time"

	"jianlou/internal/model"
)

func TestTopCeilings(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	bid := func(id, bidder uint64, amount int64, offset time.Duration) model.Bid {
		return model.Bid{ID: id, BidderUserID: bidder, AmountCents: amount, CreatedAt: base.Add(offset)}
	}

	tests := []struct {
		name       string
		bids       []model.Bid // 已按(amount desc, created asc, id asc)排列
		wantLeader uint64
		wantSecond uint64 // 0表示无次高出价人
	}{
		{
			name: "无出价",
		},
		{
			name:       "单人出价",
			bids:       []model.Bid{bid(1, 10, 5000, 0)},
			wantLeader: 10,
		},
		{
			name: "两人出价取各自上限",
			bids: []model.Bid{
				bid(2, 20, 8000, time.Minute),
				bid(1, 10, 5000, 0),
			},
			wantLeader: 20,
			wantSecond: 10,
		},
		{
			name: "领先者多次加价只计最高一条",
			bids: []model.Bid{
				bid(3, 10, 9000, 2*time.Minute),
				bid(2, 20, 8000, time.Minute),
				bid(1, 10, 5000, 0),
			},
			wantLeader: 10,
			wantSecond: 20,
		},
		{
			name: "同上限早出价者领先",
			bids: []model.Bid{
				bid(1, 10, 8000, 0),
				bid(2, 20, 8000, time.Minute),
			},
			wantLeader: 10,
			wantSecond: 20,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			leader, second := topCeilings(tt.bids)
			gotLeader := uint64(0)
			if leader != nil {
				gotLeader = leader.BidderUserID
			}
			gotSecond := uint64(0)
			if second != nil {
				gotSecond = second.BidderUserID
			}
			if gotLeader != tt.wantLeader {
				t.Errorf("leader = %d, want %d", gotLeader, tt.wantLeader)
			}
			if gotSecond != tt.wantSecond {
				t.Errorf("second = %d, want %d", gotSecond, tt.wantSecond)
			}
		})
	}
}

func TestGenerateOrderNo(t *testing.T) {
	t.Parallel()

	orderNo := generateOrderNo()
	if !strings.HasPrefix(orderNo, "JL") {
		t.Errorf("订单号应以JL开头: %q", orderNo)
	}
	if len(orderNo) != 2+14+6 {
		t.Errorf("订单号长度 = %d: %q", len(orderNo), orderNo)
	}
	if orderNo == generateOrderNo() {
		t.Error("连续生成的订单号不应相同")
	}
}
