package model

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSettleAddsSnapshot(t *testing.T) {
	p := NewPlayerProfile("owner-1", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	p.TotalScore = 100

	settled := p.Settle(SessionSnapshot{BlocksPlaced: 1, Attacks: 1, Kills: 1, Score: 56, Epoch: 1})

	assert.Equal(t, uint64(1), settled.TotalBlocksPlaced)
	assert.Equal(t, uint64(1), settled.TotalAttacks)
	assert.Equal(t, uint64(1), settled.TotalKills)
	assert.Equal(t, uint64(156), settled.TotalScore)
	assert.Equal(t, uint16(1), settled.GamesPlayed)
	assert.Equal(t, uint64(1), settled.SettledEpoch)

	// Receiver is untouched
	assert.Equal(t, uint64(100), p.TotalScore)
	assert.Zero(t, p.GamesPlayed)
}

func TestSettleSaturates(t *testing.T) {
	p := PlayerProfile{
		OwnerID:     "owner-1",
		TotalScore:  math.MaxUint64 - 10,
		TotalKills:  math.MaxUint64,
		GamesPlayed: math.MaxUint16,
	}

	settled := p.Settle(SessionSnapshot{Kills: 5, Score: 50})

	assert.Equal(t, uint64(math.MaxUint64), settled.TotalScore)
	assert.Equal(t, uint64(math.MaxUint64), settled.TotalKills)
	assert.Equal(t, uint16(math.MaxUint16), settled.GamesPlayed)
}

func TestCredentialExpired(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := SessionCredential{ExpiresAt: now.Add(time.Minute)}

	assert.False(t, c.Expired(now))
	assert.True(t, c.Expired(now.Add(time.Minute)))
}
