package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"bitarena/internal/app/store"
)

func ranking(rating float64) *store.Ranking {
	return &store.Ranking{Rating: rating}
}

func TestElo1v1EqualRatings(t *testing.T) {
	winner := ranking(1200)
	loser := ranking(1200)

	Elo1v1(winner, loser, DefaultK)

	// Equal ratings: expectation is 0.5, so the winner gains exactly K/2.
	assert.InDelta(t, 1216, winner.Rating, 1e-9)
	assert.InDelta(t, 1184, loser.Rating, 1e-9)

	assert.Equal(t, 1, winner.Wins)
	assert.Equal(t, 0, winner.Losses)
	assert.Equal(t, 1, winner.TotalMatches)
	assert.Equal(t, 0, loser.Wins)
	assert.Equal(t, 1, loser.Losses)
	assert.Equal(t, 1, loser.TotalMatches)
}

func TestElo1v1UpsetMovesMore(t *testing.T) {
	underdog := ranking(1000)
	favorite := ranking(1400)

	Elo1v1(underdog, favorite, DefaultK)

	// Expected score for the underdog at -400 is 1/(1+10^1) ≈ 0.0909.
	assert.InDelta(t, 1000+32*(1-1.0/11.0), underdog.Rating, 1e-9)
	assert.InDelta(t, 1400+32*(0-10.0/11.0), favorite.Rating, 1e-9)
}

func TestElo1v1ZeroSumAtEqualRatings(t *testing.T) {
	winner := ranking(1300)
	loser := ranking(1300)

	Elo1v1(winner, loser, DefaultK)

	assert.InDelta(t, 2600, winner.Rating+loser.Rating, 1e-9)
}

func TestEloSquadLinearScores(t *testing.T) {
	players := []*store.Ranking{ranking(1200), ranking(1200), ranking(1200), ranking(1200)}
	positions := []int{1, 2, 3, 4}

	EloSquad(players, positions, DefaultK)

	// With equal ratings every expectation is 0.5 and actuals are 1, 2/3, 1/3, 0.
	assert.InDelta(t, 1200+32*(1.0-0.5), players[0].Rating, 1e-9)
	assert.InDelta(t, 1200+32*(2.0/3.0-0.5), players[1].Rating, 1e-9)
	assert.InDelta(t, 1200+32*(1.0/3.0-0.5), players[2].Rating, 1e-9)
	assert.InDelta(t, 1200+32*(0.0-0.5), players[3].Rating, 1e-9)

	assert.Equal(t, 1, players[0].Wins)
	for _, p := range players[1:] {
		assert.Equal(t, 1, p.Losses)
	}
	for _, p := range players {
		assert.Equal(t, 1, p.TotalMatches)
	}
}

func TestEloSquadUsesPreBattleRatings(t *testing.T) {
	// The first player's delta must not leak into the second player's
	// expectation computation.
	players := []*store.Ranking{ranking(1300), ranking(1200), ranking(1100)}
	positions := []int{3, 2, 1}

	before := []float64{1300, 1200, 1100}
	EloSquad(players, positions, DefaultK)

	// Against pre-battle ratings the middle finisher expects 0.36 and 0.64,
	// a mean of exactly 0.5, equal to its actual score of 0.5: only the outer
	// two ratings move.
	assert.NotEqual(t, before[0], players[0].Rating)
	assert.InDelta(t, before[1], players[1].Rating, 1e-9)
	assert.NotEqual(t, before[2], players[2].Rating)

	total := 0.0
	for i, p := range players {
		total += p.Rating - before[i]
	}

	// Pairwise expectations are symmetric, so squad updates conserve rating.
	assert.InDelta(t, 0, total, 1e-9)
}

func TestEloSquadRejectsMismatchedInput(t *testing.T) {
	players := []*store.Ranking{ranking(1200), ranking(1200)}

	EloSquad(players, []int{1}, DefaultK)

	assert.InDelta(t, 1200, players[0].Rating, 1e-9)
	assert.Equal(t, 0, players[0].TotalMatches)
}

func TestEloTeamSharedDelta(t *testing.T) {
	alpha := []*store.Ranking{ranking(1250), ranking(1150)}
	beta := []*store.Ranking{ranking(1200), ranking(1200)}

	EloTeam([][]*store.Ranking{alpha, beta}, []int{1, 2}, DefaultK)

	// Both teams average 1200, so the winning side gains K/2 per member.
	assert.InDelta(t, 1250+16, alpha[0].Rating, 1e-9)
	assert.InDelta(t, 1150+16, alpha[1].Rating, 1e-9)
	assert.InDelta(t, 1200-16, beta[0].Rating, 1e-9)
	assert.InDelta(t, 1200-16, beta[1].Rating, 1e-9)

	// Members of one team always move together.
	assert.InDelta(t, alpha[0].Rating-1250, alpha[1].Rating-1150, 1e-9)

	assert.Equal(t, 1, alpha[0].Wins)
	assert.Equal(t, 1, alpha[1].Wins)
	assert.Equal(t, 1, beta[0].Losses)
	assert.Equal(t, 1, beta[1].Losses)
}

func TestExpectedScoreBounds(t *testing.T) {
	assert.InDelta(t, 0.5, expectedScore(1200, 1200), 1e-9)
	assert.Greater(t, expectedScore(1400, 1000), 0.9)
	assert.Less(t, expectedScore(1000, 1400), 0.1)
	assert.InDelta(t, 1.0, expectedScore(1200, 1200)+expectedScore(1200, 1200), 1e-9)
}
