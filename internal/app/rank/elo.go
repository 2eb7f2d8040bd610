/*
Package rank implements the Elo rating engine for ranked battles.

The functions here are pure: they mutate the in-memory ranking rows handed to
them and leave persistence to the caller, which applies them inside the same
transaction as the finishing-position assignment.
*/
package rank

import (
	"math"

	"bitarena/internal/app/store"
)

const (
	// DefaultK is the K-factor controlling how fast ratings move.
	DefaultK = 32

	// BaseRating is the rating a player starts a season with.
	BaseRating = 1200
)

// expectedScore is the standard Elo expectation of self against opp.
func expectedScore(self, opp float64) float64 {
	return 1 / (1 + math.Pow(10, (opp-self)/400))
}

// Elo1v1 updates both ratings after a two-player battle.
func Elo1v1(winner, loser *store.Ranking, k float64) {
	expectedWinner := expectedScore(winner.Rating, loser.Rating)
	expectedLoser := expectedScore(loser.Rating, winner.Rating)

	winner.Rating += k * (1 - expectedWinner)
	loser.Rating += k * (0 - expectedLoser)

	winner.Wins++
	loser.Losses++
	winner.TotalMatches++
	loser.TotalMatches++
}

// EloSquad updates ratings for a free-for-all battle of three or more players.
// positions[i] is the finishing position of players[i], 1-based; players may
// share a position, and each then receives that position's actual score.
//
// A player's expected score is the mean of the pairwise expectations against
// every opponent; the actual score maps position linearly onto [0, 1] with
// first place scoring 1.
func EloSquad(players []*store.Ranking, positions []int, k float64) {
	n := len(players)
	if n < 2 || len(positions) != n {
		return
	}

	// Deltas are computed against the pre-battle ratings of all opponents,
	// so apply them only after every expectation is known.
	deltas := make([]float64, n)

	for i, player := range players {
		expected := 0.0
		for j, opponent := range players {
			if i == j {
				continue
			}
			expected += expectedScore(player.Rating, opponent.Rating)
		}
		expected /= float64(n - 1)

		actual := float64(n-positions[i]) / float64(n-1)
		deltas[i] = k * (actual - expected)
	}

	for i, player := range players {
		player.Rating += deltas[i]
		player.TotalMatches++
		if positions[i] == 1 {
			player.Wins++
		} else {
			player.Losses++
		}
	}
}

// EloTeam updates ratings for a team battle. teams[i] holds the member
// rankings of team i and positions[i] its finishing position, 1-based. A
// team's rating is the mean of its members'; every member of a team receives
// the same delta.
func EloTeam(teams [][]*store.Ranking, positions []int, k float64) {
	n := len(teams)
	if n < 2 || len(positions) != n {
		return
	}

	teamRatings := make([]float64, n)
	for i, members := range teams {
		if len(members) == 0 {
			return
		}
		total := 0.0
		for _, member := range members {
			total += member.Rating
		}
		teamRatings[i] = total / float64(len(members))
	}

	for i, members := range teams {
		expected := 0.0
		for j := range teams {
			if i == j {
				continue
			}
			expected += expectedScore(teamRatings[i], teamRatings[j])
		}
		expected /= float64(n - 1)

		actual := float64(n-positions[i]) / float64(n-1)
		delta := k * (actual - expected)

		for _, member := range members {
			member.Rating += delta
			member.TotalMatches++
			if positions[i] == 1 {
				member.Wins++
			} else {
				member.Losses++
			}
		}
	}
}
