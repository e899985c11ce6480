package services

import (
	"context"

	"github.com/riserecover/server/models"
)

// GameRewards maps each mini-game to the coins paid for finishing it.
var GameRewards = map[string]int{
	"memory": 20,
	"breath": 10,
}

// RewardGame pays the fixed reward for completing game.
func (s *AccountService) RewardGame(ctx context.Context, username, game string) (models.User, int, error) {
	amount, ok := GameRewards[game]
	if !ok {
		return models.User{}, 0, ErrUnknownGame
	}
	u, err := s.AwardCoins(ctx, username, amount)
	if err != nil {
		return models.User{}, 0, err
	}
	return u, amount, nil
}
