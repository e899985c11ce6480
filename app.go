package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/riserecover/server/config"
	"github.com/riserecover/server/routes"
	"github.com/riserecover/server/services"
	"github.com/riserecover/server/store"
	"github.com/riserecover/server/utils"
)

// app holds the wired services for one process.
type app struct {
	store     *store.Store
	hub       *services.Hub
	accounts  *services.AccountService
	checkins  *services.CheckInService
	recovery  *services.RecoveryService
	chat      *services.ChatService
	resources *services.ResourceService
}

func newApp(ctx context.Context, cfg config.AppConfig) (*app, error) {
	backend, err := store.OpenBackend(cfg)
	if err != nil {
		return nil, err
	}
	if rb, ok := backend.(*store.RedisBackend); ok {
		utils.SetRedis(rb.Client())
	}
	log := utils.Logger
	st := store.New(backend, store.WithLogger(log.Named("store")), store.WithChatLimit(cfg.ChatMaxMessages))

	var advisor services.Advisor
	if cfg.AdviceAPIKey != "" {
		g, err := services.NewGeminiAdvisor(ctx, cfg.AdviceAPIKey, cfg.AdviceModel)
		if err != nil {
			log.Warn("advice generator disabled", zap.Error(err))
		} else {
			advisor = g
		}
	}

	loc := cfg.Location()
	rewards := services.RewardPolicy{Base: cfg.CheckInRewardBase, PerStreakDay: cfg.CheckInRewardPerDay}
	advice := services.NewAdviceService(advisor, cfg.AdviceTimeout(), log.Named("advice"))
	hub := services.NewHub()

	return &app{
		store:     st,
		hub:       hub,
		accounts:  services.NewAccountService(st, nil, log.Named("accounts")),
		checkins:  services.NewCheckInService(st, advice, rewards, loc, nil, log.Named("checkins")),
		recovery:  services.NewRecoveryService(st, loc, nil),
		chat:      services.NewChatService(st, hub, nil, log.Named("chat")),
		resources: services.NewResourceService(st),
	}, nil
}

func (a *app) deps() routes.Deps {
	return routes.Deps{
		Accounts:  a.accounts,
		CheckIns:  a.checkins,
		Recovery:  a.recovery,
		Chat:      a.chat,
		Resources: a.resources,
	}
}

func (a *app) Close() {
	a.hub.Close()
	if err := a.store.Close(); err != nil {
		utils.Sugar.Warnf("closing store: %v", err)
	}
	_ = utils.Logger.Sync()
}
