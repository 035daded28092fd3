package handlers

import (
	"civicreward/internal/models"
	"civicreward/internal/services/exchange"
	"civicreward/internal/services/leaderboard"
	"civicreward/internal/services/rewards"
	"civicreward/internal/utils"
	"civicreward/internal/utils/pagination"

	"github.com/gofiber/fiber/v2"
)

type RewardsHandler struct {
	rewards     rewards.Service
	exchange    exchange.Service
	leaderboard leaderboard.Service
}

func NewRewardsHandler(rewardsService rewards.Service, exchangeService exchange.Service, board leaderboard.Service) *RewardsHandler {
	return &RewardsHandler{
		rewards:     rewardsService,
		exchange:    exchangeService,
		leaderboard: board,
	}
}

func (h *RewardsHandler) GetLevels(c *fiber.Ctx) error {
	return utils.Success(c, h.rewards.Levels())
}

func (h *RewardsHandler) GetBadges(c *fiber.Ctx) error {
	return utils.Success(c, h.rewards.Badges())
}

func (h *RewardsHandler) GetLeaderboard(c *fiber.Ctx) error {
	page, err := h.leaderboard.Top(c.Context(), leaderboard.Query{
		RegionID: c.Query("region_id"),
		Limit:    c.QueryInt("limit", leaderboard.DefaultLimit),
		Offset:   c.QueryInt("offset", 0),
	})
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, page)
}

func (h *RewardsHandler) GetExchangeConfig(c *fiber.Ctx) error {
	cfg := h.exchange.Config()
	return utils.Success(c, fiber.Map{
		"rate_per_point": cfg.RatePerPoint,
		"min_points":     cfg.MinPoints,
		"currency":       cfg.Currency,
	})
}

func (h *RewardsHandler) GetMyRewards(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	return h.respondProfile(c, claims.UserID)
}

func (h *RewardsHandler) GetUserRewards(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	userID, err := ownerOrStaff(c, claims)
	if err != nil {
		return utils.Error(c, err)
	}
	return h.respondProfile(c, userID)
}

func (h *RewardsHandler) respondProfile(c *fiber.Ctx, userID string) error {
	profile, err := h.rewards.GetUserRewards(c.Context(), userID)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, profile)
}

func (h *RewardsHandler) GetMyHistory(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	return h.respondHistory(c, claims.UserID)
}

func (h *RewardsHandler) GetUserHistory(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	userID, err := ownerOrStaff(c, claims)
	if err != nil {
		return utils.Error(c, err)
	}
	return h.respondHistory(c, userID)
}

func (h *RewardsHandler) respondHistory(c *fiber.Ctx, userID string) error {
	page := pagination.ParseFromRequest(c, rewards.DefaultHistoryLimit, rewards.MaxHistoryLimit)
	history, err := h.rewards.History(c.Context(), userID, page)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, history)
}

func (h *RewardsHandler) GetMyStats(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	stats, err := h.rewards.Stats(c.Context(), claims.UserID)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, stats)
}

func (h *RewardsHandler) ExchangePoints(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		Points interface{} `json:"points"`
	}
	if err := parseBody(c, &input); err != nil {
		return utils.Error(c, err)
	}

	result, err := h.exchange.RequestExchange(c.Context(), claims.UserID, input.Points)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Created(c, result)
}

func (h *RewardsHandler) GetMyExchanges(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	return h.respondExchanges(c, exchange.Filter{UserID: claims.UserID})
}

func (h *RewardsHandler) ListExchanges(c *fiber.Ctx) error {
	return h.respondExchanges(c, exchange.Filter{
		UserID: c.Query("user_id"),
		Status: models.TransactionStatus(c.Query("status")),
	})
}

func (h *RewardsHandler) respondExchanges(c *fiber.Ctx, filter exchange.Filter) error {
	page := pagination.ParseFromRequest(c, exchange.DefaultListLimit, exchange.MaxListLimit)
	list, err := h.exchange.List(c.Context(), filter, page)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, list)
}

func (h *RewardsHandler) GetGlobalStats(c *fiber.Ctx) error {
	stats, err := h.rewards.GlobalStats(c.Context())
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, stats)
}

type contributionInput struct {
	UserID          string      `json:"user_id" validate:"required"`
	Type            string      `json:"contribution_type" validate:"required,contribution_type"`
	RelatedEntityID string      `json:"related_entity_id"`
	RegionID        string      `json:"region_id"`
	Details         models.JSON `json:"details"`
}

func (in contributionInput) request() rewards.RecordRequest {
	return rewards.RecordRequest{
		UserID:          in.UserID,
		Type:            models.ContributionType(in.Type),
		RelatedEntityID: in.RelatedEntityID,
		RegionID:        in.RegionID,
		Details:         in.Details,
	}
}

func (h *RewardsHandler) RecordContribution(c *fiber.Ctx) error {
	var input contributionInput
	if err := parseBody(c, &input); err != nil {
		return utils.Error(c, err)
	}

	result, err := h.rewards.Record(c.Context(), input.request())
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Created(c, result)
}

func (h *RewardsHandler) AwardManual(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		contributionInput
		CustomPoints int64  `json:"custom_points" validate:"gt=0"`
		Reason       string `json:"reason" validate:"required,max=500"`
	}
	if err := parseBody(c, &input); err != nil {
		return utils.Error(c, err)
	}

	req := input.request()
	req.Override = &rewards.Override{
		AdminID: claims.UserID,
		Reason:  input.Reason,
		Points:  input.CustomPoints,
	}
	result, err := h.rewards.Record(c.Context(), req)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Created(c, result)
}

func (h *RewardsHandler) GrantBadge(c *fiber.Ctx) error {
	var input struct {
		UserID string `json:"user_id" validate:"required"`
	}
	if err := parseBody(c, &input); err != nil {
		return utils.Error(c, err)
	}

	delta, err := h.rewards.GrantBadge(c.Context(), input.UserID, c.Params("code"))
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, delta)
}

func (h *RewardsHandler) RecheckBadges(c *fiber.Ctx) error {
	delta, err := h.rewards.RecheckBadges(c.Context(), c.Params("userId"))
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, delta)
}
