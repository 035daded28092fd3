package handlers

import (
	"civicreward/internal/models"
	"civicreward/internal/services/wallet"
	"civicreward/internal/services/withdrawal"
	"civicreward/internal/utils"
	"civicreward/internal/utils/pagination"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type WalletHandler struct {
	walletService     wallet.Service
	withdrawalService withdrawal.Service
}

func NewWalletHandler(walletService wallet.Service, withdrawalService withdrawal.Service) *WalletHandler {
	return &WalletHandler{
		walletService:     walletService,
		withdrawalService: withdrawalService,
	}
}

func (h *WalletHandler) GetWallet(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	view, err := h.walletService.GetWallet(c.Context(), claims.UserID)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, view)
}

func (h *WalletHandler) GetAvailableBalance(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	balance, err := h.walletService.AvailableBalance(c.Context(), claims.UserID)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, fiber.Map{"available_balance": balance})
}

func (h *WalletHandler) GetTransactions(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	page := pagination.ParseFromRequest(c, wallet.DefaultHistoryLimit, wallet.MaxHistoryLimit)
	history, err := h.walletService.History(c.Context(), claims.UserID, models.TransactionType(c.Query("type")), page)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, history)
}

func (h *WalletHandler) GetTransaction(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	tx, err := h.walletService.GetTransaction(c.Context(), claims.UserID, c.Params("id"))
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, tx)
}

func (h *WalletHandler) GenerateWithdrawalQR(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := parseBody(c, &input); err != nil {
		return utils.Error(c, err)
	}

	qr, err := h.withdrawalService.GenerateWithdrawalQR(c.Context(), claims.UserID, withdrawal.Request{Amount: input.Amount})
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Created(c, qr)
}

func (h *WalletHandler) RequestWithdrawal(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		Amount         decimal.Decimal       `json:"amount"`
		Method         string                `json:"method" validate:"required,withdrawal_method"`
		PaymentDetails models.PaymentDetails `json:"payment_details"`
	}
	if err := parseBody(c, &input); err != nil {
		return utils.Error(c, err)
	}

	result, err := h.withdrawalService.RequestWithdrawal(c.Context(), withdrawal.Request{
		UserID:  claims.UserID,
		Amount:  input.Amount,
		Method:  models.WithdrawalMethod(input.Method),
		Details: input.PaymentDetails,
	})
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Created(c, result)
}

func (h *WalletHandler) ProcessWithdrawalQR(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		QRValue string `json:"qr_value" validate:"required"`
	}
	if err := parseBody(c, &input); err != nil {
		return utils.Error(c, err)
	}

	result, err := h.withdrawalService.ProcessWithdrawalQR(c.Context(), claims.UserID, input.QRValue)
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, result)
}

func (h *WalletHandler) CancelWithdrawal(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	result, err := h.withdrawalService.CancelWithdrawal(c.Context(), claims.UserID, c.Params("withdrawalId"))
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, result)
}

func (h *WalletHandler) CompleteWithdrawal(c *fiber.Ctx) error {
	result, err := h.withdrawalService.CompleteWithdrawal(c.Context(), c.Params("withdrawalId"))
	if err != nil {
		return utils.Error(c, err)
	}
	return utils.Success(c, result)
}
