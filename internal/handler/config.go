package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/AlexZinkM/amm-config/internal/model"
	"github.com/AlexZinkM/amm-config/solana"

	"go.uber.org/zap"
)

const defaultRequestTimeout = 15 * time.Second

// ConfigHandler serves read-only views of the AMM config account
type ConfigHandler struct {
	reader  solana.ConfigReader
	timeout time.Duration
	logger  *zap.Logger
}

// NewConfigHandler creates a new ConfigHandler
func NewConfigHandler(reader solana.ConfigReader, logger *zap.Logger) (*ConfigHandler, error) {
	if reader == nil {
		return nil, errors.New("config reader is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ConfigHandler{
		reader:  reader,
		timeout: defaultRequestTimeout,
		logger:  logger.Named("handler"),
	}, nil
}

// GetConfigAddress handles GET /config/address
// @Summary      Get config account address
// @Description  Returns the program id and the derived config account with its bump
// @Tags         config
// @Produce      json
// @Success      200  {object}  model.ConfigAddressResponse
// @Router       /config/address [get]
func (h *ConfigHandler) GetConfigAddress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, solana.GetConfigAddress(h.reader))
}

// GetConfig handles GET /config
// @Summary      Get fee configuration
// @Description  Reads the config account: owner, fee recipient and fee rate
// @Tags         config
// @Produce      json
// @Success      200  {object}  model.ConfigResponse
// @Failure      502  {object}  model.ErrorResponse
// @Failure      504  {object}  model.ErrorResponse
// @Router       /config [get]
func (h *ConfigHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cfg, err := solana.GetConfig(ctx, h.reader)
	if err != nil {
		h.logger.Warn("config read failed", zap.Error(err))
		h.writeJSON(w, statusFor(err), model.ErrorResponse{
			Error: err.Error(),
			Code:  string(model.KindOf(err)),
		})
		return
	}

	h.writeJSON(w, http.StatusOK, cfg)
}

func statusFor(err error) int {
	switch model.KindOf(err) {
	case model.KindTimeout:
		return http.StatusGatewayTimeout
	case model.KindNetworkUnreachable:
		return http.StatusBadGateway
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// writeJSON commits status before encoding, so an encode failure can only be logged.
func (h *ConfigHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("failed to write response", zap.Int("status", status), zap.Error(err))
	}
}
