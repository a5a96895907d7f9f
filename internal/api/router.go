package api

import (
	"net/http"

	_ "github.com/AlexZinkM/amm-config/docs"
	"github.com/AlexZinkM/amm-config/internal/handler"
	"github.com/AlexZinkM/amm-config/solana"

	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// SetupRouter sets up router with handlers
func SetupRouter(reader solana.ConfigReader, logger *zap.Logger) (http.Handler, error) {
	configHandler, err := handler.NewConfigHandler(reader, logger)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()

	// Swagger UI
	mux.HandleFunc("/swagger/", httpSwagger.WrapHandler)

	// Config endpoints
	mux.HandleFunc("/config", configHandler.GetConfig)
	mux.HandleFunc("/config/address", configHandler.GetConfigAddress)

	return mux, nil
}
