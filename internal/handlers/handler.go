package handlers

import (
	"log/slog"

	"github.com/makingtheimpact/blnk-icu/internal/config"
	"github.com/makingtheimpact/blnk-icu/internal/services"
)

type Handler struct {
	cfg              config.Config
	logger           *slog.Logger
	accountService   *services.AccountService
	shortenerService *services.ShortenerService
	statsService     *services.StatsService
	qrService        *services.QRService
	botVerifier      services.BotVerifier
}

func NewHandler(
	cfg config.Config,
	logger *slog.Logger,
	accountService *services.AccountService,
	shortenerService *services.ShortenerService,
	statsService *services.StatsService,
	qrService *services.QRService,
	botVerifier services.BotVerifier,
) *Handler {
	return &Handler{
		cfg:              cfg,
		logger:           logger,
		accountService:   accountService,
		shortenerService: shortenerService,
		statsService:     statsService,
		qrService:        qrService,
		botVerifier:      botVerifier,
	}
}
