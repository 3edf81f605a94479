package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"padletscraper/internal/browser"
	"padletscraper/internal/config"
	"padletscraper/internal/domain"
	"padletscraper/internal/export"
	"padletscraper/internal/scraper"
	"padletscraper/internal/storage"
)

const welcomeMessage = "Welcome! Send me a Padlet link and I'll reply with its contents as Markdown.\n" +
	"Use /history <link> to see when a board was archived."

// Handler holds dependencies for the Telegram bot handlers.
type Handler struct {
	bot     *tgbot.Bot
	cfg     config.Config
	repo    storage.Repository // nil when archiving is disabled
	scraper scraper.Scraper
	log     logrus.FieldLogger

	// Each scrape starts its own browser; run one at a time.
	slot chan struct{}
}

// NewHandler creates a new bot handler instance.
func NewHandler(cfg config.Config, repo storage.Repository, scraper scraper.Scraper, logger logrus.FieldLogger) (*Handler, error) {
	log := logger.WithField("component", "bot_handler")

	if err := cfg.ValidateBot(); err != nil {
		return nil, err
	}

	h := &Handler{
		cfg:     cfg,
		repo:    repo,
		scraper: scraper,
		log:     log,
		slot:    make(chan struct{}, 1),
	}

	// Messages that match no command fall through to defaultHandler.
	b, err := tgbot.New(cfg.TelegramBotToken, tgbot.WithDefaultHandler(h.defaultHandler))
	if err != nil {
		log.WithError(err).Error("Failed to create Telegram bot instance")
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	h.bot = b

	h.registerHandlers()

	log.Info("Telegram bot handler initialized")
	return h, nil
}

// registerHandlers sets up the command and message handlers.
func (h *Handler) registerHandlers() {
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/start", tgbot.MatchTypeExact, h.startHandler)
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/history", tgbot.MatchTypePrefix, h.historyHandler)
	h.log.Debug("Registered /start and /history command handlers")
}

// Start begins polling for updates from Telegram.
// This function blocks until the context is cancelled.
func (h *Handler) Start(ctx context.Context) {
	h.log.Info("Starting Telegram bot polling...")
	h.bot.Start(ctx)
	h.log.Info("Telegram bot polling stopped.")
}

func (h *Handler) startHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.reply(ctx, update.Message.Chat.ID, welcomeMessage)
}

func (h *Handler) historyHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	if h.repo == nil {
		h.reply(ctx, chatID, "Archiving is disabled.")
		return
	}

	target, ok := ExtractURL(update.Message.Text)
	if !ok {
		boards, err := h.repo.ListBoards(ctx)
		if err != nil {
			h.log.WithError(err).Error("Failed to list archived boards")
			h.reply(ctx, chatID, "Could not read the archive.")
			return
		}
		h.reply(ctx, chatID, export.Boards(boards))
		return
	}

	snaps, err := h.repo.ListSnapshots(ctx, target)
	if err != nil {
		h.log.WithError(err).WithField("url", target).Error("Failed to list snapshots")
		h.reply(ctx, chatID, "Could not read the archive.")
		return
	}
	h.reply(ctx, chatID, export.History(target, snaps))
}

func (h *Handler) defaultHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	if update.Message == nil || strings.HasPrefix(update.Message.Text, "/") {
		return
	}
	chatID := update.Message.Chat.ID
	log := h.log.WithField("chat_id", chatID)

	target, ok := ExtractURL(update.Message.Text)
	if !ok {
		log.Debug("Received message without a link")
		h.reply(ctx, chatID, "Send me a Padlet link to scrape.")
		return
	}
	log = log.WithField("url", target)

	select {
	case h.slot <- struct{}{}:
		defer func() { <-h.slot }()
	default:
		h.reply(ctx, chatID, "Another board is being scraped, please try again in a moment.")
		return
	}

	h.reply(ctx, chatID, "Scraping "+target+" ...")
	padlet, err := h.scraper.Scrape(ctx, target)
	if err != nil {
		log.WithError(err).Error("Scrape failed")
		h.reply(ctx, chatID, FailureMessage(err))
		return
	}

	if h.cfg.Archive && h.repo != nil {
		snap := domain.Snapshot{URL: target, ScrapedAt: time.Now(), Padlet: *padlet}
		if err := h.repo.SaveSnapshot(ctx, snap); err != nil {
			log.WithError(err).Warn("Failed to archive snapshot")
		}
	}

	_, err = b.SendDocument(ctx, &tgbot.SendDocumentParams{
		ChatID: chatID,
		Document: &models.InputFileUpload{
			Filename: DocumentName(padlet),
			Data:     bytes.NewReader([]byte(export.Markdown(padlet))),
		},
		Caption: padlet.String(),
	})
	if err != nil {
		log.WithError(err).Error("Failed to send document")
	}
}

func (h *Handler) reply(ctx context.Context, chatID int64, text string) {
	_, err := h.bot.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		h.log.WithError(err).WithField("chat_id", chatID).Error("Failed to send message")
	}
}

// ExtractURL returns the first http(s) URL in text.
func ExtractURL(text string) (string, bool) {
	for _, field := range strings.Fields(text) {
		u, err := url.Parse(strings.Trim(field, "<>()"))
		if err != nil || u.Host == "" {
			continue
		}
		if u.Scheme == "http" || u.Scheme == "https" {
			return u.String(), true
		}
	}
	return "", false
}

// DocumentName derives a Markdown file name from the board URL.
func DocumentName(p *domain.Padlet) string {
	name := "padlet"
	if u, err := url.Parse(p.URL); err == nil {
		if base := strings.Trim(u.Path, "/"); base != "" {
			parts := strings.Split(base, "/")
			name = parts[len(parts)-1]
		}
	}
	return name + ".md"
}

// FailureMessage turns a scrape error into a user-facing reply.
func FailureMessage(err error) string {
	switch {
	case errors.Is(err, browser.ErrBrowserUnavailable):
		return "The scraper has no browser available right now."
	case errors.Is(err, browser.ErrNavigation):
		return "That page could not be loaded."
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "Scraping was cancelled."
	default:
		return "Scraping failed."
	}
}
