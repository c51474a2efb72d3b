package services

import (
	"context"
	"errors"

	"photo-sku-backend/internal/apperrors"
	"photo-sku-backend/internal/ledger"
	"photo-sku-backend/internal/logger"
	"photo-sku-backend/internal/models"
	"photo-sku-backend/internal/packager"
	"photo-sku-backend/internal/telegram"
)

// DeliveryService turns a SKU's ledger into an archive and hands it to the
// caller or to Telegram.
type DeliveryService struct {
	ledgers       ledger.Store
	packager      *packager.Packager
	sender        telegram.Sender
	cleanup       *CleanupService
	defaultChatID string
	log           *logger.Logger
}

func NewDeliveryService(
	ledgers ledger.Store,
	pkg *packager.Packager,
	sender telegram.Sender,
	cleanup *CleanupService,
	defaultChatID string,
	log *logger.Logger,
) *DeliveryService {
	if log == nil {
		log = logger.Nop()
	}
	return &DeliveryService{
		ledgers:       ledgers,
		packager:      pkg,
		sender:        sender,
		cleanup:       cleanup,
		defaultChatID: defaultChatID,
		log:           log,
	}
}

// Package builds the archive for sku. With cleanup set, the SKU's files and
// ledger are removed once the archive is in memory.
func (s *DeliveryService) Package(ctx context.Context, sku string, opts packager.Options, cleanup bool) (*packager.Archive, error) {
	ctx = s.log.WithSKU(ctx, sku)

	l, err := s.ledgers.Read(ctx, sku)
	if errors.Is(err, ledger.ErrNotFound) {
		return nil, apperrors.Wrap(apperrors.CodeNotFound, err, "no processed batch for this SKU")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "failed to read ledger")
	}

	archive, err := s.packager.Build(ctx, l, opts)
	if errors.Is(err, packager.ErrNothingToPackage) {
		return nil, apperrors.Wrap(apperrors.CodeNotFound, err, "no processed files found for this SKU")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "failed to build archive")
	}

	s.log.Zerolog(ctx).Info().
		Str("archive", archive.Name).
		Int("files", len(archive.Files)).
		Int("bytes", len(archive.Data)).
		Msg("archive built")

	if cleanup && s.cleanup != nil {
		if err := s.cleanup.CleanupSKU(ctx, sku); err != nil {
			s.log.Warn(ctx, "cleanup after packaging failed", err)
		}
	}
	return archive, nil
}

// SendToTelegram packages the SKU and posts it as {sku}.zip.
func (s *DeliveryService) SendToTelegram(ctx context.Context, req models.TelegramRequest) (*models.TelegramResponse, error) {
	if s.sender == nil {
		return nil, apperrors.New(apperrors.CodeValidation, "telegram delivery is not configured")
	}
	chatID := req.ChatID
	if chatID == "" {
		chatID = s.defaultChatID
	}
	if chatID == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "chatId is required")
	}

	archive, err := s.Package(ctx, req.SKU, packager.Options{}, false)
	if err != nil {
		return nil, err
	}

	fileName := req.SKU + ".zip"
	if err := s.sender.SendDocument(ctx, chatID, fileName, archive.Data, telegram.Caption(req.SKU, len(archive.Files))); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "failed to send archive to Telegram")
	}
	s.log.Zerolog(s.log.WithSKU(ctx, req.SKU)).Info().Str("chat_id", chatID).Msg("archive sent to telegram")

	if req.Cleanup && s.cleanup != nil {
		if err := s.cleanup.CleanupSKU(ctx, req.SKU); err != nil {
			s.log.Warn(ctx, "cleanup after telegram delivery failed", err)
		}
	}

	return &models.TelegramResponse{
		Success:  true,
		SKU:      req.SKU,
		FileName: fileName,
		Files:    len(archive.Files),
	}, nil
}
