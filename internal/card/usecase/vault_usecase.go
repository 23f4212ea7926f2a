package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dario/cardvault/internal/card/domain"
	cryptoService "github.com/dario/cardvault/internal/crypto/service"
	apperrors "github.com/dario/cardvault/internal/errors"
	"github.com/dario/cardvault/internal/telemetry"
)

// MessageUnhealthy is returned when the health probe yields something other than 1.
const MessageUnhealthy = "Health probe returned an unexpected value."

type vaultUseCase struct {
	repo          CardRepository
	cipher        cryptoService.Cipher
	encryptionKey string
	telemetry     *telemetry.Telemetry
	logger        *slog.Logger
}

// NewVaultUseCase creates the vault use case. encryptionKey is the plaintext secret handed
// to cipher for every field.
func NewVaultUseCase(
	repo CardRepository,
	cipher cryptoService.Cipher,
	encryptionKey string,
	tel *telemetry.Telemetry,
	logger *slog.Logger,
) VaultUseCase {
	return &vaultUseCase{
		repo:          repo,
		cipher:        cipher,
		encryptionKey: encryptionKey,
		telemetry:     tel,
		logger:        logger,
	}
}

// keyedHasher binds the configured secret to the cipher's dedup digest.
type keyedHasher struct {
	cipher cryptoService.Cipher
	key    string
}

func (h keyedHasher) Hash(pan string) (string, error) {
	return h.cipher.Hash(pan, h.key)
}

// Store vaults a card and returns its summary.
func (v *vaultUseCase) Store(ctx context.Context, req domain.VaultRequest) domain.Response[domain.Summary] {
	response := domain.NewFailure[domain.Summary]()

	pan := domain.NormalizePAN(req.Pan)
	if pan == "" {
		v.logger.WarnContext(ctx, "card store rejected", slog.String("reason", domain.ErrEmptyPAN.Error()))
		response.Fail(domain.MessageEmptyPAN)
		return response
	}

	bin, err := domain.ParseBIN(domain.Bin(pan))
	if err != nil {
		v.logger.WarnContext(ctx, "card store rejected",
			slog.String("card_mask", domain.Mask(pan)),
			slog.String("reason", err.Error()))
		response.Fail(domain.MessageInvalidBIN)
		return response
	}

	logAttrs := []any{
		slog.String("card_bin", domain.Bin(pan)),
		slog.String("card_mask", domain.Mask(pan)),
	}

	var (
		summary  domain.Summary
		notFound error
	)
	err = v.telemetry.Run(ctx, telemetry.Call{Operation: OperationStore}, func(ctx context.Context) error {
		derived, err := domain.Derive(pan, keyedHasher{cipher: v.cipher, key: v.encryptionKey})
		if err != nil {
			return err
		}

		encryptedPan, err := v.cipher.Encrypt(pan, v.encryptionKey)
		if err != nil {
			return fmt.Errorf("failed to encrypt card pan: %w", err)
		}
		encryptedExpiry, err := v.cipher.Encrypt(req.Expiry, v.encryptionKey)
		if err != nil {
			return fmt.Errorf("failed to encrypt card expiry: %w", err)
		}

		cardID, err := v.repo.Store(ctx, domain.StoreInput{
			DedupHash:       derived.Hash,
			EncryptedPan:    encryptedPan,
			Bin:             bin,
			ProductCode:     derived.ProductCode,
			MaskedTail:      derived.MaskedTail,
			EncryptedExpiry: encryptedExpiry,
		})
		if apperrors.Is(err, apperrors.ErrNotFound) {
			notFound = err
			return nil
		}
		if err != nil {
			return err
		}

		summary = domain.Summary{
			CardID:      cardID,
			Bin:         derived.Bin,
			MaskedTail:  derived.MaskedTail,
			ProductCode: derived.ProductCode,
		}
		return nil
	})

	switch {
	case err != nil:
		v.logger.ErrorContext(ctx, "failed to store card", append(logAttrs, slog.Any("error", err))...)
		response.Fail(err.Error())
	case notFound != nil:
		message := domain.MessageNoStoredCard
		if apperrors.Is(notFound, domain.ErrEmptyCursor) {
			message = domain.MessageEmptyCursor
		}
		v.logger.InfoContext(ctx, "card store returned no record", logAttrs...)
		response.Fail(message)
	default:
		v.logger.InfoContext(ctx, "card stored", append(logAttrs, slog.Int64("card_id", summary.CardID))...)
		response.Succeed(summary)
	}
	return response
}

// GetByID returns the stored record with encrypted fields left encrypted.
func (v *vaultUseCase) GetByID(ctx context.Context, cardID int64) domain.Response[domain.Card] {
	return v.lookup(ctx, OperationGetByID, cardID, false)
}

// GetDecryptedByID returns the stored record with PAN and expiry decrypted.
func (v *vaultUseCase) GetDecryptedByID(ctx context.Context, cardID int64) domain.Response[domain.Card] {
	return v.lookup(ctx, OperationGetDecryptedByID, cardID, true)
}

func (v *vaultUseCase) lookup(
	ctx context.Context,
	operation string,
	cardID int64,
	decrypt bool,
) domain.Response[domain.Card] {
	response := domain.NewFailure[domain.Card]()
	logAttrs := []any{
		slog.String("operation", operation),
		slog.Int64("card_id", cardID),
	}

	if cardID <= 0 {
		v.logger.WarnContext(ctx, "card lookup rejected",
			append(logAttrs, slog.String("reason", domain.ErrInvalidCardID.Error()))...)
		response.Fail(domain.MessageInvalidID)
		return response
	}

	var (
		card     *domain.Card
		notFound error
	)
	err := v.telemetry.Run(ctx, telemetry.Call{Operation: operation}, func(ctx context.Context) error {
		found, err := v.repo.GetByID(ctx, cardID)
		if apperrors.Is(err, apperrors.ErrNotFound) {
			notFound = err
			return nil
		}
		if err != nil {
			return err
		}

		if decrypt {
			if err := v.decrypt(found); err != nil {
				return err
			}
			found.CardID = cardID
		}
		card = found
		return nil
	})

	switch {
	case err != nil:
		v.logger.ErrorContext(ctx, "failed to read card", append(logAttrs, slog.Any("error", err))...)
		response.Fail(err.Error())
	case notFound != nil:
		v.logger.InfoContext(ctx, "card lookup returned no record", logAttrs...)
		response.Fail(domain.MessageNoCard)
	default:
		v.logger.DebugContext(ctx, "card read",
			append(logAttrs, slog.String("card_bin", card.Bin), slog.String("card_tail", card.MaskedTail))...)
		response.Succeed(*card)
	}
	return response
}

func (v *vaultUseCase) decrypt(card *domain.Card) error {
	if card.PanCipher != "" {
		pan, err := v.cipher.Decrypt(card.PanCipher, v.encryptionKey)
		if err != nil {
			return fmt.Errorf("failed to decrypt card pan: %w", err)
		}
		card.Pan = pan
	}
	if card.ExpiryCipher != "" {
		expiry, err := v.cipher.Decrypt(card.ExpiryCipher, v.encryptionKey)
		if err != nil {
			return fmt.Errorf("failed to decrypt card expiry: %w", err)
		}
		card.Expiry = expiry
	}
	return nil
}

// HealthCheck probes the query target.
func (v *vaultUseCase) HealthCheck(ctx context.Context) domain.Response[bool] {
	response := domain.NewFailure[bool]()

	var healthy bool
	err := v.telemetry.Run(ctx, telemetry.Call{Operation: OperationHealthCheck}, func(ctx context.Context) error {
		var err error
		healthy, err = v.repo.Ping(ctx)
		return err
	})

	switch {
	case err != nil:
		v.logger.ErrorContext(ctx, "health check failed", slog.Any("error", err))
		response.Fail(err.Error())
	case !healthy:
		v.logger.WarnContext(ctx, "health check returned an unexpected value")
		response.Fail(MessageUnhealthy)
	default:
		response.Succeed(true)
	}
	return response
}
