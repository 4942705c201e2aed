package middlewares

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"interview-scheduler/models"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const maxIdempotencyKey = 128

// Idempotency replays the stored response of a mutating request that carries
// an Idempotency-Key already seen for the same user and request body. A nil
// db disables the guard. Failed bookkeeping writes are logged to lg.
func Idempotency(db *gorm.DB, lg zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if db == nil {
			return c.Next()
		}
		method := strings.ToUpper(c.Method())
		if method != fiber.MethodPost && method != fiber.MethodPut && method != fiber.MethodPatch && method != fiber.MethodDelete {
			return c.Next()
		}

		key := strings.TrimSpace(c.Get("Idempotency-Key"))
		if key == "" {
			return c.Next()
		}
		if len(key) > maxIdempotencyKey {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Idempotency-Key too long"})
		}

		userID, _ := c.Locals("userID").(string)
		if userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "auth context missing"})
		}

		path := c.OriginalURL()
		reqHash := requestHash(method, path, c.Body(), userID)

		// Struct conditions keep the reserved "key" column quoted on MySQL.
		// Phase 1: claim the key, or find the earlier request that did.
		var existing models.IdempotencyKey
		replayed := false
		err := db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
			err := tx.Where(&models.IdempotencyKey{Key: key, UserID: userID}).First(&existing).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				rec := models.IdempotencyKey{
					Key:         key,
					RequestHash: reqHash,
					Method:      method,
					Path:        path,
					UserID:      userID,
				}
				if err := tx.Create(&rec).Error; err != nil {
					if !errors.Is(err, gorm.ErrDuplicatedKey) {
						return fiber.NewError(fiber.StatusInternalServerError, "idempotency create failed")
					}
					if err := tx.Where(&models.IdempotencyKey{Key: key, UserID: userID}).First(&existing).Error; err != nil {
						return fiber.NewError(fiber.StatusInternalServerError, "idempotency lookup failed")
					}
				} else {
					existing = rec
				}
			} else if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "idempotency lookup failed")
			}

			if existing.RequestHash != reqHash {
				return fiber.NewError(fiber.StatusConflict, "Idempotency-Key reuse with different request")
			}
			if existing.ResponseStatus != 0 && existing.ResponseBody != nil {
				replayed = true
			}
			return nil
		})
		if err != nil {
			return err
		}
		if replayed {
			c.Set("Idempotent-Replayed", "true")
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Status(existing.ResponseStatus).Send(existing.ResponseBody)
		}

		cond := &models.IdempotencyKey{Key: key, UserID: userID}
		release := func() {
			if err := db.Where(cond).Delete(&models.IdempotencyKey{}).Error; err != nil {
				lg.Warn().Err(err).Str("idempotency_key", key).Str("user_id", userID).
					Msg("idempotency key release failed; retries stay blocked until it is removed")
			}
		}

		if err := c.Next(); err != nil {
			release()
			return err
		}

		// Phase 2: remember successful responses only, so a failed attempt can be retried.
		status := c.Response().StatusCode()
		if status >= fiber.StatusBadRequest {
			release()
			return nil
		}
		now := time.Now().UTC()
		body := append([]byte(nil), c.Response().Body()...)
		err = db.Model(&models.IdempotencyKey{}).
			Where(cond).
			Updates(map[string]any{
				"response_status": status,
				"response_body":   body,
				"completed_at":    &now,
			}).Error
		if err != nil {
			lg.Warn().Err(err).Str("idempotency_key", key).Str("user_id", userID).
				Msg("idempotency response not stored")
			release()
		}
		return nil
	}
}

// requestHash is sha256 over method|path|body|user.
func requestHash(method, path string, body []byte, userID string) string {
	h := sha256.New()
	for _, part := range [][]byte{[]byte(method), []byte(path), body, []byte(userID)} {
		h.Write(part)
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
