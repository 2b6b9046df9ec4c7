package denoiseapi

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"
)

// ZstdMiddleware decompresses zstd request bodies and compresses responses for clients
// that accept zstd. A request whose decompressed body would exceed maxBodySize is
// rejected with 413 before it reaches the route.
func ZstdMiddleware(whitelistedRoutes []string, maxBodySize int) fiber.Handler {
	if maxBodySize <= 0 {
		maxBodySize = DefaultBodyLimit
	}
	if whitelistedRoutes == nil {
		whitelistedRoutes = []string{"/health"}
		log.Debug().
			Any("default", whitelistedRoutes).
			Msg("Whitelisted routes not specified, using default whitelist")
	}

	return func(c *fiber.Ctx) error {
		if slices.Contains(whitelistedRoutes, c.Path()) {
			return c.Next()
		}

		// Handle request decompression
		if strings.EqualFold(c.Get(fiber.HeaderContentEncoding), "zstd") {
			body := c.Body()
			if len(body) > 0 {
				decoder, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(uint64(maxBodySize)))
				if err != nil {
					log.Err(err).Msg("Failed to create zstd decoder")
					return c.Status(fiber.StatusInternalServerError).JSON(
						createResponse(map[string]interface{}{}, err))
				}
				defer decoder.Close()

				decompressed, err := decoder.DecodeAll(body, nil)
				if isSizeExceeded(err) {
					log.Warn().
						Int("compressed_size", len(body)).
						Int("limit", maxBodySize).
						Msg("Rejected zstd request exceeding body limit")
					return c.Status(fiber.StatusRequestEntityTooLarge).JSON(
						createResponse(map[string]interface{}{},
							fmt.Errorf("%s, decompressed body exceeds %d bytes",
								http.StatusText(http.StatusRequestEntityTooLarge), maxBodySize)))
				}
				if err != nil {
					log.Err(err).Msg("Failed to decompress request")
					return c.Status(fiber.StatusBadRequest).JSON(
						createResponse(
							map[string]interface{}{},
							fmt.Errorf("failed to decompress zstd data: %w", err),
						))
				}

				c.Request().SetBody(decompressed)
				c.Request().Header.Del(fiber.HeaderContentEncoding)
				log.Debug().Msg("Request body decompressed")
			}
		}

		if err := c.Next(); err != nil {
			return err
		}

		// Handle response compression
		if strings.Contains(strings.ToLower(c.Get(fiber.HeaderAcceptEncoding)), "zstd") {
			responseBody := c.Response().Body()
			if len(responseBody) > 0 {
				encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
				if err != nil {
					log.Err(err).Msg("Failed to create zstd encoder")
					return nil // Continue without compression
				}
				defer encoder.Close()

				compressed := encoder.EncodeAll(responseBody, nil)
				c.Response().SetBody(compressed)
				c.Set(fiber.HeaderContentEncoding, "zstd")

				log.Debug().
					Int("original_size", len(responseBody)).
					Int("compressed_size", len(compressed)).
					Msg("Response body compressed")
			}
		}

		return nil
	}
}

func isSizeExceeded(err error) bool {
	return errors.Is(err, zstd.ErrDecoderSizeExceeded) || errors.Is(err, zstd.ErrWindowSizeExceeded)
}

// TokenMiddleware requires "Authorization: Bearer <token>" on every non-whitelisted
// route. An empty token disables the check.
func TokenMiddleware(token string, whitelistedRoutes []string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token == "" || slices.Contains(whitelistedRoutes, c.Path()) {
			return c.Next()
		}

		header := c.Get(AuthorizationHeader)
		if !strings.HasPrefix(header, BearerPrefix) {
			return c.Status(fiber.StatusUnauthorized).JSON(
				createResponse(map[string]interface{}{},
					fmt.Errorf("%s, missing bearer token", http.StatusText(http.StatusUnauthorized))))
		}

		got := strings.TrimPrefix(header, BearerPrefix)
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			log.Warn().Str("path", c.Path()).Str("ip", c.IP()).Msg("Rejected request with invalid token")
			return c.Status(fiber.StatusForbidden).JSON(
				createResponse(map[string]interface{}{},
					fmt.Errorf("%s due to invalid token", http.StatusText(http.StatusForbidden))))
		}

		return c.Next()
	}
}
