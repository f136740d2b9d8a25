package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/rahulkarmakar28/code-sandbox/middleware"
)

const turnstileVerifyURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

type VerifyHandler struct {
	secret string
	client *http.Client

	// VerifyURL is overridable for tests; defaults to the Cloudflare endpoint.
	VerifyURL string
}

func NewVerifyHandler(secret string) *VerifyHandler {
	return &VerifyHandler{
		secret:    secret,
		client:    middleware.GetXRayHTTPClient(&http.Client{Timeout: 10 * time.Second}),
		VerifyURL: turnstileVerifyURL,
	}
}

type verifyRequest struct {
	Token string `json:"cf-turnstile-response"`
}

type siteverifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify godoc
// @Summary Verify a human challenge token
// @Description Forward a Turnstile token to the verification service. This is a pre-condition gate for the editor; it holds no relay state.
// @Tags verify
// @Accept json
// @Produce json
// @Param token body handlers.verifyRequest true "Turnstile token"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /verify [post]
func (h *VerifyHandler) Verify(c *fiber.Ctx) error {
	var req verifyRequest
	if err := c.BodyParser(&req); err != nil || req.Token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "missing verification token",
		})
	}

	form := url.Values{
		"secret":   {h.secret},
		"response": {req.Token},
		"remoteip": {c.IP()},
	}

	resp, err := h.client.Post(h.VerifyURL, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false,
			"message": "verification service unreachable",
		})
	}
	defer resp.Body.Close()

	var result siteverifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false,
			"message": "verification service unreachable",
		})
	}

	if !result.Success {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "verification failed",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "human verified",
	})
}
