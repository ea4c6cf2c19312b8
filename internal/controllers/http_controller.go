package controllers

import (
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/papersync/papersync/internal/domain"
	"github.com/papersync/papersync/internal/managers"
	"github.com/papersync/papersync/internal/version"
)

// HTTPController exposes the OAuth flow, the webhook pipeline, and the
// manual refresh endpoint.
type HTTPController struct {
	oauthManager *managers.OAuthManager
	pipeline     *managers.WebhookPipeline
	lifecycle    *managers.TokenLifecycleManager
	baseURL      string
	clock        domain.Clock
}

type HTTPControllerDependencies struct {
	OAuthManager          *managers.OAuthManager
	WebhookPipeline       *managers.WebhookPipeline
	TokenLifecycleManager *managers.TokenLifecycleManager
	BaseURL               string
	Clock                 domain.Clock
}

func NewHTTPController(deps HTTPControllerDependencies) *HTTPController {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	return &HTTPController{
		oauthManager: deps.OAuthManager,
		pipeline:     deps.WebhookPipeline,
		lifecycle:    deps.TokenLifecycleManager,
		baseURL:      deps.BaseURL,
		clock:        clock,
	}
}

// Health is the liveness probe.
func (c *HTTPController) Health(ctx fiber.Ctx) error {
	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":    "ok",
		"service":   "papersync",
		"version":   version.GetVersion(),
		"timestamp": c.clock().UTC().Format(time.RFC3339),
	})
}

// Connect starts the OAuth flow by redirecting to the authorization
// URL, issuing one handshake state record as a side effect.
func (c *HTTPController) Connect(ctx fiber.Ctx) error {
	authURL, err := c.oauthManager.AuthURL(ctx.RequestCtx())
	if err != nil {
		return err
	}

	return ctx.Redirect().To(authURL)
}

// Callback finishes the OAuth flow and renders the inline success page.
func (c *HTTPController) Callback(ctx fiber.Ctx) error {
	code := ctx.Query("code")
	state := ctx.Query("state")

	result, err := c.oauthManager.HandleCallback(ctx.RequestCtx(), code, state)
	if err != nil {
		return err
	}

	return ctx.Type("html").SendString(renderSuccessPage(result, c.baseURL))
}

// Webhook ingests one Notion automation event.
func (c *HTTPController) Webhook(ctx fiber.Ctx) error {
	var payload domain.AutomationPayload
	if err := ctx.Bind().Body(&payload); err != nil {
		return domain.NewValidationError("invalid request body")
	}

	result, err := c.pipeline.Process(ctx.RequestCtx(), payload)
	if err != nil {
		return err
	}

	return ctx.JSON(result)
}

type refreshTokenRequest struct {
	WorkspaceID string `json:"workspace_id"`
}

// RefreshToken manually refreshes the credential of one workspace.
func (c *HTTPController) RefreshToken(ctx fiber.Ctx) error {
	var req refreshTokenRequest
	if err := ctx.Bind().Body(&req); err != nil {
		return domain.NewValidationError("invalid request body")
	}

	if req.WorkspaceID == "" {
		return domain.NewValidationError("missing required field: workspace_id")
	}

	if err := c.lifecycle.RefreshByWorkspaceID(ctx.RequestCtx(), req.WorkspaceID); err != nil {
		return err
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"message": "Token refreshed successfully",
	})
}
