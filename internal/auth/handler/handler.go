package handler

import (
	"net/http"

	"dashboard-auth/internal/apperr"
	"dashboard-auth/internal/auth/flow"
	"dashboard-auth/internal/auth/provider"
	"dashboard-auth/internal/logger"
	"dashboard-auth/internal/session"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	flow      *flow.Flow
	providers *provider.Registry
	cookies   session.CookieOptions
}

// NewHandler wires the login endpoints. registry may be nil when the
// redirect flow is not configured.
func NewHandler(
	loginFlow *flow.Flow,
	registry *provider.Registry,
	cookies session.CookieOptions,
) *Handler {
	return &Handler{
		flow:      loginFlow,
		providers: registry,
		cookies:   cookies,
	}
}

type tokenLoginRequest struct {
	Token string `json:"token"`
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/api/auth/google", h.tokenLogin)
	r.POST("/auth/logout", h.Logout)

	if h.providers != nil {
		r.GET("/oauth/login/:provider", h.login)
		r.GET("/oauth/callback/:provider", h.callback)
	}
}

// tokenLogin accepts an identity token obtained client-side and answers
// with the session cookie.
func (h *Handler) tokenLogin(c *gin.Context) {
	var req tokenLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
		h.fail(c, apperr.ErrBadRequest)
		return
	}

	h.completeLogin(c, req.Token)
}

func (h *Handler) completeLogin(c *gin.Context, rawToken string) {
	cred, err := h.flow.Login(c.Request.Context(), rawToken)
	if err != nil {
		h.fail(c, err)
		return
	}

	body := session.Deliver(c.Writer, cred, h.cookies.ForRequest(c.Request))
	c.JSON(http.StatusOK, body)
}

// fail writes the error response. Client errors get their safe message;
// server errors get a generic one, with the cause logged only.
func (h *Handler) fail(c *gin.Context, err error) {
	status := apperr.Status(err)
	fields := map[string]any{
		"path":   c.FullPath(),
		"code":   apperr.Code(err),
		"status": status,
		"ip":     c.ClientIP(),
		"error":  err.Error(),
	}

	if status < http.StatusInternalServerError {
		logger.Warn("login rejected", fields)
		c.JSON(status, gin.H{
			"error": apperr.Message(err),
		})
		return
	}

	logger.Error("login failed", fields)
	c.JSON(status, gin.H{
		"error":   "Server Error",
		"message": apperr.Message(err),
	})
}

func (h *Handler) login(c *gin.Context) {
	providerName := c.Param("provider")

	p, err := h.providers.Get(providerName)
	if err != nil {
		h.unknownProvider(c, err)
		return
	}

	state, err := h.generateState(c)
	if err != nil {
		h.fail(c, apperr.Wrap(err, apperr.ErrInternal))
		return
	}
	_, codeChallenge, err := h.generatePKCE(c)
	if err != nil {
		h.fail(c, apperr.Wrap(err, apperr.ErrInternal))
		return
	}

	c.Redirect(http.StatusFound, p.AuthCodeURL(state, codeChallenge))
}

func (h *Handler) unknownProvider(c *gin.Context, err error) {
	logger.Warn("redirect login for unregistered provider", map[string]any{
		"provider": c.Param("provider"),
		"error":    err.Error(),
	})
	c.JSON(http.StatusBadRequest, gin.H{
		"error": provider.ErrUnknownProvider.Error(),
	})
}

func (h *Handler) callback(c *gin.Context) {
	providerName := c.Param("provider")

	p, err := h.providers.Get(providerName)
	if err != nil {
		h.unknownProvider(c, err)
		return
	}

	if !validateState(c) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "invalid state",
		})
		return
	}

	if errParam := c.Query("error"); errParam != "" {
		logger.Warn("oidc callback returned error", map[string]any{
			"provider": providerName,
			"error":    errParam,
			"desc":     c.Query("error_description"),
		})
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "authentication cancelled",
		})
		return
	}

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "missing code",
		})
		return
	}

	codeVerifier := getPKCEVerifier(c)
	if codeVerifier == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "missing pkce verifier",
		})
		return
	}

	// single use
	h.setFlowCookie(c, stateCookieName, "", -1)
	h.setFlowCookie(c, pkceCookieName, "", -1)

	rawIDToken, err := p.ExchangeCode(c.Request.Context(), code, codeVerifier)
	if err != nil {
		h.fail(c, apperr.Wrap(err, apperr.ErrInvalidToken))
		return
	}

	h.completeLogin(c, rawIDToken)
}

// Logout clears the session cookie. Credentials are stateless, so this
// only removes the client's copy.
func (h *Handler) Logout(c *gin.Context) {
	session.ClearCookie(c.Writer, h.cookies.ForRequest(c.Request))
	c.Status(http.StatusNoContent)
}
