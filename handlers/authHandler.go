package handlers

import (
	"CareDesk/apperrors"
	"CareDesk/middlewares"
	"CareDesk/models"
	"CareDesk/services"
	"CareDesk/utils"
	"net/http"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	identity services.IdentityService
	access   services.AccessService
}

func NewAuthHandler(identity services.IdentityService, access services.AccessService) *AuthHandler {
	return &AuthHandler{identity: identity, access: access}
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type resetCodeRequest struct {
	Email string `json:"email" binding:"required"`
}

type changePasswordRequest struct {
	Email       string `json:"email" binding:"required"`
	ResetCode   string `json:"reset_code" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

type assignRoleRequest struct {
	Role models.Role `json:"role" binding:"required"`
}

// Register handles self-registration. New profiles hold no role.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}
	profile, err := h.identity.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	middlewares.RespondJSON(c, profile, http.StatusCreated)
}

// Login authenticates the user and returns tokens along with the profile.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	session, err := h.identity.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	utils.SetAuthCookies(c, session.AccessToken, session.RefreshToken)
	middlewares.RespondJSON(c, session, http.StatusOK)
}

// RefreshToken accepts the refresh token from the body or its cookie.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req refreshRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	if req.RefreshToken == "" {
		req.RefreshToken, _ = c.Cookie(utils.RefreshTokenCookie)
	}
	if req.RefreshToken == "" {
		middlewares.HttpError(c, apperrors.Unauthenticated("missing refresh token"))
		return
	}
	session, err := h.identity.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	utils.SetAuthCookies(c, session.AccessToken, session.RefreshToken)
	middlewares.RespondJSON(c, session, http.StatusOK)
}

// Logoff logs the user out by clearing cookies
func (h *AuthHandler) Logoff(c *gin.Context) {
	utils.ClearAuthCookies(c)
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) SendResetCode(c *gin.Context) {
	var req resetCodeRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.identity.SendResetCode(c.Request.Context(), req.Email); err != nil {
		middlewares.HttpError(c, err)
		return
	}
	middlewares.RespondJSON(c, gin.H{"message": "if the email is registered a reset code was sent"}, http.StatusAccepted)
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.identity.ChangePassword(c.Request.Context(), req.Email, req.ResetCode, req.NewPassword); err != nil {
		middlewares.HttpError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Me returns the caller's profile and role set.
func (h *AuthHandler) Me(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	profile, err := h.identity.GetProfile(c.Request.Context(), actor, actor.ID)
	if err != nil {
		// a profile without roles may still learn who it is
		if apperrors.KindOf(err) != apperrors.KindDenied {
			middlewares.HttpError(c, err)
			return
		}
		profile = nil
	}
	middlewares.RespondJSON(c, gin.H{"id": actor.ID, "profile": profile, "roles": actor.Roles}, http.StatusOK)
}

func (h *AuthHandler) GetAllProfiles(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	page, ok := pageOf(c)
	if !ok {
		return
	}
	profiles, err := h.identity.ListProfiles(c.Request.Context(), actor, page)
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	middlewares.RespondJSON(c, profiles, http.StatusOK)
}

func (h *AuthHandler) GetProfileByID(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	profile, err := h.identity.GetProfile(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	middlewares.RespondJSON(c, profile, http.StatusOK)
}

func (h *AuthHandler) DeleteProfile(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	if err := h.identity.DeleteProfile(c.Request.Context(), actor, c.Param("id")); err != nil {
		middlewares.HttpError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) GetRoles(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	roles, err := h.access.ListRoles(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	middlewares.RespondJSON(c, roles, http.StatusOK)
}

func (h *AuthHandler) AssignRole(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var req assignRoleRequest
	if !bindJSON(c, &req) {
		return
	}
	ra, err := h.access.AssignRole(c.Request.Context(), actor, c.Param("id"), req.Role)
	if err != nil {
		middlewares.HttpError(c, err)
		return
	}
	middlewares.RespondJSON(c, ra, http.StatusCreated)
}

func (h *AuthHandler) RevokeRole(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	if err := h.access.RevokeRole(c.Request.Context(), actor, c.Param("id")); err != nil {
		middlewares.HttpError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
