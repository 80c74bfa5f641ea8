package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/storefront-auth/internal/application"
	"github.com/oksasatya/storefront-auth/internal/domain/apperror"
	"github.com/oksasatya/storefront-auth/internal/domain/entity"
	"github.com/oksasatya/storefront-auth/internal/interface/middleware"
	"github.com/oksasatya/storefront-auth/pkg/response"
	"github.com/oksasatya/storefront-auth/pkg/validation"
)

type AuthHandler struct {
	Svc    *application.AuthService
	Logger *logrus.Logger
}

func NewAuthHandler(svc *application.AuthService, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger}
}

// Request fields are pointers so an absent key is told apart from a wrong
// type; presence itself is judged by the workflow.
type registerRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
	DOB      *string `json:"DOB"`
	Answer   *string `json:"answer"`
}

type loginRequest struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

type forgotPasswordRequest struct {
	Email       *string `json:"email"`
	Answer      *string `json:"answer"`
	NewPassword *string `json:"newPassword"`
}

type updateProfileRequest struct {
	Name     *string `json:"name"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
	Password *string `json:"password"`
}

type searchQuery struct {
	Q    string `form:"q" binding:"required,max=100,xssfree,sqlfree"`
	Size int    `form:"size" binding:"omitempty,min=1,max=50"`
}

type loginResponse struct {
	User  entity.PublicUser `json:"user"`
	Token string            `json:"token"`
}

func clientInfo(c *gin.Context) application.ClientInfo {
	return application.ClientInfo{IP: middleware.ClientIP(c), UserAgent: c.Request.UserAgent()}
}

// bind decodes the JSON body into dst. An empty body reads as {} so the
// workflow reports the first missing field.
func (h *AuthHandler) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return false
	}
	return true
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !h.bind(c, &req) {
		return
	}
	u, err := h.Svc.Register(c.Request.Context(), application.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Address:  req.Address,
		DOB:      req.DOB,
		Answer:   req.Answer,
		Client:   clientInfo(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, u.Public(), "User Register Successfully", nil)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !h.bind(c, &req) {
		return
	}
	res, err := h.Svc.Login(c.Request.Context(), application.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		Client:   clientInfo(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, loginResponse{User: res.User.Public(), Token: res.Token},
		"Login successfully", gin.H{"expires_at": res.ExpiresAt})
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if !h.bind(c, &req) {
		return
	}
	err := h.Svc.ForgotPassword(c.Request.Context(), application.ForgotPasswordInput{
		Email:       req.Email,
		Answer:      req.Answer,
		NewPassword: req.NewPassword,
		Client:      clientInfo(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "Password Reset Successfully", nil)
}

func (h *AuthHandler) GetProfile(c *gin.Context) {
	au, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, apperror.New(apperror.KindUnauthenticated, apperror.MsgUnauthenticated))
		return
	}
	u, err := h.Svc.GetProfile(c.Request.Context(), au.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, u.Public(), "Profile fetched", nil)
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	au, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, apperror.New(apperror.KindUnauthenticated, apperror.MsgUnauthenticated))
		return
	}
	var req updateProfileRequest
	if !h.bind(c, &req) {
		return
	}
	u, err := h.Svc.UpdateProfile(c.Request.Context(), au.UserID, application.ProfileInput{
		Name:     req.Name,
		Phone:    req.Phone,
		Address:  req.Address,
		Password: req.Password,
		Client:   clientInfo(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, u.Public(), "Profile Updated Successfully", nil)
}

// Ok answers the legacy {"ok": true} probe used by the UI route guards.
func (h *AuthHandler) Ok(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *AuthHandler) SearchUsers(c *gin.Context) {
	var q searchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid query", validation.ToDetails(err))
		return
	}
	docs, err := h.Svc.SearchUsers(c.Request.Context(), q.Q, q.Size)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, docs, "Users found", gin.H{"count": len(docs)})
}
