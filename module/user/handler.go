package user

import (
	"net/http"

	mid "TMProject/middleware"
	midsec "TMProject/middleware/security"
	userservice "TMProject/module/user/service"
	"TMProject/tools/errs"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *userservice.Service
}

func NewHandler(svc *userservice.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	mid.POST(r, "/api/auth/register", h.Register, mid.RouteOpt{})
	mid.POST(r, "/api/auth/login", h.Login, mid.RouteOpt{})
	mid.POST(r, "/api/auth/logout", h.Logout, mid.RouteOpt{IsAuth: true})
	mid.GET(r, "/api/users", h.ListUsers, mid.RouteOpt{IsAuth: true})
}

type registerReq struct {
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Password    string `json:"password"`
}

func (h *Handler) Register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		mid.WriteErr(c, errs.ErrInvalidArgument.WithDetail("bad json body"))
		return
	}
	u, err := h.svc.Register(c.Request.Context(), req.Username, req.DisplayName, req.Password)
	if err != nil {
		mid.WriteErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": u})
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		mid.WriteErr(c, errs.ErrInvalidArgument.WithDetail("bad json body"))
		return
	}
	res, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		mid.WriteErr(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Logout(c *gin.Context) {
	me, ok := midsec.CurrentUser(c)
	if !ok {
		mid.WriteErr(c, errs.ErrUnauthenticated)
		return
	}
	if err := h.svc.Logout(c.Request.Context(), me); err != nil {
		mid.WriteErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ListUsers 返回除自己外的全部用户，前端据此发起会话
func (h *Handler) ListUsers(c *gin.Context) {
	me, ok := midsec.CurrentUser(c)
	if !ok {
		mid.WriteErr(c, errs.ErrUnauthenticated)
		return
	}
	users, err := h.svc.ListOthers(c.Request.Context(), me)
	if err != nil {
		mid.WriteErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}
