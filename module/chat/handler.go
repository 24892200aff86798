package chat

import (
	"net/http"

	mid "TMProject/middleware"
	midsec "TMProject/middleware/security"
	chatmodel "TMProject/module/chat/model"
	chatservice "TMProject/module/chat/service"
	"TMProject/tools/errs"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *chatservice.ConversationService
}

func NewHandler(svc *chatservice.ConversationService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	auth := mid.RouteOpt{IsAuth: true}
	mid.GET(r, "/api/messages/conversations", h.ListConversations, auth)
	mid.POST(r, "/api/messages/conversations", h.StartConversation, auth)
	mid.GET(r, "/api/messages/conversations/:id", h.ListMessages, auth)
	mid.POST(r, "/api/messages/conversations/:id", h.SendMessage, auth)
	mid.POST(r, "/api/messages/conversations/:id/read", h.MarkRead, auth)
}

type startConversationReq struct {
	UserID string `json:"userId"`
}

// StartConversation 幂等：重复调用同一对用户返回同一个会话
func (h *Handler) StartConversation(c *gin.Context) {
	me, ok := midsec.CurrentUser(c)
	if !ok {
		mid.WriteErr(c, errs.ErrUnauthenticated)
		return
	}
	var req startConversationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		mid.WriteErr(c, errs.ErrInvalidArgument.WithDetail("bad json body"))
		return
	}
	conv, participants, err := h.svc.StartOrGetConversation(c.Request.Context(), me, req.UserID)
	if err != nil {
		mid.WriteErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"conversation": conv,
		"participants": participants,
	})
}

func (h *Handler) ListConversations(c *gin.Context) {
	me, ok := midsec.CurrentUser(c)
	if !ok {
		mid.WriteErr(c, errs.ErrUnauthenticated)
		return
	}
	sums, err := h.svc.ListMyConversations(c.Request.Context(), me)
	if err != nil {
		mid.WriteErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": sums})
}

func (h *Handler) ListMessages(c *gin.Context) {
	me, ok := midsec.CurrentUser(c)
	if !ok {
		mid.WriteErr(c, errs.ErrUnauthenticated)
		return
	}
	msgs, err := h.svc.ListMessages(c.Request.Context(), me, c.Param("id"))
	if err != nil {
		mid.WriteErr(c, err)
		return
	}
	if msgs == nil {
		msgs = []chatmodel.Message{}
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

type sendMessageReq struct {
	Content string `json:"content"`
}

func (h *Handler) SendMessage(c *gin.Context) {
	me, ok := midsec.CurrentUser(c)
	if !ok {
		mid.WriteErr(c, errs.ErrUnauthenticated)
		return
	}
	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		mid.WriteErr(c, errs.ErrInvalidArgument.WithDetail("bad json body"))
		return
	}
	msg, err := h.svc.SendMessage(c.Request.Context(), me, c.Param("id"), req.Content)
	if err != nil {
		mid.WriteErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// MarkRead 把对端发来的未读全部置为已读，返回翻转条数
func (h *Handler) MarkRead(c *gin.Context) {
	me, ok := midsec.CurrentUser(c)
	if !ok {
		mid.WriteErr(c, errs.ErrUnauthenticated)
		return
	}
	n, err := h.svc.MarkRead(c.Request.Context(), me, c.Param("id"))
	if err != nil {
		mid.WriteErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked": n})
}
