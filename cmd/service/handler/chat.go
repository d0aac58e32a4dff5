package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	v1 "github.com/devkit-ai/devkit-ai/app/logic/v1"
	"github.com/devkit-ai/devkit-ai/app/response"
	"github.com/devkit-ai/devkit-ai/pkg/types"
	"github.com/devkit-ai/devkit-ai/pkg/utils"
)

// ChatPage 聊天演示页
func (s *HttpSrv) ChatPage(c *gin.Context) {
	c.HTML(http.StatusOK, "chat.html", gin.H(s.Core.Srv().GetAIStatus()))
}

type ChatRequest struct {
	Messages []types.ChatMessage `json:"messages" binding:"required"`
}

func (s *HttpSrv) Chat(c *gin.Context) {
	var (
		err error
		req ChatRequest
	)
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	res, err := v1.NewChatLogic(c, s.Core).Chat(req.Messages)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, res)
}
