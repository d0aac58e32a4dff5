package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	v1 "github.com/devkit-ai/devkit-ai/app/logic/v1"
	"github.com/devkit-ai/devkit-ai/pkg/catalog"
)

// Index 服务状态页
func (s *HttpSrv) Index(c *gin.Context) {
	skillList := v1.NewStatusLogic(c, s.Core).Skills()

	c.HTML(http.StatusOK, "index.html", gin.H{
		"tools_count":  catalog.Count(),
		"skills_count": skillList.Count,
		"tools":        catalog.Names(),
		"skills":       skillList.Skills,
	})
}

func (s *HttpSrv) Health(c *gin.Context) {
	c.JSON(http.StatusOK, v1.NewStatusLogic(c, s.Core).Health())
}

func (s *HttpSrv) Tools(c *gin.Context) {
	c.JSON(http.StatusOK, v1.NewStatusLogic(c, s.Core).Tools())
}

func (s *HttpSrv) Skills(c *gin.Context) {
	c.JSON(http.StatusOK, v1.NewStatusLogic(c, s.Core).Skills())
}
