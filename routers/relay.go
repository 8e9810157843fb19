package routers

import (
	"github.com/Yulian302/lfusys-services-crmrelay/relay"
	"github.com/gin-gonic/gin"
)

const RelayPath = "/upload-to-bitrix"

func RegisterRelayRouter(h *relay.RelayHandler, r gin.IRoutes) {
	r.POST(RelayPath, h.Upload)
	r.OPTIONS(RelayPath, h.Preflight)
}
