package public

import (
	"github.com/damsblt/only-you-coaching-app-sub005/internal/http/response"

	"github.com/gin-gonic/gin"
)

// SignedAssetURLQuery 签名地址查询参数
type SignedAssetURLQuery struct {
	Key     string `form:"key" binding:"required"`
	Expires int    `form:"expires"`
}

// GetSignedAssetURL 为媒体资源生成临时访问地址
func (h *Handler) GetSignedAssetURL(c *gin.Context) {
	var query SignedAssetURLQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondError(c, response.CodeBadRequest, "asset.key_invalid", nil)
		return
	}
	asset, err := h.AssetService.SignedURL(c.Request.Context(), query.Key, query.Expires)
	if err != nil {
		respondWithMappedError(c, err, assetErrorRules, response.CodeInternal, "asset.sign_failed")
		return
	}
	response.Success(c, asset)
}
