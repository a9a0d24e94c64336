package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/e-learning-backend/middleware"
	"github.com/vnkhanh/e-learning-backend/services"
	"github.com/vnkhanh/e-learning-backend/utils"
)

type RecommendationController struct {
	client *services.RecommendationClient
}

func NewRecommendationController(client *services.RecommendationClient) *RecommendationController {
	return &RecommendationController{client: client}
}

// Recommend proxies the recommender. An unreachable recommender yields an
// empty list.
func (h *RecommendationController) Recommend(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	utils.Success(c, "", h.client.Recommend(c.Request.Context(), userID))
}
