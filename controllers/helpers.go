package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/e-learning-backend/services"
	"github.com/vnkhanh/e-learning-backend/utils"
)

// parseID reads a positive numeric path parameter. It answers 400 itself
// when the value is malformed.
func parseID(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		utils.Fail(c, "invalid "+name)
		return 0, false
	}
	return uint(v), true
}

// respondError turns an engine error into the envelope. Known failures are
// 400; anything else is logged and reported as 500.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrConflict),
		errors.Is(err, services.ErrInvalidState),
		errors.Is(err, services.ErrUnauthorized):
		utils.Fail(c, err.Error(), err.Error())
	default:
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		utils.FailWithStatus(c, http.StatusInternalServerError, "internal server error")
	}
}

// respondAccess answers lookups made by the API layer before the engines
// run: missing resources are 404 and ownership failures 403.
func respondAccess(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.FailWithStatus(c, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrUnauthorized):
		utils.FailWithStatus(c, http.StatusForbidden, err.Error())
	default:
		respondError(c, err)
	}
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		utils.Fail(c, "invalid request body", err.Error())
		return false
	}
	return true
}
