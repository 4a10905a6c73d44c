package presence

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.GET("/date", h.ListMonth)
	r.POST("/presences", h.Create)
	r.DELETE("/presences/:id", h.Delete)
}

// ListMonth godoc
// @Summary  Records of one month
// @Tags     presences
// @Produce  json
// @Param    month query number false "1-12 (11 = November), defaults to the current month"
// @Param    year  query number false "defaults to the current year"
// @Success  200 {array}  RawRecord
// @Failure  400 {object} errDTO
// @Failure  503 {object} errDTO
// @Router   /date [get]
//
// month is 1-based, the same numbering findMonth uses.
func (h *Handler) ListMonth(c *gin.Context) {
	month, err := intParam(c, "month")
	if err != nil {
		c.JSON(http.StatusBadRequest, apiErrFrom(err))
		return
	}
	year, err := intParam(c, "year")
	if err != nil {
		c.JSON(http.StatusBadRequest, apiErrFrom(err))
		return
	}

	res, err := h.svc.ListMonth(c.Request.Context(), month, year)
	if err != nil {
		_ = c.Error(err)
		c.JSON(toHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// Create godoc
// @Summary  Create a presence record
// @Tags     presences
// @Accept   json
// @Produce  json
// @Param    body body CreateRequest true "record"
// @Success  201 {object} CreateResult
// @Failure  400 {object} CreateResult
// @Router   /presences [post]
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, CreateResult{Success: false, Error: "invalid json"})
		return
	}
	res := h.svc.CreateRecord(c.Request.Context(), req.toInput())
	if !res.Success {
		c.JSON(createStatus(res.Code), res)
		return
	}
	c.Header("Location", "/api/presences/"+strconv.FormatInt(res.Data.ID, 10))
	c.JSON(http.StatusCreated, res)
}

// Delete godoc
// @Summary  Delete a presence record
// @Tags     presences
// @Param    id path int true "record id"
// @Success  204
// @Failure  400 {object} errDTO
// @Failure  404 {object} errDTO
// @Router   /presences/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, apiErr(CodeInvalidArgument, "id must be a number"))
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		c.JSON(toHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.Status(http.StatusNoContent)
}

// ===== helpers =====

// intParam accepts "11" as well as "11.0"; fractional values are rejected.
func intParam(c *gin.Context, name string) (*int, error) {
	raw, ok := c.GetQuery(name)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > 1e6 {
		return nil, ErrInvalid(fmt.Sprintf("%s deve ser um número inteiro", name))
	}
	v := int(f)
	return &v, nil
}

func createStatus(code Code) int {
	switch code {
	case CodeInvalidArgument, CodeInvalidDate, CodeInvalidTime:
		return http.StatusBadRequest
	case CodeStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type errDTO struct {
	Error struct {
		Code    Code   `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func apiErr(code Code, msg string) errDTO {
	var e errDTO
	e.Error.Code = code
	e.Error.Message = msg
	return e
}

func apiErrFrom(err error) errDTO {
	if CodeOf(err) == CodeInternal {
		return apiErr(CodeInternal, err.Error())
	}
	return apiErr(CodeOf(err), messageOf(err))
}
