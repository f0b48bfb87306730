package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/HGakash/agrihub/internal/http/middleware"
	"github.com/HGakash/agrihub/internal/service"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	user, err := h.accounts.Register(c.Request.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, service.NewUserView(*user))
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "email and password are required")
		return
	}

	result, err := h.accounts.Login(c.Request.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": result.Token, "role": result.User.Role})
}

func (h *Handler) me(c *gin.Context) {
	principal, _ := middleware.MustPrincipal(c)
	user, err := h.accounts.Me(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, service.NewUserView(*user))
}

type createFarmerRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Location   string `json:"location"`
	Produce    string `json:"produce"`
	Experience int    `json:"experience"`
	Contact    string `json:"contact"`
}

func (h *Handler) createFarmer(c *gin.Context) {
	var req createFarmerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	farmer, err := h.farmers.Create(c.Request.Context(), service.CreateFarmerInput{
		Name:       req.Name,
		Email:      req.Email,
		Location:   req.Location,
		Produce:    req.Produce,
		Experience: req.Experience,
		Contact:    req.Contact,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, service.NewFarmerView(*farmer))
}

func (h *Handler) listFarmers(c *gin.Context) {
	views, err := h.farmers.List(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *Handler) getFarmer(c *gin.Context) {
	view, err := h.farmers.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
