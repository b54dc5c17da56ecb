package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	tankdomain "github.com/smallbiznis/oilfield/internal/tank/domain"
)

type createTankRequest struct {
	Name             string           `json:"name"`
	Lease            string           `json:"lease"`
	ConversionFactor *decimal.Decimal `json:"conversion_factor"`
	WellIDs          []string         `json:"well_ids"`
}

type updateTankRequest struct {
	Name             *string          `json:"name"`
	Lease            *string          `json:"lease"`
	ConversionFactor *decimal.Decimal `json:"conversion_factor"`
}

type attachWellsRequest struct {
	WellIDs []string `json:"well_ids"`
}

type createWellRequest struct {
	Name string `json:"name"`
}

func (s *Server) CreateTank(c *gin.Context) {
	var req createTankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.tankSvc.CreateTank(c.Request.Context(), tankdomain.CreateTankRequest{
		Name:             strings.TrimSpace(req.Name),
		Lease:            strings.TrimSpace(req.Lease),
		ConversionFactor: req.ConversionFactor,
		WellIDs:          req.WellIDs,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetTank(c *gin.Context) {
	resp, err := s.tankSvc.GetTank(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateTank(c *gin.Context) {
	var req updateTankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.tankSvc.UpdateTank(c.Request.Context(), tankdomain.UpdateTankRequest{
		ID:               strings.TrimSpace(c.Param("id")),
		Name:             req.Name,
		Lease:            req.Lease,
		ConversionFactor: req.ConversionFactor,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) AttachWells(c *gin.Context) {
	var req attachWellsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.tankSvc.AttachWells(c.Request.Context(), tankdomain.AttachWellsRequest{
		TankID:  strings.TrimSpace(c.Param("id")),
		WellIDs: req.WellIDs,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ConnectedTanks(c *gin.Context) {
	resp, err := s.tankSvc.ConnectedTanks(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateWell(c *gin.Context) {
	var req createWellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.tankSvc.CreateWell(c.Request.Context(), tankdomain.CreateWellRequest{
		Name: strings.TrimSpace(req.Name),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}
