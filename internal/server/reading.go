package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	tankdomain "github.com/smallbiznis/oilfield/internal/tank/domain"
)

type saveReadingRequest struct {
	Date          string           `json:"date"`
	Granularity   string           `json:"granularity"`
	GaugeFeet     *decimal.Decimal `json:"gauge_feet"`
	GaugeInch     *decimal.Decimal `json:"gauge_inch"`
	OilProduction *decimal.Decimal `json:"oil_production"`
	Comments      string           `json:"comments"`
}

type saveRunTicketRequest struct {
	Date           string           `json:"date"`
	TopGaugeFeet   *decimal.Decimal `json:"top_gauge_feet"`
	TopGaugeInch   *decimal.Decimal `json:"top_gauge_inch"`
	FinalGaugeFeet *decimal.Decimal `json:"final_gauge_feet"`
	FinalGaugeInch *decimal.Decimal `json:"final_gauge_inch"`
	GrossBbl       *decimal.Decimal `json:"gross_bbl"`
}

type cumulativeResponse struct {
	TankID    string          `json:"tank_id,omitempty"`
	ReadingID string          `json:"reading_id,omitempty"`
	Date      string          `json:"date,omitempty"`
	Total     decimal.Decimal `json:"cumulative_production"`
}

func (s *Server) SaveReading(c *gin.Context) {
	var req saveReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.tankSvc.SaveReading(c.Request.Context(), tankdomain.SaveReadingRequest{
		TankID:        strings.TrimSpace(c.Param("id")),
		Date:          strings.TrimSpace(req.Date),
		Granularity:   strings.ToLower(strings.TrimSpace(req.Granularity)),
		GaugeFeet:     req.GaugeFeet,
		GaugeInch:     req.GaugeInch,
		OilProduction: req.OilProduction,
		Comments:      req.Comments,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteReading(c *gin.Context) {
	if err := s.tankSvc.DeleteReading(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) RelevantReadings(c *gin.Context) {
	from, err := parseOptionalDate(c.Query("from"), "from")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	to, err := parseOptionalDate(c.Query("to"), "to")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.tankSvc.Relevant(c.Request.Context(), tankdomain.RelevantRequest{
		TankID: strings.TrimSpace(c.Param("id")),
		From:   from,
		To:     to,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) TankCumulative(c *gin.Context) {
	cutoff, err := parseRequiredDate(c.Query("date"), "date")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	tankID := strings.TrimSpace(c.Param("id"))
	total, err := s.tankSvc.CumulativeProduction(c.Request.Context(), tankID, cutoff)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": cumulativeResponse{
		TankID: tankID,
		Date:   cutoff.Format("2006-01-02"),
		Total:  total,
	}})
}

func (s *Server) ReadingCumulative(c *gin.Context) {
	readingID := strings.TrimSpace(c.Param("id"))
	total, err := s.tankSvc.ReadingCumulative(c.Request.Context(), readingID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": cumulativeResponse{
		ReadingID: readingID,
		Total:     total,
	}})
}

func (s *Server) SaveRunTicket(c *gin.Context) {
	var req saveRunTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.tankSvc.SaveRunTicket(c.Request.Context(), tankdomain.SaveRunTicketRequest{
		TankID:         strings.TrimSpace(c.Param("id")),
		Date:           strings.TrimSpace(req.Date),
		TopGaugeFeet:   req.TopGaugeFeet,
		TopGaugeInch:   req.TopGaugeInch,
		FinalGaugeFeet: req.FinalGaugeFeet,
		FinalGaugeInch: req.FinalGaugeInch,
		GrossBbl:       req.GrossBbl,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
