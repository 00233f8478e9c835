package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rezonia/afip-invoicer/internal/afip"
	"github.com/rezonia/afip-invoicer/internal/fiscalcode"
	"github.com/rezonia/afip-invoicer/internal/model"
	"github.com/rezonia/afip-invoicer/internal/receiptfile"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleCommit(c *gin.Context) {
	var file receiptfile.File
	if err := c.ShouldBindJSON(&file); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid receipt document", Details: err.Error()})
		return
	}

	report := file.Validate(false)
	if !report.Valid {
		c.JSON(http.StatusUnprocessableEntity, ValidationResponse{
			Valid:    false,
			Errors:   report.Errors,
			Warnings: report.Warnings,
		})
		return
	}

	receipt, err := file.ToReceipt()
	if err != nil {
		s.writeError(c, err)
		return
	}

	ctx := c.Request.Context()
	committed, err := s.invoicer.Commit(ctx, receipt)
	s.persist(ctx)
	if err != nil {
		s.writeError(c, err)
		return
	}

	payload, err := fiscalcode.Barcode(committed)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewReceiptResponse(committed, &payload))
}

func (s *Server) handleFetch(c *gin.Context) {
	ctx := c.Request.Context()
	receipt, err := s.invoicer.Fetch(ctx, c.Param("identifier"))
	s.persist(ctx)
	if err != nil {
		s.writeError(c, err)
		return
	}

	resp := NewReceiptResponse(receipt, nil)
	if code, err := fiscalcode.Code(receipt); err == nil {
		resp.Code = code
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleCode(c *gin.Context) {
	ctx := c.Request.Context()
	receipt, err := s.invoicer.Fetch(ctx, c.Param("identifier"))
	s.persist(ctx)
	if err != nil {
		s.writeError(c, err)
		return
	}

	payload, err := fiscalcode.Barcode(receipt)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, CodeResponse{
		Identifier: receipt.Identifier(),
		Code:       payload.Code,
		Barcode:    payload.DataURI,
	})
}

func (s *Server) handleFetchLast(c *gin.Context) {
	count := 1
	if raw := c.Query("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "count must be an integer", Details: raw})
			return
		}
		count = n
	}

	prefix := c.Param("pos") + ":" + c.Param("type")
	ctx := c.Request.Context()
	receipts, err := s.invoicer.FetchLast(ctx, prefix, count)
	s.persist(ctx)
	if err != nil {
		s.writeError(c, err)
		return
	}

	resp := LastResponse{Receipts: make([]ReceiptResponse, 0, len(receipts))}
	resp.PointOfSale, _ = strconv.Atoi(c.Param("pos"))
	resp.Type, _ = strconv.Atoi(c.Param("type"))
	for _, r := range receipts {
		item := NewReceiptResponse(r, nil)
		if code, err := fiscalcode.Code(r); err == nil {
			item.Code = code
		}
		resp.Receipts = append(resp.Receipts, item)
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSession(c *gin.Context) {
	status := s.invoicer.SessionStatus()
	c.JSON(http.StatusOK, SessionResponse{
		Active:     status.Active,
		Expiration: status.Expiration,
		ExpiresIn:  status.ExpiresIn,
	})
}

// writeError maps domain errors to HTTP status codes.
func (s *Server) writeError(c *gin.Context, err error) {
	status, message := classify(err)
	if status >= http.StatusInternalServerError {
		s.log.Error().Err(err).Str("request_id", c.GetString(requestIDKey)).Msg(message)
	}
	c.JSON(status, ErrorResponse{Error: message, Details: err.Error()})
}

func classify(err error) (int, string) {
	var (
		malformed  *model.MalformedIdentifierError
		validation *model.ValidationError
		auth       *model.AuthenticationError
		remote     *model.RemoteServiceError
	)

	switch {
	case errors.As(err, &malformed):
		return http.StatusBadRequest, "malformed receipt identifier"
	case errors.As(err, &validation):
		return http.StatusUnprocessableEntity, "validation failed"
	case errors.As(err, &auth):
		return http.StatusBadGateway, "authentication with AFIP failed"
	case errors.As(err, &remote):
		if afip.IsNotFound(err) {
			return http.StatusNotFound, "receipt not found"
		}
		return http.StatusBadGateway, fmt.Sprintf("AFIP %s failed", remote.Op)
	case errors.Is(err, fiscalcode.ErrNotCommitted):
		return http.StatusConflict, "receipt is not authorized"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
