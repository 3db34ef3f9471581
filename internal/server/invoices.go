package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/facturaia/invoice-pipeline/constants"
	"github.com/facturaia/invoice-pipeline/internal/common"
	"github.com/facturaia/invoice-pipeline/internal/entity"
	"github.com/facturaia/invoice-pipeline/internal/repository"
)

// invoicePayload is the write shape for manual invoice create/update. Fields
// the extractor normally fills default to the same sentinels it would use.
type invoicePayload struct {
	InvoiceFile     string  `json:"invoice_file"`
	CompletePath    string  `json:"complete_path"`
	ImageURL        *string `json:"image_url"`
	Company         string  `json:"company"`
	Date            string  `json:"date"`
	InvoiceNumber   string  `json:"invoice_number"`
	TotalPrice      float64 `json:"total_price"`
	Currency        string  `json:"currency"`
	NumberOfItems   int     `json:"number_of_items"`
	MainDescription string  `json:"main_description"`
	TaxID           string  `json:"cuit_ruc"`
	Address         string  `json:"address"`
	Phone           string  `json:"phone"`
	Email           *string `json:"email"`
}

func (p *invoicePayload) validate() error {
	v := common.NewValidator()
	v.Field("invoice_file", p.InvoiceFile, common.Required)
	v.Field("invoice_file", p.InvoiceFile, func(name string, value interface{}) *common.ValidationError {
		return common.MaxLength(name, value, 255)
	})
	if p.Currency != "" {
		v.Field("currency", p.Currency, common.CurrencyCode)
	}
	if v.HasErrors() {
		return common.NewAppError("VALIDATION_FAILED", v.ErrorMessage(), common.ErrValidation)
	}
	return nil
}

func (p *invoicePayload) toEntity() *entity.Invoice {
	orDefault := func(s string) string {
		if s == "" {
			return constants.NotFound
		}
		return s
	}
	date := time.Now().UTC()
	if p.Date != "" {
		if parsed, err := time.Parse("2006-01-02", p.Date); err == nil {
			date = parsed
		}
	}
	return &entity.Invoice{
		InvoiceFile:     p.InvoiceFile,
		CompletePath:    p.CompletePath,
		ImageURL:        p.ImageURL,
		Timestamp:       time.Now().UTC(),
		Company:         orDefault(p.Company),
		Date:            date,
		InvoiceNumber:   orDefault(p.InvoiceNumber),
		TotalPrice:      p.TotalPrice,
		Currency:        orDefault(p.Currency),
		NumberOfItems:   p.NumberOfItems,
		MainDescription: orDefault(p.MainDescription),
		TaxID:           orDefault(p.TaxID),
		Address:         orDefault(p.Address),
		Phone:           orDefault(p.Phone),
		Email:           p.Email,
		Status:          constants.StatusSuccess,
	}
}

func (s *Server) listInvoices(c *gin.Context) {
	invoices, err := s.invoices.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if invoices == nil {
		invoices = []*entity.Invoice{}
	}
	c.JSON(http.StatusOK, gin.H{"invoices": invoices})
}

func (s *Server) getInvoice(c *gin.Context) {
	id := c.Param("id")
	respondLookup(c, s.invoices.GetByID(c.Request.Context(), id), "invoice not found", func(inv *entity.Invoice) {
		c.JSON(http.StatusOK, inv)
	})
}

func (s *Server) createInvoice(c *gin.Context) {
	var payload invoicePayload
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if err := payload.validate(); err != nil {
		respondError(c, err)
		return
	}

	existing := s.invoices.FindByField(c.Request.Context(), "invoice_file", payload.InvoiceFile)
	switch existing.Status {
	case repository.LookupFound:
		c.JSON(http.StatusConflict, gin.H{"error": "an invoice with this file name already exists"})
		return
	case repository.LookupFault:
		respondError(c, existing.Err)
		return
	}

	inv := payload.toEntity()
	id, err := s.invoices.Insert(c.Request.Context(), inv)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id, "invoice": inv})
}

func (s *Server) updateInvoice(c *gin.Context) {
	id := c.Param("id")

	var payload invoicePayload
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if err := payload.validate(); err != nil {
		respondError(c, err)
		return
	}

	respondLookup(c, s.invoices.Update(c.Request.Context(), id, payload.toEntity()), "invoice not found", func(inv *entity.Invoice) {
		c.JSON(http.StatusOK, inv)
	})
}

func (s *Server) deleteInvoice(c *gin.Context) {
	id := c.Param("id")
	respondLookup(c, s.invoices.Delete(c.Request.Context(), id), "invoice not found", func(inv *entity.Invoice) {
		c.JSON(http.StatusOK, gin.H{"deleted": inv})
	})
}
