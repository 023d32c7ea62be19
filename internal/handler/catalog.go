package handler

import (
	"net/http"

	"tillpos/internal/apierror"
	"tillpos/internal/dto"
	"tillpos/internal/model"
	"tillpos/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ProductsHandler exposes read access for the register UI plus admin-only
// creation. Price and stock edits stay out of the sale path on purpose.
type ProductsHandler struct{ repo repository.ProductRepository }

func NewProductsHandler(repo repository.ProductRepository) *ProductsHandler {
	return &ProductsHandler{repo: repo}
}

func (h *ProductsHandler) List(c *gin.Context) {
	var filter repository.ProductFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid query: "+err.Error()))
		return
	}
	products, total, err := h.repo.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New(err.Error()))
		return
	}
	data := make([]dto.ProductResponse, len(products))
	for i, p := range products {
		data[i] = productToResponse(&p)
	}
	c.JSON(http.StatusOK, dto.ProductListResponse{
		Data: data, Total: total, Page: filter.Page, Limit: filter.Limit,
	})
}

func (h *ProductsHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid product id"))
		return
	}
	p, err := h.repo.FindByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("product not found"))
		return
	}
	c.JSON(http.StatusOK, productToResponse(p))
}

func (h *ProductsHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if !req.Price.IsPositive() {
		c.JSON(http.StatusBadRequest, apierror.New("price must be positive"))
		return
	}
	p := &model.Product{
		Barcode:  req.Barcode,
		Name:     req.Name,
		Category: req.Category,
		Price:    req.Price,
		Stock:    req.Stock,
		Active:   true,
	}
	if req.MinStock > 0 {
		p.MinStock = req.MinStock
	}
	if err := h.repo.Create(c.Request.Context(), p); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp := productToResponse(p)
	c.JSON(http.StatusCreated, resp)
}

func productToResponse(p *model.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:       p.ID.String(),
		Barcode:  p.Barcode,
		Name:     p.Name,
		Category: p.Category,
		Price:    p.Price,
		Stock:    p.Stock,
	}
}

// ── Clients Handler ──────────────────────────────────────────────────────────

type ClientsHandler struct{ repo repository.ClientRepository }

func NewClientsHandler(repo repository.ClientRepository) *ClientsHandler {
	return &ClientsHandler{repo: repo}
}

func (h *ClientsHandler) List(c *gin.Context) {
	clients, err := h.repo.List(c.Request.Context(), c.Query("name"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New(err.Error()))
		return
	}
	data := make([]dto.ClientResponse, len(clients))
	for i, cl := range clients {
		data[i] = dto.ClientResponse{
			ID:       cl.ID.String(),
			Name:     cl.Name,
			Document: cl.Document,
			Phone:    cl.Phone,
			Email:    cl.Email,
		}
	}
	c.JSON(http.StatusOK, gin.H{"data": data})
}

func (h *ClientsHandler) Create(c *gin.Context) {
	var req dto.CreateClientRequest
	if !bindAndValidate(c, &req) {
		return
	}
	cl := &model.Client{
		Name:     req.Name,
		Document: req.Document,
		Phone:    req.Phone,
		Email:    req.Email,
		Active:   true,
	}
	if err := h.repo.Create(c.Request.Context(), cl); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, dto.ClientResponse{
		ID:       cl.ID.String(),
		Name:     cl.Name,
		Document: cl.Document,
		Phone:    cl.Phone,
		Email:    cl.Email,
	})
}
