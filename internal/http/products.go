package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"catalog-fulfillment/internal/catalog"

	"github.com/gin-gonic/gin"
)

const (
	productPart   = "product"
	imageFilePart = "imageFile"
)

var errImageTooLarge = errors.New("image file is too large")

type listProductsResponse struct {
	Items      []catalog.Product `json:"items"`
	Pagination paginationMeta    `json:"pagination"`
}

type restockRequest struct {
	Quantity int64 `json:"quantity" binding:"required" example:"5"`
}

type generateImageRequest struct {
	Name        string `json:"name" binding:"required" example:"Noise Cancelling Headphones"`
	Category    string `json:"category" binding:"required" example:"Audio"`
	Description string `json:"description" example:"Over-ear wireless headphones"`
}

type generateDescriptionResponse struct {
	Description string `json:"description" example:"Immersive sound with all-day comfort."`
}

// ListProducts godoc
// @Summary      List products with pagination
// @Tags         products
// @Produce      json
// @Param        page   query     int  false  "Page number"   default(1)
// @Param        limit  query     int  false  "Items per page" default(10)
// @Success      200    {object}  listProductsResponse
// @Failure      500    {object}  errorResponse
// @Router       /products [get]
func (h *Handler) ListProducts(c *gin.Context) {
	page := parseQueryInt(c.Query("page"), defaultPage)
	limit := parseQueryInt(c.Query("limit"), defaultLimit)

	items, total, err := h.products.ListProducts(c.Request.Context(), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to get products"})
		return
	}

	c.JSON(http.StatusOK, listProductsResponse{
		Items: items,
		Pagination: paginationMeta{
			Page:  page,
			Limit: limit,
			Total: total,
		},
	})
}

// AllProducts godoc
// @Summary      List every product without pagination
// @Tags         products
// @Produce      json
// @Success      200  {array}   catalog.Product
// @Failure      500  {object}  errorResponse
// @Router       /products/all [get]
func (h *Handler) AllProducts(c *gin.Context) {
	items, err := h.products.AllProducts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to get products"})
		return
	}
	c.JSON(http.StatusOK, items)
}

// GetProduct godoc
// @Summary      Get a product by ID
// @Tags         products
// @Produce      json
// @Param        id   path      int  true  "Product ID"
// @Success      200  {object}  catalog.Product
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /products/{id} [get]
func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	product, err := h.products.GetProduct(c.Request.Context(), id)
	if err != nil {
		writeProductError(c, err, "failed to get product")
		return
	}

	c.JSON(http.StatusOK, product)
}

// CreateProduct godoc
// @Summary      Create a product
// @Description  Accepts either a JSON body or multipart form data with a
// @Description  "product" JSON part and an optional "imageFile" part.
// @Tags         products
// @Accept       json,mpfd
// @Produce      json
// @Param        product    formData  string  false  "Product JSON"
// @Param        imageFile  formData  file    false  "Product image"
// @Success      201  {object}  catalog.Product
// @Failure      400  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /products [post]
func (h *Handler) CreateProduct(c *gin.Context) {
	product, ok := h.bindProduct(c)
	if !ok {
		return
	}
	product.ID = 0

	saved, err := h.products.SaveProduct(c.Request.Context(), product)
	if err != nil {
		writeProductError(c, err, "failed to create product")
		return
	}

	c.JSON(http.StatusCreated, saved)
}

// UpdateProduct godoc
// @Summary      Update a product
// @Description  Replaces the product fields. The stored image is kept unless
// @Description  a new "imageFile" part is sent. stock_quantity is ignored;
// @Description  use the restock endpoint to add units.
// @Tags         products
// @Accept       json,mpfd
// @Produce      json
// @Param        id         path      int     true   "Product ID"
// @Param        product    formData  string  false  "Product JSON"
// @Param        imageFile  formData  file    false  "Product image"
// @Success      200  {object}  catalog.Product
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /products/{id} [put]
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	product, ok := h.bindProduct(c)
	if !ok {
		return
	}
	product.ID = id

	saved, err := h.products.SaveProduct(c.Request.Context(), product)
	if err != nil {
		writeProductError(c, err, "failed to update product")
		return
	}

	c.JSON(http.StatusOK, saved)
}

// DeleteProduct godoc
// @Summary      Delete a product by ID
// @Tags         products
// @Produce      json
// @Param        id   path      int  true  "Product ID"
// @Success      204
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /products/{id} [delete]
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.products.DeleteProduct(c.Request.Context(), id); err != nil {
		writeProductError(c, err, "failed to delete product")
		return
	}

	c.Status(http.StatusNoContent)
}

// RestockProduct godoc
// @Summary      Add units to a product's stock
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id       path      int             true  "Product ID"
// @Param        request  body      restockRequest  true  "Units received"
// @Success      200      {object}  catalog.Product
// @Failure      400      {object}  errorResponse
// @Failure      404      {object}  errorResponse
// @Failure      500      {object}  errorResponse
// @Router       /products/{id}/restock [post]
func (h *Handler) RestockProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req restockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	product, err := h.products.RestockProduct(c.Request.Context(), id, req.Quantity)
	if err != nil {
		writeProductError(c, err, "failed to restock product")
		return
	}

	c.JSON(http.StatusOK, product)
}

// ProductImage godoc
// @Summary      Get the image of a product
// @Tags         products
// @Produce      octet-stream
// @Param        id   path      int  true  "Product ID"
// @Success      200  {file}    binary
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /products/{id}/image [get]
func (h *Handler) ProductImage(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	img, err := h.products.ProductImage(c.Request.Context(), id)
	if err != nil {
		writeProductError(c, err, "failed to get product image")
		return
	}

	contentType := img.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(img.Data)
	}
	c.Data(http.StatusOK, contentType, img.Data)
}

// SearchProducts godoc
// @Summary      Search products by keyword
// @Tags         products
// @Produce      json
// @Param        keyword  query     string  true  "Keyword matched against name, description, brand and category"
// @Success      200      {array}   catalog.Product
// @Failure      400      {object}  errorResponse
// @Failure      500      {object}  errorResponse
// @Router       /products/search [get]
func (h *Handler) SearchProducts(c *gin.Context) {
	items, err := h.products.SearchProducts(c.Request.Context(), c.Query("keyword"))
	if err != nil {
		writeProductError(c, err, "failed to search products")
		return
	}

	c.JSON(http.StatusOK, items)
}

// SemanticSearch godoc
// @Summary      Search products by meaning
// @Tags         products
// @Produce      json
// @Param        q      query     string  true   "Free-text query"
// @Param        limit  query     int     false  "Maximum number of products" default(10)
// @Success      200    {array}   catalog.Product
// @Failure      400    {object}  errorResponse
// @Failure      500    {object}  errorResponse
// @Router       /products/semantic [get]
func (h *Handler) SemanticSearch(c *gin.Context) {
	limit := parseQueryInt(c.Query("limit"), defaultLimit)

	items, err := h.products.SemanticSearch(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		writeProductError(c, err, "failed to search products")
		return
	}

	c.JSON(http.StatusOK, items)
}

// GenerateDescription godoc
// @Summary      Generate a product description
// @Tags         products
// @Produce      json
// @Param        name      query     string  true  "Product name"
// @Param        category  query     string  true  "Product category"
// @Success      200       {object}  generateDescriptionResponse
// @Failure      400       {object}  errorResponse
// @Failure      500       {object}  errorResponse
// @Router       /products/generate-description [post]
func (h *Handler) GenerateDescription(c *gin.Context) {
	text, err := h.products.GenerateDescription(c.Request.Context(), c.Query("name"), c.Query("category"))
	if err != nil {
		writeProductError(c, err, "failed to generate description")
		return
	}

	c.JSON(http.StatusOK, generateDescriptionResponse{Description: text})
}

// GenerateImage godoc
// @Summary      Generate a product image
// @Tags         products
// @Accept       json
// @Produce      octet-stream
// @Param        body  body      generateImageRequest  true  "Product details"
// @Success      200   {file}    binary
// @Failure      400   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /products/generate-image [post]
func (h *Handler) GenerateImage(c *gin.Context) {
	var req generateImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	img, err := h.products.GenerateImage(c.Request.Context(), req.Name, req.Category, req.Description)
	if err != nil {
		writeProductError(c, err, "failed to generate image")
		return
	}

	c.Data(http.StatusOK, http.DetectContentType(img), img)
}

// bindProduct reads a product from a JSON body or from multipart form data.
// It writes the 400 response itself and reports false when binding failed.
func (h *Handler) bindProduct(c *gin.Context) (catalog.Product, bool) {
	var product catalog.Product

	if !strings.HasPrefix(c.ContentType(), gin.MIMEMultipartPOSTForm) {
		if err := c.ShouldBindJSON(&product); err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return catalog.Product{}, false
		}
		return product, true
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+1<<20)

	raw, err := productPartJSON(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return catalog.Product{}, false
	}
	if err := json.Unmarshal(raw, &product); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid product part"})
		return catalog.Product{}, false
	}

	header, err := c.FormFile(imageFilePart)
	if errors.Is(err, http.ErrMissingFile) {
		return product, true
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid image file"})
		return catalog.Product{}, false
	}
	if header.Size > h.maxUploadBytes {
		c.JSON(http.StatusBadRequest, errorResponse{Error: errImageTooLarge.Error()})
		return catalog.Product{}, false
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid image file"})
		return catalog.Product{}, false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid image file"})
		return catalog.Product{}, false
	}

	product.ImageName = header.Filename
	product.ImageType = header.Header.Get("Content-Type")
	if product.ImageType == "" {
		product.ImageType = http.DetectContentType(data)
	}
	product.ImageData = data
	return product, true
}

// productPartJSON returns the "product" part either as a plain form value or
// as an uploaded file part, which is how some clients send typed JSON parts.
func productPartJSON(c *gin.Context) ([]byte, error) {
	if value := c.PostForm(productPart); value != "" {
		return []byte(value), nil
	}

	header, err := c.FormFile(productPart)
	if err != nil {
		return nil, fmt.Errorf("%s part is required", productPart)
	}
	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("read %s part: %w", productPart, err)
	}
	defer file.Close()

	return io.ReadAll(file)
}
