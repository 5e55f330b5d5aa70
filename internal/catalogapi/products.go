package catalogapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"

	"github.com/talkincode/catalogd/internal/catalog"
	"github.com/talkincode/catalogd/internal/webserver"
)

// registerProductRoutes registers the product CRUD endpoints
func registerProductRoutes() {
	webserver.ApiPOST("/products", createProduct)
	webserver.ApiGET("/products", listProducts)
	webserver.ApiGET("/products/:id", getProduct)
	webserver.ApiPUT("/products/:id", updateProduct)
	webserver.ApiDELETE("/products/:id", deleteProduct)
	webserver.ApiPATCH("/products/:id/quantity", updateProductQuantity)
}

type updatePayload struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Type        string  `json:"type"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
	ImageURL    *string `json:"image_url"`
}

type quantityPayload struct {
	Quantity *int `json:"quantity"`
}

// createProduct accepts a multipart form with the product fields and an
// optional image file.
func createProduct(c echo.Context) error {
	name := strings.TrimSpace(c.FormValue("name"))
	if name == "" {
		return fail(c, http.StatusBadRequest, "Error in creating product", "name is required")
	}
	price, err := cast.ToFloat64E(c.FormValue("price"))
	if err != nil {
		return fail(c, http.StatusBadRequest, "Error in creating product", "invalid price")
	}
	quantity, err := cast.ToIntE(c.FormValue("quantity"))
	if err != nil || quantity < 0 {
		return fail(c, http.StatusBadRequest, "Error in creating product", "invalid quantity")
	}

	in := catalog.CreateProductInput{
		Name:        name,
		Description: c.FormValue("description"),
		Type:        c.FormValue("type"),
		Price:       price,
		Quantity:    quantity,
	}

	if file, err := c.FormFile("image"); err == nil && file != nil {
		src, err := file.Open()
		if err != nil {
			return fail(c, http.StatusBadRequest, "Image upload failed", err.Error())
		}
		defer src.Close()
		in.Image = &catalog.ImageUpload{
			Filename:    file.Filename,
			ContentType: file.Header.Get("Content-Type"),
			Body:        src,
		}
	}

	product, err := GetCatalog(c).CreateProduct(c.Request().Context(), in)
	if err != nil {
		return failErr(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"status":  true,
		"message": "Product created successfully",
		"product": product,
	})
}

func listProducts(c echo.Context) error {
	page := 1
	if p, err := strconv.Atoi(c.QueryParam("page")); err == nil && p > 0 {
		page = p
	}

	result, err := GetCatalog(c).ListProducts(c.Request().Context(), page)
	if err != nil {
		return failErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":     true,
		"page":       result.Page,
		"total":      result.Total,
		"totalPages": result.TotalPages,
		"data":       result.Data,
	})
}

func getProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusNotFound, "Product not found", "invalid product id")
	}

	product, err := GetCatalog(c).GetProduct(c.Request().Context(), id)
	if err != nil {
		return failErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status": true,
		"data":   product,
	})
}

// updateProduct replaces the whole field set; image_url is taken as-is,
// re-uploading goes through createProduct only.
func updateProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "Error updating product", "invalid product id")
	}
	var payload updatePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "Error updating product", err.Error())
	}

	data, err := GetCatalog(c).UpdateProduct(c.Request().Context(), id, catalog.UpdateProductInput{
		Name:        payload.Name,
		Description: payload.Description,
		Type:        payload.Type,
		Price:       payload.Price,
		Quantity:    payload.Quantity,
		ImageURL:    payload.ImageURL,
	})
	if err != nil {
		return failErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":  true,
		"message": "Product updated successfully",
		"data":    data,
	})
}

func deleteProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "Error deleting product", "invalid product id")
	}

	if err := GetCatalog(c).DeleteProduct(c.Request().Context(), id); err != nil {
		return failErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":  true,
		"message": "Product deleted successfully",
	})
}

// updateProductQuantity adjusts only the quantity. Zero is valid; a
// missing quantity key is rejected.
func updateProductQuantity(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "Error updating quantity", "invalid product id")
	}
	var payload quantityPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "Error updating quantity", err.Error())
	}
	if payload.Quantity == nil {
		return failErr(c, catalog.ErrQuantityRequired)
	}

	product, err := GetCatalog(c).UpdateQuantity(c.Request().Context(), id, *payload.Quantity)
	if err != nil {
		return failErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":  true,
		"message": "Quantity updated successfully",
		"product": product,
	})
}
