package catalogapi

import (
	"net/http"

	"github.com/gocarina/gocsv"
	"github.com/labstack/echo/v4"

	"github.com/talkincode/catalogd/internal/domain"
	"github.com/talkincode/catalogd/internal/webserver"
)

// registerTransferRoutes registers CSV export/import endpoints
func registerTransferRoutes() {
	webserver.ApiGET("/products/export", exportProducts)
	webserver.ApiPOST("/products/import", importProducts)
}

type productCSV struct {
	ID          int64   `csv:"id"`
	Name        string  `csv:"name"`
	Description string  `csv:"description"`
	Type        string  `csv:"type"`
	Price       float64 `csv:"price"`
	Quantity    int     `csv:"quantity"`
	ImageURL    string  `csv:"image_url"`
}

// exportProducts streams the whole catalog as a CSV attachment.
func exportProducts(c echo.Context) error {
	products, err := GetCatalog(c).AllProducts(c.Request().Context())
	if err != nil {
		return failErr(c, err)
	}

	rows := make([]productCSV, 0, len(products))
	for _, p := range products {
		row := productCSV{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Type:        p.Type,
			Price:       p.Price,
			Quantity:    p.Quantity,
		}
		if p.ImageURL != nil {
			row.ImageURL = *p.ImageURL
		}
		rows = append(rows, row)
	}

	out, err := gocsv.MarshalString(&rows)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Internal server error", err.Error())
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="products.csv"`)
	return c.Blob(http.StatusOK, "text/csv", []byte(out))
}

// importProducts bulk-creates products from an uploaded CSV file,
// form field "file". Rows without a name are skipped.
func importProducts(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return fail(c, http.StatusBadRequest, "CSV file is required", err.Error())
	}
	src, err := file.Open()
	if err != nil {
		return fail(c, http.StatusBadRequest, "CSV file is required", err.Error())
	}
	defer src.Close()

	var rows []productCSV
	if err := gocsv.Unmarshal(src, &rows); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid CSV file", err.Error())
	}

	products := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		p := domain.Product{
			Name:        row.Name,
			Description: row.Description,
			Type:        row.Type,
			Price:       row.Price,
			Quantity:    row.Quantity,
		}
		if row.ImageURL != "" {
			url := row.ImageURL
			p.ImageURL = &url
		}
		products = append(products, p)
	}

	imported, err := GetCatalog(c).ImportProducts(c.Request().Context(), products)
	if err != nil {
		return failErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":   true,
		"message":  "Products imported successfully",
		"imported": imported,
	})
}
