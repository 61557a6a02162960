package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shop_api/internal/store"
	"github.com/Skotchmaster/shop_api/internal/util"
)

type envelope struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
	Meta    *meta  `json:"meta,omitempty"`
}

type meta struct {
	FirstPage   int     `json:"firstPage"`
	LastPage    int     `json:"lastPage"`
	CurrentPage int     `json:"currentPage"`
	TotalData   int64   `json:"totalData"`
	PerPage     int     `json:"perPage"`
	NextPage    *string `json:"nextPage"`
	PrevPage    *string `json:"prevPage"`
}

func respond(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, envelope{Status: status, Message: message, Data: data})
}

func respondList[T any](c echo.Context, message string, p *store.Page[T]) error {
	items := p.Items
	if items == nil {
		items = []T{}
	}

	m := &meta{
		FirstPage:   p.FirstItem(),
		LastPage:    p.LastPage,
		CurrentPage: p.Page,
		TotalData:   p.Total,
		PerPage:     p.Size,
	}
	if p.Page < p.LastPage {
		m.NextPage = pageURL(c, p.Page+1)
	}
	if p.Page > 1 {
		m.PrevPage = pageURL(c, p.Page-1)
	}

	return c.JSON(http.StatusOK, envelope{Status: http.StatusOK, Message: message, Data: items, Meta: m})
}

// pageURL is the current request URL with the page parameter replaced.
func pageURL(c echo.Context, page int) *string {
	u := *c.Request().URL
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	s := u.RequestURI()
	return &s
}

func listQuery(c echo.Context) store.Query {
	return store.Query{
		Q:      c.QueryParam("q"),
		Sort:   c.QueryParam("sort"),
		Column: c.QueryParam("column"),
		Page:   util.ParseIntDefault(c.QueryParam("page"), 1),
		Size:   util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize),
	}
}

func parseID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "id must be a positive integer")
	}
	return uint(id), nil
}
