// Package server exposes a finished analysis run as a read-only JSON API.
// It serves data computed before the server starts; nothing here mutates
// the table or the index.
package server

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/statweave/assoctab-cli/internal/assoc"
	"github.com/statweave/assoctab-cli/internal/histogram"
)

type Handler struct {
	table *histogram.Table
	index *assoc.Index
}

func NewHandler(table *histogram.Table, index *assoc.Index) *Handler {
	return &Handler{table: table, index: index}
}

// NewEcho builds an echo instance with the standard middleware and all
// routes registered.
func (h *Handler) NewEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	h.RegisterRoutes(e)
	return e
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api")
	api.GET("/fields", h.GetFields)
	api.GET("/counts/:field", h.GetCounts)
	api.GET("/associations", h.GetAssociations)
	api.GET("/associations/:a/:b", h.GetPairReport)
	api.GET("/subgroups", h.GetSubgroupReport)
}

func getPaginationParams(c echo.Context, defaultLimit int) (int, int) {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	offset, err := strconv.Atoi(c.QueryParam("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

type fieldDTO struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

type countDTO struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

type fieldValueDTO struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type entryDTO struct {
	Pair     [2]fieldValueDTO `json:"pair"`
	Subgroup []fieldValueDTO  `json:"subgroup,omitempty"`
	Ratio    float64          `json:"ratio"`
}

func toEntryDTO(e assoc.Entry) entryDTO {
	d := entryDTO{Ratio: e.Ratio}
	for i, fv := range e.Pair {
		d.Pair[i] = fieldValueDTO{Field: fv.Field, Value: fv.Value}
	}
	for _, fv := range e.Subgroup {
		d.Subgroup = append(d.Subgroup, fieldValueDTO{Field: fv.Field, Value: fv.Value})
	}
	return d
}

func (h *Handler) GetFields(c echo.Context) error {
	out := make([]fieldDTO, 0)
	for _, name := range h.table.Fields() {
		f, _ := h.table.Field(name)
		out = append(out, fieldDTO{Name: name, Values: f.Values()})
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) GetCounts(c echo.Context) error {
	field := c.Param("field")
	marginal, err := h.table.Reduce(field)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	counts := make([]countDTO, 0)
	next := marginal.Nonzeros()
	for {
		coord, n, ok := next()
		if !ok {
			break
		}
		counts = append(counts, countDTO{Value: marginal.Values(coord)[0], Count: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Value < counts[j].Value
	})
	return pageJSON(c, counts)
}

func (h *Handler) GetAssociations(c echo.Context) error {
	entries := h.index.Entries()
	out := make([]entryDTO, len(entries))
	for i, e := range entries {
		out[i] = toEntryDTO(e)
	}
	return pageJSON(c, out)
}

func (h *Handler) GetPairReport(c echo.Context) error {
	entries := h.index.Report(c.Param("a"), c.Param("b"))
	out := make([]entryDTO, len(entries))
	for i, e := range entries {
		out[i] = toEntryDTO(e)
	}
	return pageJSON(c, out)
}

// GetSubgroupReport reads repeated "in" query params shaped field=value,
// e.g. /api/subgroups?in=sex=M&in=race=white.
func (h *Handler) GetSubgroupReport(c echo.Context) error {
	var subgroup []histogram.FieldValue
	for _, spec := range c.QueryParams()["in"] {
		field, value, ok := cutSpec(spec)
		if !ok {
			return echo.NewHTTPError(http.StatusBadRequest, "subgroup spec must be field=value")
		}
		subgroup = append(subgroup, histogram.FieldValue{Field: field, Value: value})
	}
	entries := h.index.SubgroupReport(subgroup...)
	out := make([]entryDTO, len(entries))
	for i, e := range entries {
		out[i] = toEntryDTO(e)
	}
	return pageJSON(c, out)
}

func cutSpec(spec string) (field, value string, ok bool) {
	for i := 0; i < len(spec); i++ {
		if spec[i] == '=' {
			return spec[:i], spec[i+1:], true
		}
	}
	return "", "", false
}

func pageJSON[T any](c echo.Context, items []T) error {
	total := len(items)
	limit, offset := getPaginationParams(c, total)
	if offset >= total {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"data": []T{}, "total": total, "limit": limit, "offset": offset,
		})
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data": items[offset:end], "total": total, "limit": limit, "offset": offset,
	})
}
