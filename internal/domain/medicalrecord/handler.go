package medicalrecord

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/hrcore/medrecord/pkg/pagination"
	"github.com/hrcore/medrecord/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the record endpoints on g, normally /api/MedicalRecord.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/GetFilterMedicalRecords", h.ListFiltered)
	g.GET("/statuses", h.ListStatuses)
	g.GET("/types", h.ListMedicalRecordTypes)
	g.GET("/:id", h.GetByID)
	g.POST("", h.Create)
	g.PUT("", h.Update)
	g.DELETE("", h.Delete)
}

func respond[T any](c echo.Context, env response.Envelope[T]) error {
	return c.JSON(env.Code, env)
}

func badInput[T any](c echo.Context, message string, err error) error {
	return respond(c, response.Fail[T](http.StatusBadRequest, message).WithException(err.Error()))
}

// badBody answers a failed bind. A body cut off by the size limit keeps
// its 413; everything else is a 400.
func badBody[T any](err error) response.Envelope[T] {
	if tooLarge(err) {
		return response.Fail[T](http.StatusRequestEntityTooLarge, "Request body too large.").WithException(err.Error())
	}
	return response.Fail[T](http.StatusBadRequest, "Invalid request body.").WithException(err.Error())
}

// tooLarge reports whether err, or the cause echo's binder wrapped it
// around, is a 413.
func tooLarge(err error) bool {
	for err != nil {
		var he *echo.HTTPError
		if !errors.As(err, &he) {
			return false
		}
		if he.Code == http.StatusRequestEntityTooLarge {
			return true
		}
		err = he.Internal
	}
	return false
}

func (h *Handler) ListFiltered(c echo.Context) error {
	pg, err := pagination.FromContext(c)
	if err != nil {
		return badInput[[]*View](c, "Invalid page or page size parameters.", err)
	}
	p := ListParams{Params: pg}
	if p.StatusID, err = optionalInt(c, "statusId"); err != nil {
		return badInput[[]*View](c, "Invalid query parameters.", err)
	}
	if p.MedicalRecordTypeID, err = optionalInt(c, "medicalRecordTypeId"); err != nil {
		return badInput[[]*View](c, "Invalid query parameters.", err)
	}
	if p.StartDate, err = optionalDate(c, "startDate"); err != nil {
		return badInput[[]*View](c, "Invalid query parameters.", err)
	}
	if p.EndDate, err = optionalDate(c, "endDate"); err != nil {
		return badInput[[]*View](c, "Invalid query parameters.", err)
	}
	return respond(c, h.svc.ListFiltered(c.Request().Context(), p))
}

func (h *Handler) GetByID(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return badInput[*View](c, "Invalid medical record ID.", err)
	}
	return respond(c, h.svc.GetByID(c.Request().Context(), id))
}

func (h *Handler) Create(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return respond(c, badBody[*View](err))
	}
	return respond(c, h.svc.Create(c.Request().Context(), &req))
}

func (h *Handler) Update(c echo.Context) error {
	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return respond(c, badBody[*View](err))
	}
	return respond(c, h.svc.Update(c.Request().Context(), &req))
}

func (h *Handler) Delete(c echo.Context) error {
	var req DeleteRequest
	if err := c.Bind(&req); err != nil {
		return respond(c, badBody[bool](err).WithData(false))
	}
	return respond(c, h.svc.Delete(c.Request().Context(), &req))
}

func (h *Handler) ListStatuses(c echo.Context) error {
	return respond(c, h.svc.ListStatuses(c.Request().Context()))
}

func (h *Handler) ListMedicalRecordTypes(c echo.Context) error {
	return respond(c, h.svc.ListMedicalRecordTypes(c.Request().Context()))
}

func optionalInt(c echo.Context, name string) (*int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", name, err)
	}
	return &v, nil
}

func optionalDate(c echo.Context, name string) (*Date, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	var d Date
	if err := d.UnmarshalParam(raw); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", name, err)
	}
	return &d, nil
}
