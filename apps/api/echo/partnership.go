package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Junosprite007/mod-equipmentcheckout/core/partnership"
	"github.com/Junosprite007/mod-equipmentcheckout/core/user"
)

// NewPartnershipsRequest holds the repeated partnership fieldsets of a creation request.
type NewPartnershipsRequest struct {
	Partnerships []partnership.NewPartnership `json:"partnerships"`
}

type partnershipAPI struct {
	svc *partnership.Service
}

func registerPartnershipAPI(g *echo.Group, jwt echo.MiddlewareFunc, users user.Service, svc *partnership.Service) {
	api := partnershipAPI{svc: svc}

	pg := g.Group("/partnerships", jwt, capabilityMiddleware(users, user.CapManagePartnerships))
	pg.GET("", api.query)
	pg.POST("", api.create)
	pg.GET("/:id", api.retrieve)
	pg.DELETE("/:id", api.destroy)
	pg.GET("/:id/pickups", api.queryPickups)
	pg.POST("/:id/pickups", api.createPickup)
}

func (api *partnershipAPI) query(ctx echo.Context) error {
	partnerships, err := api.svc.Query(ctx.Request().Context(), activeOnly(ctx))
	if err != nil {
		return errors.Wrap(err, "querying partnerships")
	}
	return ctx.JSON(http.StatusOK, partnerships)
}

func (api *partnershipAPI) create(ctx echo.Context) error {
	var data NewPartnershipsRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPartnershipsRequest")
	}
	partnerships, err := api.svc.Create(ctx.Request().Context(), data.Partnerships)
	if err != nil {
		return errors.Wrap(err, "creating partnerships")
	}
	return ctx.JSON(http.StatusCreated, partnerships)
}

func (api *partnershipAPI) retrieve(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	p, err := api.svc.Get(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting partnership")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *partnershipAPI) destroy(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting partnership")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *partnershipAPI) queryPickups(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	if _, err = api.svc.Get(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "getting partnership")
	}
	pickups, err := api.svc.Pickups(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying pickups")
	}
	return ctx.JSON(http.StatusOK, pickups)
}

func (api *partnershipAPI) createPickup(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	var data partnership.NewPickup
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPickup")
	}
	data.PartnershipID = id

	pickup, err := api.svc.AddPickup(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "adding pickup")
	}
	return ctx.JSON(http.StatusCreated, pickup)
}
