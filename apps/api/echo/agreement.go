package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Junosprite007/mod-equipmentcheckout/core/agreement"
	"github.com/Junosprite007/mod-equipmentcheckout/core/user"
)

type agreementAPI struct {
	svc *agreement.Service
}

func registerAgreementAPI(g *echo.Group, jwt echo.MiddlewareFunc, users user.Service, svc *agreement.Service) {
	api := agreementAPI{svc: svc}

	ag := g.Group("/agreements", jwt, capabilityMiddleware(users, user.CapManageAgreements))
	ag.GET("", api.query)
	ag.POST("", api.create)
	ag.GET("/:id", api.retrieve)
	ag.PUT("/:id", api.edit)
}

// query lists the agreements; "?current=1" keeps those in force today.
func (api *agreementAPI) query(ctx echo.Context) error {
	var (
		agreements []agreement.Agreement
		err        error
	)
	if current, _ := strconv.ParseBool(ctx.QueryParam(currentParam)); current {
		agreements, err = api.svc.Current(ctx.Request().Context())
	} else {
		agreements, err = api.svc.Query(ctx.Request().Context(), activeOnly(ctx))
	}
	if err != nil {
		return errors.Wrap(err, "querying agreements")
	}
	return ctx.JSON(http.StatusOK, agreements)
}

func (api *agreementAPI) create(ctx echo.Context) error {
	var data agreement.EditAgreement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EditAgreement")
	}
	a, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating agreement")
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *agreementAPI) retrieve(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	a, err := api.svc.Get(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting agreement")
	}
	return ctx.JSON(http.StatusOK, a)
}

// edit saves the changes as a new version and returns it.
func (api *agreementAPI) edit(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	var data agreement.EditAgreement
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EditAgreement")
	}
	a, err := api.svc.Edit(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "editing agreement")
	}
	return ctx.JSON(http.StatusOK, a)
}
