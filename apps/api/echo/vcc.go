package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/Junosprite007/mod-equipmentcheckout/core"
	"github.com/Junosprite007/mod-equipmentcheckout/core/user"
	"github.com/Junosprite007/mod-equipmentcheckout/core/vcc"
)

const (
	csrfHeader     = "X-CSRF-Token"
	csrfCookie     = "_csrf"
	csrfContextKey = "csrf"
)

type vccAPI struct {
	svc        *vcc.Service
	translator ut.Translator
}

func registerVCCAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	users user.Service,
	svc *vcc.Service,
	translator ut.Translator,
	secureCookie bool,
) {
	api := vccAPI{svc: svc, translator: translator}

	// list responses issue the token that deletions must send back
	csrf := middleware.CSRFWithConfig(middleware.CSRFConfig{
		TokenLookup:    "header:" + csrfHeader,
		ContextKey:     csrfContextKey,
		CookieName:     csrfCookie,
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSecure:   secureCookie,
	})

	vg := g.Group("/vcc-submissions", jwt, capabilityMiddleware(users, user.CapManageVCCSubmissions), csrf)
	vg.GET("", api.query)
	vg.DELETE("/:id", api.destroy)
}

func (api *vccAPI) query(ctx echo.Context) error {
	ordering := new(Ordering)
	ordering.Bind(ctx)
	pagination := new(Pagination)
	pagination.Bind(ctx)

	page, err := api.svc.List(ctx.Request().Context(), vcc.Query{
		Orderings:  ordering.Orderings,
		Pagination: pagination.Pagination,
	})
	if err != nil {
		return errors.Wrap(err, "listing vcc submissions")
	}

	if token, ok := ctx.Get(csrfContextKey).(string); ok {
		ctx.Response().Header().Set(csrfHeader, token)
	}
	return ctx.JSON(http.StatusOK, page)
}

func (api *vccAPI) destroy(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting vcc submission")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: core.T(api.translator, core.MsgVCCSubmissionDeleted)})
}
