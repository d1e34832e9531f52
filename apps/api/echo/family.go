package echoapi

import (
	"io"
	"net/http"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Junosprite007/mod-equipmentcheckout/core"
	"github.com/Junosprite007/mod-equipmentcheckout/core/family"
	"github.com/Junosprite007/mod-equipmentcheckout/core/user"
)

const (
	familiesDataField   = "familiesdata"
	langParam           = "lang"
	resultsTemplateName = "results.gohtml"
)

// resultsPage is the data of the HTML results page of a bulk import.
type resultsPage struct {
	Title         string
	BatchID       string
	Errors        []string
	Notifications []family.Notification
	ContinueURL   string
}

type familyAPI struct {
	importer    *family.Importer
	translator  ut.Translator
	continueURL string
}

func registerFamilyAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	users user.Service,
	importer *family.Importer,
	translator ut.Translator,
	conf *core.Config,
) {
	api := familyAPI{
		importer:    importer,
		translator:  translator,
		continueURL: conf.FrontendBaseURL,
	}

	fg := g.Group("/families", jwt, capabilityMiddleware(users, user.CapUserCreate))
	fg.POST("/bulk", api.bulkImport)
}

// decode reads the families from a JSON body or from the "familiesdata" form field.
func (api *familyAPI) decode(ctx echo.Context) ([]family.FamilyData, error) {
	req := ctx.Request()
	var r io.Reader = req.Body
	ctype := req.Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(ctype, echo.MIMEApplicationForm) || strings.HasPrefix(ctype, echo.MIMEMultipartForm) {
		r = strings.NewReader(ctx.FormValue(familiesDataField))
	}

	families, err := family.Decode(r)
	if err != nil {
		msg := core.T(api.translator, core.MsgImportPayloadNotAnArray)
		if cause := errors.Cause(err); cause != family.ErrNotAnArray {
			msg = core.T(api.translator, core.MsgImportPayloadInvalid, cause.Error())
		}
		return nil, core.NewValidationError(err, core.FieldError{Field: familiesDataField, Error: msg})
	}
	return families, nil
}

func (api *familyAPI) bulkImport(ctx echo.Context) error {
	families, err := api.decode(ctx)
	if err != nil {
		return err
	}

	res, err := api.importer.Run(ctx.Request().Context(), families, family.Options{Lang: ctx.QueryParam(langParam)})
	if err != nil {
		return errors.Wrap(err, "importing families")
	}

	if strings.Contains(ctx.Request().Header.Get(echo.HeaderAccept), echo.MIMETextHTML) {
		return ctx.Render(http.StatusOK, resultsTemplateName, resultsPage{
			Title:         core.T(api.translator, core.MsgBulkUploadResults),
			BatchID:       res.BatchID.String(),
			Errors:        res.Errors,
			Notifications: res.Notifications,
			ContinueURL:   api.continueURL,
		})
	}
	return ctx.JSON(http.StatusOK, res)
}
