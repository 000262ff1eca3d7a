package echoapi

import (
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/learntrack/storage/files"
)

type fileApi struct {
	store files.Storage
}

func registerFileAPI(g *echo.Group, jwt echo.MiddlewareFunc, store files.Storage) {
	api := fileApi{store: store}

	fg := g.Group("/files", jwt)
	fg.GET("/:ref", api.download)
}

func (api *fileApi) download(ctx echo.Context) error {
	ref := ctx.Param("ref")
	f, err := api.store.Open(ctx.Request().Context(), ref)
	if err != nil {
		if os.IsNotExist(errors.Cause(err)) {
			return errHttpNotFound
		}
		return errors.Wrap(err, "opening stored file")
	}
	defer func() { _ = f.Close() }()

	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+ref+`"`)
	return ctx.Stream(http.StatusOK, echo.MIMEOctetStream, f)
}
