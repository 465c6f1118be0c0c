package docent

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/docent/publish"
	"github.com/eringen/docent/views"
)

const (
	captionURL    = "Entered image URL"
	captionUpload = "Uploaded image"
)

// homeData builds the page from session state.
func (a *App) homeData(c echo.Context, st *sessionState) views.HomeData {
	data := views.HomeData{
		Site:           views.SiteConfig{Name: a.Config.Name, Tagline: a.Config.Tagline},
		CSRFToken:      CsrfToken(c),
		InputURL:       st.InputURL,
		PublishEnabled: a.publisher != nil,
		MaxUploadMB:    int(a.Config.MaxUploadSize >> 20),
		URLPanel: views.Panel{
			ImageURL:    st.InputURL,
			Caption:     captionURL,
			Description: st.URLDescription,
		},
		FilePanel: views.Panel{
			ImageURL:     st.PreviewPath,
			Caption:      captionUpload,
			PublishedURL: st.PublishedURL,
			Description:  st.FileDescription,
		},
	}
	return data
}

func warning(text string) *views.Notice {
	return &views.Notice{Kind: views.NoticeWarning, Text: text}
}

func failure(format string, args ...interface{}) *views.Notice {
	return &views.Notice{Kind: views.NoticeError, Text: fmt.Sprintf(format, args...)}
}

func (a *App) handleHome(c echo.Context) error {
	st := loadState(c)
	return Render(c, a.Views.Home(a.homeData(c, st)))
}

// handleDescribeURL describes a user-supplied image URL.
func (a *App) handleDescribeURL(c echo.Context) error {
	st := loadState(c)
	input := strings.TrimSpace(c.FormValue("image_url"))

	if input == "" {
		data := a.homeData(c, st)
		data.URLPanel.Notice = warning("Please enter an image URL!")
		return RenderStatus(c, http.StatusBadRequest, a.Views.Home(data))
	}

	if !a.limiter.Allow(c.RealIP()) {
		data := a.homeData(c, st)
		data.InputURL = input
		data.URLPanel.Notice = failure("Too many requests. Try again in a minute.")
		return RenderStatus(c, http.StatusTooManyRequests, a.Views.Home(data))
	}

	desc, err := a.describe(c.Request().Context(), sourceURL, input, "")
	if err != nil {
		c.Logger().Errorf("describe url %q: %v", input, err)
		data := a.homeData(c, st)
		data.InputURL = input
		data.URLPanel.Notice = failure("The request failed: %v", err)
		return RenderStatus(c, http.StatusBadGateway, a.Views.Home(data))
	}

	st.setURLResult(input, desc)
	if err := st.save(c); err != nil {
		return err
	}
	return Render(c, a.Views.Home(a.homeData(c, st)))
}

// handleDescribeFile validates an upload, publishes it, and describes the
// published URL. Unsupported formats never reach the publisher.
func (a *App) handleDescribeFile(c echo.Context) error {
	st := loadState(c)
	respond := func(code int, notice *views.Notice) error {
		data := a.homeData(c, st)
		data.FilePanel.Notice = notice
		return RenderStatus(c, code, a.Views.Home(data))
	}

	file, err := c.FormFile("image")
	if err != nil {
		return respond(http.StatusBadRequest, warning("Please upload an image file!"))
	}
	if a.publisher == nil {
		return respond(http.StatusServiceUnavailable, failure("Uploads are disabled: no repository is configured."))
	}
	if file.Size > a.Config.MaxUploadSize {
		return respond(http.StatusBadRequest, failure("File too large (max %d MB).", a.Config.MaxUploadSize>>20))
	}
	if !allowedExtension(file.Filename) {
		return respond(http.StatusBadRequest, failure("Only jpg, jpeg and png files can be uploaded."))
	}
	if !a.limiter.Allow(c.RealIP()) {
		return respond(http.StatusTooManyRequests, failure("Too many requests. Try again in a minute."))
	}

	up, err := a.saveUpload(file)
	if err != nil {
		return err
	}
	defer os.Remove(up.TempPath)

	if err := checkFormat(up); err != nil {
		c.Logger().Warnf("upload %q rejected: %v", file.Filename, err)
		switch {
		case errors.Is(err, errUnsupportedFormat):
			return respond(http.StatusBadRequest, failure("Unsupported image format. Please upload a png, jpeg, gif or webp image."))
		case errors.Is(err, errImageTooLarge):
			return respond(http.StatusBadRequest, failure("Image too large (max %d megapixels).", maxPixels/1_000_000))
		}
		return respond(http.StatusBadRequest, failure("Could not check the image format: %v", err))
	}

	// The preview joins the session only after publish and describe succeed.
	preview, err := a.writePreview(up)
	if err != nil {
		c.Logger().Warnf("preview for %q: %v", file.Filename, err)
	}

	ctx := c.Request().Context()
	res, err := a.publish(ctx, up.TempPath, a.Config.RepoPath(file.Filename))
	if err != nil {
		c.Logger().Errorf("publish %q: %v", file.Filename, err)
		a.removePreview(preview)
		return respond(http.StatusBadGateway, failure("Image upload failed: %v", err))
	}

	desc, err := a.describe(ctx, sourceFile, res.URL, res.SHA)
	if err != nil {
		c.Logger().Errorf("describe upload %q: %v", res.URL, err)
		a.removePreview(preview)
		return respond(http.StatusBadGateway, failure("The request failed: %v", err))
	}

	if preview == "" {
		preview = res.URL
	}
	previous := st.PreviewPath
	st.setFileResult(preview, res.URL, desc)
	if err := st.save(c); err != nil {
		return err
	}
	if previous != preview {
		a.removePreview(previous)
	}
	return Render(c, a.Views.Home(a.homeData(c, st)))
}

// handleReset forgets the session's images and descriptions.
func (a *App) handleReset(c echo.Context) error {
	st := loadState(c)
	a.removePreview(st.PreviewPath)
	if err := st.clear(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

func handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// describe runs one completion with the request timeout, consulting the cache
// first. version distinguishes re-published content behind the same URL.
func (a *App) describe(ctx context.Context, source, imageURL, version string) (string, error) {
	key := cacheKey(imageURL, version)
	if desc, ok := a.descriptions.Get(key); ok {
		describeTotal.WithLabelValues(source, outcomeCached).Inc()
		return desc, nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.Config.RequestTimeout)
	defer cancel()

	start := time.Now()
	desc, err := a.describer.Describe(ctx, imageURL)
	describeDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
	if err != nil {
		describeTotal.WithLabelValues(source, outcomeError).Inc()
		return "", err
	}
	describeTotal.WithLabelValues(source, outcomeOK).Inc()
	a.descriptions.Add(key, desc)
	return desc, nil
}

func (a *App) publish(ctx context.Context, localPath, repoPath string) (*publish.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, a.Config.RequestTimeout)
	defer cancel()

	res, err := a.publisher.Publish(ctx, localPath, repoPath)
	if err != nil {
		publishTotal.WithLabelValues(opUnknown, outcomeError).Inc()
		return nil, err
	}
	op := opUpdate
	if res.Created {
		op = opCreate
	}
	publishTotal.WithLabelValues(op, outcomeOK).Inc()
	return res, nil
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = RenderStatus(c, code, a.Views.ServerError())
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
