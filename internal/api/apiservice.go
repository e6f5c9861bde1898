package api

import (
	"bytes"
	"errors"
	"image/png"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/jo-hoe/gowall/internal/core"
	"github.com/jo-hoe/gowall/internal/database"
	"github.com/jo-hoe/gowall/internal/imagegen"
	"github.com/jo-hoe/gowall/internal/preferences"
	"github.com/jo-hoe/gowall/internal/rotation"
	"github.com/labstack/echo/v4"
)

const mimePNG = "image/png"

// APIService exposes the wallpaper generator over JSON endpoints.
type APIService struct {
	coreService     *core.CoreService
	databaseService database.DatabaseService
	engine          *rotation.Engine
	trigger         *rotation.EventTrigger
}

func NewAPIService(coreService *core.CoreService, databaseService database.DatabaseService, engine *rotation.Engine, trigger *rotation.EventTrigger) *APIService {
	return &APIService{
		coreService:     coreService,
		databaseService: databaseService,
		engine:          engine,
		trigger:         trigger,
	}
}

type generateRequest struct {
	Quote string `json:"quote" validate:"required"`
}

type selectionRequest struct {
	Selected bool `json:"selected"`
}

type bulkDeleteRequest struct {
	IDs []int64 `json:"ids" validate:"required,min=1"`
}

type preferencesUpdateRequest struct {
	Location  *string `json:"location" validate:"omitempty,min=1"`
	Scene     *string `json:"scene" validate:"omitempty,min=1"`
	Style     *string `json:"style" validate:"omitempty,min=1"`
	FontStyle *string `json:"fontStyle" validate:"omitempty,min=1"`
	FontSize  *int    `json:"fontSize" validate:"omitempty,gte=8,lte=72"`
}

type imageResponse struct {
	ID                  int64     `json:"id"`
	FilePath            string    `json:"filePath"`
	Prompt              string    `json:"prompt,omitempty"`
	CreatedAt           time.Time `json:"createdAt"`
	SelectedForRotation bool      `json:"selectedForRotation"`
}

type preferencesResponse struct {
	Location  string `json:"location"`
	Scene     string `json:"scene"`
	Style     string `json:"style"`
	FontStyle string `json:"fontStyle"`
	FontSize  int    `json:"fontSize"`
}

type exportResponse struct {
	Exported int `json:"exported"`
	Failed   int `json:"failed"`
}

type rotationStatusResponse struct {
	State          string `json:"state"`
	CurrentIndex   int    `json:"currentIndex"`
	CurrentImageID *int64 `json:"currentImageId,omitempty"`
	Busy           bool   `json:"busy"`
}

func (service *APIService) SetRoutes(e *echo.Echo) {
	e.GET("/probe", func(c echo.Context) error {
		return c.String(http.StatusOK, "API Service is running")
	})

	e.POST("/api/generate", service.generateHandler)

	e.GET("/api/images", service.listImagesHandler)
	e.PUT("/api/images/:id/selection", service.setSelectionHandler)
	e.POST("/api/images/:id/toggle", service.toggleSelectionHandler)
	e.DELETE("/api/images/:id", service.deleteImageHandler)
	e.POST("/api/images/bulk-delete", service.bulkDeleteHandler)
	e.DELETE("/api/images/selected", service.deleteSelectedHandler)
	e.POST("/api/export", service.exportHandler)

	e.GET("/api/preferences", service.getPreferencesHandler)
	e.PATCH("/api/preferences", service.updatePreferencesHandler)

	e.GET("/api/notifications", service.notificationsHandler)
	e.GET("/api/images/changes", service.awaitChangesHandler)

	e.POST("/api/rotation/activate", service.activateRotationHandler)
	e.POST("/api/rotation/advance", service.advanceRotationHandler)
	e.POST("/api/rotation/apply-first", service.applyFirstHandler)
	e.GET("/api/rotation/frame", service.frameHandler)
	e.GET("/api/rotation/status", service.rotationStatusHandler)
}

func (service *APIService) generateHandler(ctx echo.Context) error {
	request := new(generateRequest)
	if err := ctx.Bind(request); err != nil {
		slog.Warn("generateHandler: failed to bind request body",
			"status", http.StatusBadRequest, "error", err)
		return ctx.String(http.StatusBadRequest, "Invalid request body")
	}
	if err := ctx.Validate(request); err != nil {
		return err
	}

	img, err := service.coreService.Generate(ctx.Request().Context(), request.Quote)
	if err != nil {
		status := generationErrorStatus(err)
		slog.Error("generateHandler: generation failed",
			"status", status, "error", err)
		return ctx.String(status, "Failed to generate wallpaper")
	}

	return ctx.JSON(http.StatusCreated, toImageResponse(img))
}

// generationErrorStatus maps generation failures to HTTP codes. Upstream API
// failures surface as 502 since the server itself is healthy.
func generationErrorStatus(err error) int {
	var apiErr *imagegen.APIError
	switch {
	case errors.Is(err, core.ErrEmptyQuote):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrGenerationInFlight):
		return http.StatusConflict
	case errors.Is(err, imagegen.ErrMissingAPIKey):
		return http.StatusBadRequest
	case errors.Is(err, imagegen.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.As(err, &apiErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (service *APIService) listImagesHandler(ctx echo.Context) error {
	images, err := service.coreService.ListImages(ctx.Request().Context())
	if err != nil {
		slog.Error("listImagesHandler: failed to list images",
			"status", http.StatusInternalServerError, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to list images")
	}

	response := make([]imageResponse, 0, len(images))
	for _, img := range images {
		response = append(response, toImageResponse(img))
	}
	return ctx.JSON(http.StatusOK, response)
}

func (service *APIService) setSelectionHandler(ctx echo.Context) error {
	id, err := parseImageID(ctx)
	if err != nil {
		return ctx.String(http.StatusBadRequest, "Invalid image ID")
	}

	request := new(selectionRequest)
	if err := ctx.Bind(request); err != nil {
		slog.Warn("setSelectionHandler: failed to bind request body",
			"status", http.StatusBadRequest, "error", err)
		return ctx.String(http.StatusBadRequest, "Invalid request body")
	}

	if err := service.coreService.SetSelection(ctx.Request().Context(), id, request.Selected); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ctx.String(http.StatusNotFound, "Image not found")
		}
		slog.Error("setSelectionHandler: failed to update selection",
			"status", http.StatusInternalServerError, "image_id", id, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to update selection")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (service *APIService) toggleSelectionHandler(ctx echo.Context) error {
	id, err := parseImageID(ctx)
	if err != nil {
		return ctx.String(http.StatusBadRequest, "Invalid image ID")
	}

	selected, err := service.coreService.ToggleSelection(ctx.Request().Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ctx.String(http.StatusNotFound, "Image not found")
		}
		slog.Error("toggleSelectionHandler: failed to toggle selection",
			"status", http.StatusInternalServerError, "image_id", id, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to toggle selection")
	}
	return ctx.JSON(http.StatusOK, selectionRequest{Selected: selected})
}

func (service *APIService) deleteImageHandler(ctx echo.Context) error {
	id, err := parseImageID(ctx)
	if err != nil {
		return ctx.String(http.StatusBadRequest, "Invalid image ID")
	}

	if err := service.coreService.DeleteImage(ctx.Request().Context(), id); err != nil {
		slog.Error("deleteImageHandler: failed to delete image",
			"status", http.StatusInternalServerError, "image_id", id, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to delete image")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (service *APIService) bulkDeleteHandler(ctx echo.Context) error {
	request := new(bulkDeleteRequest)
	if err := ctx.Bind(request); err != nil {
		slog.Warn("bulkDeleteHandler: failed to bind request body",
			"status", http.StatusBadRequest, "error", err)
		return ctx.String(http.StatusBadRequest, "Invalid request body")
	}
	if err := ctx.Validate(request); err != nil {
		return err
	}

	deleted, err := service.coreService.DeleteImages(ctx.Request().Context(), request.IDs)
	if err != nil {
		slog.Error("bulkDeleteHandler: failed to delete images",
			"status", http.StatusInternalServerError, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to delete images")
	}
	return ctx.JSON(http.StatusOK, map[string]int{"deleted": deleted})
}

func (service *APIService) deleteSelectedHandler(ctx echo.Context) error {
	deleted, err := service.coreService.DeleteSelected(ctx.Request().Context())
	if err != nil {
		slog.Error("deleteSelectedHandler: failed to delete selected images",
			"status", http.StatusInternalServerError, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to delete selected images")
	}
	return ctx.JSON(http.StatusOK, map[string]int{"deleted": deleted})
}

func (service *APIService) exportHandler(ctx echo.Context) error {
	exported, failed, err := service.coreService.ExportSelected(ctx.Request().Context())
	if err != nil {
		slog.Error("exportHandler: failed to export images",
			"status", http.StatusInternalServerError, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to export images")
	}
	return ctx.JSON(http.StatusOK, exportResponse{Exported: exported, Failed: failed})
}

func (service *APIService) getPreferencesHandler(ctx echo.Context) error {
	settings, err := service.coreService.Preferences().Read(ctx.Request().Context())
	if err != nil {
		slog.Error("getPreferencesHandler: failed to read preferences",
			"status", http.StatusInternalServerError, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to read preferences")
	}
	return ctx.JSON(http.StatusOK, toPreferencesResponse(settings))
}

func (service *APIService) updatePreferencesHandler(ctx echo.Context) error {
	request := new(preferencesUpdateRequest)
	if err := ctx.Bind(request); err != nil {
		slog.Warn("updatePreferencesHandler: failed to bind request body",
			"status", http.StatusBadRequest, "error", err)
		return ctx.String(http.StatusBadRequest, "Invalid request body")
	}
	if err := ctx.Validate(request); err != nil {
		return err
	}

	requestCtx := ctx.Request().Context()
	store := service.coreService.Preferences()
	if request.Location != nil {
		if err := store.UpdateLocation(requestCtx, *request.Location); err != nil {
			return service.preferencesUpdateError(ctx, "location", err)
		}
	}
	if request.Scene != nil {
		if err := store.UpdateScene(requestCtx, *request.Scene); err != nil {
			return service.preferencesUpdateError(ctx, "scene", err)
		}
	}
	if request.Style != nil {
		if err := store.UpdateStyle(requestCtx, *request.Style); err != nil {
			return service.preferencesUpdateError(ctx, "style", err)
		}
	}
	if request.FontStyle != nil {
		if err := store.UpdateFontStyle(requestCtx, *request.FontStyle); err != nil {
			return service.preferencesUpdateError(ctx, "fontStyle", err)
		}
	}
	if request.FontSize != nil {
		if err := store.UpdateFontSize(requestCtx, *request.FontSize); err != nil {
			return service.preferencesUpdateError(ctx, "fontSize", err)
		}
	}

	settings, err := store.Read(requestCtx)
	if err != nil {
		slog.Error("updatePreferencesHandler: failed to read preferences after update",
			"status", http.StatusInternalServerError, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to read preferences")
	}
	return ctx.JSON(http.StatusOK, toPreferencesResponse(settings))
}

func (service *APIService) preferencesUpdateError(ctx echo.Context, field string, err error) error {
	slog.Error("updatePreferencesHandler: failed to update preference",
		"status", http.StatusInternalServerError, "field", field, "error", err)
	return ctx.String(http.StatusInternalServerError, "Failed to update preferences")
}

func (service *APIService) notificationsHandler(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, service.coreService.Notifications())
}

const (
	defaultAwaitTimeout = 30 * time.Second
	maxAwaitTimeout     = 5 * time.Minute
)

type changesResponse struct {
	Changed bool `json:"changed"`
}

// awaitChangesHandler long-polls until the selected image set changes, the
// timeout elapses, or the client goes away. Clients use it to refresh without
// polling the list endpoint.
func (service *APIService) awaitChangesHandler(ctx echo.Context) error {
	timeout := defaultAwaitTimeout
	if raw := ctx.QueryParam("timeoutSeconds"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return ctx.String(http.StatusBadRequest, "Invalid timeout")
		}
		timeout = time.Duration(seconds) * time.Second
		if timeout > maxAwaitTimeout {
			timeout = maxAwaitTimeout
		}
	}

	changes, unsubscribe := service.databaseService.SubscribeSelectionChanges()
	defer unsubscribe()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-changes:
		return ctx.JSON(http.StatusOK, changesResponse{Changed: true})
	case <-timer.C:
		return ctx.JSON(http.StatusOK, changesResponse{Changed: false})
	case <-ctx.Request().Context().Done():
		return ctx.NoContent(http.StatusRequestTimeout)
	}
}

func (service *APIService) activateRotationHandler(ctx echo.Context) error {
	if err := service.engine.Activate(ctx.Request().Context()); err != nil {
		slog.Error("activateRotationHandler: failed to activate rotation",
			"status", http.StatusInternalServerError, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to activate rotation")
	}
	if err := service.engine.Render(ctx.Request().Context()); err != nil {
		slog.Error("activateRotationHandler: failed to render frame",
			"status", http.StatusInternalServerError, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to render frame")
	}
	return service.rotationStatusHandler(ctx)
}

func (service *APIService) advanceRotationHandler(ctx echo.Context) error {
	// The trigger decouples the request from the engine goroutine the same
	// way a display-off event would.
	service.trigger.Emit()
	return ctx.NoContent(http.StatusAccepted)
}

func (service *APIService) applyFirstHandler(ctx echo.Context) error {
	if err := service.engine.PresentFirstSelected(ctx.Request().Context()); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ctx.String(http.StatusConflict, "No images selected for rotation")
		}
		slog.Error("applyFirstHandler: failed to present first selected image",
			"status", http.StatusInternalServerError, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to apply first image")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (service *APIService) frameHandler(ctx echo.Context) error {
	frame, err := service.engine.CurrentFrame()
	if err != nil {
		slog.Error("frameHandler: failed to compose current frame",
			"status", http.StatusInternalServerError, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to compose frame")
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, frame); err != nil {
		slog.Error("frameHandler: failed to encode frame",
			"status", http.StatusInternalServerError, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to encode frame")
	}

	ctx.Response().Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	return ctx.Blob(http.StatusOK, mimePNG, buf.Bytes())
}

func (service *APIService) rotationStatusHandler(ctx echo.Context) error {
	status := rotationStatusResponse{
		State:        service.engine.State().String(),
		CurrentIndex: service.engine.CurrentIndex(),
		Busy:         service.coreService.Busy(),
	}
	if id, ok := service.engine.CurrentImageID(); ok {
		status.CurrentImageID = &id
	}
	return ctx.JSON(http.StatusOK, status)
}

func parseImageID(ctx echo.Context) (int64, error) {
	return strconv.ParseInt(ctx.Param("id"), 10, 64)
}

func toImageResponse(img *database.Image) imageResponse {
	return imageResponse{
		ID:                  img.ID,
		FilePath:            img.FilePath,
		Prompt:              img.Prompt,
		CreatedAt:           img.CreatedAt,
		SelectedForRotation: img.SelectedForRotation,
	}
}

func toPreferencesResponse(settings preferences.CustomizationSettings) preferencesResponse {
	return preferencesResponse{
		Location:  settings.Location,
		Scene:     settings.Scene,
		Style:     settings.Style,
		FontStyle: settings.FontStyle,
		FontSize:  settings.FontSize,
	}
}
