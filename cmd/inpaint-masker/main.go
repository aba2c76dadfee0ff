package main

import (
	"flag"
	"fmt"
	"log"
	"runtime"

	"inpaint-masker/internal/config"
	"inpaint-masker/internal/controllers"
	"inpaint-masker/internal/logger"
	"inpaint-masker/internal/models"
	"inpaint-masker/internal/opencv"
	"inpaint-masker/internal/render"
	"inpaint-masker/internal/services"
	"inpaint-masker/internal/shutdown"
	"inpaint-masker/internal/views"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
)

const (
	AppName    = "Inpaint Masker"
	AppID      = "com.imageprocessing.inpaint-masker"
	AppVersion = "1.0.0"
)

// Application wires the editor's models, services, controller and view together.
type Application struct {
	fyneApp fyne.App
	window  fyne.Window
	logger  logger.Logger

	controller *controllers.MainController
	view       *views.MainView

	store    *models.EditorStore
	saver    *services.MaskSaver
	shutdown *shutdown.Manager
}

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Configuration failed: %v", err)
	}

	application := NewApplication(cfg)
	application.Run()
}

// NewApplication creates the editor using dependency injection.
func NewApplication(cfg config.Config) *Application {
	app.SetMetadata(fyne.AppMetadata{
		ID:      AppID,
		Name:    AppName,
		Version: AppVersion,
	})
	fyneApp := app.NewWithID(AppID)

	window := fyneApp.NewWindow(AppName)
	window.Resize(fyne.NewSize(
		float32(cfg.Editor.SurfaceWidth)*2+100,
		float32(cfg.Editor.SurfaceHeight)+400,
	))
	window.CenterOnScreen()

	logLevel := logger.ParseLevel(cfg.LogLevel)
	appLogger := logger.NewConsoleLogger(logLevel)

	appLogger.Info("Application", "starting", map[string]interface{}{
		"version":       AppVersion,
		"go_version":    runtime.Version(),
		"log_level":     logLevel.String(),
		"save_endpoint": cfg.Editor.SaveEndpoint,
		"surface":       fmt.Sprintf("%dx%d", cfg.Editor.SurfaceWidth, cfg.Editor.SurfaceHeight),
	})

	store := models.NewEditorStore(appLogger)
	surface := render.NewSurface(cfg.Editor.SurfaceWidth, cfg.Editor.SurfaceHeight)

	imageService := services.NewImageService(appLogger)
	saver := services.NewMaskSaver(services.SaverOptions{
		Endpoint: cfg.Editor.SaveEndpoint,
		Timeout:  cfg.Editor.SaveTimeout,
		Debounce: cfg.Editor.SaveDebounce,
	}, appLogger)
	inpainter := opencv.NewInpainter(cfg.Editor.InpaintRadius, appLogger)

	mainController := controllers.NewMainController(
		store, imageService, saver, inpainter, surface, appLogger,
		controllers.Options{LoadTimeout: cfg.Editor.LoadTimeout},
	)
	saver.SetResultHandler(mainController.HandleSaveResult)

	mainView := views.NewMainView(window, cfg.Editor.SurfaceWidth, cfg.Editor.SurfaceHeight)
	mainController.SetMainView(mainView)

	manager := shutdown.NewManager(appLogger)
	manager.Register("save queue", saver)
	manager.Register("controller", mainController)

	application := &Application{
		fyneApp:    fyneApp,
		window:     window,
		logger:     appLogger,
		controller: mainController,
		view:       mainView,
		store:      store,
		saver:      saver,
		shutdown:   manager,
	}
	application.setupWindowEvents()

	return application
}

// Run shows the window and blocks until the app quits.
func (a *Application) Run() {
	a.shutdown.Listen(func() {
		fyne.Do(a.fyneApp.Quit)
	})

	a.view.Show()
	a.fyneApp.Run()

	a.shutdown.Shutdown()
	a.logger.Info("Application", "terminated", map[string]interface{}{
		"revision": a.store.State().Revision,
	})
}

func (a *Application) setupWindowEvents() {
	a.window.SetCloseIntercept(func() {
		if !a.store.State().Mask.Present() {
			a.window.Close()
			return
		}
		a.view.ShowConfirm(
			"Exit Application",
			"The current mask has not been downloaded. Exit anyway?",
			func(confirmed bool) {
				if confirmed {
					a.window.Close()
				}
			},
		)
	})

	a.window.SetOnClosed(func() {
		a.logger.Info("Application", "window closed", nil)
		go a.shutdown.Shutdown()
	})
}
