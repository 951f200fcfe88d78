package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	api "github.com/Financial-Times/api-endpoint"
	"github.com/Financial-Times/go-logger/v2"
	"github.com/Financial-Times/http-handlers-go/v2/httphandlers"
	status "github.com/Financial-Times/service-status-go/httphandlers"
	"github.com/gorilla/mux"
	cli "github.com/jawher/mow.cli"
	metrics "github.com/rcrowley/go-metrics"

	"github.com/Financial-Times/thesaurus-api/cache"
	"github.com/Financial-Times/thesaurus-api/concept"
	"github.com/Financial-Times/thesaurus-api/export"
	"github.com/Financial-Times/thesaurus-api/handler"
	"github.com/Financial-Times/thesaurus-api/health"
	"github.com/Financial-Times/thesaurus-api/label"
	"github.com/Financial-Times/thesaurus-api/listing"
	"github.com/Financial-Times/thesaurus-api/pagination"
	"github.com/Financial-Times/thesaurus-api/search"
	"github.com/Financial-Times/thesaurus-api/skos"
	"github.com/Financial-Times/thesaurus-api/store"
)

const (
	appDescription  = "Multilingual SKOS thesaurus browsing, search and export API"
	shutdownTimeout = 10 * time.Second
)

func main() {
	app := cli.App("thesaurus-api", appDescription)

	appSystemCode := app.String(cli.StringOpt{
		Name:   "app-system-code",
		Value:  "thesaurus-api",
		Desc:   "System Code of the application",
		EnvVar: "APP_SYSTEM_CODE",
	})
	appName := app.String(cli.StringOpt{
		Name:   "app-name",
		Value:  "thesaurus-api",
		Desc:   "Application name",
		EnvVar: "APP_NAME",
	})
	port := app.String(cli.StringOpt{
		Name:   "port",
		Value:  "8080",
		Desc:   "Port to listen on",
		EnvVar: "APP_PORT",
	})
	storeDSN := app.String(cli.StringOpt{
		Name:   "store-dsn",
		Value:  "sqlite:file:thesaurus.db?mode=ro",
		Desc:   "Triple store DSN: postgres:// for Postgres, sqlite: or file: for an embedded SQLite database",
		EnvVar: "STORE_DSN",
	})
	cachePath := app.String(cli.StringOpt{
		Name:   "cache-path",
		Value:  "./data/labels",
		Desc:   "Directory of the label cache",
		EnvVar: "CACHE_PATH",
	})
	cacheTimeoutDuration := app.String(cli.StringOpt{
		Name:   "cache-timeout",
		Value:  "2s",
		Desc:   "Duration to wait for the label cache",
		EnvVar: "CACHE_TIMEOUT",
	})
	indexPath := app.String(cli.StringOpt{
		Name:   "index-path",
		Value:  "./data/index",
		Desc:   "Directory of the search index",
		EnvVar: "INDEX_PATH",
	})
	perPage := app.Int(cli.IntOpt{
		Name:   "per-page",
		Value:  25,
		Desc:   "Number of results per page in listings, relationships and search",
		EnvVar: "PER_PAGE",
	})
	defaultLanguage := app.String(cli.StringOpt{
		Name:   "default-language",
		Value:  "en",
		Desc:   "Language used when a request does not name one",
		EnvVar: "DEFAULT_LANGUAGE",
	})
	searchMaxHits := app.Int(cli.IntOpt{
		Name:   "search-max-hits",
		Value:  50,
		Desc:   "Maximum number of hits returned by a search",
		EnvVar: "SEARCH_MAX_HITS",
	})
	autocompleteMaxHits := app.Int(cli.IntOpt{
		Name:   "autocomplete-max-hits",
		Value:  20,
		Desc:   "Maximum number of autocomplete suggestions",
		EnvVar: "AUTOCOMPLETE_MAX_HITS",
	})
	apiYml := app.String(cli.StringOpt{
		Name:   "api-yml",
		Value:  "./_ft/api.yml",
		Desc:   "Location of the API Swagger YML file.",
		EnvVar: "API_YML",
	})
	httpTimeoutDuration := app.String(cli.StringOpt{
		Name:   "http-timeout",
		Value:  "8s",
		Desc:   "Duration to wait before timing out a request",
		EnvVar: "HTTP_TIMEOUT",
	})
	logLevel := app.String(cli.StringOpt{
		Name:   "log-level",
		Value:  "INFO",
		Desc:   "Log level",
		EnvVar: "LOG_LEVEL",
	})

	log := logger.NewUPPLogger(*appSystemCode, *logLevel)
	log.Infof("[Startup] %v is starting", *appSystemCode)

	app.Action = func() {
		log = logger.NewUPPLogger(*appSystemCode, *logLevel)
		log.Infof("System code: %s, App Name: %s, Port: %s", *appSystemCode, *appName, *port)

		if !skos.IsLanguage(*defaultLanguage) {
			log.WithField("language", *defaultLanguage).Fatal("Default language is not one of the supported languages")
		}
		httpTimeout, err := time.ParseDuration(*httpTimeoutDuration)
		if err != nil {
			log.WithError(err).Fatal("Please provide a valid timeout duration")
		}
		cacheTimeout, err := time.ParseDuration(*cacheTimeoutDuration)
		if err != nil {
			log.WithError(err).Fatal("Please provide a valid cache timeout duration")
		}
		paginator, err := pagination.NewPaginator(*perPage)
		if err != nil {
			log.WithError(err).Fatal("Please provide a valid page size")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		tripleStore, err := store.Open(ctx, *storeDSN, log)
		if err != nil {
			log.WithError(err).Fatal("Failed to open the triple store")
		}
		defer closeWithLog(log, "triple store", tripleStore.Close)

		labelCache, err := cache.Open(*cachePath, true, cacheTimeout, log)
		if err != nil {
			log.WithError(err).WithField("path", *cachePath).Fatal("Failed to open the label cache")
		}
		defer closeWithLog(log, "label cache", labelCache.Close)

		index, err := search.OpenIndex(*indexPath, log)
		if err != nil {
			log.WithError(err).WithField("path", *indexPath).Fatal("Failed to open the search index")
		}
		defer closeWithLog(log, "search index", index.Close)

		resolver := label.NewResolver(tripleStore, *defaultLanguage)
		assembler := concept.NewAssembler(tripleStore, resolver, log)
		lister := listing.NewLister(tripleStore, labelCache, paginator, log)
		ranker, err := search.NewRanker(index, resolver, *searchMaxHits, *autocompleteMaxHits, log)
		if err != nil {
			log.WithError(err).Fatal("Please provide positive search and autocomplete hit limits")
		}
		exporter := export.NewExporter(assembler, log)

		thesaurusHandler := handler.New(lister, assembler, ranker, exporter, paginator, *defaultLanguage, httpTimeout, log)
		healthService := health.NewHealthService(*appSystemCode, *appName, appDescription, tripleStore, labelCache, index)

		serveEndpoints(ctx, *port, apiYml, thesaurusHandler, healthService, log)
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Errorf("App could not start, error=[%s]\n", err)
		return
	}
}

func serveEndpoints(ctx context.Context, port string, apiYml *string, handler *handler.Handler, healthService *health.HealthService, log *logger.UPPLogger) {
	r := mux.NewRouter()
	handler.RegisterRoutes(r)

	if apiYml != nil {
		apiEndpoint, err := api.NewAPIEndpointForFile(*apiYml)
		if err != nil {
			log.WithError(err).WithField("file", *apiYml).Warn("Failed to serve the API Endpoint for this service. Please validate the Swagger YML and the file location")
		} else {
			r.HandleFunc(api.DefaultPath, apiEndpoint.ServeHTTP).Methods(http.MethodGet)
		}
	}

	var monitoringRouter http.Handler = r
	monitoringRouter = httphandlers.TransactionAwareRequestLoggingHandler(log, monitoringRouter)
	monitoringRouter = httphandlers.HTTPMetricsHandler(metrics.DefaultRegistry, monitoringRouter)

	serveMux := http.NewServeMux()
	serveMux.HandleFunc("/__health", healthService.HealthCheckHandleFunc())
	serveMux.HandleFunc(status.GTGPath, status.NewGoodToGoHandler(healthService.GTG))
	serveMux.HandleFunc(status.BuildInfoPath, status.BuildInfoHandler)
	serveMux.Handle("/", monitoringRouter)

	server := &http.Server{Addr: ":" + port, Handler: serveMux}
	go func() {
		<-ctx.Done()
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("Failed to shut down the HTTP server")
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Unable to start: %v", err)
	}
}

func closeWithLog(log *logger.UPPLogger, name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		log.WithError(err).WithField("resource", name).Error("Failed to close")
	}
}
