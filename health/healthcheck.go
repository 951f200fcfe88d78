package health

import (
	"fmt"
	"net/http"

	fthealth "github.com/Financial-Times/go-fthealth/v1_1"
	"github.com/Financial-Times/service-status-go/gtg"
)

const panicGuide = "https://dewey.ft.com/thesaurus-api.html"

type service interface {
	Endpoint() string
	GTG() error
}

type HealthService struct {
	fthealth.HealthCheck
	store      service
	labelCache service
	index      service
	// gtgChecks fail the good-to-go endpoint. Search degrades to empty results instead.
	gtgChecks []fthealth.Check
}

func NewHealthService(appSystemCode string, appName string, appDescription string, store service, labelCache service, index service) *HealthService {
	hcService := &HealthService{
		store:      store,
		labelCache: labelCache,
		index:      index,
	}
	hcService.SystemCode = appSystemCode
	hcService.Name = appName
	hcService.Description = appDescription
	hcService.gtgChecks = []fthealth.Check{
		hcService.storeCheck(),
		hcService.labelCacheCheck(),
	}
	hcService.Checks = append(append([]fthealth.Check{}, hcService.gtgChecks...), hcService.indexCheck())
	return hcService
}

func (service *HealthService) HealthCheckHandleFunc() func(w http.ResponseWriter, r *http.Request) {
	return fthealth.Handler(service)
}

func (service *HealthService) storeCheck() fthealth.Check {
	return fthealth.Check{
		ID:               "check-triple-store-health",
		BusinessImpact:   "Impossible to browse or export thesaurus concepts",
		Name:             "Check Triple Store Health",
		PanicGuide:       panicGuide,
		Severity:         1,
		TechnicalSummary: fmt.Sprintf("Triple store is not available at %v", service.store.Endpoint()),
		Checker:          service.storeChecker,
	}
}

func (service *HealthService) storeChecker() (string, error) {
	if err := service.store.GTG(); err != nil {
		return "", err
	}
	return "Triple store is healthy", nil
}

func (service *HealthService) labelCacheCheck() fthealth.Check {
	return fthealth.Check{
		ID:               "check-label-cache-health",
		BusinessImpact:   "Impossible to list thesaurus concepts",
		Name:             "Check Label Cache Health",
		PanicGuide:       panicGuide,
		Severity:         1,
		TechnicalSummary: fmt.Sprintf("Label cache is not available at %v", service.labelCache.Endpoint()),
		Checker:          service.labelCacheChecker,
	}
}

func (service *HealthService) labelCacheChecker() (string, error) {
	if err := service.labelCache.GTG(); err != nil {
		return "", err
	}
	return "Label cache is healthy", nil
}

func (service *HealthService) indexCheck() fthealth.Check {
	return fthealth.Check{
		ID:               "check-search-index-health",
		BusinessImpact:   "Search and autocomplete return no results",
		Name:             "Check Search Index Health",
		PanicGuide:       panicGuide,
		Severity:         2,
		TechnicalSummary: fmt.Sprintf("Search index is not available at %v", service.index.Endpoint()),
		Checker:          service.indexChecker,
	}
}

func (service *HealthService) indexChecker() (string, error) {
	if err := service.index.GTG(); err != nil {
		return "", err
	}
	return "Search index is healthy", nil
}

func (service *HealthService) GTG() gtg.Status {
	for _, check := range service.gtgChecks {
		if _, err := check.Checker(); err != nil {
			return gtg.Status{GoodToGo: false, Message: err.Error()}
		}
	}
	return gtg.Status{GoodToGo: true}
}
