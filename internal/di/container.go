package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bookshelf-ua/api/internal/platform/config"
	"github.com/bookshelf-ua/api/internal/platform/observability"
	"github.com/bookshelf-ua/api/internal/repositories"
	"github.com/bookshelf-ua/api/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon.
type Services struct {
	Counters       services.CounterService
	Status         services.OrderStatusResolver
	Orders         services.OrderService
	GroupDiscounts services.GroupDiscountService
	Baskets        services.BasketService
	Books          services.BookService
}

// Extras are optional collaborators the order workflow reports to.
type Extras struct {
	Events  services.OrderEventPublisher
	Metrics services.OrderMetrics
	Clock   func() time.Time
}

// Container wires repositories and services for runtime use.
type Container struct {
	Config       config.Config
	Repositories repositories.Registry
	Services     Services
}

// NewContainer constructs the runtime dependencies on top of reg. Tests can supply in-memory
// registries.
func NewContainer(cfg config.Config, reg repositories.Registry, extras Extras) (*Container, error) {
	if reg == nil {
		return nil, errors.New("repositories registry is required")
	}

	svc, err := buildServices(reg, cfg, extras)
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:       cfg,
		Repositories: reg,
		Services:     svc,
	}, nil
}

// Close releases the repository clients.
func (c *Container) Close(ctx context.Context) error {
	if c == nil || c.Repositories == nil {
		return nil
	}
	return c.Repositories.Close(ctx)
}

func buildServices(reg repositories.Registry, cfg config.Config, extras Extras) (Services, error) {
	clock := extras.Clock
	if clock == nil {
		clock = time.Now
	}

	var svc Services
	svc.Status = services.NewOrderStatusResolver()

	counterSvc, err := services.NewCounterService(services.CounterServiceDeps{
		Repository: reg.Counters(),
	})
	if err != nil {
		return Services{}, fmt.Errorf("build counter service: %w", err)
	}
	svc.Counters = counterSvc

	orderSvc, err := services.NewOrderService(services.OrderServiceDeps{
		Orders:             reg.Orders(),
		Ledger:             reg.StockLedger(),
		Books:              reg.Books(),
		GroupDiscounts:     reg.GroupDiscounts(),
		Baskets:            reg.Baskets(),
		Counters:           svc.Counters,
		Status:             svc.Status,
		Events:             extras.Events,
		Metrics:            extras.Metrics,
		AllowNegativeStock: cfg.Stock.AllowNegative,
		Clock:              clock,
		Logger:             observability.ServiceLogger("orders"),
	})
	if err != nil {
		return Services{}, fmt.Errorf("build order service: %w", err)
	}
	svc.Orders = orderSvc

	discountSvc, err := services.NewGroupDiscountService(services.GroupDiscountServiceDeps{
		Discounts: reg.GroupDiscounts(),
		Books:     reg.Books(),
		Clock:     clock,
		Logger:    observability.ServiceLogger("group_discounts"),
	})
	if err != nil {
		return Services{}, fmt.Errorf("build group discount service: %w", err)
	}
	svc.GroupDiscounts = discountSvc

	basketSvc, err := services.NewBasketService(services.BasketServiceDeps{
		Baskets:        reg.Baskets(),
		Books:          reg.Books(),
		GroupDiscounts: reg.GroupDiscounts(),
	})
	if err != nil {
		return Services{}, fmt.Errorf("build basket service: %w", err)
	}
	svc.Baskets = basketSvc

	bookSvc, err := services.NewBookService(services.BookServiceDeps{
		Books: reg.Books(),
		Clock: clock,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build book service: %w", err)
	}
	svc.Books = bookSvc

	return svc, nil
}
