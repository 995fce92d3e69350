package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"eshop/internal/apperrors"
	"eshop/internal/config"
	"eshop/internal/database"
	"eshop/internal/handlers"
	"eshop/internal/middleware"
	"eshop/internal/models"
	"eshop/internal/repositories"
	"eshop/internal/security"
	"eshop/internal/services"
	"eshop/pkg/rabbitmq"
)

// application is the wired HTTP server and the resources it owns.
type application struct {
	fiber *fiber.App
	mq    *rabbitmq.Client
	db    *gorm.DB
	log   zerolog.Logger
}

// newApp builds repositories, services and handlers from cfg and registers
// every route. The caller must Close the result.
func newApp(cfg *config.Config, log zerolog.Logger) (*application, error) {
	policy, err := cfg.CancelPolicy()
	if err != nil {
		return nil, err
	}

	a := &application{log: log}

	// --- Repositories ---
	var (
		productRepo repositories.ProductRepository
		userRepo    repositories.UserRepository
	)
	switch cfg.StorageDriver {
	case config.DriverMemory:
		productRepo = repositories.NewInMemoryProductRepository()
		userRepo = repositories.NewInMemoryUserRepository()
	default:
		db, err := database.Open(cfg.StorageDriver, cfg.DatabaseDSN, log)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(db); err != nil {
			_ = database.Close(db)
			return nil, err
		}
		a.db = db
		productRepo = repositories.NewGORMProductRepository(db)
		userRepo = repositories.NewGORMUserRepository(db)
	}
	orderRepo := repositories.NewInMemoryOrderRepository()
	cartRepo := repositories.NewInMemoryCartRepository()
	ticketRepo := repositories.NewInMemoryTicketRepository()

	// --- Order events ---
	var publisher services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, log)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.mq = mq
		publisher = mq
	} else {
		log.Info().Msg("RABBITMQ_URL not set, order events are not published")
	}

	// --- Services ---
	hasher := security.NewHasher(cfg.BcryptCost)
	productService := services.NewProductService(productRepo)
	authService := services.NewAuthService(userRepo, hasher, cfg.JWTSecret, cfg.TokenTTL)
	accountService := services.NewAccountService(userRepo, hasher)
	cartService := services.NewCartService(cartRepo, productRepo)
	billingService := services.NewBillingService(
		repositories.NewInMemoryPaymentRepository(),
		repositories.NewInMemoryInvoiceRepository(),
	)
	orderService := services.NewOrderService(services.OrderRepositories{
		Orders:   orderRepo,
		Products: productRepo,
		Carts:    cartRepo,
		Users:    userRepo,
	}, billingService, services.NewSimulatedGateway(), publisher, policy)
	supportService := services.NewSupportService(ticketRepo, orderRepo)

	if cfg.SeedData {
		if err := seed(productService, authService, cfg, log); err != nil {
			a.Close()
			return nil, err
		}
	}

	// --- Fiber ---
	app := fiber.New(fiber.Config{
		AppName:               "eshop",
		DisableStartupMessage: cfg.IsProduction(),
		ErrorHandler:          jsonErrorHandler(log),
	})
	app.Use(requestid.New())
	app.Use(recover.New())
	app.Use(middleware.RequestLogger(log))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"storage":  cfg.StorageDriver,
			"rabbitmq": a.mq != nil,
		})
	})

	apiV1 := app.Group("/api/v1")
	requireAuth := middleware.AuthRequired(authService)

	handlers.NewAuthHandler(authService, log).RegisterRoutes(apiV1, requireAuth)
	handlers.NewProductHandler(productService, log).RegisterRoutes(apiV1)
	handlers.NewAdminHandler(orderService, supportService, log).
		RegisterRoutes(apiV1, middleware.AdminRequired(cfg.AdminToken))

	handlers.NewAccountHandler(accountService, log).RegisterRoutes(apiV1, requireAuth)
	handlers.NewCartHandler(cartService, log).RegisterRoutes(apiV1, requireAuth)
	handlers.NewOrderHandler(orderService, log).RegisterRoutes(apiV1, requireAuth)
	handlers.NewSupportHandler(supportService, log).RegisterRoutes(apiV1, requireAuth)

	a.fiber = app
	return a, nil
}

// Close releases the broker connection and the database.
func (a *application) Close() {
	if a.mq != nil {
		if err := a.mq.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close RabbitMQ client")
		}
	}
	if a.db != nil {
		if err := database.Close(a.db); err != nil {
			a.log.Warn().Err(err).Msg("failed to close database")
		}
	}
}

// jsonErrorHandler answers errors that escape the handlers, such as unknown
// routes and recovered panics, with a JSON body.
func jsonErrorHandler(log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Something went wrong, please try again later"
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		} else {
			log.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
		}
		return c.Status(code).JSON(fiber.Map{"message": message})
	}
}

// seedProducts is the demo catalog. Prices are in cents.
var seedProducts = []models.Product{
	{Name: "Basket Homme Noir", Description: "Baskets modernes pour homme en noir, confortables et élégantes.", Category: models.CategoryHomme, Price: 8999, Stock: 25},
	{Name: "Basket Homme Sport", Description: "Baskets sportives homme, design moderne et performance.", Category: models.CategoryHomme, Price: 9499, Stock: 30},
	{Name: "Basket Femme Rose", Description: "Baskets féminines en rose et blanc, tendance et confortables.", Category: models.CategoryFemme, Price: 8499, Stock: 35},
	{Name: "Basket Femme Beige", Description: "Baskets modernes pour femme en beige et rose, élégantes et polyvalentes.", Category: models.CategoryFemme, Price: 8799, Stock: 28},
	{Name: "Basket Femme Ville", Description: "Baskets femme parfaites pour la ville, confort et style au rendez-vous.", Category: models.CategoryFemme, Price: 8299, Stock: 32},
	{Name: "Basket Femme Moderne", Description: "Baskets modernes pour femme, design épuré et confort optimal.", Category: models.CategoryFemme, Price: 8999, Stock: 27},
	{Name: "Running Homme", Description: "Chaussures de running pour homme, performance et confort.", Category: models.CategoryHomme, Price: 10999, Stock: 20},
	{Name: "Running Femme", Description: "Chaussures de running femme bleu et rose, légères et performantes.", Category: models.CategoryFemme, Price: 10499, Stock: 22},
}

// seed fills an empty catalog and makes sure the demo account exists.
func seed(products *services.ProductService, auth *services.AuthService, cfg *config.Config, log zerolog.Logger) error {
	existing, err := products.GetAllProducts()
	if err != nil {
		return fmt.Errorf("failed to read catalog: %w", err)
	}
	if len(existing) == 0 {
		for _, p := range seedProducts {
			p.Active = true
			if err := products.CreateProduct(&p); err != nil {
				return fmt.Errorf("failed to seed product %s: %w", p.Name, err)
			}
			log.Debug().Str("product_id", p.ID).Str("name", p.Name).Msg("seeded product")
		}
		log.Info().Int("count", len(seedProducts)).Msg("catalog seeded")
	}

	_, err = auth.RegisterUser(models.Registration{
		Email:     cfg.DemoEmail,
		Password:  cfg.DemoPassword,
		FirstName: "Alice",
		LastName:  "Martin",
		Address:   "12 Rue des Fleurs",
	})
	switch {
	case err == nil:
		log.Info().Str("email", cfg.DemoEmail).Msg("demo account created")
	case errors.Is(err, apperrors.ErrAlreadyExists):
	default:
		return fmt.Errorf("failed to seed demo account: %w", err)
	}
	return nil
}
