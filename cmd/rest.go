package cmd

import (
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dvergaraf/wacrm/config"
	"github.com/dvergaraf/wacrm/ui/rest"
	"github.com/dvergaraf/wacrm/ui/rest/middleware"
	"github.com/dvergaraf/wacrm/ui/websocket"
)

var restCmd = &cobra.Command{
	Use:   "rest",
	Short: "Serve the CRM pipeline API over http",
	Long:  `Starts the REST API plus the dashboard websocket endpoint.`,
	Run:   restServer,
}

func init() {
	restCmd.Flags().String("basic-auth", "", "Basic auth for API (format: user:pass,user2:pass2)")
	rootCmd.AddCommand(restCmd)
}

func restServer(cmd *cobra.Command, _ []string) {
	cfg := config.Global

	// Override basic auth if flag is provided
	if baFlag, _ := cmd.Flags().GetString("basic-auth"); baFlag != "" {
		cfg.App.BasicAuth = strings.Split(baFlag, ",")
	}

	fiberConfig := fiber.Config{
		EnableTrustedProxyCheck: true,
		Network:                 "tcp",
		AppName:                 "WaCRM Pipeline Engine",
		DisableStartupMessage:   false,
		ServerHeader:            "Hidden",
	}

	if len(cfg.App.TrustedProxies) > 0 {
		fiberConfig.TrustedProxies = cfg.App.TrustedProxies
		fiberConfig.ProxyHeader = fiber.HeaderXForwardedHost
	}

	app := fiber.New(fiberConfig)

	app.Use(requestid.New())

	origins := strings.Join(cfg.App.CorsAllowedOrigins, ", ")
	if !strings.Contains(origins, cfg.App.BaseUrl) {
		origins += ", " + cfg.App.BaseUrl
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.Recovery())

	app.Use(helmet.New(helmet.Config{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "SAMEORIGIN",
		HSTSMaxAge:            31536000,
		HSTSExcludeSubdomains: false,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        1000,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}))

	if cfg.App.Debug {
		app.Use(logger.New())
	}

	if len(cfg.App.BasicAuth) == 0 {
		logrus.Fatalln("APP_BASIC_AUTH is required. Nothing should be public; please set APP_BASIC_AUTH=<user>:<secret>[,<user2>:<secret2>] and restart.")
	}

	account := make(map[string]string)
	for _, basicAuth := range cfg.App.BasicAuth {
		ba := strings.Split(basicAuth, ":")
		if len(ba) != 2 {
			logrus.Fatalln("Basic auth is not valid, please this following format <user>:<secret>")
		}
		account[ba[0]] = ba[1]
	}

	// QR images served without auth so the login link works from a browser
	app.Static(cfg.App.BasePath+"/"+cfg.Paths.QRCode, "./"+cfg.Paths.QRCode)

	apiGroup := app.Group(cfg.App.BasePath + "/api")
	apiGroup.Use(basicauth.New(basicauth.Config{
		Users: account,
		Next: func(c *fiber.Ctx) bool {
			// Allow CORS preflight without credentials.
			return c.Method() == fiber.MethodOptions
		},
	}))

	// Graceful shutdown handler
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logrus.Info("[REST] Reception of termination signal, shutting down gracefully...")
		if err := app.Shutdown(); err != nil {
			logrus.Errorf("[REST] Error during Fiber shutdown: %v", err)
		}
		StopApp()
	}()

	rest.InitRestApp(apiGroup)
	rest.InitRestAgent(apiGroup, agentsRepo)
	rest.InitRestChat(apiGroup, registry, hub)
	rest.InitRestMonitoring(apiGroup, monitor, pool, hub, ledger, registry)
	rest.InitRestSettings(apiGroup, settingsSvc)
	rest.InitRestHealth(apiGroup)

	websocket.RegisterRoutes(apiGroup, hub)

	// 404 Handler ONLY for API group to prevent fallthrough
	apiGroup.All("/*", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "API Endpoint not found",
			"path":  c.Path(),
		})
	})

	if err := app.Listen(":" + cfg.App.Port); err != nil {
		logrus.Fatalln("Failed to start: ", err.Error())
	}
}
