package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/MikeMC777/retail-pos/docs"
	"github.com/MikeMC777/retail-pos/internal/config"
	"github.com/MikeMC777/retail-pos/internal/httpx"
	"github.com/MikeMC777/retail-pos/internal/order"
	"github.com/MikeMC777/retail-pos/internal/product"
)

// @title        Retail POS API
// @version      1.0
// @description  Product catalog and point-of-sale checkout for a computer-parts store.
// @BasePath     /
func main() {
	cfg := config.Load()
	// the till reads money as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	ctx := context.Background()
	be, err := openBackend(ctx, cfg)
	if err != nil {
		log.Fatalf("[server] open store: %v", err)
	}
	if _, err := product.Seed(ctx, be.products); err != nil {
		_ = be.close()
		log.Fatalf("[seed] %v", err)
	}

	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger(), httpx.CORS(cfg.CORSOrigins))
	registerRoutes(r, product.NewService(be.products), order.NewService(be.orders), be.ping)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("[server] pos-server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[server] listen: %v", err)
		}
	}()

	wait := gfshutdown.GracefulShutdown(ctx, cfg.ShutdownTimeout, map[string]gfshutdown.Operation{
		// one operation: the store must outlive in-flight requests
		"http-then-store": func(ctx context.Context) error {
			log.Println("[server] shutting down")
			httpErr := srv.Shutdown(ctx)
			return errors.Join(httpErr, be.close())
		},
	})
	code := <-wait
	log.Printf("[server] exited with code %d", code)
	os.Exit(code)
}
