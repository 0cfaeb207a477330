package main

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/retail-pos/internal/httpx"
	"github.com/MikeMC777/retail-pos/internal/order"
	"github.com/MikeMC777/retail-pos/internal/product"
)

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.BadRequest(c, "invalid id")
		return 0, false
	}
	return id, true
}

// registerRoutes mounts the catalog, checkout and health endpoints.
func registerRoutes(r gin.IRouter, products *product.Service, orders *order.Service, ping func(context.Context) error) {
	r.GET("/healthz", healthHandler(ping))

	p := r.Group("/products")
	p.GET("", listProductsHandler(products))
	p.POST("", createProductHandler(products))
	p.GET("/:id", getProductHandler(products))
	p.PUT("/:id", updateProductHandler(products))
	p.DELETE("/:id", deleteProductHandler(products))

	pos := r.Group("/pos")
	pos.POST("/posSave", createOrderHandler(orders))
	pos.GET("/orders", listOrdersHandler(orders))
	pos.GET("/orders/:id", getOrderHandler(orders))
	pos.DELETE("/orders/:id", deleteOrderHandler(orders))
}

// healthHandler godoc
// @Summary      Health check
// @Tags         health
// @Produce      plain
// @Success      200  {string}  string  "ok"
// @Failure      503  {object}  httpx.HTTPError
// @Router       /healthz [get]
func healthHandler(ping func(context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := ping(c.Request.Context()); err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, httpx.HTTPError{Error: err.Error()})
			return
		}
		c.String(http.StatusOK, "ok")
	}
}

// listProductsHandler godoc
// @Summary      List products
// @Description  Every product in the catalog, by id.
// @Tags         products
// @Produce      json
// @Success      200  {array}   product.Product
// @Failure      503  {object}  httpx.HTTPError
// @Router       /products [get]
func listProductsHandler(svc *product.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		ps, err := svc.List(c.Request.Context())
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, ps)
	}
}

// getProductHandler godoc
// @Summary      Get product
// @Tags         products
// @Produce      json
// @Param        id   path      int  true  "Product ID"
// @Success      200  {object}  product.Product
// @Failure      400  {object}  httpx.HTTPError
// @Failure      404  {object}  httpx.HTTPError
// @Router       /products/{id} [get]
func getProductHandler(svc *product.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		p, err := svc.Get(c.Request.Context(), id)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// createProductHandler godoc
// @Summary      Create product
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        product  body      product.CreateProductRequest  true  "New product"
// @Success      201      {object}  product.Product
// @Failure      400      {object}  httpx.HTTPError
// @Router       /products [post]
func createProductHandler(svc *product.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in product.CreateProductRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.BadRequest(c, "invalid json: "+err.Error())
			return
		}
		p, err := svc.Create(c.Request.Context(), in)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusCreated, p)
	}
}

// updateProductHandler godoc
// @Summary      Replace product
// @Description  Overwrites every field; the product must exist.
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id       path      int                           true  "Product ID"
// @Param        product  body      product.CreateProductRequest  true  "Replacement"
// @Success      200      {object}  product.Product
// @Failure      400      {object}  httpx.HTTPError
// @Failure      404      {object}  httpx.HTTPError
// @Router       /products/{id} [put]
func updateProductHandler(svc *product.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		var in product.CreateProductRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.BadRequest(c, "invalid json: "+err.Error())
			return
		}
		p, err := svc.Update(c.Request.Context(), id, in)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// deleteProductHandler godoc
// @Summary      Delete product
// @Tags         products
// @Param        id   path  int  true  "Product ID"
// @Success      204
// @Failure      400  {object}  httpx.HTTPError
// @Router       /products/{id} [delete]
func deleteProductHandler(svc *product.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		if err := svc.Delete(c.Request.Context(), id); err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// createOrderHandler godoc
// @Summary      Record a sale
// @Description  Stores the order and its items as computed by the till.
// @Tags         pos
// @Accept       json
// @Produce      json
// @Param        order  body      order.CreateOrderRequest  true  "Sale"
// @Success      201    {object}  order.Order
// @Failure      400    {object}  httpx.HTTPError
// @Router       /pos/posSave [post]
func createOrderHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in order.CreateOrderRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.BadRequest(c, "invalid json: "+err.Error())
			return
		}
		o, err := svc.Create(c.Request.Context(), in)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusCreated, o)
	}
}

// listOrdersHandler godoc
// @Summary      Recent sales
// @Tags         pos
// @Produce      json
// @Param        limit   query     int  false  "Page size (default 20, max 100)"
// @Param        offset  query     int  false  "Offset"
// @Success      200     {array}   order.Order
// @Failure      400     {object}  httpx.HTTPError
// @Router       /pos/orders [get]
func listOrdersHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
		if err != nil {
			httpx.BadRequest(c, "invalid limit")
			return
		}
		offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
		if err != nil {
			httpx.BadRequest(c, "invalid offset")
			return
		}
		sales, err := svc.List(c.Request.Context(), limit, offset)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, sales)
	}
}

// getOrderHandler godoc
// @Summary      Get sale
// @Tags         pos
// @Produce      json
// @Param        id   path      int  true  "Order ID"
// @Success      200  {object}  order.Order
// @Failure      404  {object}  httpx.HTTPError
// @Router       /pos/orders/{id} [get]
func getOrderHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		o, err := svc.Get(c.Request.Context(), id)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

// deleteOrderHandler godoc
// @Summary      Delete sale
// @Tags         pos
// @Param        id   path  int  true  "Order ID"
// @Success      204
// @Router       /pos/orders/{id} [delete]
func deleteOrderHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		if err := svc.Delete(c.Request.Context(), id); err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
