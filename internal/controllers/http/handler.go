package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sadhef/Ri-carts-sub001/internal/auth"
	"github.com/sadhef/Ri-carts-sub001/internal/domain"
	"github.com/sadhef/Ri-carts-sub001/internal/ratelimit"
	"github.com/sadhef/Ri-carts-sub001/internal/services"
)

type Handler struct {
	orders      *services.OrderService
	payments    *services.PaymentService
	fulfillment *services.FulfillmentService
	refunds     *services.RefundService
	products    *services.ProductService
}

func NewHandler(
	orders *services.OrderService,
	payments *services.PaymentService,
	fulfillment *services.FulfillmentService,
	refunds *services.RefundService,
	products *services.ProductService,
) *Handler {
	return &Handler{
		orders:      orders,
		payments:    payments,
		fulfillment: fulfillment,
		refunds:     refunds,
		products:    products,
	}
}

// NewRouter builds the engine with recovery, request logging and rate
// limiting in front of every route. limiter may be nil.
func NewRouter(h *Handler, jwtSecret []byte, limiter *ratelimit.Limiter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger())
	if limiter != nil {
		r.Use(limiter.Middleware())
	}
	h.RegisterRoutes(r, auth.Middleware(jwtSecret))
	return r
}

func (h *Handler) RegisterRoutes(r *gin.Engine, authMW gin.HandlerFunc) {
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/products/:id", h.GetProduct)

	user := r.Group("/", authMW)
	user.POST("/orders", h.CreateOrder)
	user.GET("/orders", h.ListOrders)
	user.GET("/orders/:id", h.GetOrder)
	user.POST("/orders/:id/payment-intent", h.CreatePaymentIntent)
	user.POST("/payments/verify", h.VerifyPayment)

	admin := r.Group("/admin", authMW, auth.RequireAdmin())
	admin.GET("/orders", h.ListAllOrders)
	admin.POST("/orders/:id/tracking", h.AssignTracking)
	admin.PUT("/orders/:id/status", h.UpdateStatus)
	admin.POST("/orders/:id/refund", h.Refund)
	admin.POST("/products", h.CreateProduct)
	admin.PATCH("/products/:id/stock", h.AdjustStock)
}

func callerFrom(c *gin.Context) services.Caller {
	s, _ := auth.SessionFrom(c)
	return services.Caller{UserID: s.UserID, Admin: s.Admin}
}

func idParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, domain.NewError(domain.CodeValidation, "invalid id %q", c.Param("id")))
		return 0, false
	}
	return id, true
}

func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	res, err := h.orders.CreateOrder(c.Request.Context(), req.toInput(callerFrom(c).UserID))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, CreateOrderResponse{
		ID:          res.ID,
		OrderNumber: res.OrderNumber,
		Status:      res.Status,
		TotalAmount: res.TotalAmount,
	})
}

func (h *Handler) ListOrders(c *gin.Context) {
	orders, err := h.orders.ListOrders(c.Request.Context(), callerFrom(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) GetOrder(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	order, err := h.orders.GetOrder(c.Request.Context(), callerFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) CreatePaymentIntent(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	pi, err := h.payments.CreatePaymentIntent(c.Request.Context(), callerFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, PaymentIntentResponse{
		GatewayOrderID: pi.GatewayOrderID,
		Amount:         pi.Amount,
		Currency:       pi.Currency,
		KeyID:          pi.KeyID,
		Name:           pi.Name,
		Email:          pi.Email,
		Phone:          pi.Phone,
		OrderNumber:    pi.OrderNumber,
	})
}

func (h *Handler) VerifyPayment(c *gin.Context) {
	var req VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	res, err := h.payments.VerifyPayment(c.Request.Context(), callerFrom(c), services.VerifyPaymentInput{
		OrderID:          req.OrderID,
		GatewayOrderID:   req.GatewayOrderID,
		GatewayPaymentID: req.GatewayPaymentID,
		Signature:        req.Signature,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, VerifyPaymentResponse{
		Success:       res.Success,
		Amount:        res.Amount,
		Status:        res.Status,
		PaymentStatus: res.PaymentStatus,
		OrderNumber:   res.OrderNumber,
	})
}

func (h *Handler) ListAllOrders(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	orders, err := h.orders.ListAllOrders(c.Request.Context(), c.Query("status"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) AssignTracking(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req AssignTrackingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	order, err := h.fulfillment.AssignTracking(c.Request.Context(), id, req.TrackingNumber)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	order, err := h.fulfillment.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) Refund(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	res, err := h.refunds.Refund(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, RefundResponse{
		OrderID:     res.OrderID,
		OrderNumber: res.OrderNumber,
		RefundID:    res.RefundID,
		Amount:      res.Amount,
		Status:      res.Status,
	})
}

func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	p, err := h.products.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	p, err := h.products.CreateProduct(c.Request.Context(), services.CreateProductInput{
		Name:         req.Name,
		SKU:          req.SKU,
		Price:        req.Price,
		ComparePrice: req.ComparePrice,
		Image:        req.Image,
		Stock:        req.Stock,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) AdjustStock(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	p, err := h.products.AdjustStock(c.Request.Context(), id, req.Delta)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
